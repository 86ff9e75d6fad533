package config

import (
	"fmt"
	"io"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// The module registry holds named script modules that override scripts
// may require. A module pulled in during Load is recorded on the config,
// and Save emits a require statement for every recorded module that is
// still registered at save time.

var modules = struct {
	sync.RWMutex
	m map[string]lua.LGFunction
}{m: make(map[string]lua.LGFunction)}

// RegisterModule makes a script module available to the sandboxed
// require of override scripts. The loader follows the gopher-lua module
// convention: it pushes the module table and returns 1.
func RegisterModule(name string, loader lua.LGFunction) {
	modules.Lock()
	defer modules.Unlock()
	modules.m[name] = loader
}

// UnregisterModule removes a script module. Saves performed afterwards
// no longer emit a require statement for it.
func UnregisterModule(name string) {
	modules.Lock()
	defer modules.Unlock()
	delete(modules.m, name)
}

// ModuleRegistered reports whether a script module is currently
// registered.
func ModuleRegistered(name string) bool {
	modules.RLock()
	defer modules.RUnlock()
	_, ok := modules.m[name]
	return ok
}

// moduleLoader returns the loader for a registered module.
func moduleLoader(name string) (lua.LGFunction, bool) {
	modules.RLock()
	defer modules.RUnlock()
	loader, ok := modules.m[name]
	return loader, ok
}

var warnings = struct {
	sync.Mutex
	w io.Writer
}{w: os.Stderr}

// SetWarningWriter redirects the package's diagnostic warnings (such as
// the legacy-root fallback notice during Load). Passing nil silences
// them.
func SetWarningWriter(w io.Writer) {
	warnings.Lock()
	defer warnings.Unlock()
	warnings.w = w
}

// warnf writes a diagnostic warning line.
func warnf(format string, args ...any) {
	warnings.Lock()
	defer warnings.Unlock()
	if warnings.w == nil {
		return
	}
	fmt.Fprintf(warnings.w, format+"\n", args...)
}
