package config

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Override scripts are Lua. The interpreter is sandboxed: only the
// base, string, table and math libraries are open, the chunk loading
// builtins are removed, and require resolves solely against the
// whitelisted builtins and the package module registry. Scripts see a
// single binding, the config under its root name, and every assignment
// through it runs the full field write protocol with the "load" label.

// scriptRun carries per-execution state shared by the Go callbacks
// installed into the Lua state. Field errors are stashed here so they
// survive the round trip through Lua's error handling intact.
type scriptRun struct {
	L    *lua.LState
	root *Config
	err  error

	cfgMeta  *lua.LTable
	cplxMeta *lua.LTable
}

// Load executes an override script file against the config. The root
// binding defaults to "config"; files written for the legacy "root"
// binding are retried under that name with a warning.
func (c *Config) Load(path string) error {
	return c.LoadWithRoot(path, "config")
}

// LoadWithRoot executes an override script file with the config bound
// under the given root name.
func (c *Config) LoadWithRoot(path, root string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config script: %w", err)
	}
	return c.loadScript(string(data), path, root)
}

// LoadString executes an override script given as source text. The
// root binding defaults to "config".
func (c *Config) LoadString(src string) error {
	return c.loadScript(src, "<string>", "config")
}

// LoadReader executes an override script read from r. The root binding
// defaults to "config".
func (c *Config) LoadReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read config script: %w", err)
	}
	return c.loadScript(string(data), "<reader>", "config")
}

// LoadStringWithRoot executes an override script given as source text
// with the config bound under the given root name.
func (c *Config) LoadStringWithRoot(src, root string) error {
	return c.loadScript(src, "<string>", root)
}

func (c *Config) loadScript(src, chunk, root string) error {
	err := c.runScript(src, chunk, root)
	if err == nil || root != "config" {
		return err
	}
	// Scripts that predate the "config" binding address the object as
	// "root". Strict globals surface that as an undeclared read.
	if strings.Contains(err.Error(), `undeclared global "root"`) {
		warnf("warning: %s is not using the config binding; retrying with the legacy root binding", chunk)
		return c.runScript(src, chunk, "root")
	}
	return err
}

func (c *Config) runScript(src, chunk, root string) error {
	run := &scriptRun{root: c}
	L := newScriptState(run)
	defer L.Close()

	L.SetGlobal(root, wrapConfig(run, c))

	fn, err := L.Load(strings.NewReader(src), chunk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScriptFormat, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		if run.err != nil {
			return run.err
		}
		return fmt.Errorf("failed to execute config script: %w", err)
	}
	return nil
}

// newScriptState builds the sandboxed interpreter.
func newScriptState(run *scriptRun) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	run.L = L

	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.StringLibName, lua.OpenString},
		{lua.TabLibName, lua.OpenTable},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	// The interpreter defines math.huge as the largest finite float;
	// rebind it to a true IEEE infinity so scripts that assign it
	// produce an infinity rather than a near-overflow finite value.
	if mathTable, ok := L.GetGlobal("math").(*lua.LTable); ok {
		L.SetField(mathTable, "huge", lua.LNumber(math.Inf(1)))
	}

	// Chunk loading would let a script escape the sandbox.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
	installRequire(run)
	installStrictGlobals(L)

	run.cfgMeta = newConfigMetatable(run)
	run.cplxMeta = newComplexMetatable(L)

	L.SetGlobal("schemaname", L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		conf, ok := ud.Value.(*Config)
		if !ok {
			L.ArgError(1, "expected a config object")
			return 0
		}
		L.Push(lua.LString(conf.schema.name))
		return 1
	}))
	L.SetGlobal("complex", L.NewFunction(func(L *lua.LState) int {
		re := float64(L.CheckNumber(1))
		im := float64(L.OptNumber(2, 0))
		L.Push(wrapComplex(run, complex(re, im)))
		return 1
	}))

	return L
}

// installRequire replaces require with a whitelist resolver: the safe
// builtin libraries pass through, registered script modules are
// preloaded on demand and recorded on the config, everything else is
// rejected.
func installRequire(run *scriptRun) {
	L := run.L
	builtins := map[string]bool{"string": true, "table": true, "math": true}

	pkg := L.GetGlobal("package")
	if pkgTable, ok := pkg.(*lua.LTable); ok {
		L.SetField(pkgTable, "path", lua.LString(""))
		L.SetField(pkgTable, "cpath", lua.LString(""))
	}

	originalRequire := L.GetGlobal("require")
	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)

		if builtins[name] {
			L.Push(L.GetGlobal(name))
			return 1
		}
		if loader, ok := moduleLoader(name); ok {
			L.PreloadModule(name, loader)
			run.root.imports[name] = struct{}{}
			L.Push(originalRequire)
			L.Push(lua.LString(name))
			L.Call(1, 1)
			return 1
		}

		L.RaiseError("module %q is not available", name)
		return 0
	}))
}

// installStrictGlobals makes reads of undeclared globals raise instead
// of yielding nil. A typo in a field path then fails loudly, and the
// legacy root fallback can tell a missing binding apart from other
// script errors.
func installStrictGlobals(L *lua.LState) {
	mt := L.NewTable()
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		L.RaiseError("undeclared global %q", name)
		return 0
	}))
	L.SetMetatable(L.Get(lua.GlobalsIndex), mt)
}

// scriptFrame captures the script location of the currently executing
// Lua statement, for history provenance. The innermost levels may be Go
// callbacks without line information, so the nearest Lua frame wins.
func scriptFrame(L *lua.LState) Frame {
	for level := 0; level <= 3; level++ {
		dbg, ok := L.GetStack(level)
		if !ok {
			break
		}
		if _, err := L.GetInfo("Sl", dbg, lua.LNil); err != nil {
			continue
		}
		if dbg.CurrentLine > 0 {
			return Frame{Function: "script", File: dbg.Source, Line: dbg.CurrentLine}
		}
	}
	return Frame{Function: "script"}
}

// wrapConfig exposes a config to Lua as userdata whose index
// metamethods route through the field protocol.
func wrapConfig(run *scriptRun, conf *Config) *lua.LUserData {
	ud := run.L.NewUserData()
	ud.Value = conf
	run.L.SetMetatable(ud, run.cfgMeta)
	return ud
}

func wrapComplex(run *scriptRun, v complex128) *lua.LUserData {
	ud := run.L.NewUserData()
	ud.Value = v
	run.L.SetMetatable(ud, run.cplxMeta)
	return ud
}

func newConfigMetatable(run *scriptRun) *lua.LTable {
	L := run.L
	mt := L.NewTable()

	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		conf := checkConfigValue(L)
		name := L.CheckString(2)
		f, ok := conf.schema.Field(name)
		if !ok {
			run.fail(fmt.Errorf("%w: no field of name %q exists in config type %s",
				ErrUnknownField, name, conf.schema.name))
			return 0
		}
		L.Push(goToLua(run, f, f.get(conf, Origin{scriptFrame(L)})))
		return 1
	}))

	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		conf := checkConfigValue(L)
		name := L.CheckString(2)
		f, ok := conf.schema.Field(name)
		if !ok {
			run.fail(fmt.Errorf("%w: no field of name %q exists in config type %s",
				ErrUnknownField, name, conf.schema.name))
			return 0
		}
		value, err := luaToGo(f, L.Get(3))
		if err != nil {
			run.fail(err)
			return 0
		}
		if err := f.set(conf, value, Origin{scriptFrame(L)}, labelLoad); err != nil {
			run.fail(err)
			return 0
		}
		return 0
	}))

	return mt
}

func newComplexMetatable(L *lua.LState) *lua.LTable {
	mt := L.NewTable()
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		v, _ := ud.Value.(complex128)
		L.Push(lua.LString(fmt.Sprintf("complex(%g, %g)", real(v), imag(v))))
		return 1
	}))
	return mt
}

func checkConfigValue(L *lua.LState) *Config {
	ud := L.CheckUserData(1)
	conf, ok := ud.Value.(*Config)
	if !ok {
		L.ArgError(1, "expected a config object")
	}
	return conf
}

// fail stashes a Go error and aborts the script. The stash preserves
// the typed error across Lua's string-based error propagation.
func (run *scriptRun) fail(err error) {
	run.err = err
	run.L.RaiseError("%s", err.Error())
}

// luaToGo converts a script value toward the field's declared type.
// Tables have no field type and are rejected.
func luaToGo(f *Field, lv lua.LValue) (any, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(v), nil
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		n := float64(v)
		switch f.Type {
		case TypeInt:
			if n == float64(int64(n)) {
				return int64(n), nil
			}
			return n, nil
		case TypeComplex:
			return complex(n, 0), nil
		default:
			return n, nil
		}
	case *lua.LUserData:
		switch inner := v.Value.(type) {
		case *Config:
			return inner, nil
		case complex128:
			return inner, nil
		}
		return nil, fmt.Errorf("%w: unsupported script value for field %q", ErrScriptFormat, f.name)
	default:
		return nil, fmt.Errorf("%w: unsupported script value of type %s for field %q",
			ErrScriptFormat, lv.Type().String(), f.name)
	}
}

// goToLua converts a stored field value for script consumption.
func goToLua(run *scriptRun, f *Field, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case complex128:
		return wrapComplex(run, x)
	case *Config:
		return wrapConfig(run, x)
	default:
		return lua.LString(fmt.Sprintf("%v", x))
	}
}
