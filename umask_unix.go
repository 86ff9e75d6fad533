//go:build !windows

package config

import (
	"os"
	"sync"
	"syscall"
)

var umaskOnce = sync.OnceValue(func() int {
	// Umask can only be read by setting it, so restore immediately.
	mask := syscall.Umask(0)
	syscall.Umask(mask)
	return mask
})

// umaskMode applies the process umask to a candidate file mode.
func umaskMode(mode os.FileMode) os.FileMode {
	return mode &^ os.FileMode(umaskOnce())
}
