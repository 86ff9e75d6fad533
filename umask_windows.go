//go:build windows

package config

import "os"

// umaskMode is a no-op where there is no process umask.
func umaskMode(mode os.FileMode) os.FileMode {
	return mode
}
