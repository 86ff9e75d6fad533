package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes the config to a file as an override script, atomically.
// The config is addressed as "config" in the emitted script.
func (c *Config) Save(path string) error {
	return c.SaveWithRoot(path, "config")
}

// SaveWithRoot writes the config to a file as an override script with
// the given root binding.
func (c *Config) SaveWithRoot(path, root string) error {
	var buf bytes.Buffer
	if err := c.SaveToWriter(&buf, root); err != nil {
		return err
	}
	return atomicWriteFile(path, buf.Bytes())
}

// atomicWriteFile writes data to path through a temporary file in the
// same directory, so readers never observe a partial script. The final
// permissions honor the process umask rather than the restrictive mode
// CreateTemp picks.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, umaskMode(0666)); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
