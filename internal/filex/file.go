// Package filex holds small filesystem helpers shared by the student-side
// stores.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and any missing parents) and returns its path.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// EnsureSubDir creates a subdirectory of base and returns its path.
func EnsureSubDir(base, name string) (string, error) {
	return EnsureDir(filepath.Join(base, name))
}
