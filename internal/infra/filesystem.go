package infra

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// EnsureDir joins the parts, expands a leading "~" and creates the
// directory tree. Returns the resolved absolute path.
func EnsureDir(parts ...string) (string, error) {
	dir, err := homedir.Expand(filepath.Join(parts...))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
