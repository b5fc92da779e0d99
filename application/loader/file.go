package loader

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("file not found")

// ReadFile returns the contents of the regular file at path as text.
func ReadFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %q", path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errors.Wrapf(ErrNotFound, "%s", abs)
		}
		return "", errors.Wrapf(err, "stat %s", abs)
	}
	if !info.Mode().IsRegular() {
		return "", errors.Wrapf(ErrNotFound, "%s is not a regular file", abs)
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", abs)
	}

	return string(b), nil
}
