// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by FindUp when no ancestor holds any marker.
var ErrNotFound = errors.New("no marker file found")

// FindUp walks from start towards the file system root and returns the first
// directory that contains one of the marker files. Markers are checked in
// order within each directory.
func FindUp(start string, markers ...string) (string, error) {
	if len(markers) == 0 {
		panic("markers must not be empty")
	}

	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		for _, m := range markers {
			_, err := os.Stat(filepath.Join(dir, m))
			if err == nil {
				return dir, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", err
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}
