// Package organizer implements the two passes run over a media directory tree:
// duplicate resolution, which keeps the highest-resolution copy of each episode,
// and filename normalization, which strips a trailing sub-episode letter.
// Both passes only compute plans; ApplyDeletes and ApplyRenames carry them out.
package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Public variables (alphabetical)

// ErrNotDirectory is returned when the root path exists but is not a directory.
var ErrNotDirectory = errors.New("path is not a directory")

// ErrRootNotFound is returned when the root path does not exist.
var ErrRootNotFound = errors.New("path does not exist")

// Private functions (alphabetical)

// componentLogger returns the global logger tagged for this package.
func componentLogger() zerolog.Logger {
	return log.Logger.With().Str("component", "organizer").Logger()
}

// isDirLink reports whether the symlink at path points to a directory.
// Directory links are not descended into and are not treated as files.
func isDirLink(path string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// walkFiles calls fn for every regular file (or file symlink) under root, in
// lexical order within each directory. Unreadable subdirectories are logged and skipped.
// A symlinked root is followed; reported paths stay under root as given.
func walkFiles(root string, fn func(path string, d fs.DirEntry) error) error {
	logger := componentLogger()

	walkRoot := root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		walkRoot = resolved
	}

	return filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil && path == walkRoot {
			return err
		}
		if walkRoot != root {
			rel, relErr := filepath.Rel(walkRoot, path)
			if relErr != nil {
				return relErr
			}
			path = filepath.Join(root, rel)
		}
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}
		if d.IsDir() || isDirLink(path, d) {
			return nil
		}
		return fn(path, d)
	})
}

// Public functions (alphabetical)

// CheckRoot validates the root directory and returns its absolute path.
// It fails with ErrRootNotFound or ErrNotDirectory before any work begins.
func CheckRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("error resolving path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrRootNotFound, absRoot)
		}
		return "", fmt.Errorf("error reading %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, absRoot)
	}

	return absRoot, nil
}
