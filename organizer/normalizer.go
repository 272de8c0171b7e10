package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/torre76/episodekeeper/episode"
)

// Public types (alphabetical)

// RenamePlanEntry is a proposed rename awaiting confirmation.
// Both paths are absolute.
type RenamePlanEntry struct {
	OldPath string
	NewPath string
}

// Private functions (alphabetical)

// pathExists reports whether something exists at path.
// Errors other than "not exist" count as existing so the file is left alone.
func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// Public functions (alphabetical)

// PlanRenames walks root and plans a rename for every file whose name carries
// an episode code followed by a single letter. Only the first such code of a
// name is normalized. Files whose target name already exists on disk are skipped.
// The check runs at plan time only: two entries of the same plan may still
// target the same path.
func PlanRenames(root string) ([]RenamePlanEntry, error) {
	logger := componentLogger()
	plan := []RenamePlanEntry{}

	err := walkFiles(root, func(path string, d fs.DirEntry) error {
		newName, ok := episode.StripLetter(d.Name())
		if !ok {
			return nil
		}

		oldPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("error resolving path %s: %w", path, err)
		}
		newPath, err := filepath.Abs(filepath.Join(filepath.Dir(path), newName))
		if err != nil {
			return fmt.Errorf("error resolving path %s: %w", newName, err)
		}

		if pathExists(newPath) {
			logger.Debug().Str("file", oldPath).Str("target", newPath).Msg("target exists, skipping")
			return nil
		}

		plan = append(plan, RenamePlanEntry{OldPath: oldPath, NewPath: newPath})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return plan, nil
}
