package organizer

import (
	"fmt"
	"os"
)

// Public functions (alphabetical)

// ApplyDeletes removes every path in order. It stops at the first failure and
// returns it; files already removed stay removed. onDeleted, when not nil, is
// called after each successful removal.
func ApplyDeletes(paths []string, onDeleted func(path string)) error {
	logger := componentLogger()

	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("error deleting %s: %w", path, err)
		}
		logger.Info().Str("file", path).Msg("deleted")
		if onDeleted != nil {
			onDeleted(path)
		}
	}
	return nil
}

// ApplyRenames renames every entry in order. It stops at the first failure and
// returns it; files already renamed keep their new name. onRenamed, when not nil,
// is called after each successful rename.
func ApplyRenames(entries []RenamePlanEntry, onRenamed func(entry RenamePlanEntry)) error {
	logger := componentLogger()

	for _, entry := range entries {
		if err := os.Rename(entry.OldPath, entry.NewPath); err != nil {
			return fmt.Errorf("error renaming %s: %w", entry.OldPath, err)
		}
		logger.Info().Str("from", entry.OldPath).Str("to", entry.NewPath).Msg("renamed")
		if onRenamed != nil {
			onRenamed(entry)
		}
	}
	return nil
}
