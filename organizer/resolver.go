package organizer

import (
	"io/fs"
	"path/filepath"

	"github.com/torre76/episodekeeper/episode"
	"github.com/torre76/episodekeeper/probe"
)

// Public types (alphabetical)

// Candidate is a video file that carries an episode identifier.
type Candidate struct {
	// Path is the file path, rooted at the scanned directory.
	Path string

	// ID is the episode identifier parsed from the file name, letter included.
	ID episode.Identifier

	// Resolution is the probed vertical resolution, probe.SentinelResolution when unknown.
	Resolution int
}

// DedupeResult is the outcome of duplicate resolution.
type DedupeResult struct {
	// Deletes lists the files to remove, in the order they were displaced.
	Deletes []string

	// Kept lists the surviving file of each identifier, ordered by the first
	// appearance of the identifier.
	Kept []Candidate
}

// Progress receives one tick per probed file.
// *progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(num int) error
}

// Public functions (alphabetical)

// FindLowerQuality scans root, probes every candidate and resolves duplicates.
// progress may be nil.
func FindLowerQuality(root string, prober probe.Prober, progress Progress) (*DedupeResult, error) {
	candidates, err := Scan(root)
	if err != nil {
		return nil, err
	}

	Measure(candidates, prober, progress)

	return Resolve(candidates), nil
}

// Measure fills the Resolution of every candidate, one file at a time.
// progress may be nil.
func Measure(candidates []Candidate, prober probe.Prober, progress Progress) {
	logger := componentLogger()

	for i := range candidates {
		candidates[i].Resolution = prober.Resolution(candidates[i].Path)
		logger.Debug().
			Str("file", candidates[i].Path).
			Str("episode", candidates[i].ID.String()).
			Int("resolution", candidates[i].Resolution).
			Msg("probed")

		if progress != nil {
			_ = progress.Add(1)
		}
	}
}

// Resolve keeps the highest-resolution candidate of every identifier.
// Candidates are processed in order: the first one seen, or one with a strictly
// higher resolution, becomes the best and displaces the previous best into the
// delete list. Every other candidate, ties included, is deleted itself.
// Identifiers are compared exactly as matched, so "S01E01a" and "S01E01" form
// separate groups.
func Resolve(candidates []Candidate) *DedupeResult {
	result := &DedupeResult{
		Deletes: []string{},
		Kept:    []Candidate{},
	}
	best := make(map[string]int) // identifier -> index in result.Kept

	for _, c := range candidates {
		key := c.ID.String()

		idx, seen := best[key]
		switch {
		case !seen:
			best[key] = len(result.Kept)
			result.Kept = append(result.Kept, c)
		case c.Resolution > result.Kept[idx].Resolution:
			result.Deletes = append(result.Deletes, result.Kept[idx].Path)
			result.Kept[idx] = c
		default:
			result.Deletes = append(result.Deletes, c.Path)
		}
	}

	return result
}

// Scan walks root and returns every video file carrying an episode identifier,
// in walk order. Other files are ignored entirely.
func Scan(root string) ([]Candidate, error) {
	logger := componentLogger()
	candidates := []Candidate{}

	err := walkFiles(root, func(path string, d fs.DirEntry) error {
		name := d.Name()
		if !episode.IsVideo(name) {
			return nil
		}

		id, ok := episode.Parse(name)
		if !ok {
			logger.Debug().Str("file", path).Msg("no episode identifier, skipping")
			return nil
		}

		candidates = append(candidates, Candidate{
			Path: filepath.Clean(path),
			ID:   id,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return candidates, nil
}
