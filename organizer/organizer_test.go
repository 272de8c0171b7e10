package organizer

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/torre76/episodekeeper/episode"
)

// fakeProber returns resolutions keyed by file base name; unknown files get 0.
type fakeProber struct {
	heights map[string]int
	calls   []string
}

func (f *fakeProber) Resolution(path string) int {
	f.calls = append(f.calls, path)
	return f.heights[filepath.Base(path)]
}

// countingProgress records progress ticks.
type countingProgress struct {
	total int
}

func (c *countingProgress) Add(num int) error {
	c.total += num
	return nil
}

// OrganizerTestSuite tests duplicate resolution, normalization and mutation.
type OrganizerTestSuite struct {
	suite.Suite
	root string // Fresh media tree for each test
}

// SetupTest creates an empty media root for each test.
func (s *OrganizerTestSuite) SetupTest() {
	root, err := os.MkdirTemp("", "organizer-test")
	require.NoError(s.T(), err)
	s.root = root
}

// TearDownTest removes the media root.
func (s *OrganizerTestSuite) TearDownTest() {
	os.RemoveAll(s.root)
}

// touch creates an empty file below the media root and returns its path.
func (s *OrganizerTestSuite) touch(rel string) string {
	path := filepath.Join(s.root, rel)
	require.NoError(s.T(), os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(s.T(), os.WriteFile(path, nil, 0644))
	return path
}

// symlink creates a link named rel below the media root pointing at target,
// also relative to the root, and returns the link path.
func (s *OrganizerTestSuite) symlink(target, rel string) string {
	link := filepath.Join(s.root, rel)
	if err := os.Symlink(filepath.Join(s.root, target), link); err != nil {
		s.T().Skipf("symlinks unavailable: %v", err)
	}
	return link
}

// candidate builds a Candidate from a file name and a resolution.
func candidate(name string, resolution int) Candidate {
	id, ok := episode.Parse(name)
	if !ok {
		panic("no identifier in " + name)
	}
	return Candidate{Path: "/media/" + name, ID: id, Resolution: resolution}
}

// TestResolveKeepsHighest verifies that only the best copy survives.
func (s *OrganizerTestSuite) TestResolveKeepsHighest() {
	result := Resolve([]Candidate{
		candidate("Show.S01E01.a.mkv", 480),
		candidate("Show.S01E01.b.mkv", 1080),
		candidate("Show.S01E01.c.mkv", 720),
	})

	assert.Equal(s.T(), []string{"/media/Show.S01E01.a.mkv", "/media/Show.S01E01.c.mkv"}, result.Deletes)
	require.Len(s.T(), result.Kept, 1)
	assert.Equal(s.T(), "/media/Show.S01E01.b.mkv", result.Kept[0].Path)
	assert.Equal(s.T(), 1080, result.Kept[0].Resolution)
}

// TestResolveTies verifies that a tie keeps the first file seen.
func (s *OrganizerTestSuite) TestResolveTies() {
	result := Resolve([]Candidate{
		candidate("first.S02E03.mkv", 720),
		candidate("second.S02E03.mkv", 720),
	})

	assert.Equal(s.T(), []string{"/media/second.S02E03.mkv"}, result.Deletes)
	assert.Equal(s.T(), "/media/first.S02E03.mkv", result.Kept[0].Path)
}

// TestResolveSentinel verifies that unknown resolutions lose to known ones,
// and that the first file is kept when every probe failed.
func (s *OrganizerTestSuite) TestResolveSentinel() {
	result := Resolve([]Candidate{
		candidate("a.S01E01.mkv", 0),
		candidate("b.S01E01.mkv", 480),
		candidate("c.S01E02.mkv", 0),
		candidate("d.S01E02.mkv", 0),
	})

	assert.Equal(s.T(), []string{"/media/a.S01E01.mkv", "/media/d.S01E02.mkv"}, result.Deletes)
	require.Len(s.T(), result.Kept, 2)
	assert.Equal(s.T(), "/media/b.S01E01.mkv", result.Kept[0].Path)
	assert.Equal(s.T(), "/media/c.S01E02.mkv", result.Kept[1].Path)
}

// TestResolveDistinctGroups verifies that identifiers are compared exactly as matched.
func (s *OrganizerTestSuite) TestResolveDistinctGroups() {
	result := Resolve([]Candidate{
		candidate("Show.S01E01.mkv", 480),
		candidate("Show.S01E01a.mkv", 1080),
		candidate("Show.S01E01b.mkv", 720),
	})

	assert.Empty(s.T(), result.Deletes)
	assert.Len(s.T(), result.Kept, 3)
}

// TestResolveEmpty verifies the empty input.
func (s *OrganizerTestSuite) TestResolveEmpty() {
	result := Resolve(nil)
	assert.Empty(s.T(), result.Deletes)
	assert.Empty(s.T(), result.Kept)
}

// TestScan verifies which files become candidates.
func (s *OrganizerTestSuite) TestScan() {
	s.touch("Show.S01E01.mkv")
	s.touch("Season 2/Show.S02E01.AVI")
	s.touch("Show.S01E01.srt")
	s.touch("trailer.mp4")
	s.touch("notes.txt")

	candidates, err := Scan(s.root)
	require.NoError(s.T(), err)
	require.Len(s.T(), candidates, 2)

	var names []string
	for _, c := range candidates {
		names = append(names, filepath.Base(c.Path))
		assert.True(s.T(), filepath.IsAbs(c.Path))
		assert.Zero(s.T(), c.Resolution)
	}
	assert.ElementsMatch(s.T(), []string{"Show.S01E01.mkv", "Show.S02E01.AVI"}, names)
}

// TestScanMissingRoot verifies that a missing root is reported.
func (s *OrganizerTestSuite) TestScanMissingRoot() {
	_, err := Scan(filepath.Join(s.root, "missing"))
	assert.Error(s.T(), err)
}

// TestScanSymlinkedRoot verifies that a root given as a symlink is walked
// and that candidates are reported below the link.
func (s *OrganizerTestSuite) TestScanSymlinkedRoot() {
	s.touch("library/Show.S01E01.mkv")
	s.touch("library/Season 2/Show.S02E01.mkv")
	link := s.symlink("library", "media")

	candidates, err := Scan(link)
	require.NoError(s.T(), err)

	var paths []string
	for _, c := range candidates {
		paths = append(paths, c.Path)
	}
	assert.ElementsMatch(s.T(), []string{
		filepath.Join(link, "Show.S01E01.mkv"),
		filepath.Join(link, "Season 2", "Show.S02E01.mkv"),
	}, paths)
}

// TestScanSkipsDirectorySymlinks verifies that linked subdirectories are not descended into.
func (s *OrganizerTestSuite) TestScanSkipsDirectorySymlinks() {
	s.touch("shows/Show.S01E01.mkv")
	s.touch("elsewhere/Show.S01E02.mkv")
	s.symlink("elsewhere", filepath.Join("shows", "linked"))

	candidates, err := Scan(filepath.Join(s.root, "shows"))
	require.NoError(s.T(), err)
	require.Len(s.T(), candidates, 1)
	assert.Equal(s.T(), filepath.Join(s.root, "shows", "Show.S01E01.mkv"), candidates[0].Path)
}

// TestScanSkipsUnreadableDirectory verifies that an unreadable subdirectory
// does not abort the walk.
func (s *OrganizerTestSuite) TestScanSkipsUnreadableDirectory() {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		s.T().Skip("directory permissions are not enforced for this user")
	}

	s.touch("Show.S01E01.mkv")
	s.touch("locked/Show.S01E02a.mkv")
	locked := filepath.Join(s.root, "locked")
	require.NoError(s.T(), os.Chmod(locked, 0000))
	defer os.Chmod(locked, 0755)

	candidates, err := Scan(s.root)
	require.NoError(s.T(), err)
	require.Len(s.T(), candidates, 1)
	assert.Equal(s.T(), filepath.Join(s.root, "Show.S01E01.mkv"), candidates[0].Path)

	plan, err := PlanRenames(s.root)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), plan)
}

// TestFindLowerQuality runs the full duplicate pass on a real tree.
func (s *OrganizerTestSuite) TestFindLowerQuality() {
	low := s.touch("Show.S01E02.480p.mp4")
	high := s.touch("Show.S01E02.1080p.mp4")
	s.touch("Other/holiday.mp4")
	s.touch("Other/Show.S01E03.mkv")

	prober := &fakeProber{heights: map[string]int{
		"Show.S01E02.480p.mp4":  480,
		"Show.S01E02.1080p.mp4": 1080,
		"Show.S01E03.mkv":       720,
		"holiday.mp4":           2160,
	}}
	progress := &countingProgress{}

	result, err := FindLowerQuality(s.root, prober, progress)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), []string{low}, result.Deletes)
	require.Len(s.T(), result.Kept, 2)
	kept := map[string]int{}
	for _, c := range result.Kept {
		kept[c.Path] = c.Resolution
	}
	assert.Equal(s.T(), map[string]int{
		high: 1080,
		filepath.Join(s.root, "Other", "Show.S01E03.mkv"): 720,
	}, kept)

	// Files without identifier are never probed.
	assert.Len(s.T(), prober.calls, 3)
	assert.NotContains(s.T(), prober.calls, filepath.Join(s.root, "Other", "holiday.mp4"))
	assert.Equal(s.T(), 3, progress.total)
}

// TestFindLowerQualityNilProgress verifies that progress is optional.
func (s *OrganizerTestSuite) TestFindLowerQualityNilProgress() {
	s.touch("a.S01E01.mkv")
	s.touch("b.S01E01.mkv")

	result, err := FindLowerQuality(s.root, &fakeProber{}, nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{filepath.Join(s.root, "b.S01E01.mkv")}, result.Deletes)
}

// TestPlanRenames verifies the normalization plan.
func (s *OrganizerTestSuite) TestPlanRenames() {
	lettered := s.touch("Show/S02E05c.mp4")
	subtitle := s.touch("Show/Show.s01e09B.en.srt")
	s.touch("Show/S02E06.mp4")
	s.touch("Show/notes.txt")

	plan, err := PlanRenames(s.root)
	require.NoError(s.T(), err)

	assert.ElementsMatch(s.T(), []RenamePlanEntry{
		{OldPath: lettered, NewPath: filepath.Join(s.root, "Show", "S02E05.mp4")},
		{OldPath: subtitle, NewPath: filepath.Join(s.root, "Show", "Show.s01e09.en.srt")},
	}, plan)

	for _, entry := range plan {
		assert.True(s.T(), filepath.IsAbs(entry.OldPath))
		assert.True(s.T(), filepath.IsAbs(entry.NewPath))
	}
}

// TestPlanRenamesSkipsExisting verifies that an existing target blocks the rename.
func (s *OrganizerTestSuite) TestPlanRenamesSkipsExisting() {
	s.touch("S02E05c.mp4")
	s.touch("S02E05.mp4")

	plan, err := PlanRenames(s.root)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), plan)
}

// TestPlanRenamesSameTarget verifies that siblings mapping to one name are both planned.
func (s *OrganizerTestSuite) TestPlanRenamesSameTarget() {
	a := s.touch("S01E01a.mkv")
	b := s.touch("S01E01b.mkv")
	target := filepath.Join(s.root, "S01E01.mkv")

	plan, err := PlanRenames(s.root)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []RenamePlanEntry{
		{OldPath: a, NewPath: target},
		{OldPath: b, NewPath: target},
	}, plan)
}

// TestPlanRenamesRelativeRoot verifies that paths are made absolute.
func (s *OrganizerTestSuite) TestPlanRenamesRelativeRoot() {
	s.touch("S03E01a.mkv")

	wd, err := os.Getwd()
	require.NoError(s.T(), err)
	require.NoError(s.T(), os.Chdir(s.root))
	defer os.Chdir(wd)

	plan, err := PlanRenames(".")
	require.NoError(s.T(), err)
	require.Len(s.T(), plan, 1)
	assert.True(s.T(), filepath.IsAbs(plan[0].OldPath))
	assert.Equal(s.T(), "S03E01.mkv", filepath.Base(plan[0].NewPath))
}

// TestPlanRenamesSymlinkedRoot verifies that a symlinked root is normalized
// with paths kept below the link.
func (s *OrganizerTestSuite) TestPlanRenamesSymlinkedRoot() {
	s.touch("library/S04E02a.mkv")
	link := s.symlink("library", "media")

	plan, err := PlanRenames(link)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []RenamePlanEntry{{
		OldPath: filepath.Join(link, "S04E02a.mkv"),
		NewPath: filepath.Join(link, "S04E02.mkv"),
	}}, plan)
}

// TestApplyDeletes verifies deletion and the stop-on-first-failure behaviour.
func (s *OrganizerTestSuite) TestApplyDeletes() {
	a := s.touch("a.S01E01.mkv")
	b := s.touch("b.S01E01.mkv")
	missing := filepath.Join(s.root, "missing.mkv")
	c := s.touch("c.S01E01.mkv")

	var deleted []string
	err := ApplyDeletes([]string{a, b, missing, c}, func(path string) {
		deleted = append(deleted, path)
	})
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), missing)
	assert.Equal(s.T(), []string{a, b}, deleted)

	assert.NoFileExists(s.T(), a)
	assert.NoFileExists(s.T(), b)
	assert.FileExists(s.T(), c)

	require.NoError(s.T(), ApplyDeletes([]string{c}, nil))
	assert.NoFileExists(s.T(), c)
}

// TestApplyRenames verifies renaming and the stop-on-first-failure behaviour.
func (s *OrganizerTestSuite) TestApplyRenames() {
	old := s.touch("S02E05c.mp4")
	plan := []RenamePlanEntry{
		{OldPath: old, NewPath: filepath.Join(s.root, "S02E05.mp4")},
		{OldPath: filepath.Join(s.root, "gone.mkv"), NewPath: filepath.Join(s.root, "S09E09.mkv")},
	}

	var renamed []RenamePlanEntry
	err := ApplyRenames(plan, func(entry RenamePlanEntry) {
		renamed = append(renamed, entry)
	})
	require.Error(s.T(), err)
	assert.Equal(s.T(), plan[:1], renamed)
	assert.NoFileExists(s.T(), old)
	assert.FileExists(s.T(), plan[0].NewPath)
}

// TestCheckRoot verifies root validation.
func (s *OrganizerTestSuite) TestCheckRoot() {
	abs, err := CheckRoot(s.root)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.root, abs)

	_, err = CheckRoot(filepath.Join(s.root, "missing"))
	assert.True(s.T(), errors.Is(err, ErrRootNotFound))

	file := s.touch("file.mkv")
	_, err = CheckRoot(file)
	assert.True(s.T(), errors.Is(err, ErrNotDirectory))
}

// TestOrganizerTestSuite runs the OrganizerTestSuite.
func TestOrganizerTestSuite(t *testing.T) {
	suite.Run(t, new(OrganizerTestSuite))
}
