// Package episode extracts season/episode identifiers from media filenames.
// It recognizes the SxxEyy form, optionally followed by a single disambiguation
// letter (S05E03c), and offers the helpers used to strip that letter again.
package episode

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Private variables (alphabetical)

// identifierRegex matches the first SxxEyy code in a filename, with an optional
// trailing letter. Matching is case-insensitive.
var identifierRegex = regexp.MustCompile(`[Ss](\d{2})[Ee](\d{2})([A-Za-z]?)`)

// letteredRegex matches an SxxEyy code immediately followed by exactly one letter.
// The first submatch is the code without the letter.
var letteredRegex = regexp.MustCompile(`([Ss]\d{2}[Ee]\d{2})[A-Za-z]`)

// videoExtensions lists the extensions considered video files, lowercased.
var videoExtensions = map[string]bool{
	".avi": true,
	".mkv": true,
	".mov": true,
	".mp4": true,
	".wmv": true,
}

// Public types (alphabetical)

// Identifier is an episode code parsed from a filename.
// Text keeps the case as it appeared in the filename, including the letter.
type Identifier struct {
	// Text is the matched code, e.g. "S03E07b".
	Text string

	// Season is the two-digit season number.
	Season int

	// Episode is the two-digit episode number.
	Episode int

	// Letter is the disambiguation letter, empty when absent.
	Letter string
}

// Match describes a lettered episode code found in a filename.
type Match struct {
	// Full is the matched text including the letter, e.g. "S05E03c".
	Full string

	// Base is the matched text without the letter, e.g. "S05E03".
	Base string
}

// Public functions (alphabetical)

// FindLettered returns the first episode code in name that is followed by
// exactly one letter. Codes without a letter are ignored.
func FindLettered(name string) (Match, bool) {
	m := letteredRegex.FindStringSubmatch(name)
	if m == nil {
		return Match{}, false
	}
	return Match{Full: m[0], Base: m[1]}, true
}

// IsVideo reports whether name carries one of the recognized video extensions.
// The comparison ignores case.
func IsVideo(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// Parse extracts the first episode identifier from name.
// It returns false when name contains no SxxEyy code.
func Parse(name string) (Identifier, bool) {
	m := identifierRegex.FindStringSubmatch(name)
	if m == nil {
		return Identifier{}, false
	}

	season, _ := strconv.Atoi(m[1])
	ep, _ := strconv.Atoi(m[2])

	return Identifier{
		Text:    m[0],
		Season:  season,
		Episode: ep,
		Letter:  m[3],
	}, true
}

// StripLetter returns name with the disambiguation letter removed from its
// first lettered episode code. Every occurrence of that exact code is
// rewritten; other lettered codes are left alone.
func StripLetter(name string) (string, bool) {
	m, ok := FindLettered(name)
	if !ok {
		return name, false
	}
	return strings.ReplaceAll(name, m.Full, m.Base), true
}

// Type methods (alphabetical)

// Base returns the identifier without its disambiguation letter.
func (id Identifier) Base() string {
	return strings.TrimSuffix(id.Text, id.Letter)
}

// HasLetter reports whether the identifier carries a disambiguation letter.
func (id Identifier) HasLetter() bool {
	return id.Letter != ""
}

// String returns the identifier as it appeared in the filename.
func (id Identifier) String() string {
	return id.Text
}
