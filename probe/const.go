// Package probe reads the vertical resolution of video files through an
// external metadata tool. MediaInfo is the default backend, FFprobe is
// available as an alternative.
package probe

import (
	"fmt"
	"time"
)

// Private constants (alphabetical)
const (
	// errorPrefix is used as a prefix for all error messages from this package.
	errorPrefix = "probe: "

	// versionTimeout bounds the version query run while detecting a tool.
	// Resolution probes themselves are never timed out.
	versionTimeout = 10 * time.Second
)

// Public constants (alphabetical)
const (
	// SentinelResolution is returned when the height of a file cannot be read.
	// It cannot be told apart from a genuine zero-height result.
	SentinelResolution = 0

	// ToolFFprobe names the FFprobe backend.
	ToolFFprobe = "ffprobe"

	// ToolMediaInfo names the MediaInfo backend.
	ToolMediaInfo = "mediainfo"
)

// Public functions (alphabetical)

// FormatError creates a standardized error message with the package prefix.
// All errors from this package go through it so they can be identified as
// originating from the probe package.
func FormatError(format string, args ...interface{}) error {
	return fmt.Errorf(errorPrefix+format, args...)
}

// SupportedTools returns the backend names accepted by Detect and New.
func SupportedTools() []string {
	return []string{ToolMediaInfo, ToolFFprobe}
}
