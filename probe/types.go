package probe

import (
	"github.com/rs/zerolog"
)

// Public types (alphabetical)

// FFprobeProber reads the height of the first video stream with ffprobe.
type FFprobeProber struct {
	// Path is the full path to the ffprobe executable.
	Path string

	log zerolog.Logger
}

// MediaInfoProber reads the height of the video track with the mediainfo CLI.
type MediaInfoProber struct {
	// Path is the full path to the mediainfo executable.
	Path string

	log zerolog.Logger
}

// Prober returns the vertical resolution of a video file.
// Implementations never fail: an unreadable file yields SentinelResolution.
type Prober interface {
	Resolution(path string) int
}

// ToolInfo contains information about an external metadata tool installation.
type ToolInfo struct {
	// Name is the backend name, ToolMediaInfo or ToolFFprobe.
	Name string
	// Installed is true if the tool was found on the system.
	Installed bool
	// Path is the full path to the executable.
	Path string
	// Version is the version reported by the tool, "unknown" when it could not be read.
	Version string
}
