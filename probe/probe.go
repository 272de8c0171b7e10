package probe

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Private functions (alphabetical)

// componentLogger returns the global logger tagged for this package.
func componentLogger(tool string) zerolog.Logger {
	return log.Logger.With().Str("component", "probe").Str("tool", tool).Logger()
}

// parseHeight converts the raw tool output into a height.
// The trimmed output must be made of ASCII digits only.
func parseHeight(output []byte) (int, error) {
	value := strings.TrimSpace(string(output))
	if value == "" {
		return 0, FormatError("empty output")
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, FormatError("non-numeric output %q", value)
		}
	}

	height, err := strconv.Atoi(value)
	if err != nil {
		return 0, FormatError("error parsing height %q: %w", value, err)
	}
	return height, nil
}

// runHeight executes a probe command and parses its standard output.
func runHeight(path string, args ...string) (int, error) {
	output, err := exec.Command(path, args...).Output()
	if err != nil {
		return 0, FormatError("error running %s: %w", path, err)
	}
	return parseHeight(output)
}

// Public functions (alphabetical)

// New creates the Prober matching the detected tool.
// A tool that is not installed still yields a Prober; every probe then fails
// and returns SentinelResolution.
func New(info *ToolInfo) (Prober, error) {
	if info == nil {
		return nil, FormatError("tool information is required")
	}

	switch info.Name {
	case ToolMediaInfo:
		return NewMediaInfoProber(info.Path), nil
	case ToolFFprobe:
		return NewFFprobeProber(info.Path), nil
	default:
		return nil, FormatError("unsupported tool %q", info.Name)
	}
}

// NewFFprobeProber creates an FFprobeProber running the executable at path.
// An empty path falls back to "ffprobe" looked up in PATH.
func NewFFprobeProber(path string) *FFprobeProber {
	if path == "" {
		path = executableName(ToolFFprobe)
	}
	return &FFprobeProber{
		Path: path,
		log:  componentLogger(ToolFFprobe),
	}
}

// NewMediaInfoProber creates a MediaInfoProber running the executable at path.
// An empty path falls back to "mediainfo" looked up in PATH.
func NewMediaInfoProber(path string) *MediaInfoProber {
	if path == "" {
		path = executableName(ToolMediaInfo)
	}
	return &MediaInfoProber{
		Path: path,
		log:  componentLogger(ToolMediaInfo),
	}
}

// Public methods (alphabetical)

// Height runs ffprobe on filePath and returns the height of the first video stream.
func (p *FFprobeProber) Height(filePath string) (int, error) {
	return runHeight(p.Path,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=height",
		"-of", "csv=p=0",
		filePath)
}

// Resolution returns the height of filePath, or SentinelResolution when ffprobe fails.
func (p *FFprobeProber) Resolution(filePath string) int {
	height, err := p.Height(filePath)
	if err != nil {
		p.log.Warn().Err(err).Str("file", filePath).Msg("error getting resolution")
		return SentinelResolution
	}
	return height
}

// Height runs mediainfo on filePath and returns the height of the video track.
func (p *MediaInfoProber) Height(filePath string) (int, error) {
	return runHeight(p.Path, "--Inform=Video;%Height%", filePath)
}

// Resolution returns the height of filePath, or SentinelResolution when mediainfo fails.
func (p *MediaInfoProber) Resolution(filePath string) int {
	height, err := p.Height(filePath)
	if err != nil {
		p.log.Warn().Err(err).Str("file", filePath).Msg("error getting resolution")
		return SentinelResolution
	}
	return height
}
