package probe

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// Private variables (alphabetical)

// versionArgs holds the arguments that make each tool print its version.
var versionArgs = map[string][]string{
	ToolFFprobe:   {"-version"},
	ToolMediaInfo: {"--Version"},
}

// versionRegexes extract the numeric version from each tool's version output.
// ffprobe prints "ffprobe version 6.1.1 ...", mediainfo prints "MediaInfoLib - v23.04".
var versionRegexes = map[string]*regexp.Regexp{
	ToolFFprobe:   regexp.MustCompile(`(?i)version\s+n?(\d+\.\d+(?:\.\d+)?)`),
	ToolMediaInfo: regexp.MustCompile(`(?i)\bv(\d+\.\d+(?:\.\d+)?)`),
}

// Private functions (alphabetical)

// checkToolExistence looks for the tool executable, first in PATH and then in
// the common installation directories of the current OS.
func checkToolExistence(tool string) (string, bool) {
	if path, err := exec.LookPath(executableName(tool)); err == nil {
		return path, true
	}

	for _, path := range getCommonInstallPaths(tool) {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	return "", false
}

// executableName returns the file name of the tool executable on this OS.
func executableName(tool string) string {
	if runtime.GOOS == "windows" {
		return tool + ".exe"
	}
	return tool
}

// extractVersion pulls the version number out of a tool's version output.
// It returns "unknown" when the output carries no recognizable version.
func extractVersion(tool, output string) string {
	re, ok := versionRegexes[tool]
	if !ok {
		return "unknown"
	}
	matches := re.FindStringSubmatch(output)
	if len(matches) < 2 {
		return "unknown"
	}
	return matches[1]
}

// getCommonInstallPaths returns the usual installation paths of tool for the current OS.
func getCommonInstallPaths(tool string) []string {
	execName := executableName(tool)

	switch runtime.GOOS {
	case "windows":
		searchPaths := []string{
			filepath.Join("C:", "Program Files", "MediaInfo", execName),
			filepath.Join("C:", "Program Files", "FFmpeg", "bin", execName),
			filepath.Join("C:", "FFmpeg", "bin", execName),
		}
		if programFiles := os.Getenv("ProgramFiles"); programFiles != "" {
			searchPaths = append(searchPaths,
				filepath.Join(programFiles, "MediaInfo", execName),
				filepath.Join(programFiles, "FFmpeg", "bin", execName))
		}
		return searchPaths
	case "darwin":
		return []string{
			filepath.Join("/usr", "local", "bin", execName),
			filepath.Join("/opt", "local", "bin", execName),
			filepath.Join("/opt", "homebrew", "bin", execName),
		}
	default:
		return []string{
			filepath.Join("/usr", "bin", execName),
			filepath.Join("/usr", "local", "bin", execName),
			filepath.Join("/snap", "bin", execName),
		}
	}
}

// getToolVersion runs the tool's version command and extracts the version.
func getToolVersion(tool, path string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, versionArgs[tool]...).Output()
	if err != nil {
		return "unknown", FormatError("error getting %s version: %w", tool, err)
	}
	return extractVersion(tool, string(output)), nil
}

// isSupportedTool reports whether tool names a known backend.
func isSupportedTool(tool string) bool {
	_, ok := versionArgs[tool]
	return ok
}

// Public functions (alphabetical)

// Detect locates the given tool on the system and reads its version.
// A tool that cannot be found is reported with Installed set to false and no error;
// an unknown tool name is an error.
func Detect(tool string) (*ToolInfo, error) {
	tool = strings.ToLower(strings.TrimSpace(tool))
	if !isSupportedTool(tool) {
		return nil, FormatError("unsupported tool %q (supported: %s)", tool, strings.Join(SupportedTools(), ", "))
	}

	path, found := checkToolExistence(tool)
	if !found {
		return &ToolInfo{
			Name:    tool,
			Version: "unknown",
		}, nil
	}

	return DetectAt(tool, path)
}

// DetectAt describes the tool found at an explicit executable path.
// An executable that exists but fails to report its version is still considered
// installed, with an unknown version.
func DetectAt(tool, path string) (*ToolInfo, error) {
	tool = strings.ToLower(strings.TrimSpace(tool))
	if !isSupportedTool(tool) {
		return nil, FormatError("unsupported tool %q (supported: %s)", tool, strings.Join(SupportedTools(), ", "))
	}

	resolved, err := exec.LookPath(path)
	if err != nil {
		return &ToolInfo{
			Name:    tool,
			Path:    path,
			Version: "unknown",
		}, nil
	}

	version, _ := getToolVersion(tool, resolved)

	return &ToolInfo{
		Name:      tool,
		Installed: true,
		Path:      resolved,
		Version:   version,
	}, nil
}
