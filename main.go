// Package main provides the entry point for the episodekeeper application.
// It removes lower-quality duplicate episode files from a media directory and
// normalizes episode filenames that carry a trailing sub-episode letter.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gertd/go-pluralize"
	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/torre76/episodekeeper/organizer"
	"github.com/torre76/episodekeeper/probe"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Private constants (alphabetical)
const (
	// envPrefix prefixes the environment variables bound to the global flags.
	envPrefix = "EPISODEKEEPER_"
)

// Private variables (alphabetical)

// logCloser closes the rotating log file opened by --log-file, if any.
var logCloser io.Closer

// newProber builds the resolution prober for a command.
// Tests replace it with a deterministic fake.
var newProber = buildProber

// Public variables (alphabetical)

// BuildDate contains the date when the binary was built.
// This value is set during build using ldflags.
var BuildDate = "unknown"

// Commit contains the git commit hash that the binary was built from.
// This value is set during build using ldflags.
var Commit = "unknown"

// Version contains the current version of the application.
// This value can be overridden during build using ldflags:
// go build -ldflags="-X 'main.Version=v1.0.0'"
var Version = "Development Version"

// Private types (alphabetical)

// session carries the console streams and options of one command run.
type session struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	dryRun bool
	yes    bool
}

// Private functions (alphabetical)

// buildProber detects the configured metadata tool and creates its prober.
// A missing tool is reported but not fatal: every file then probes as unknown.
func buildProber(c *cli.Context) (probe.Prober, error) {
	regularStyle := color.New(color.Reset)
	valueStyle := color.New(color.Bold)
	warnStyle := color.New(color.FgYellow)

	tool := c.String("tool")

	var info *probe.ToolInfo
	var err error
	if toolPath := c.String("tool-path"); toolPath != "" {
		info, err = probe.DetectAt(tool, toolPath)
	} else {
		info, err = probe.Detect(tool)
	}
	if err != nil {
		return nil, fmt.Errorf("error detecting %s: %w", tool, err)
	}

	w := c.App.Writer
	if info.Installed {
		regularStyle.Fprintf(w, "🔧 Using %s at ", info.Name)
		valueStyle.Fprintf(w, "%s", info.Path)
		regularStyle.Fprintf(w, " (version ")
		valueStyle.Fprintf(w, "%s", info.Version)
		regularStyle.Fprintln(w, ")")
	} else {
		warnStyle.Fprintf(w, "⚠️ %s not found, every resolution will be reported as unknown\n", info.Name)
		log.Warn().Str("tool", info.Name).Msg("metadata tool not found")
	}

	return probe.New(info)
}

// formatResolution renders a probed height for display.
func formatResolution(height int) string {
	if height == probe.SentinelResolution {
		return "unknown"
	}
	return fmt.Sprintf("%dp", height)
}

// newSession builds a session from the CLI context.
func newSession(c *cli.Context) *session {
	return &session{
		in:     bufio.NewReader(c.App.Reader),
		out:    c.App.Writer,
		errOut: c.App.ErrWriter,
		dryRun: c.Bool("dry-run"),
		yes:    c.Bool("yes"),
	}
}

// readLine reads one line of user input and trims it.
// A final line without newline is returned normally; io.EOF is only returned
// when nothing was read.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// resolveRoot reads the ROOT argument and checks that it is an existing directory.
func resolveRoot(c *cli.Context) (string, error) {
	errorStyle := color.New(color.FgRed)
	regularStyle := color.New(color.Reset)

	if c.NArg() < 1 {
		errorStyle.Fprintf(c.App.Writer, "❌ Error: missing required argument: ROOT\n\n")
		regularStyle.Fprintf(c.App.Writer, "Usage: %s [options] ROOT\n", c.App.Name)
		regularStyle.Fprintf(c.App.Writer, "Run '%s --help' for more information.\n", c.App.Name)
		return "", fmt.Errorf("missing required argument: ROOT")
	}

	return organizer.CheckRoot(c.Args().Get(0))
}

// setupLogging configures the global zerolog logger: a console writer on
// stderr and, with --log-file, a rotating JSON log file.
func setupLogging(c *cli.Context) error {
	level := zerolog.InfoLevel
	if c.Bool("verbose") {
		level = zerolog.DebugLevel
	}

	var console io.Writer = c.App.ErrWriter
	if f, ok := console.(*os.File); ok && f == os.Stderr {
		console = colorable.NewColorableStderr()
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        console,
			NoColor:    color.NoColor,
			TimeFormat: time.Kitchen,
		},
	}

	if logFile := c.String("log-file"); logFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		writers = append(writers, rotating)
		logCloser = rotating
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

func versionPrinter(c *cli.Context) {
	summaryStyle := color.New(color.FgCyan, color.Bold)
	valueStyle := color.New(color.Bold)
	regularStyle := color.New(color.Reset)

	summaryStyle.Fprintf(c.App.Writer, "📼 EpisodeKeeper %s\n", Version)
	regularStyle.Fprintf(c.App.Writer, "  🛠️ Build date: ")
	valueStyle.Fprintf(c.App.Writer, "%s\n", BuildDate)
	regularStyle.Fprintf(c.App.Writer, "  🔍 Commit: ")
	valueStyle.Fprintf(c.App.Writer, "%s\n", Commit)
}

// Private methods (alphabetical)

// confirm asks a yes/no question. Only "y", after trimming and lowercasing,
// is affirmative; end of input counts as a refusal. --yes skips the question.
func (s *session) confirm(question string) (bool, error) {
	if s.yes {
		return true, nil
	}

	fmt.Fprintf(s.out, "\n%s (Y/N): ", question)
	answer, err := readLine(s.in)
	if err != nil {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return false, nil
		}
		return false, fmt.Errorf("error reading confirmation: %w", err)
	}

	return strings.ToLower(answer) == "y", nil
}

// dedupe runs the duplicate resolution pass and deletes the losers on confirmation.
func (s *session) dedupe(root string, prober probe.Prober) error {
	summaryStyle := color.New(color.FgCyan, color.Bold)
	valueStyle := color.New(color.Bold)
	regularStyle := color.New(color.Reset)
	successStyle := color.New(color.FgGreen)
	pluralizeClient := pluralize.NewClient()

	candidates, err := organizer.Scan(root)
	if err != nil {
		return fmt.Errorf("error scanning %s: %w", root, err)
	}
	log.Debug().Int("candidates", len(candidates)).Str("root", root).Msg("scan complete")

	var progress organizer.Progress
	var bar *progressbar.ProgressBar
	if len(candidates) > 0 {
		bar = progressbar.NewOptions(len(candidates),
			progressbar.OptionSetWriter(s.errOut),
			progressbar.OptionSetDescription("🔍 Probing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		progress = bar
	}
	organizer.Measure(candidates, prober, progress)
	if bar != nil {
		_ = bar.Finish()
	}

	result := organizer.Resolve(candidates)

	if len(result.Deletes) == 0 {
		regularStyle.Fprintln(s.out, "No lower-quality files found for deletion.")
		return nil
	}

	heights := make(map[string]int, len(candidates))
	for _, c := range candidates {
		heights[c.Path] = c.Resolution
	}

	summaryStyle.Fprintf(s.out, "\n🗑️ The following %d lower-quality %s will be deleted:\n\n",
		len(result.Deletes), pluralizeClient.Pluralize("file", len(result.Deletes), false))
	for _, path := range result.Deletes {
		regularStyle.Fprintf(s.out, " - %s ", path)
		valueStyle.Fprintf(s.out, "[%s]\n", formatResolution(heights[path]))
	}

	if s.dryRun {
		regularStyle.Fprintln(s.out, "\nDry run. No files were deleted.")
		return nil
	}

	ok, err := s.confirm("Do you want to proceed?")
	if err != nil {
		return err
	}
	if !ok {
		regularStyle.Fprintln(s.out, "\nOperation canceled. No files were deleted.")
		return nil
	}

	err = organizer.ApplyDeletes(result.Deletes, func(path string) {
		regularStyle.Fprintf(s.out, "Deleted: %s\n", path)
	})
	if err != nil {
		return err
	}

	successStyle.Fprintln(s.out, "\n✅ Deletion complete.")
	return nil
}

// normalize runs the filename normalization pass and renames on confirmation.
func (s *session) normalize(root string) error {
	summaryStyle := color.New(color.FgCyan, color.Bold)
	regularStyle := color.New(color.Reset)
	successStyle := color.New(color.FgGreen)
	pluralizeClient := pluralize.NewClient()

	plan, err := organizer.PlanRenames(root)
	if err != nil {
		return fmt.Errorf("error scanning %s: %w", root, err)
	}

	if len(plan) == 0 {
		regularStyle.Fprintln(s.out, "No files found that need renaming.")
		return nil
	}

	summaryStyle.Fprintf(s.out, "\n✏️ The following %d %s will be renamed:\n\n",
		len(plan), pluralizeClient.Pluralize("file", len(plan), false))
	for _, entry := range plan {
		regularStyle.Fprintf(s.out, " - %s -> %s\n", entry.OldPath, entry.NewPath)
	}

	if s.dryRun {
		regularStyle.Fprintln(s.out, "\nDry run. No files were renamed.")
		return nil
	}

	ok, err := s.confirm("Do you want to proceed?")
	if err != nil {
		return err
	}
	if !ok {
		regularStyle.Fprintln(s.out, "\nOperation canceled. No files were renamed.")
		return nil
	}

	err = organizer.ApplyRenames(plan, func(entry organizer.RenamePlanEntry) {
		regularStyle.Fprintf(s.out, "Renamed: %s -> %s\n", entry.OldPath, entry.NewPath)
	})
	if err != nil {
		return err
	}

	successStyle.Fprintln(s.out, "\n✅ Renaming complete.")
	return nil
}

// Public functions (alphabetical)

// dedupeCommand implements the dedupe command.
func dedupeCommand(c *cli.Context) error {
	root, err := resolveRoot(c)
	if err != nil {
		return err
	}

	prober, err := newProber(c)
	if err != nil {
		return err
	}

	return newSession(c).dedupe(root, prober)
}

// menuCommand implements the default action: it asks which pass to run.
func menuCommand(c *cli.Context) error {
	regularStyle := color.New(color.Reset)
	errorStyle := color.New(color.FgRed)

	root, err := resolveRoot(c)
	if err != nil {
		return err
	}

	s := newSession(c)

	regularStyle.Fprintln(s.out, "\nChoose an option:")
	regularStyle.Fprintln(s.out, "1 - Remove duplicate lower-quality episodes")
	regularStyle.Fprintln(s.out, "2 - Remove any letter next to episode numbers (e.g., S05E03c -> S05E03)")
	fmt.Fprint(s.out, "\nEnter your choice (1 or 2): ")

	choice, err := readLine(s.in)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("error reading choice: %w", err)
	}

	switch choice {
	case "1":
		prober, err := newProber(c)
		if err != nil {
			return err
		}
		return s.dedupe(root, prober)
	case "2":
		return s.normalize(root)
	default:
		errorStyle.Fprintln(s.out, "\nInvalid choice. Exiting.")
		return nil
	}
}

// normalizeCommand implements the normalize command.
func normalizeCommand(c *cli.Context) error {
	root, err := resolveRoot(c)
	if err != nil {
		return err
	}

	return newSession(c).normalize(root)
}

// newApp builds the CLI application.
func newApp() *cli.App {
	return &cli.App{
		Name:  "episodekeeper",
		Usage: "Remove duplicate episodes and normalize episode filenames",
		Description: "EpisodeKeeper walks a media directory, keeps the highest-resolution copy of every " +
			"episode (SxxEyy) and strips trailing sub-episode letters from filenames (S05E03c -> S05E03).\n\n" +
			"Without a command, ROOT opens the interactive menu. A ROOT named like a command " +
			"must be written as a path (./dedupe or an absolute path), otherwise it runs that command.",
		Authors: []*cli.Author{
			{
				Name: "Gian Luca Dalla Torre",
			},
		},
		Version:   Version,
		Action:    menuCommand,
		ArgsUsage: "ROOT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tool",
				Aliases: []string{"t"},
				Usage:   "Metadata tool used to read video resolution (" + strings.Join(probe.SupportedTools(), " or ") + ")",
				Value:   probe.ToolMediaInfo,
				EnvVars: []string{envPrefix + "TOOL"},
			},
			&cli.StringFlag{
				Name:    "tool-path",
				Usage:   "Explicit path to the metadata tool executable",
				EnvVars: []string{envPrefix + "TOOL_PATH"},
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Apply the plan without asking for confirmation",
				EnvVars: []string{envPrefix + "YES"},
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Show the plan without changing any file",
				EnvVars: []string{envPrefix + "DRY_RUN"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable debug logging",
				EnvVars: []string{envPrefix + "VERBOSE"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Also write JSON logs to this file (rotated)",
				EnvVars: []string{envPrefix + "LOG_FILE"},
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Usage:   "Disable colored output",
				EnvVars: []string{envPrefix + "NO_COLOR", "NO_COLOR"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "dedupe",
				Usage:     "Delete lower-resolution duplicates of the same episode",
				ArgsUsage: "ROOT",
				Action:    dedupeCommand,
			},
			{
				Name:      "normalize",
				Usage:     "Remove the letter following episode numbers (S05E03c -> S05E03)",
				ArgsUsage: "ROOT",
				Action:    normalizeCommand,
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			return setupLogging(c)
		},
		After: func(c *cli.Context) error {
			if logCloser != nil {
				err := logCloser.Close()
				logCloser = nil
				return err
			}
			return nil
		},
	}
}

// main is the entry point of the application.
func main() {
	// Override the default version printer
	cli.VersionPrinter = versionPrinter

	if err := newApp().Run(os.Args); err != nil {
		errorStyle := color.New(color.FgRed)
		errorStyle.Fprintf(os.Stderr, "⚠️ Error: %v\n", err)
		os.Exit(1)
	}
}
