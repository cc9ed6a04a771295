// Package main provides the terminal client for playing a puzzle by game code.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/robalobadob/connections/internal/client"
	"github.com/robalobadob/connections/internal/codes"
	"github.com/robalobadob/connections/internal/config"
	"github.com/robalobadob/connections/internal/game"
	"github.com/robalobadob/connections/internal/play"
	"github.com/robalobadob/connections/internal/store"
	"github.com/robalobadob/connections/internal/tui"
)

const (
	defaultAPI      = "http://localhost:5175"
	defaultLogLevel = "info"
)

var (
	playAPI        string
	playDB         string
	playFresh      bool
	playRetries    int
	playRetryDelay string
	playLogLevel   string
	playShuffle    bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "play <code>",
		Short:        "Play a word-grouping puzzle in the terminal",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playAPI, "api", defaultAPI, "base URL of the game-data service")
	rootCmd.Flags().StringVar(&playDB, "db", config.DefaultDBPath(), "checkpoint database path")
	rootCmd.Flags().BoolVar(&playFresh, "fresh", false, "ignore any saved progress for this game")
	rootCmd.Flags().IntVar(&playRetries, "retries", client.DefaultMaxRetries, "retries after a failed puzzle download")
	rootCmd.Flags().StringVar(&playRetryDelay, "retry-delay", client.DefaultRetryDelay.String(), "delay between download attempts")
	rootCmd.Flags().StringVar(&playLogLevel, "log-level", defaultLogLevel, "log level (written to the log file)")
	rootCmd.Flags().BoolVar(&playShuffle, "shuffle", false, "shuffle the board on start")

	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, args []string) error {
	code := codes.Normalize(args[0])
	if !codes.Valid(code) {
		return fmt.Errorf("invalid game code %q", args[0])
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "api", &playAPI, fileCfg.Play.API)
	applyStringConfig(cmd, "db", &playDB, fileCfg.Play.DB)
	applyIntConfig(cmd, "retries", &playRetries, fileCfg.Play.Retries)
	applyStringConfig(cmd, "retry-delay", &playRetryDelay, fileCfg.Play.RetryDelay)
	applyStringConfig(cmd, "log-level", &playLogLevel, fileCfg.Play.LogLevel)
	applyBoolConfig(cmd, "shuffle", &playShuffle, fileCfg.Play.Shuffle)

	delay, err := time.ParseDuration(playRetryDelay)
	if err != nil {
		return fmt.Errorf("invalid --retry-delay: %w", err)
	}
	if playRetries < 0 {
		return fmt.Errorf("--retries must be >= 0")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("play needs an interactive terminal")
	}

	logger, closeLog, err := openLog(config.DefaultLogPath(), playLogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	db, err := store.OpenSQLite(playDB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	checkpoints := store.NewAsync(db, logger)
	defer func() {
		if cerr := checkpoints.Close(); cerr != nil {
			logErrf("failed to flush checkpoints: %v\n", cerr)
		}
		if cerr := db.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	api := client.New(playAPI, logger)
	loader := client.NewLoader(api, logger)
	loader.MaxRetries = playRetries
	loader.Delay = delay
	reporter := client.NewReporter(api, logger)
	defer reporter.Wait()

	deps := play.Deps{
		Loader:      loader,
		Checkpoints: checkpoints,
		Reporter:    reporter,
		Log:         logger,
		Fresh:       playFresh,
	}
	open := func(ctx context.Context) (*game.Session, error) {
		return play.Open(ctx, deps, code)
	}

	model := tui.NewModel(open, tui.Options{Code: code, Shuffle: playShuffle, Log: logger})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// openLog sends logs to a file because the TUI owns the terminal.
func openLog(path, level string) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("invalid --log-level: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("failed to open log: %w", err)
	}
	logger := newLogger(f, lvl)
	return logger, func() {
		// Best-effort close.
		_ = f.Close()
	}, nil
}

func newLogger(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("component", "play").Logger()
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeDefaultConfig(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeDefaultConfig creates the config file unless it already exists.
func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# connections play configuration
# Uncomment a value to enable it. CLI flags override config values.

[play]
# api = %q
# db = %q
# retries = %d              # Retries after a failed puzzle download
# retry-delay = %q         # Delay between download attempts
# log-level = %q
# shuffle = false           # Shuffle the board on start
`,
		defaultAPI,
		config.DefaultDBPath(),
		client.DefaultMaxRetries,
		client.DefaultRetryDelay.String(),
		defaultLogLevel,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
