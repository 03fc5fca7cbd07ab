package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/samsaffron/mdstream/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/mdstream/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colors and inline images")
	rootCmd.PersistentFlags().IntVarP(&widthFlag, "width", "w", 0, "Render width in columns (default: terminal width)")
}

var rootCmd = &cobra.Command{
	Use:   "mdstream",
	Short: "Render streaming markdown in the terminal",
	Long: `mdstream renders markdown documents, including math, code, tables and
images, and can replay them as a growing stream the way an LLM writes them.

Examples:
  mdstream render README.md             # render once
  mdstream stream notes.md              # animated reveal
  cat answer.md | mdstream stream -     # read stdin
  mdstream nodes doc.md --format json   # dump render nodes
  mdstream preview doc.md --first       # first paragraph as plain text
  mdstream config                       # view configuration`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

var (
	configFile string
	noColor    bool
	widthFlag  int

	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	l, closer, err := newLogger(c.Log)
	if err != nil {
		return err
	}
	cfg, logger, logCloser = c, l, closer
	logger.Debug("config loaded", "path", c.Path)
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}

// newLogger builds the logger described by lc. Without a log file all
// records are discarded, since the terminal belongs to the output.
func newLogger(lc config.LogConfig) (*slog.Logger, io.Closer, error) {
	level, err := lc.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	if lc.File == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil
	}
	f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(f, opts)
	if lc.Format == "json" {
		h = slog.NewJSONHandler(f, opts)
	}
	return slog.New(h), f, nil
}
