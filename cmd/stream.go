package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/samsaffron/mdstream/internal/reveal"
	"github.com/samsaffron/mdstream/internal/ui"
)

var (
	streamInterval  time.Duration
	streamPushChunk int
	streamRaw       bool
)

var streamCmd = &cobra.Command{
	Use:   "stream [file|-]",
	Short: "Reveal a markdown document as a growing stream",
	Long: `Replay a markdown document the way a token stream writes it, re-rendering
the growing text on every step.

By default an adaptive controller releases larger chunks while much text
remains and smaller ones near the end. --push-chunk instead pushes fixed
chunks, like an upstream token source would.

Keys: q quit, s skip to end, p pause/resume, arrows/pgup/pgdn scroll.

Examples:
  mdstream stream answer.md
  mdstream stream answer.md --interval 30ms
  mdstream stream answer.md --push-chunk 12
  mdstream stream answer.md --raw          # typewriter the source, no TUI`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStream,
}

func init() {
	streamCmd.Flags().DurationVar(&streamInterval, "interval", 0, "Time between reveal steps (default reveal.interval)")
	streamCmd.Flags().IntVar(&streamPushChunk, "push-chunk", 0, "Push fixed chunks of N bytes instead of adaptive reveal")
	streamCmd.Flags().BoolVar(&streamRaw, "raw", false, "Write the revealed source text without rendering")
	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	text, path, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	interval := cfg.Reveal.Interval
	if streamInterval > 0 {
		interval = streamInterval
	}

	if streamRaw {
		return typewrite(cmd, text, interval)
	}

	out := cmd.OutOrStdout()
	view, sess, styles, _ := newTerminalSession(out, path)

	var model *ui.Model
	if streamPushChunk > 0 {
		feed := reveal.NewFeed(logger)
		defer sess.Attach(feed)()
		model = ui.NewFeedModel(view, sess, styles, feed, text, streamPushChunk, interval)
	} else {
		ctrl := reveal.NewController(
			reveal.WithInterval(interval),
			reveal.WithPolicy(cfg.Policy()),
			reveal.WithLogger(logger))
		defer sess.Attach(ctrl)()
		model = ui.NewModel(view, sess, styles, ctrl, text)
	}

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(cmd.Context()), tea.WithOutput(out)}
	if path == "" {
		// The document came from stdin; keys come from the terminal.
		opts = append(opts, tea.WithInputTTY())
	}
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("stream: %w", err)
	}
	stats := sess.Stats()
	logger.Debug("stream finished", "reused", stats.Reused, "skipped", stats.Skipped,
		"replaced", stats.Replaced, "appended", stats.Appended, "truncated", stats.Truncated)
	return nil
}

// typewrite reveals text with a headless controller and writes each newly
// revealed piece to the output. The run ends at the first completion.
func typewrite(cmd *cobra.Command, text string, interval time.Duration) error {
	out := cmd.OutOrStdout()
	ctrl := reveal.NewController(
		reveal.WithInterval(interval),
		reveal.WithPolicy(cfg.Policy()),
		reveal.WithLogger(logger))

	var written int
	var writeErr error
	emit := func(s reveal.Snapshot) {
		if writeErr != nil || s.Revealed <= written {
			return
		}
		_, writeErr = io.WriteString(out, s.Text[written:])
		written = s.Revealed
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	defer ctrl.Subscribe(emit)()
	defer ctrl.OnComplete(func(s reveal.Snapshot) {
		emit(s)
		cancel()
	})()

	ctrl.Start(text)
	if err := ctrl.Run(ctx); err != nil && ctrl.State() != reveal.Completed {
		return err
	}
	if writeErr != nil {
		return writeErr
	}
	if written > 0 && text[written-1] != '\n' {
		_, err := fmt.Fprintln(out)
		return err
	}
	return nil
}
