package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Render a markdown document once",
	Long: `Render a markdown document to the terminal in one pass.

Examples:
  mdstream render README.md
  mdstream render - < notes.md
  mdstream render doc.md --no-color --width 60`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	text, path, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	view, sess, _, loader := newTerminalSession(out, path)
	preloadImages(cmd.Context(), loader, sess.Layout(text))
	sess.Render(text)

	stats := sess.Stats()
	logger.Debug("rendered", "blocks", len(sess.Handles()), "appended", stats.Appended)
	_, err = fmt.Fprintln(out, view.Render(sess.Handles()))
	return err
}
