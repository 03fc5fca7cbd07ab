package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samsaffron/mdstream/internal/markdown"
)

var previewFirst bool

var previewCmd = &cobra.Command{
	Use:   "preview [file|-]",
	Short: "Print a document as plain text",
	Long: `Strip all markdown formatting and print the plain text, for previews
and notifications.

Examples:
  mdstream preview doc.md
  mdstream preview doc.md --first    # first paragraph, source markdown`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().BoolVar(&previewFirst, "first", false, "Print only the first paragraph's source")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	text, _, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	out := markdown.StripToPlainText(text)
	if previewFirst {
		out = markdown.FirstParagraph(text)
	}
	if out == "" {
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
