package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samsaffron/mdstream/internal/markdown"
	"github.com/samsaffron/mdstream/internal/render"
)

var nodesFormat string

var nodesCmd = &cobra.Command{
	Use:   "nodes [file|-]",
	Short: "Print the render nodes of a document",
	Long: `Parse and lay out a document and print the resulting render node
sequence, one entry per visual block.

Examples:
  mdstream nodes doc.md
  mdstream nodes doc.md --format json | jq '.[].kind'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNodes,
}

func init() {
	nodesCmd.Flags().StringVarP(&nodesFormat, "format", "f", "yaml", "Output format: yaml or json")
	rootCmd.AddCommand(nodesCmd)
}

type runDump struct {
	Text   string   `yaml:"text" json:"text"`
	Math   string   `yaml:"math,omitempty" json:"math,omitempty"`
	Styles []string `yaml:"styles,omitempty,flow" json:"styles,omitempty"`
	Link   string   `yaml:"link,omitempty" json:"link,omitempty"`
}

type itemDump struct {
	Level int       `yaml:"level" json:"level"`
	Runs  []runDump `yaml:"runs" json:"runs"`
}

type nodeDump struct {
	Kind     string        `yaml:"kind" json:"kind"`
	Level    int           `yaml:"level,omitempty" json:"level,omitempty"`
	Runs     []runDump     `yaml:"runs,omitempty" json:"runs,omitempty"`
	Language string        `yaml:"language,omitempty" json:"language,omitempty"`
	Code     string        `yaml:"code,omitempty" json:"code,omitempty"`
	Latex    string        `yaml:"latex,omitempty" json:"latex,omitempty"`
	Ordered  bool          `yaml:"ordered,omitempty" json:"ordered,omitempty"`
	Start    int           `yaml:"start,omitempty" json:"start,omitempty"`
	Items    []itemDump    `yaml:"items,omitempty" json:"items,omitempty"`
	Align    []string      `yaml:"align,omitempty,flow" json:"align,omitempty"`
	Headers  [][]runDump   `yaml:"headers,omitempty" json:"headers,omitempty"`
	Rows     [][][]runDump `yaml:"rows,omitempty" json:"rows,omitempty"`
	Source   string        `yaml:"source,omitempty" json:"source,omitempty"`
	Alt      string        `yaml:"alt,omitempty" json:"alt,omitempty"`
	Title    string        `yaml:"title,omitempty" json:"title,omitempty"`
}

func runNodes(cmd *cobra.Command, args []string) error {
	text, _, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	nodes := newEngine().Layout(markdown.Parse(text))
	return writeNodes(cmd.OutOrStdout(), nodes, nodesFormat)
}

func writeNodes(w io.Writer, nodes []render.Node, format string) error {
	dump := make([]nodeDump, len(nodes))
	for i, n := range nodes {
		dump[i] = dumpNode(n)
	}
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(dump); err != nil {
			return fmt.Errorf("failed to encode nodes: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dump)
	}
	return fmt.Errorf("unknown format %q (want yaml or json)", format)
}

func dumpRuns(runs []render.Fragment) []runDump {
	out := make([]runDump, len(runs))
	for i, f := range runs {
		d := runDump{Text: f.Display(), Link: f.Style.Link}
		if f.IsMath() {
			d.Text = f.Text
			d.Math = f.Math.String()
		}
		s := f.Style
		for _, flag := range []struct {
			on   bool
			name string
		}{
			{s.Bold, "bold"}, {s.Italic, "italic"}, {s.Strikethrough, "strike"}, {s.Code, "code"},
		} {
			if flag.on {
				d.Styles = append(d.Styles, flag.name)
			}
		}
		if s.Scale != 0 {
			d.Styles = append(d.Styles, fmt.Sprintf("scale=%g", s.Scale))
		}
		out[i] = d
	}
	return out
}

var alignNames = map[render.Alignment]string{
	render.AlignNone:   "none",
	render.AlignLeft:   "left",
	render.AlignCenter: "center",
	render.AlignRight:  "right",
}

func dumpNode(n render.Node) nodeDump {
	d := nodeDump{Kind: n.Kind().String()}
	switch x := n.(type) {
	case render.Text:
		d.Level = x.Level
		d.Runs = dumpRuns(x.Runs)
	case render.Quote:
		d.Runs = dumpRuns(x.Runs)
	case render.CodeBlock:
		d.Language, d.Code = x.Language, x.Code
	case render.MathBlock:
		d.Latex = x.Latex
	case render.List:
		d.Ordered, d.Start = x.Ordered, x.Start
		for _, it := range x.Items {
			d.Items = append(d.Items, itemDump{Level: it.Level, Runs: dumpRuns(it.Runs)})
		}
	case render.Table:
		for _, a := range x.Align {
			d.Align = append(d.Align, alignNames[a])
		}
		for _, h := range x.Headers {
			d.Headers = append(d.Headers, dumpRuns(h))
		}
		for _, row := range x.Rows {
			cells := make([][]runDump, len(row))
			for i, c := range row {
				cells[i] = dumpRuns(c)
			}
			d.Rows = append(d.Rows, cells)
		}
	case render.Image:
		d.Source, d.Alt, d.Title = x.Source, x.AltText, x.Title
	}
	return d
}
