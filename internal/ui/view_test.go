package ui

import (
	"bytes"
	"context"
	goimage "image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mdimage "github.com/samsaffron/mdstream/internal/image"
	"github.com/samsaffron/mdstream/internal/pipeline"
	"github.com/samsaffron/mdstream/internal/render"
)

func renderPlain(t *testing.T, src string, width int) string {
	t.Helper()
	view := NewTerminalView(plainStyles(), width)
	sess := pipeline.New[*Block](view)
	sess.Render(src)
	return view.Render(sess.Handles())
}

func TestRenderBlocks(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"paragraph", "Hello **world**", "Hello world"},
		{"inline math", "Area $x^2$ here", "Area x² here"},
		{"unrenderable math", `Bad $\frac{a}{b$ here`, `Bad $\frac{a}{b$ here`},
		{"h1 rule", "# Title", "Title\n━━━━━"},
		{"h2", "## Sub", "Sub"},
		{"code", "```go\nx := 1\n```", "go\n  x := 1"},
		{"code without language", "    a\n    b", "  a\n  b"},
		{"list", "- a\n- b\n  - c", "• a\n• b\n  ◦ c"},
		{"ordered", "3. x\n4. y", "3. x\n4. y"},
		{"quote", "> quoted", "┃ quoted"},
		{"image placeholder", "![a chart](chart.png)", "▣ a chart"},
		{"image without alt", "![](chart.png)", "▣ chart.png"},
		{"blocks", "# T\n\npara", "T\n━\n\npara"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderPlain(t, tt.src, 40); got != tt.want {
				t.Errorf("render(%q) =\n%q\nwant\n%q", tt.src, got, tt.want)
			}
		})
	}
}

func TestRenderDivider(t *testing.T) {
	if got := renderPlain(t, "---", 30); got != strings.Repeat("─", 30) {
		t.Errorf("divider = %q", got)
	}
}

func TestRenderMathBlockCentered(t *testing.T) {
	got := renderPlain(t, "```math\nx^2\n```", 40)
	if strings.TrimSpace(got) != "x²" {
		t.Fatalf("math block = %q", got)
	}
	if !strings.HasPrefix(got, strings.Repeat(" ", 19)+"x²") {
		t.Errorf("math block not centered: %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	got := renderPlain(t, "| name | n |\n|:-----|--:|\n| alpha | 1 |\n| b |", 40)
	for _, want := range []string{"╭", "name", "alpha", "│"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	if n := strings.Count(got, "\n") + 1; n != 6 {
		t.Errorf("table has %d lines, want 6:\n%s", n, got)
	}
}

func TestRenderWrapsToWidth(t *testing.T) {
	src := "The quick brown fox jumps over the lazy dog and keeps running across the field.\n\n" +
		"- a list item that is long enough to need wrapping onto another line"
	got := renderPlain(t, src, 24)
	for _, line := range strings.Split(got, "\n") {
		if w := ANSILen(line); w > 24 {
			t.Errorf("line %q is %d wide", line, w)
		}
	}
	if !strings.Contains(got, "\n  ") {
		t.Errorf("list continuation lines should hang under the text:\n%s", got)
	}
}

func TestViewReusesUnchangedBlocks(t *testing.T) {
	view := NewTerminalView(plainStyles(), 40)
	sess := pipeline.New[*Block](view)

	sess.Render("first\n\nsecond")
	view.Render(sess.Handles())
	if got := view.Renders(); got != 2 {
		t.Fatalf("renders after first pass = %d, want 2", got)
	}

	sess.Render("first\n\nsecond and more")
	if got := view.Render(sess.Handles()); got != "first\n\nsecond and more" {
		t.Errorf("render = %q", got)
	}
	if got := view.Renders(); got != 3 {
		t.Errorf("renders after growth = %d, want 3", got)
	}

	view.Render(sess.Handles())
	if got := view.Renders(); got != 3 {
		t.Errorf("unchanged frame re-rendered: %d", got)
	}

	view.SetWidth(60)
	view.Render(sess.Handles())
	if got := view.Renders(); got != 5 {
		t.Errorf("renders after resize = %d, want 5", got)
	}
}

func TestViewDestroyedBlocksRenderEmpty(t *testing.T) {
	view := NewTerminalView(plainStyles(), 40)
	b := view.Create(render.Text{Runs: []render.Fragment{{Text: "x"}}})
	view.Destroy(b)
	if got := view.RenderBlock(b); got != "" {
		t.Errorf("destroyed block rendered %q", got)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, goimage.NewRGBA(goimage.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitChanged(t *testing.T, v *TerminalView) {
	t.Helper()
	select {
	case <-v.Changed():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for image load")
	}
}

func TestViewUpgradesImagePlaceholder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "pic.png"), 30, 40)
	loader := mdimage.NewLoader(mdimage.Options{BaseDir: dir})

	view := NewTerminalView(plainStyles(), 40, WithImages(loader, mdimage.CapKitty))
	sess := pipeline.New[*Block](view)
	sess.Render("![pic](pic.png)")
	waitChanged(t, view)

	got := view.Render(sess.Handles())
	if !strings.Contains(got, "\x1b_G") {
		t.Errorf("loaded image not encoded: %.40q", got)
	}

	// A second view hits the loader cache and shows the picture at once.
	again := NewTerminalView(plainStyles(), 40, WithImages(loader, mdimage.CapKitty))
	s2 := pipeline.New[*Block](again)
	s2.Render("![pic](pic.png)")
	if got := again.Render(s2.Handles()); !strings.Contains(got, "\x1b_G") {
		t.Errorf("cached image not shown synchronously: %.40q", got)
	}
}

func TestViewKeepsPlaceholderOnFailure(t *testing.T) {
	loader := mdimage.NewLoader(mdimage.Options{BaseDir: t.TempDir()})
	view := NewTerminalView(plainStyles(), 40, WithImages(loader, mdimage.CapKitty))
	sess := pipeline.New[*Block](view)
	sess.Render("![gone](missing.png)")
	waitChanged(t, view)

	if got := view.Render(sess.Handles()); got != "▣ gone (unavailable)" {
		t.Errorf("render = %q", got)
	}
	if _, err := loader.Get(context.Background(), "missing.png"); err == nil {
		t.Error("missing image loaded")
	}
}
