package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samsaffron/mdstream/internal/config"
)

// run executes the root command with fresh flag values.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configFile, noColor, widthFlag = "", false, 0
	nodesFormat, previewFirst = "yaml", false
	streamInterval, streamPushChunk, streamRaw = 0, 0, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderCommand(t *testing.T) {
	path := writeFile(t, "doc.md", "# Hi\n\nSome *text*")
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"file", "", []string{"render", path, "--width", "40"}},
		{"stdin", "# Hi\n\nSome *text*", []string{"render", "-", "-w", "40"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if want := "Hi\n━━\n\nSome text\n"; out != want {
				t.Errorf("output = %q, want %q", out, want)
			}
		})
	}
}

func TestRenderMissingFile(t *testing.T) {
	_, err := run(t, "", "render", filepath.Join(t.TempDir(), "nope.md"))
	if err == nil || !strings.Contains(err.Error(), "failed to read input") {
		t.Errorf("err = %v", err)
	}
}

func TestNodesCommand(t *testing.T) {
	src := "Intro with $x$\n\n- a\n  - b\n\n![pic](p.png)"

	out, err := run(t, src, "nodes", "-", "--format", "json")
	if err != nil {
		t.Fatalf("nodes: %v", err)
	}
	var nodes []nodeDump
	if err := json.Unmarshal([]byte(out), &nodes); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	want := []nodeDump{
		{Kind: "text", Runs: []runDump{{Text: "Intro with "}, {Text: "x", Math: "inline"}}},
		{Kind: "list", Items: []itemDump{
			{Level: 0, Runs: []runDump{{Text: "a"}}},
			{Level: 1, Runs: []runDump{{Text: "b"}}},
		}},
		{Kind: "image", Source: "p.png", Alt: "pic"},
	}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}

	out, err = run(t, "# Title", "nodes", "--format", "yaml")
	if err != nil {
		t.Fatalf("nodes yaml: %v", err)
	}
	for _, s := range []string{"- kind: text", "level: 1", "styles: [bold, scale=2]"} {
		if !strings.Contains(out, s) {
			t.Errorf("yaml missing %q:\n%s", s, out)
		}
	}

	if _, err := run(t, "x", "nodes", "--format", "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestPreviewCommand(t *testing.T) {
	src := "# T\n\nHello **x**\n\nmore"
	out, err := run(t, src, "preview")
	if err != nil {
		t.Fatal(err)
	}
	if want := "T\n\nHello x\n\nmore\n"; out != want {
		t.Errorf("preview = %q, want %q", out, want)
	}

	out, err = run(t, src, "preview", "--first")
	if err != nil {
		t.Fatal(err)
	}
	if want := "Hello **x**\n"; out != want {
		t.Errorf("preview --first = %q, want %q", out, want)
	}
}

func TestStreamRaw(t *testing.T) {
	text := "Streaming *text* with ünïcödé and more words to reveal.\n"
	out, err := run(t, text, "stream", "-", "--raw", "--interval", "1ms")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if out != text {
		t.Errorf("output = %q, want %q", out, text)
	}
}

func TestConfigCommand(t *testing.T) {
	out, err := run(t, "", "config")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"# No config file", "interval: 16ms", "code_theme: monokai"} {
		if !strings.Contains(out, s) {
			t.Errorf("config output missing %q:\n%s", s, out)
		}
	}

	path := writeFile(t, "c.yaml", "render:\n  code_theme: dracula\n")
	out, err = run(t, "", "config", "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "# "+path) || !strings.Contains(out, "code_theme: dracula") {
		t.Errorf("config output:\n%s", out)
	}

	out, err = run(t, "", "config", "path", "--config", path)
	if err != nil || strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, %v", out, err)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	path := writeFile(t, "bad.yaml", "reveal:\n  interval: -1s\n")
	_, err := run(t, "x", "render", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("err = %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdstream.log")
	l, closer, err := newLogger(config.LogConfig{Level: "debug", File: path, Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("hello", "n", 1)
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("log line %q: %v", data, err)
	}
	if rec["msg"] != "hello" || rec["level"] != "DEBUG" {
		t.Errorf("record = %v", rec)
	}

	l, closer, err = newLogger(config.LogConfig{Level: "info"})
	if err != nil || closer != nil || l == nil {
		t.Errorf("discard logger = %v, %v, %v", l, closer, err)
	}
}
