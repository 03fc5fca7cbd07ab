package reconcile

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samsaffron/mdstream/internal/render"
)

func text(s string) render.Node {
	return render.Text{Runs: []render.Fragment{{Text: s}}}
}

func TestDiff(t *testing.T) {
	img := render.Image{Source: "a.png", AltText: "a"}
	tests := []struct {
		name string
		prev []render.Node
		next []render.Node
		want []string
	}{
		{"both empty", nil, nil, []string{}},
		{"append from empty", nil, []render.Node{text("a"), render.Divider{}},
			[]string{"append(0, text)", "append(1, divider)"}},
		{"reuse same kind", []render.Node{text("a")}, []render.Node{text("ab")},
			[]string{"reuse(0, text)"}},
		{"replace on kind change", []render.Node{text("a"), text("-")}, []render.Node{text("a"), render.List{}},
			[]string{"reuse(0, text)", "replace(1, list)"}},
		{"truncate", []render.Node{text("a"), render.Divider{}, img}, []render.Node{text("a")},
			[]string{"reuse(0, text)", "truncate(1)"}},
		{"truncate to empty", []render.Node{text("a")}, nil,
			[]string{"truncate(0)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, op := range Diff(tt.prev, tt.next) {
				got = append(got, op.String())
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffDirty(t *testing.T) {
	tests := []struct {
		name       string
		prev, next render.Node
		want       bool
	}{
		{"identical text", text("a"), text("a"), false},
		{"grown text", text("a"), text("ab"), true},
		{"image same source new alt", render.Image{Source: "x", AltText: "a"}, render.Image{Source: "x", AltText: "ab"}, false},
		{"image new source", render.Image{Source: "x"}, render.Image{Source: "y"}, true},
		{"code grows", render.CodeBlock{Code: "a"}, render.CodeBlock{Code: "a\nb"}, true},
		{"dividers", render.Divider{}, render.Divider{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := Diff([]render.Node{tt.prev}, []render.Node{tt.next})
			if ops[0].Kind != OpReuse {
				t.Fatalf("op = %s, want reuse", ops[0])
			}
			if ops[0].Dirty != tt.want {
				t.Errorf("Dirty = %v, want %v", ops[0].Dirty, tt.want)
			}
		})
	}
}

// TestDiffCoverage checks that every index below max(len(a), len(b)) is
// covered by exactly one op and reuse/replace only occur in the overlap.
func TestDiffCoverage(t *testing.T) {
	pool := []render.Node{text("t"), render.Divider{}, render.CodeBlock{Code: "c"}, render.Image{Source: "i"}}
	seq := func(seed, n int) []render.Node {
		out := make([]render.Node, n)
		for i := range out {
			out[i] = pool[(seed*7+i*3)%len(pool)]
		}
		return out
	}
	for la := 0; la <= 5; la++ {
		for lb := 0; lb <= 5; lb++ {
			a, b := seq(la, la), seq(lb+1, lb)
			covered := make([]int, max(la, lb))
			for _, op := range Diff(a, b) {
				switch op.Kind {
				case OpReuse, OpReplace:
					if op.Index >= min(la, lb) {
						t.Errorf("%d/%d: %s outside overlap", la, lb, op)
					}
					covered[op.Index]++
				case OpAppend:
					covered[op.Index]++
				case OpTruncate:
					for i := op.Index; i < la; i++ {
						covered[i]++
					}
				}
			}
			for i, c := range covered {
				if c != 1 {
					t.Errorf("%d/%d: index %d covered %d times", la, lb, i, c)
				}
			}
		}
	}
}

type fakeView struct {
	next   int
	live   map[int]render.Node
	events []string
}

func newFakeView() *fakeView {
	return &fakeView{live: map[int]render.Node{}}
}

func (v *fakeView) Create(n render.Node) int {
	v.next++
	v.live[v.next] = n
	v.events = append(v.events, fmt.Sprintf("create %d %s", v.next, n.Kind()))
	return v.next
}

func (v *fakeView) Update(h int, n render.Node) {
	if v.live[h].Kind() != n.Kind() {
		panic("update across kinds")
	}
	v.live[h] = n
	v.events = append(v.events, fmt.Sprintf("update %d", h))
}

func (v *fakeView) Destroy(h int) {
	delete(v.live, h)
	v.events = append(v.events, fmt.Sprintf("destroy %d", h))
}

func TestReconcilerApply(t *testing.T) {
	v := newFakeView()
	r := New[int](v)

	r.Apply([]render.Node{text("a")})
	r.Apply([]render.Node{text("ab")})
	r.Apply([]render.Node{text("ab")})
	r.Apply([]render.Node{text("ab"), render.Divider{}})
	r.Apply([]render.Node{text("ab"), render.CodeBlock{Code: "x"}})
	r.Apply([]render.Node{text("ab")})

	want := []string{
		"create 1 text",
		"update 1",
		"create 2 divider",
		"destroy 2",
		"create 3 code",
		"destroy 3",
	}
	if diff := cmp.Diff(want, v.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, r.Handles()); diff != "" {
		t.Errorf("handles mismatch (-want +got):\n%s", diff)
	}
	wantStats := Stats{Reused: 5, Skipped: 4, Replaced: 1, Appended: 2, Truncated: 1}
	if diff := cmp.Diff(wantStats, r.Stats()); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if len(v.live) != 1 {
		t.Errorf("live elements = %d, want 1", len(v.live))
	}
}

func TestReconcilerGrowingDocument(t *testing.T) {
	doc := "# Title\n\nSome text here.\n\n- one\n- two\n\n```go\nx := 1\n```\n"
	v := newFakeView()
	r := New[int](v)
	for i := 1; i <= len(doc); i++ {
		r.Apply(render.Build(doc[:i]))
		if len(v.live) != len(r.Handles()) {
			t.Fatalf("prefix %d: %d live elements, %d handles", i, len(v.live), len(r.Handles()))
		}
	}
	final := render.Build(doc)
	if diff := cmp.Diff(final, r.Nodes()); diff != "" {
		t.Errorf("final nodes mismatch (-want +got):\n%s", diff)
	}
	for i, h := range r.Handles() {
		if !render.Equal(v.live[h], final[i]) {
			t.Errorf("element %d shows %#v, want %#v", i, v.live[h], final[i])
		}
	}
}

func TestReconcilerReset(t *testing.T) {
	v := newFakeView()
	r := New[int](v)
	r.Apply([]render.Node{text("a"), render.Divider{}})
	r.Reset()
	if len(v.live) != 0 {
		t.Errorf("live elements after Reset = %d, want 0", len(v.live))
	}
	ops := r.Apply([]render.Node{render.Divider{}})
	if len(ops) != 1 || ops[0].Kind != OpAppend {
		t.Errorf("ops after Reset = %v, want one append", ops)
	}
	if r.Stats() != (Stats{Appended: 1}) {
		t.Errorf("stats after Reset = %+v", r.Stats())
	}
}
