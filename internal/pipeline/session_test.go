package pipeline

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samsaffron/mdstream/internal/render"
	"github.com/samsaffron/mdstream/internal/reveal"
)

const doc = `# Release notes

Version **2.0** adds *streaming* output, inline math like $a^2+b^2=c^2$ and
display math:

$$\int_0^1 x\,dx$$

- parser
  - tables
  - lists
- renderer

| feature | status |
|:--------|-------:|
| tables  | done   |
| images  | wip    |

` + "```go\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n```" + `

> Note: chunk boundaries must not matter.

![diagram](docs/diagram.png "Pipeline")

---

Thanks 🎉`

type memView struct {
	next int
	live map[int]render.Node
}

func newMemView() *memView { return &memView{live: map[int]render.Node{}} }

func (v *memView) Create(n render.Node) int {
	v.next++
	v.live[v.next] = n
	return v.next
}

func (v *memView) Update(h int, n render.Node) { v.live[h] = n }
func (v *memView) Destroy(h int)               { delete(v.live, h) }

func (v *memView) shown(handles []int) []render.Node {
	out := make([]render.Node, len(handles))
	for i, h := range handles {
		out[i] = v.live[h]
	}
	return out
}

// imagesBySource makes image comparison ignore alt text and title, which
// are not pushed to an already loaded image.
var imagesBySource = cmp.Comparer(func(a, b render.Image) bool { return a.Source == b.Source })

func checkFinal(t *testing.T, s *Session[int], v *memView) {
	t.Helper()
	want := render.Build(doc)
	if diff := cmp.Diff(want, s.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, v.shown(s.Handles()), imagesBySource); diff != "" {
		t.Errorf("view mismatch (-want +got):\n%s", diff)
	}
	if len(v.live) != len(want) {
		t.Errorf("live elements = %d, want %d", len(v.live), len(want))
	}
}

func TestChunkInvariance(t *testing.T) {
	chunkings := map[string]func(int) int{
		"bytewise": func(int) int { return 1 },
		"fixed 7":  func(int) int { return 7 },
		"one shot": func(int) int { return len(doc) },
	}
	rng := rand.New(rand.NewSource(42))
	chunkings["random"] = func(int) int { return 1 + rng.Intn(30) }

	for name, next := range chunkings {
		t.Run(name, func(t *testing.T) {
			v := newMemView()
			s := New[int](v)
			for i := 0; i < len(doc); {
				i = min(i+next(i), len(doc))
				s.Render(doc[:i])
			}
			checkFinal(t, s, v)
		})
	}
}

func TestControllerDrivenSession(t *testing.T) {
	v := newMemView()
	s := New[int](v)
	c := reveal.NewController()
	detach := s.Attach(c)
	defer detach()

	c.Start(doc)
	for c.Tick() {
	}
	checkFinal(t, s, v)

	st := s.Stats()
	if st.Appended < len(s.Nodes()) {
		t.Errorf("appended %d, want at least %d", st.Appended, len(s.Nodes()))
	}
	if st.Skipped == 0 {
		t.Error("expected unchanged nodes to be skipped while text grows")
	}
}

func TestFeedDrivenSession(t *testing.T) {
	v := newMemView()
	s := New[int](v)
	f := reveal.NewFeed(nil)
	s.Attach(f)

	for i := 0; i < len(doc); i += 11 {
		f.Push(doc[i:min(i+11, len(doc))])
	}
	f.Finish()
	checkFinal(t, s, v)
}

func TestNewSessionResetsView(t *testing.T) {
	v := newMemView()
	s := New[int](v)
	c := reveal.NewController()
	s.Attach(c)

	c.Start("first document")
	c.SkipToEnd()
	c.Start("# second")
	c.SkipToEnd()

	want := []render.Node{render.Text{
		Runs:  []render.Fragment{{Text: "second", Style: render.Style{Bold: true, Scale: 2}}},
		Level: 1,
	}}
	if diff := cmp.Diff(want, v.shown(s.Handles())); diff != "" {
		t.Errorf("view mismatch (-want +got):\n%s", diff)
	}
	if len(v.live) != 1 {
		t.Errorf("live elements = %d, want 1", len(v.live))
	}
	if st := s.Stats(); st.Replaced != 0 {
		t.Errorf("replaced %d across sessions, want a reset instead", st.Replaced)
	}
}
