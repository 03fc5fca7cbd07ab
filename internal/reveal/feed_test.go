package reveal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFeed(t *testing.T) {
	f := NewFeed(nil)
	var r recorder
	r.attach(f)

	for _, chunk := range []string{"# Ti", "tle\n\n", "", "body"} {
		f.Push(chunk)
	}
	f.Finish()
	f.Finish()
	f.Push("late")

	if diff := cmp.Diff([]int{4, 9, 9, 13}, r.lengths()); diff != "" {
		t.Errorf("lengths mismatch (-want +got):\n%s", diff)
	}
	if r.completions() != 1 {
		t.Errorf("completions = %d, want 1", r.completions())
	}
	snap := f.Snapshot()
	if snap.Text != "# Title\n\nbody" || snap.State != Completed {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestFeedReset(t *testing.T) {
	f := NewFeed(nil)
	f.Push("old")
	f.Finish()
	before := f.Snapshot().Session

	f.Reset()
	f.Push("new")
	snap := f.Snapshot()
	if snap.Text != "new" || snap.Session != before+1 || snap.State != Running {
		t.Errorf("snapshot after Reset = %+v", snap)
	}
}
