// Package reconcile diffs consecutive render node sequences by position so a
// presentation layer can reuse its live elements instead of rebuilding them.
package reconcile

import (
	"fmt"

	"github.com/samsaffron/mdstream/internal/render"
)

// OpKind identifies what a view must do at one position.
type OpKind int

const (
	// OpReuse updates the live element at Index in place.
	OpReuse OpKind = iota
	// OpReplace destroys the element at Index and creates a new one.
	OpReplace
	// OpAppend creates a new element at the end.
	OpAppend
	// OpTruncate destroys every element from Index onward.
	OpTruncate
)

func (k OpKind) String() string {
	switch k {
	case OpReuse:
		return "reuse"
	case OpReplace:
		return "replace"
	case OpAppend:
		return "append"
	case OpTruncate:
		return "truncate"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is one reconciliation step. Node is nil for OpTruncate.
//
// Dirty is only meaningful for OpReuse: it is false when the live element
// already shows Node, so the update can be skipped. Images are dirty only
// when their source changes.
type Op struct {
	Kind  OpKind
	Index int
	Node  render.Node
	Dirty bool
}

func (o Op) String() string {
	if o.Kind == OpTruncate {
		return fmt.Sprintf("truncate(%d)", o.Index)
	}
	return fmt.Sprintf("%s(%d, %s)", o.Kind, o.Index, o.Node.Kind())
}

// Diff compares prev and next position by position. Positions below
// min(len(prev), len(next)) become OpReuse when the node kinds match and
// OpReplace otherwise; extra next nodes become OpAppend in order; a shorter
// next produces a single OpTruncate at len(next). Ops are never reordered.
func Diff(prev, next []render.Node) []Op {
	n := min(len(prev), len(next))
	ops := make([]Op, 0, max(len(prev), len(next)))
	for i := 0; i < n; i++ {
		if prev[i].Kind() != next[i].Kind() {
			ops = append(ops, Op{Kind: OpReplace, Index: i, Node: next[i]})
			continue
		}
		ops = append(ops, Op{Kind: OpReuse, Index: i, Node: next[i], Dirty: dirty(prev[i], next[i])})
	}
	for i := n; i < len(next); i++ {
		ops = append(ops, Op{Kind: OpAppend, Index: i, Node: next[i]})
	}
	if len(next) < len(prev) {
		ops = append(ops, Op{Kind: OpTruncate, Index: len(next)})
	}
	return ops
}

func dirty(prev, next render.Node) bool {
	if a, ok := prev.(render.Image); ok {
		return a.Source != next.(render.Image).Source
	}
	return !render.Equal(prev, next)
}
