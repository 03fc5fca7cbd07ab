package reveal

import (
	"testing"
	"unicode/utf8"
)

func TestChunkPolicySize(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		remaining int
		want      int
	}{
		{500, 15},
		{101, 15},
		{100, 8},
		{51, 8},
		{50, 4},
		{21, 4},
		{20, 2},
		{1, 2},
	}
	for _, tt := range tests {
		if got := p.Size(tt.remaining); got != tt.want {
			t.Errorf("Size(%d) = %d, want %d", tt.remaining, got, tt.want)
		}
	}
}

func TestChunkSizeNonDecreasing(t *testing.T) {
	p := DefaultPolicy()
	for r := 2; r <= 1000; r++ {
		if p.Size(r) < p.Size(r-1) {
			t.Fatalf("Size(%d) = %d < Size(%d) = %d", r, p.Size(r), r-1, p.Size(r-1))
		}
	}
}

func TestChunkPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       ChunkPolicy
		wantErr bool
	}{
		{"default", DefaultPolicy(), false},
		{"min only", ChunkPolicy{Min: 1}, false},
		{"zero min", ChunkPolicy{Min: 0}, true},
		{"size grows", ChunkPolicy{Steps: []Step{{100, 4}, {50, 8}}, Min: 2}, true},
		{"thresholds unordered", ChunkPolicy{Steps: []Step{{50, 8}, {100, 4}}, Min: 2}, true},
		{"min above last step", ChunkPolicy{Steps: []Step{{100, 4}}, Min: 5}, true},
		{"zero size", ChunkPolicy{Steps: []Step{{10, 0}}, Min: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAdvanceRuneBoundary(t *testing.T) {
	s := "a日本b"
	tests := []struct {
		from, n, want int
	}{
		{0, 1, 1},
		{0, 2, 4},
		{1, 1, 4},
		{4, 2, 7},
		{7, 5, 8},
		{3, 0, 4},
		{8, 2, 8},
	}
	for _, tt := range tests {
		got := advance(s, tt.from, tt.n)
		if got != tt.want {
			t.Errorf("advance(%d, %d) = %d, want %d", tt.from, tt.n, got, tt.want)
		}
		if !utf8.ValidString(s[:got]) {
			t.Errorf("advance(%d, %d) split a rune", tt.from, tt.n)
		}
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{Idle, Running, true},
		{Idle, Completed, false},
		{Running, Completed, true},
		{Running, Stopped, true},
		{Completed, Running, true},
		{Stopped, Running, true},
		{Stopped, Completed, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
