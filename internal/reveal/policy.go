package reveal

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Step releases Size bytes per tick while more than Above bytes remain.
type Step struct {
	Above int `mapstructure:"above" yaml:"above"`
	Size  int `mapstructure:"size" yaml:"size"`
}

// ChunkPolicy maps the remaining length to a chunk size. Steps are checked
// in order; Min applies when no step matches.
type ChunkPolicy struct {
	Steps []Step
	Min   int
}

// DefaultPolicy releases 15 bytes while more than 100 remain, then 8, 4
// and finally 2.
func DefaultPolicy() ChunkPolicy {
	return ChunkPolicy{
		Steps: []Step{{Above: 100, Size: 15}, {Above: 50, Size: 8}, {Above: 20, Size: 4}},
		Min:   2,
	}
}

// Size returns the chunk size for remaining bytes.
func (p ChunkPolicy) Size(remaining int) int {
	for _, s := range p.Steps {
		if remaining > s.Above {
			return s.Size
		}
	}
	return p.Min
}

// Validate checks that chunk size never grows as the remaining length
// shrinks.
func (p ChunkPolicy) Validate() error {
	if p.Min <= 0 {
		return errors.New("min chunk must be positive")
	}
	prev := Step{Above: int(^uint(0) >> 1), Size: int(^uint(0) >> 1)}
	for i, s := range p.Steps {
		if s.Above < 0 || s.Size <= 0 {
			return fmt.Errorf("step %d: above must be >= 0 and size > 0", i)
		}
		if s.Above >= prev.Above {
			return fmt.Errorf("step %d: thresholds must be strictly decreasing", i)
		}
		if s.Size > prev.Size {
			return fmt.Errorf("step %d: size %d exceeds previous size %d", i, s.Size, prev.Size)
		}
		prev = s
	}
	if len(p.Steps) > 0 && p.Min > prev.Size {
		return fmt.Errorf("min chunk %d exceeds smallest step size %d", p.Min, prev.Size)
	}
	return nil
}

// advance moves from forward by n bytes, then on to the next rune boundary
// so the prefix s[:end] is valid UTF-8 whenever s is.
func advance(s string, from, n int) int {
	end := min(from+n, len(s))
	for end < len(s) && !utf8.RuneStart(s[end]) {
		end++
	}
	return end
}
