package slug

import (
	"math/rand"
	"strings"
	"testing"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	g := NewGenerator(rand.NewSource(1))

	for _, n := range []int{DefaultLength, RetryLength, 1, 32} {
		s := g.Generate(n)
		if len(s) != n {
			t.Errorf("Generate(%d) returned %q with length %d", n, s, len(s))
		}
		for _, c := range s {
			if !strings.ContainsRune(charset, c) {
				t.Errorf("Generate(%d) returned %q with char %q outside alphabet", n, s, c)
			}
		}
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	a := NewGenerator(rand.NewSource(42)).Generate(DefaultLength)
	b := NewGenerator(rand.NewSource(42)).Generate(DefaultLength)
	if a != b {
		t.Errorf("same seed produced %q and %q", a, b)
	}

	c := NewGenerator(rand.NewSource(43)).Generate(DefaultLength)
	if a == c {
		t.Errorf("different seeds both produced %q", a)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"abc123", true},
		{"my-link_2", true},
		{"A", true},
		{"", false},
		{"has space", false},
		{"dot.txt", false},
		{"slash/x", false},
		{"ünïcode", false},
		{strings.Repeat("a", 64), true},
		{strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		if got := Valid(tt.slug); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.slug, got, tt.want)
		}
	}
}
