package slug

import "math/rand"

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// DefaultLength is used for generated slugs.
	DefaultLength = 6
	// RetryLength is used after a generated slug collides.
	RetryLength = 8

	maxSlugLength = 64
)

// Generator produces random slugs from an injected source, so tests can seed it.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// Generate returns a string of exactly n characters drawn uniformly from the
// alphanumeric alphabet. Uniqueness is the store's problem, not ours.
func (g *Generator) Generate(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[g.rng.Intn(len(charset))]
	}
	return string(b)
}

// Valid reports whether s is acceptable as a custom slug: non-empty, at most
// 64 chars, drawn from [A-Za-z0-9_-].
func Valid(s string) bool {
	if s == "" || len(s) > maxSlugLength {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}
