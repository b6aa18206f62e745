package pick

// Source provides indexed access to candidate text. Text must return a
// valid string for every i in [0, Len()) and be side-effect free; the
// selectors never mutate the underlying collection and do not synchronize
// access to it.
type Source interface {
	// Len returns the number of candidates.
	Len() int

	// Text returns the display text of candidate i.
	Text(i int) string
}

// Strings adapts a string slice to Source.
type Strings []string

// Len implements Source.
func (s Strings) Len() int { return len(s) }

// Text implements Source.
func (s Strings) Text(i int) string { return s[i] }

// FuncSource adapts a length and a lookup function to Source, for
// collections that are not slices of strings.
func FuncSource(n int, text func(int) string) Source {
	return funcSource{n: n, text: text}
}

type funcSource struct {
	n    int
	text func(int) string
}

func (f funcSource) Len() int          { return f.n }
func (f funcSource) Text(i int) string { return f.text(i) }
