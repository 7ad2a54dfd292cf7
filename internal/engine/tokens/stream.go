// # internal/engine/tokens/stream.go
package tokens

// Interval is an inclusive token index range. Name is set for classes.
type Interval struct {
	Start int
	End   int
	Name  string
}

func (iv Interval) Contains(i int) bool {
	return i >= iv.Start && i <= iv.End
}

// Stream is an immutable token sequence with precomputed bracket pairs and
// class and callable-body intervals.
type Stream struct {
	Path    string
	tokens  []Token
	pairs   map[int]int
	classes []Interval
	methods []Interval
}

var openers = map[string]string{"(": ")", "[": "]", "{": "}", "#[": "]"}

var closers = map[string]bool{")": true, "]": true, "}": true}

// NewStream indexes toks and computes bracket pairs. classes and methods are
// token intervals as produced by the parser.
func NewStream(path string, toks []Token, classes, methods []Interval) *Stream {
	s := &Stream{
		Path:    path,
		tokens:  toks,
		pairs:   make(map[int]int),
		classes: classes,
		methods: methods,
	}
	var stack []int
	for i := range s.tokens {
		s.tokens[i].Index = i
		t := s.tokens[i]
		if t.Kind != Punct {
			continue
		}
		if _, ok := openers[t.Text]; ok {
			stack = append(stack, i)
			continue
		}
		if !closers[t.Text] {
			continue
		}
		// Unwind to the nearest opener of the same family; unmatched
		// brackets stay unpaired.
		for j := len(stack) - 1; j >= 0; j-- {
			if openers[s.tokens[stack[j]].Text] == t.Text {
				s.pairs[stack[j]] = i
				s.pairs[i] = stack[j]
				stack = stack[:j]
				break
			}
		}
	}
	return s
}

func (s *Stream) Len() int {
	return len(s.tokens)
}

// At returns the token at i, or an invalid token when i is out of range.
func (s *Stream) At(i int) Token {
	if i < 0 || i >= len(s.tokens) {
		return noToken
	}
	return s.tokens[i]
}

// Next returns the first non-trivia token after i.
func (s *Stream) Next(i int) Token {
	if i < 0 {
		return noToken
	}
	for j := i + 1; j < len(s.tokens); j++ {
		if !s.tokens[j].Trivia() {
			return s.tokens[j]
		}
	}
	return noToken
}

// Prev returns the first non-trivia token before i.
func (s *Stream) Prev(i int) Token {
	if i > len(s.tokens) {
		return noToken
	}
	for j := i - 1; j >= 0; j-- {
		if !s.tokens[j].Trivia() {
			return s.tokens[j]
		}
	}
	return noToken
}

// Match returns the index of the bracket paired with the one at i, or -1.
func (s *Stream) Match(i int) int {
	if j, ok := s.pairs[i]; ok {
		return j
	}
	return -1
}

// ClassAt returns the innermost class-like declaration containing i.
func (s *Stream) ClassAt(i int) (Interval, bool) {
	return innermost(s.classes, i)
}

// MethodAt returns the innermost callable body containing i.
func (s *Stream) MethodAt(i int) (Interval, bool) {
	return innermost(s.methods, i)
}

func innermost(ivs []Interval, i int) (Interval, bool) {
	var best Interval
	found := false
	for _, iv := range ivs {
		if iv.Contains(i) && (!found || iv.Start >= best.Start) {
			best, found = iv, true
		}
	}
	return best, found
}

// Args splits the tokens between the bracket at open and its partner on
// top-level commas. Trivia is dropped and empty trailing groups are removed.
func (s *Stream) Args(open int) ([][]Token, bool) {
	end := s.Match(open)
	if end < open {
		return nil, false
	}
	return s.Split(open+1, end, ","), true
}

// Split cuts the non-trivia tokens in [from, to) into groups separated by
// sep at bracket depth zero.
func (s *Stream) Split(from, to int, sep string) [][]Token {
	var groups [][]Token
	var cur []Token
	for i := from; i < to && i < len(s.tokens); i++ {
		t := s.tokens[i]
		if t.Trivia() {
			continue
		}
		if t.Is(sep) {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
		if _, ok := openers[t.Text]; ok && t.Kind == Punct {
			if end := s.Match(i); end > i {
				for j := i + 1; j <= end && j < to; j++ {
					if !s.tokens[j].Trivia() {
						cur = append(cur, s.tokens[j])
					}
				}
				i = end
			}
		}
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// StatementEnd returns the index of the first statement terminator at or
// after i at the current bracket depth, or -1.
func (s *Stream) StatementEnd(i int) int {
	for j := i; j >= 0 && j < len(s.tokens); j++ {
		t := s.tokens[j]
		if t.EndsStatement() {
			return j
		}
		if t.Kind == Punct {
			if _, ok := openers[t.Text]; ok {
				if end := s.Match(j); end > j {
					j = end
					continue
				}
			}
			if closers[t.Text] {
				return -1
			}
		}
	}
	return -1
}
