package tokens

import "testing"

func build(texts ...string) *Stream {
	toks := make([]Token, 0, len(texts))
	var prev Token
	for _, text := range texts {
		t := Token{Text: text, Line: 1}
		switch {
		case text[0] == '$' && len(text) > 1:
			t.Kind = Variable
		case text == "/*c*/":
			t.Kind = Comment
		case IsWord(text):
			t.Kind = Classify(text, prev)
		default:
			t.Kind = Punct
		}
		if !t.Trivia() {
			prev = t
		}
		toks = append(toks, t)
	}
	return NewStream("test.php", toks, nil, nil)
}

func TestNextPrevSkipTrivia(t *testing.T) {
	s := build("$a", "/*c*/", "=", "/*c*/", "1", ";")
	if got := s.Next(0); got.Text != "=" || got.Index != 2 {
		t.Fatalf("Next(0) = %+v", got)
	}
	if got := s.Prev(4); got.Text != "=" {
		t.Fatalf("Prev(4) = %+v", got)
	}
	if s.Prev(0).Valid() {
		t.Fatal("expected no token before the first one")
	}
	if s.Next(5).Valid() {
		t.Fatal("expected no token after the last one")
	}
	if s.Next(-1).Valid() || s.Prev(-1).Valid() {
		t.Fatal("expected chained lookups from a missing token to stay missing")
	}
}

func TestMatchPairs(t *testing.T) {
	s := build("foo", "(", "[", "$a", "]", ",", "{", "}", ")", "#[", "X", "]")
	cases := map[int]int{1: 8, 2: 4, 6: 7, 9: 11, 8: 1}
	for open, want := range cases {
		if got := s.Match(open); got != want {
			t.Errorf("Match(%d) = %d, want %d", open, got, want)
		}
	}
	if s.Match(0) != -1 {
		t.Error("expected -1 for a non-bracket")
	}
}

func TestMatchUnbalanced(t *testing.T) {
	s := build("(", "$a", "]", ")")
	if got := s.Match(0); got != 3 {
		t.Fatalf("Match(0) = %d, want 3", got)
	}
	if got := s.Match(2); got != -1 {
		t.Fatalf("stray closer paired with %d", got)
	}
}

func TestArgs(t *testing.T) {
	s := build("f", "(", "$a", ",", "&", "$b", ",", "g", "(", "$c", ",", "$d", ")", ",", ")")
	groups, ok := s.Args(1)
	if !ok {
		t.Fatal("expected args")
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d: %+v", len(groups), groups)
	}
	if len(groups[1]) != 2 || groups[1][0].Text != "&" {
		t.Errorf("unexpected second group %+v", groups[1])
	}
	if len(groups[2]) != 6 {
		t.Errorf("nested call should stay in one group, got %+v", groups[2])
	}
	empty, ok := build("f", "(", ")").Args(1)
	if !ok || len(empty) != 0 {
		t.Errorf("expected no groups for an empty list, got %+v", empty)
	}
}

func TestStatementEnd(t *testing.T) {
	s := build("$a", "=", "f", "(", "$b", ";", ")", ";")
	if got := s.StatementEnd(0); got != 7 {
		t.Fatalf("StatementEnd = %d, want 7", got)
	}
	s = build("(", "$a", ")", "$b", ";")
	if got := s.StatementEnd(1); got != -1 {
		t.Fatalf("StatementEnd inside brackets = %d, want -1", got)
	}
}

func TestClassify(t *testing.T) {
	arrow := Token{Kind: Punct, Text: "->"}
	colons := Token{Kind: Punct, Text: "::"}
	newKw := Token{Kind: Keyword, Text: "new"}
	cases := []struct {
		word string
		prev Token
		want Kind
	}{
		{"foreach", Token{}, Keyword},
		{"FOREACH", Token{}, Keyword},
		{"list", arrow, Ident},
		{"class", colons, Ident},
		{"static", newKw, Keyword},
		{"preg_match", Token{}, Ident},
		{"null", Token{}, Ident},
	}
	for _, tc := range cases {
		if got := Classify(tc.word, tc.prev); got != tc.want {
			t.Errorf("Classify(%q, %q) = %s, want %s", tc.word, tc.prev.Text, got, tc.want)
		}
	}
}

func TestIntervals(t *testing.T) {
	s := NewStream("x.php", make([]Token, 20), []Interval{{Start: 0, End: 19, Name: "Outer"}, {Start: 5, End: 10, Name: "Inner"}}, []Interval{{Start: 7, End: 9}})
	if c, ok := s.ClassAt(6); !ok || c.Name != "Inner" {
		t.Errorf("ClassAt(6) = %+v", c)
	}
	if c, ok := s.ClassAt(12); !ok || c.Name != "Outer" {
		t.Errorf("ClassAt(12) = %+v", c)
	}
	if _, ok := s.MethodAt(6); ok {
		t.Error("index 6 is outside every method body")
	}
	if _, ok := s.MethodAt(8); !ok {
		t.Error("index 8 is inside a method body")
	}
}
