package uninit

import (
	"xreflint/internal/engine/tokens"
)

// doLoop registers do { ... } while (...); as a loop extent.
func (r *run) doLoop(t tokens.Token) (int, bool, error) {
	if !t.Is("do") {
		return 0, false, nil
	}
	body := r.s.Next(t.Index)
	if !body.Is("{") {
		return 0, false, nil
	}
	end := r.s.Match(body.Index)
	if end < 0 {
		return 0, false, nil
	}
	if w := r.s.Next(end); w.Is("while") {
		if cond := r.s.Next(w.Index); cond.Is("(") {
			if closing := r.s.Match(cond.Index); closing > end {
				end = closing
			}
		}
	}
	r.enterLoop(t.Index, end)
	return 0, false, nil
}

// loop registers for and while loops.
func (r *run) loop(t tokens.Token) (int, bool, error) {
	if !t.IsAny("for", "while") {
		return 0, false, nil
	}
	if end := r.loopEnd(t); end > 0 {
		r.enterLoop(t.Index, end)
	}
	return 0, false, nil
}

// foreach binds the loop variables after "as" and registers the loop.
func (r *run) foreach(t tokens.Token) (int, bool, error) {
	if !t.Is("foreach") {
		return 0, false, nil
	}
	open := r.s.Next(t.Index)
	closing := r.s.Match(open.Index)
	if !open.Is("(") || closing < 0 {
		return 0, false, nil
	}
	as := -1
	for j := open.Index + 1; j < closing; j++ {
		tok := r.s.At(j)
		if tok.Is("as") {
			as = j
			break
		}
		if m := r.s.Match(j); m > j && tok.Kind == tokens.Punct {
			j = m
		}
	}
	if as >= 0 {
		r.assignWithin(as, closing)
	}
	if end := r.loopEnd(t); end > 0 {
		r.enterLoop(t.Index, end)
	}
	return 0, false, nil
}

// loopEnd finds the last token of a for/foreach/while loop whose keyword is
// t, covering brace, colon and single-statement bodies. It returns -1 when
// the loop shape is not recognised.
func (r *run) loopEnd(t tokens.Token) int {
	open := r.s.Next(t.Index)
	if !open.Is("(") {
		return -1
	}
	closing := r.s.Match(open.Index)
	if closing < 0 {
		return -1
	}
	body := r.s.Next(closing)
	switch {
	case body.Is("{"):
		return r.s.Match(body.Index)
	case body.Is(":"):
		return r.altSyntaxEnd(t, body.Index)
	case !body.Valid():
		return -1
	}
	return r.statementEnd(body.Index)
}

// altSyntaxEnd matches "while (...):" with its "endwhile", counting nested
// loops of the same keyword that also use the colon form.
func (r *run) altSyntaxEnd(t tokens.Token, colon int) int {
	keyword := t.Lower()
	depth := 1
	for j := colon + 1; j < r.s.Len(); j++ {
		tok := r.s.At(j)
		switch {
		case tok.Is("end" + keyword):
			depth--
			if depth == 0 {
				return j
			}
		case tok.Is(keyword):
			if open := r.s.Next(j); open.Is("(") {
				if closing := r.s.Match(open.Index); closing > 0 && r.s.Next(closing).Is(":") {
					depth++
				}
			}
		}
	}
	return -1
}

// enterLoop records the variables plainly assigned anywhere in (start, end]
// so that reads earlier in the loop body, reached again on a later
// iteration, are accepted. Nested callable bodies are skipped.
func (r *run) enterLoop(start, end int) {
	if end <= start {
		return
	}
	names := make(map[string]bool)
	for j := start + 1; j <= end && j < r.s.Len(); j++ {
		tok := r.s.At(j)
		if !tok.IsVariable() {
			continue
		}
		if body, ok := r.s.MethodAt(j); ok && body.Start > start {
			j = body.End
			continue
		}
		if r.s.Prev(j).IsAny("$", "::", "->", "?->") {
			continue
		}
		if r.s.Next(j).Is("=") {
			names[tok.Text] = true
		}
	}
	if len(names) == 0 {
		return
	}
	cur := r.scopes.current()
	cur.loops = append(cur.loops, frame{end: end, names: names})
}
