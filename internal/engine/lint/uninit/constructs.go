package uninit

import (
	"regexp"
	"strings"

	"xreflint/internal/engine/tokens"
)

var evalAssignment = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)\s*=(?:[^=>]|$)`)

// statementEnd finds the terminator of the statement containing i. When the
// statement is nested inside brackets the next terminator in the file is
// used; -1 becomes the end of the stream.
func (r *run) statementEnd(i int) int {
	if end := r.s.StatementEnd(i); end >= 0 {
		return end
	}
	for j := i; j < r.s.Len(); j++ {
		if r.s.At(j).EndsStatement() {
			return j
		}
	}
	return r.s.Len()
}

// modeTriggers schedules the switch to Relaxed mode for constructs that can
// introduce variables the scanner cannot see: extract(), $$name assignment,
// include/require and eval. It never claims the token.
func (r *run) modeTriggers(t tokens.Token) (int, bool, error) {
	switch {
	case t.Kind == tokens.Ident && t.Lower() == "extract":
		if r.s.Prev(t.Index).IsAny("->", "?->", "::", "function") {
			break
		}
		if open := r.s.Next(t.Index); open.Is("(") {
			if end := r.s.Match(open.Index); end > 0 {
				r.scopes.scheduleRelaxedSwitch(t, end)
			}
		}
	case t.Is("$"):
		holder := r.s.Next(t.Index)
		if !holder.IsVariable() {
			break
		}
		n := r.s.Next(holder.Index)
		for n.Is("[") {
			end := r.s.Match(n.Index)
			if end < 0 {
				break
			}
			n = r.s.Next(end)
		}
		if n.Is("=") {
			r.scopes.scheduleRelaxedSwitch(holder, r.statementEnd(holder.Index))
		}
	case t.Is("eval"):
		r.scopes.scheduleRelaxedSwitch(t, r.statementEnd(t.Index))
		r.evalAssignments(t)
	case t.IsAny("include", "include_once", "require", "require_once"):
		r.scopes.scheduleRelaxedSwitch(t, r.statementEnd(t.Index))
	}
	return 0, false, nil
}

// evalAssignments declares the variables a literal eval argument assigns,
// as in eval('$x = 1') or eval("\$x = 1").
func (r *run) evalAssignments(t tokens.Token) {
	n := r.s.Next(t.Index)
	if n.Is("(") {
		n = r.s.Next(n.Index)
	}
	if n.Kind != tokens.String {
		return
	}
	for _, m := range evalAssignment.FindAllStringSubmatch(evalCode(n.Text), -1) {
		r.assign(tokens.Token{Kind: tokens.Variable, Text: "$" + m[1], Line: n.Line, Index: n.Index}, 0)
	}
}

// evalCode returns the PHP code a string literal evaluates to. Interpolated
// variables in double quotes are blanked out since their values are unknown.
func evalCode(lit string) string {
	if len(lit) < 2 {
		return ""
	}
	quote, body := lit[0], lit[1:len(lit)-1]
	switch quote {
	case '\'':
		return strings.NewReplacer(`\'`, `'`, `\\`, `\`).Replace(body)
	case '"':
		var b strings.Builder
		for i := 0; i < len(body); i++ {
			c := body[i]
			switch {
			case c == '\\' && i+1 < len(body):
				i++
				b.WriteByte(body[i])
			case c == '$':
				b.WriteByte('#')
			default:
				b.WriteByte(c)
			}
		}
		return b.String()
	}
	return ""
}

// function opens a scope for a named function, method or closure and binds
// its parameters and captured variables.
func (r *run) function(t tokens.Token) (int, bool, error) {
	if !t.Is("function") {
		return 0, false, nil
	}
	if r.s.Prev(t.Index).Is("use") {
		// use function Foo\bar;
		return t.Index, true, nil
	}
	n := r.s.Next(t.Index)
	if n.Is("&") {
		n = r.s.Next(n.Index)
	}
	closure := true
	if n.Kind == tokens.Ident || n.Kind == tokens.Keyword {
		closure = false
		n = r.s.Next(n.Index)
	}
	if !n.Is("(") {
		return 0, false, malformed(n, "invalid function declaration: %q instead of '('", n.Text)
	}

	sc := r.scopes.push(Strict, -1)
	if err := r.bindParams(n.Index); err != nil {
		return 0, false, err
	}
	n = r.s.Next(r.s.Match(n.Index))

	if closure && n.Is("use") {
		open := r.s.Next(n.Index)
		if !open.Is("(") {
			return 0, false, malformed(open, "invalid closure: %q instead of '('", open.Text)
		}
		if err := r.bindCaptures(open.Index); err != nil {
			return 0, false, err
		}
		n = r.s.Next(r.s.Match(open.Index))
	}

	if n.Is(":") {
		for n.Valid() && !n.IsAny("{", ";") {
			n = r.s.Next(n.Index)
		}
	}

	switch {
	case n.Is(";"):
		// Abstract or interface method: the parameter scope closes at once.
		if _, err := r.scopes.pop(); err != nil {
			return 0, false, err
		}
	case n.Is("{"):
		end := r.s.Match(n.Index)
		if end < 0 {
			return 0, false, malformed(n, "unterminated function body")
		}
		sc.end = end
	default:
		return 0, false, malformed(n, "%q found instead of '{' or ';'", n.Text)
	}
	return n.Index, true, nil
}

func (r *run) bindParams(open int) error {
	params, ok := r.s.Args(open)
	if !ok {
		return malformed(r.s.At(open), "unterminated parameter list")
	}
	for _, group := range params {
		if len(group) == 0 {
			continue
		}
		param, byRef, err := paramVar(group)
		if err != nil {
			return err
		}
		v := r.assign(param, 0)
		v.refParam = byRef
		r.bound[param.Index] = true
	}
	return nil
}

// paramVar returns the variable of one parameter slot and whether it is
// taken by reference.
func paramVar(group []tokens.Token) (tokens.Token, bool, error) {
	byRef := false
	for _, tok := range group {
		if tok.Is("&") {
			byRef = true
		}
		if tok.IsVariable() {
			return tok, byRef, nil
		}
	}
	return tokens.Token{}, false, malformed(group[0], "invalid parameter: %q", group[0].Text)
}

// bindCaptures handles a closure's use (...) list. The closure scope has
// already been pushed, so the enclosing scope is depth 1.
func (r *run) bindCaptures(open int) error {
	captures, ok := r.s.Args(open)
	if !ok {
		return malformed(r.s.At(open), "unterminated use list")
	}
	for _, group := range captures {
		if len(group) == 0 {
			continue
		}
		byRef := false
		if group[0].Is("&") {
			byRef = true
			group = group[1:]
		}
		if len(group) == 0 || !group[0].IsVariable() {
			return malformed(r.s.At(open), "invalid use list entry")
		}
		v := group[0]
		if byRef {
			// The closure may create the variable in the enclosing scope.
			r.assign(v, 1)
		} else if r.checkDefined(v, false, 1, false) {
			if outer, exists := r.scopes.at(1).lookup(v.Text); exists {
				outer.status = Used
			}
		}
		inner := r.assign(v, 0)
		inner.refParam = byRef
		r.bound[v.Index] = true
	}
	return nil
}

// arrowFunction handles fn (...) => expr. The body reads the enclosing
// scope directly; the parameters are known only until the body ends.
func (r *run) arrowFunction(t tokens.Token) (int, bool, error) {
	if !t.Is("fn") {
		return 0, false, nil
	}
	n := r.s.Next(t.Index)
	if n.Is("&") {
		n = r.s.Next(n.Index)
	}
	if !n.Is("(") {
		return 0, false, malformed(n, "invalid arrow function: %q instead of '('", n.Text)
	}
	params, ok := r.s.Args(n.Index)
	if !ok {
		return 0, false, malformed(n, "unterminated parameter list")
	}
	closing := r.s.Match(n.Index)
	arrow := r.s.Next(closing)
	for arrow.Valid() && !arrow.IsAny("=>", ";") {
		arrow = r.s.Next(arrow.Index)
	}
	if !arrow.Is("=>") {
		return 0, false, malformed(arrow, "invalid arrow function: %q instead of '=>'", arrow.Text)
	}

	names := make(map[string]bool)
	for _, group := range params {
		if len(group) == 0 {
			continue
		}
		param, _, err := paramVar(group)
		if err != nil {
			return 0, false, err
		}
		names[param.Text] = true
		r.bound[param.Index] = true
	}
	cur := r.scopes.current()
	cur.arrows = append(cur.arrows, frame{end: r.arrowBodyEnd(arrow.Index), names: names})
	return closing, true, nil
}

// arrowBodyEnd returns the last token of the expression following =>.
func (r *run) arrowBodyEnd(arrow int) int {
	start := r.s.Next(arrow)
	if body, ok := r.s.MethodAt(start.Index); ok && body.Start == start.Index {
		return body.End
	}
	last := arrow
	for tok := start; tok.Valid(); tok = r.s.Next(tok.Index) {
		if tok.IsAny(",", ")", "]", "}") || tok.EndsStatement() {
			break
		}
		if tok.IsAny("(", "[", "{") {
			if end := r.s.Match(tok.Index); end > tok.Index {
				last = end
				tok = r.s.At(end)
				continue
			}
		}
		last = tok.Index
	}
	return last
}

// catch binds the optional exception variable of catch (A | B $e).
func (r *run) catch(t tokens.Token) (int, bool, error) {
	if !t.Is("catch") {
		return 0, false, nil
	}
	open := r.s.Next(t.Index)
	if !open.Is("(") {
		return 0, false, malformed(open, "%q found instead of '('", open.Text)
	}
	closing := r.s.Match(open.Index)
	if closing < 0 {
		return 0, false, malformed(open, "unterminated catch clause")
	}
	n := r.s.Next(open.Index)
	types := 0
	for n.Kind == tokens.Ident || n.IsAny("\\", "|") {
		if n.Kind == tokens.Ident {
			types++
		}
		n = r.s.Next(n.Index)
	}
	if types == 0 {
		return 0, false, malformed(n, "no exception type found (%q)", n.Text)
	}
	if n.IsVariable() {
		v := r.assign(n, 0)
		v.caught = true
		r.bound[n.Index] = true
		n = r.s.Next(n.Index)
	}
	if n.Index != closing {
		return 0, false, malformed(n, "%q found instead of ')'", n.Text)
	}
	return closing, true, nil
}

// list marks every variable inside list(...) as assigned.
func (r *run) list(t tokens.Token) (int, bool, error) {
	if !t.Is("list") {
		return 0, false, nil
	}
	open := r.s.Next(t.Index)
	if !open.Is("(") {
		return 0, false, malformed(open, "invalid list declaration: %q", open.Text)
	}
	closing := r.s.Match(open.Index)
	if closing < 0 {
		return 0, false, malformed(open, "unterminated list declaration")
	}
	r.assignWithin(open.Index, closing)
	return closing, true, nil
}

// shortList handles [$a, $b] = expr destructuring.
func (r *run) shortList(t tokens.Token) (int, bool, error) {
	if t.Kind != tokens.Punct || t.Text != "[" {
		return 0, false, nil
	}
	p := r.s.Prev(t.Index)
	if p.IsVariable() || p.IsAny("]", ")", "}", "->", "?->", "::") || p.Kind == tokens.Ident || p.Kind == tokens.String {
		return 0, false, nil
	}
	closing := r.s.Match(t.Index)
	if closing < 0 || !r.s.Next(closing).Is("=") {
		return 0, false, nil
	}
	r.assignWithin(t.Index, closing)
	return closing, true, nil
}

func (r *run) assignWithin(open, closing int) {
	for j := open + 1; j < closing; j++ {
		tok := r.s.At(j)
		if tok.IsVariable() && !r.s.Prev(j).Is("::") {
			r.assign(tok, 0)
			r.bound[j] = true
		}
	}
}

// global imports file-level variables: global $a, $b; global $$name also
// switches the scope to Relaxed after the statement.
func (r *run) global(t tokens.Token) (int, bool, error) {
	if !t.Is("global") {
		return 0, false, nil
	}
	n := r.s.Next(t.Index)
	for {
		switch {
		case n.IsVariable():
			v := r.assign(n, 0)
			v.global = true
			r.bound[n.Index] = true
			n = r.s.Next(n.Index)
		case n.Is("$"):
			holder := r.s.Next(n.Index)
			if !holder.IsVariable() {
				return 0, false, malformed(holder, "invalid 'global' declaration: %q", holder.Text)
			}
			r.checkDefined(holder, false, 0, true)
			r.scopes.scheduleRelaxedSwitch(holder, r.statementEnd(holder.Index))
			n = r.s.Next(holder.Index)
		default:
			return 0, false, malformed(n, "invalid 'global' declaration: %q", n.Text)
		}
		switch {
		case n.Is(","):
			n = r.s.Next(n.Index)
		case n.EndsStatement():
			return n.Index, true, nil
		default:
			return 0, false, malformed(n, "invalid 'global' declaration: %q", n.Text)
		}
	}
}

// static binds function-persistent locals: static $a = 1, $b;
// Only the declared names are claimed; initializer expressions are scanned
// as ordinary code afterwards.
func (r *run) static(t tokens.Token) (int, bool, error) {
	if !t.Is("static") {
		return 0, false, nil
	}
	if _, ok := r.s.MethodAt(t.Index); !ok {
		return 0, false, nil
	}
	n := r.s.Next(t.Index)
	if n.IsAny("::", "function", "fn", "(") || r.s.Prev(t.Index).IsAny("new", "instanceof") {
		return 0, false, nil
	}
	end := r.statementEnd(t.Index)
	for _, group := range r.s.Split(n.Index, end, ",") {
		if len(group) == 0 || !group[0].IsVariable() {
			return 0, false, malformed(n, "invalid 'static' declaration near %q", n.Text)
		}
		v := r.assign(group[0], 0)
		v.persistent = true
		r.bound[group[0].Index] = true
	}
	return t.Index, true, nil
}

// isset declares isset($x) / empty($x) operands in a Relaxed scope. In a
// Strict scope the operand is read like any other variable.
func (r *run) isset(t tokens.Token) (int, bool, error) {
	if !t.IsAny("isset", "empty") {
		return 0, false, nil
	}
	open := r.s.Next(t.Index)
	v := r.s.Next(open.Index)
	if !open.Is("(") || !v.IsVariable() || !r.s.Next(v.Index).Is(")") {
		return 0, false, nil
	}
	if r.scopes.currentMode() == Relaxed {
		r.assign(v, 0)
	}
	return 0, false, nil
}
