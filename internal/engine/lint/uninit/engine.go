// Package uninit reports reads of PHP variables that were never assigned in
// the enclosing function or file.
package uninit

import (
	"strings"

	"xreflint/internal/core/errors"
	"xreflint/internal/engine/docblock"
	"xreflint/internal/engine/lint"
	"xreflint/internal/engine/signatures"
	"xreflint/internal/engine/tokens"
)

const (
	ID   = "lint-uninitialized-vars"
	Name = "Lint (use of uninitialized vars)"
)

const (
	msgModeSwitch     = "Can't reliable detect var usage from here"
	msgUndefined      = "Use of non-defined variable"
	msgMaybeUndefined = "Possible use of non-defined variable"
	msgArrayAutoviv   = "Array autovivification"
	msgScalarAutoviv  = "Scalar autovivification"
	msgEmptyDecl      = "Empty declaration-like statement"
	msgNonVarByRef    = "Possible attemps to pass non-variable by reference"
	msgUnused         = "Value of variable is not used"
)

var superglobals = map[string]bool{
	"$GLOBALS":              true,
	"$_REQUEST":             true,
	"$_GET":                 true,
	"$_POST":                true,
	"$_FILES":               true,
	"$_ENV":                 true,
	"$_SERVER":              true,
	"$_COOKIE":              true,
	"$_SESSION":             true,
	"$HTTP_RAW_POST_DATA":   true,
	"$http_response_header": true,
	"$php_errormsg":         true,
	// Context checks for $this belong to a different analyzer.
	"$this": true,
}

// Options configure the analyzer for a whole run.
type Options struct {
	// CheckGlobalScope disables ordinary read checks at file level when false.
	CheckGlobalScope bool
	// GlobalVars are known at file level in addition to $argv and $argc.
	GlobalVars []string
	// Signatures is the configuration layer of the signature table.
	Signatures *signatures.Table
}

// Analyzer implements lint.Analyzer. It holds only read-only configuration;
// every Analyze call builds its own scan state.
type Analyzer struct {
	opts    Options
	globals map[string]bool
	builtin *signatures.Table
	level   lint.Severity
}

func New(opts Options) (*Analyzer, error) {
	builtin, err := signatures.Builtin()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load builtin signatures")
	}
	globals := map[string]bool{"$argv": true, "$argc": true}
	for _, g := range opts.GlobalVars {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if !strings.HasPrefix(g, "$") {
			g = "$" + g
		}
		globals[g] = true
	}
	return &Analyzer{opts: opts, globals: globals, builtin: builtin, level: lint.SeverityWarning}, nil
}

// Factory adapts New to the lint registry.
func Factory(opts Options) lint.Factory {
	return func() (lint.Analyzer, error) {
		return New(opts)
	}
}

func (a *Analyzer) ID() string   { return ID }
func (a *Analyzer) Name() string { return Name }

func (a *Analyzer) SetReportLevel(level lint.Severity) {
	a.level = level
}

// Analyze scans one file. A construct whose shape the scanner cannot follow
// aborts the file with a CodeMalformedSource error.
func (a *Analyzer) Analyze(s *tokens.Stream) ([]lint.Defect, error) {
	r := &run{
		a:      a,
		s:      s,
		sigs:   signatures.NewSet(signatures.FromStream(s), a.opts.Signatures, a.builtin),
		scopes: newScopes(),
		bound:  make(map[int]bool),
	}
	if err := r.scan(); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, s.Path)
	}
	return r.defects, nil
}

// run is the state of one file scan.
type run struct {
	a       *Analyzer
	s       *tokens.Stream
	sigs    *signatures.Set
	scopes  *scopes
	defects []lint.Defect
	// bound holds indices of variables already handled as definitions, so
	// the read fallback does not count them as uses.
	bound map[int]bool
}

// handler processes the construct starting at t. It returns the index of the
// last token it consumed and whether it claimed the token.
type handler func(t tokens.Token) (int, bool, error)

func (r *run) scan() error {
	handlers := []handler{
		r.modeTriggers,
		r.variable,
		r.doLoop,
		r.loop,
		r.foreach,
		r.function,
		r.arrowFunction,
		r.catch,
		r.list,
		r.shortList,
		r.global,
		r.static,
		r.call,
		r.isset,
		r.read,
	}

	for i := 0; i < r.s.Len(); i++ {
		if trigger, switched := r.scopes.due(i); switched {
			r.report(trigger, lint.SeverityNotice, msgModeSwitch)
		}
		for r.scopes.depth() > 1 && i >= r.scopes.current().end {
			if _, err := r.scopes.pop(); err != nil {
				return err
			}
		}
		r.scopes.current().expire(i)

		t := r.s.At(i)
		if t.Kind == tokens.DocComment {
			r.docComment(t)
			continue
		}
		if t.Trivia() {
			continue
		}
		for _, h := range handlers {
			last, claimed, err := h(t)
			if err != nil {
				return errors.AddContext(err, errors.CtxToken, t.Text)
			}
			if claimed {
				i = last
				break
			}
		}
	}

	if r.scopes.depth() != 1 {
		return errors.Newf(errors.CodeMalformedSource, "scope stack depth %d at end of file", r.scopes.depth())
	}
	file := r.scopes.current()
	for _, name := range file.order {
		v := file.vars[name]
		if v.status != Used && !superglobals[name] {
			r.report(v.tok, lint.SeverityNotice, msgUnused)
		}
	}
	return nil
}

func (r *run) report(t tokens.Token, sev lint.Severity, msg string) {
	if sev < r.a.level {
		return
	}
	r.defects = append(r.defects, lint.Defect{Analyzer: ID, Severity: sev, Message: msg, Token: t})
}

func malformed(t tokens.Token, format string, args ...interface{}) error {
	err := errors.Newf(errors.CodeMalformedSource, format, args...)
	return errors.AddContext(err, errors.CtxLine, t.Line)
}

// known reports whether name is defined in the scope depth levels down.
func (r *run) known(name string, depth int) bool {
	if superglobals[name] {
		return true
	}
	sc := r.scopes.at(depth)
	if sc == r.scopes.stack[0] && r.a.globals[name] {
		return true
	}
	if _, ok := sc.lookup(name); ok {
		return true
	}
	return sc.inLoop(name) || sc.inArrow(name)
}

// assign marks t Assigned in the scope depth levels down. Writes to an arrow
// function parameter stay inside the arrow body.
func (r *run) assign(t tokens.Token, depth int) *variable {
	sc := r.scopes.at(depth)
	if sc.inArrow(t.Text) {
		return &variable{name: t.Text, status: Assigned, tok: t}
	}
	v := sc.touch(t)
	v.status = Assigned
	return v
}

// checkDefined reports a missing variable. Missing names are created as
// Assigned when create is set so that each is reported once.
func (r *run) checkDefined(t tokens.Token, forceWarning bool, depth int, create bool) bool {
	if r.known(t.Text, depth) {
		return true
	}
	if r.scopes.at(depth).mode == Relaxed || forceWarning {
		r.report(t, lint.SeverityWarning, msgMaybeUndefined)
	} else {
		r.report(t, lint.SeverityError, msgUndefined)
	}
	if create {
		r.assign(t, depth)
	}
	return false
}

// use is an ordinary read of a variable in the current scope.
func (r *run) use(t tokens.Token) {
	if superglobals[t.Text] {
		return
	}
	cur := r.scopes.current()
	if cur.inArrow(t.Text) {
		return
	}
	if _, ok := cur.lookup(t.Text); ok || cur.inLoop(t.Text) {
		cur.touch(t).status = Used
		return
	}
	if cur == r.scopes.stack[0] && r.a.globals[t.Text] {
		return
	}
	r.checkDefined(t, false, 0, true)
}

// variable handles occurrences that define a variable: plain and indexed
// assignment, autovivification and bare "$x;" statements.
func (r *run) variable(t tokens.Token) (int, bool, error) {
	if !t.IsVariable() {
		return 0, false, nil
	}
	if r.classMember(t.Index) {
		return t.Index, true, nil
	}
	p := r.s.Prev(t.Index)
	if p.Is("::") {
		return t.Index, true, nil
	}
	if p.Is("$") {
		return 0, false, nil
	}

	n := r.s.Next(t.Index)
	indexed := false
	for n.Is("[") {
		end := r.s.Match(n.Index)
		if end < 0 {
			break
		}
		n = r.s.Next(end)
		indexed = true
	}

	switch {
	case n.Is("="):
		if indexed && !r.known(t.Text, 0) {
			r.report(t, lint.SeverityWarning, msgArrayAutoviv)
		}
		r.assign(t, 0)
		return t.Index, true, nil
	case n.Is("??="):
		r.assign(t, 0)
		return t.Index, true, nil
	case n.IsAny("++", "--", ".=", "+=") || p.IsAny("++", "--"):
		if r.known(t.Text, 0) {
			return 0, false, nil
		}
		if indexed {
			r.report(t, lint.SeverityWarning, msgArrayAutoviv)
		} else {
			r.report(t, lint.SeverityWarning, msgScalarAutoviv)
		}
		r.assign(t, 0)
		return t.Index, true, nil
	case n.Is(";") && !indexed && p.IsAny(";", "{"):
		r.report(t, lint.SeverityNotice, msgEmptyDecl)
		r.assign(t, 0)
		return t.Index, true, nil
	}
	return 0, false, nil
}

// read is the fallback for every variable no construct handler claimed.
func (r *run) read(t tokens.Token) (int, bool, error) {
	if !t.IsVariable() {
		return 0, false, nil
	}
	if r.bound[t.Index] || r.s.Prev(t.Index).Is("::") {
		return t.Index, true, nil
	}
	if r.scopes.fileScope() && !r.a.opts.CheckGlobalScope {
		return t.Index, true, nil
	}
	r.use(t)
	return t.Index, true, nil
}

// classMember reports whether i lies in a class body but outside every
// method body of that class, i.e. in a property declaration.
func (r *run) classMember(i int) bool {
	cls, ok := r.s.ClassAt(i)
	if !ok {
		return false
	}
	body, ok := r.s.MethodAt(i)
	return !ok || body.Start < cls.Start
}

func (r *run) className(i int) string {
	if cls, ok := r.s.ClassAt(i); ok {
		return cls.Name
	}
	return ""
}

// docComment applies @var annotations: types feed call resolution and, in
// a Relaxed scope, the named variables become known.
func (r *run) docComment(t tokens.Token) {
	cur := r.scopes.current()
	for _, ann := range docblock.Vars(t.Text) {
		if ann.Type != "" {
			if cur.types == nil {
				cur.types = make(map[string]string)
			}
			cur.types[ann.Name] = ann.Type
		}
		if cur.mode == Relaxed {
			r.assign(tokens.Token{Kind: tokens.Variable, Text: ann.Name, Line: t.Line, Index: t.Index}, 0)
		}
	}
}
