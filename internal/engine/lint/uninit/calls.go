package uninit

import (
	"strings"

	"xreflint/internal/engine/lint"
	"xreflint/internal/engine/signatures"
	"xreflint/internal/engine/tokens"
)

// callKeys returns the signature lookup keys for the call whose name token
// is t, most specific first.
//
//	foo()          foo
//	Foo::bar()     Foo::bar, ?::bar
//	self::bar()    Class::bar, ?::bar   (?::bar outside a class)
//	$this->bar()   Class::bar, ?::bar   (?::bar outside a class)
//	$x->bar()      Type::bar, ?::bar    when $x has an @var type, else ?::bar
func (r *run) callKeys(t tokens.Token) []string {
	name := t.Text
	wildcard := "?::" + name
	qualified := func(class string) []string {
		if class == "" {
			return []string{wildcard}
		}
		return []string{class + "::" + name, wildcard}
	}

	p := r.s.Prev(t.Index)
	recv := r.s.Prev(p.Index)
	switch {
	case p.IsAny("->", "?->"):
		if !recv.IsVariable() {
			return []string{wildcard}
		}
		if recv.Text == "$this" {
			return qualified(r.className(t.Index))
		}
		return qualified(r.docType(recv.Text))
	case p.Is("::"):
		switch recv.Lower() {
		case "self", "static":
			return qualified(r.className(t.Index))
		case "parent":
			return []string{wildcard}
		}
		if recv.Kind == tokens.Ident {
			return qualified(recv.Text)
		}
		return []string{wildcard}
	}
	return []string{name}
}

// docType returns the @var type recorded for name in the current scope.
// Annotations never reach into nested function scopes.
func (r *run) docType(name string) string {
	if typ, ok := r.scopes.current().types[name]; ok {
		return strings.TrimPrefix(typ, "\\")
	}
	return ""
}

// call checks the arguments of a call expression against the callee's
// signature. Arguments are still scanned afterwards as ordinary reads.
func (r *run) call(t tokens.Token) (int, bool, error) {
	if t.Kind != tokens.Ident {
		return 0, false, nil
	}
	open := r.s.Next(t.Index)
	if !open.Is("(") {
		return 0, false, nil
	}
	args, ok := r.s.Args(open.Index)
	if !ok {
		return 0, false, nil
	}
	if sig, known := r.sigs.Lookup(r.callKeys(t)...); known {
		r.knownCall(sig, args)
	} else {
		r.unknownCall(args)
	}
	return 0, false, nil
}

func (r *run) knownCall(sig signatures.Signature, args [][]tokens.Token) {
	for _, pos := range sig.Refs {
		if pos >= len(args) {
			continue
		}
		arg := args[pos]
		if len(arg) > 0 && arg[0].Is("&") {
			arg = arg[1:]
		}
		if len(arg) == 0 {
			continue
		}
		switch r.lvalue(arg) {
		case bareVariable, indexedVariable:
			if sig.DoesNotInitialize {
				r.checkDefined(arg[0], false, 0, true)
				continue
			}
			r.assign(arg[0], 0)
			r.bound[arg[0].Index] = true
		case memberAccess:
		default:
			if !staticProperty(arg) {
				r.report(arg[0], lint.SeverityError, msgNonVarByRef)
			}
		}
	}
}

// unknownCall gives standalone variable arguments the benefit of the doubt:
// the callee may initialize them by reference.
func (r *run) unknownCall(args [][]tokens.Token) {
	for _, arg := range args {
		if len(arg) > 0 && arg[0].Is("&") {
			arg = arg[1:]
		}
		if len(arg) == 1 && arg[0].IsVariable() {
			r.checkDefined(arg[0], true, 0, true)
		}
	}
}

type lvalueKind int

const (
	notLvalue lvalueKind = iota
	bareVariable
	indexedVariable
	memberAccess
)

// lvalue classifies an argument rooted at a variable: $x, $x[...][...],
// or a property chain such as $x->a[...]->b.
func (r *run) lvalue(arg []tokens.Token) lvalueKind {
	if !arg[0].IsVariable() {
		return notLvalue
	}
	kind := bareVariable
	for k := 1; k < len(arg); {
		tok := arg[k]
		switch {
		case tok.Is("["):
			end := r.s.Match(tok.Index)
			if end < 0 {
				return notLvalue
			}
			for k < len(arg) && arg[k].Index <= end {
				k++
			}
			if kind == bareVariable {
				kind = indexedVariable
			}
		case tok.IsAny("->", "?->") && k+1 < len(arg):
			kind = memberAccess
			k += 2
		case tok.Is("::") && k+1 < len(arg) && arg[k+1].IsVariable():
			kind = memberAccess
			k += 2
		default:
			return notLvalue
		}
	}
	return kind
}

// staticProperty accepts Foo::$bar and \Ns\Foo::$bar.
func staticProperty(arg []tokens.Token) bool {
	for k, tok := range arg {
		if tok.Is("::") {
			return k > 0 && k+1 < len(arg) && arg[k+1].IsVariable()
		}
		if tok.Kind != tokens.Ident && !tok.Is("\\") && !tok.Is("static") {
			return false
		}
	}
	return false
}
