package signatures

import (
	"strings"

	"xreflint/internal/engine/tokens"
)

// FromStream collects the functions and methods declared in one file.
// Methods are keyed "Class::name"; constructors are left out.
func FromStream(s *tokens.Stream) *Table {
	t := NewTable()
	for i := 0; i < s.Len(); i++ {
		fn := s.At(i)
		if !fn.Is("function") {
			continue
		}
		nameTok := s.Next(i)
		if nameTok.Is("&") {
			nameTok = s.Next(nameTok.Index)
		}
		if nameTok.Kind != tokens.Ident && nameTok.Kind != tokens.Keyword {
			continue
		}
		open := s.Next(nameTok.Index)
		if !open.Is("(") {
			continue
		}
		name := nameTok.Text
		if strings.EqualFold(name, "__construct") {
			continue
		}
		if cls, ok := s.ClassAt(i); ok && cls.Name != "" {
			if body, inBody := s.MethodAt(i); !inBody || body.Start < cls.Start {
				name = cls.Name + "::" + name
			}
		}
		args, ok := s.Args(open.Index)
		if !ok {
			continue
		}
		t.Set(Signature{Name: name, Refs: paramRefs(args)})
	}
	return t
}

func paramRefs(params [][]tokens.Token) []int {
	var refs []int
	for pos, group := range params {
		ref, variadic := false, false
		for _, tok := range group {
			if tok.IsVariable() {
				break
			}
			switch {
			case tok.Is("&"):
				ref = true
			case tok.Is("..."):
				variadic = true
			}
		}
		if !ref {
			continue
		}
		refs = append(refs, pos)
		if variadic {
			for p := pos + 1; p <= maxVariadicPosition; p++ {
				refs = append(refs, p)
			}
		}
	}
	return refs
}
