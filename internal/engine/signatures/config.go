package signatures

import (
	"strconv"
	"strings"

	"xreflint/internal/core/errors"
)

const maxVariadicPosition = 9

// FromConfig builds the configuration layer from "name,pos,pos" entries and
// declaration entries such as "Foo::bar($a, &$b)".
func FromConfig(byRef, declarations []string) (*Table, error) {
	t := NewTable()
	for _, entry := range byRef {
		sig, err := ParseRefEntry(entry)
		if err != nil {
			return nil, err
		}
		t.Set(sig)
	}
	for _, entry := range declarations {
		sig, err := ParseDeclaration(entry)
		if err != nil {
			return nil, err
		}
		t.Set(sig)
	}
	return t, nil
}

// ParseRefEntry parses "name,pos,pos". Positions are zero-based.
func ParseRefEntry(entry string) (Signature, error) {
	parts := strings.Split(entry, ",")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Signature{}, errors.Newf(errors.CodeValidationError, "init_by_reference entry %q has no function name", entry)
	}
	sig := Signature{Name: name}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pos, err := strconv.Atoi(p)
		if err != nil || pos < 0 {
			return Signature{}, errors.Newf(errors.CodeValidationError, "init_by_reference entry %q: bad position %q", entry, p)
		}
		sig.Refs = append(sig.Refs, pos)
	}
	return sig, nil
}

// ParseDeclaration parses a PHP-like declaration "Name(&$a, $b, &...$rest)".
// The name may be "Class::method" or "?::method".
func ParseDeclaration(decl string) (Signature, error) {
	open := strings.Index(decl, "(")
	closing := strings.LastIndex(decl, ")")
	if open <= 0 || closing < open {
		return Signature{}, errors.Newf(errors.CodeValidationError, "function signature %q is not of the form name(params)", decl)
	}
	name := strings.TrimSpace(decl[:open])
	name = strings.TrimSpace(strings.TrimPrefix(name, "function "))
	sig := Signature{Name: name}
	params := strings.TrimSpace(decl[open+1 : closing])
	if params == "" {
		return sig, nil
	}
	for pos, param := range strings.Split(params, ",") {
		dollar := strings.Index(param, "$")
		if dollar < 0 {
			return Signature{}, errors.Newf(errors.CodeValidationError, "function signature %q: parameter %d has no variable", decl, pos)
		}
		head := param[:dollar]
		if !strings.Contains(head, "&") {
			continue
		}
		sig.Refs = append(sig.Refs, pos)
		if strings.Contains(head, "...") {
			for p := pos + 1; p <= maxVariadicPosition; p++ {
				sig.Refs = append(sig.Refs, p)
			}
		}
	}
	return sig, nil
}
