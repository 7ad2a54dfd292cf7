// Package docblock reads @var annotations from PHP doc comments.
package docblock

import (
	"regexp"
	"strings"
)

var (
	varTag  = regexp.MustCompile(`@var\s+([^@\n\r*]*)`)
	varName = regexp.MustCompile(`^\$[A-Za-z_\x80-\xff][A-Za-z0-9_\x80-\xff]*$`)
)

// Annotation is one variable named by an @var tag. Type is empty when the
// tag names no type.
type Annotation struct {
	Name string
	Type string
}

// Vars extracts "@var [Type] $a[, $b...]" annotations in order of
// appearance. Malformed tags are ignored.
func Vars(comment string) []Annotation {
	var out []Annotation
	for _, m := range varTag.FindAllStringSubmatch(comment, -1) {
		out = append(out, parseTag(m[1])...)
	}
	return out
}

func parseTag(body string) []Annotation {
	fields := strings.Fields(strings.ReplaceAll(body, ",", " , "))
	if len(fields) == 0 {
		return nil
	}
	typ := ""
	if !strings.HasPrefix(fields[0], "$") {
		typ = fields[0]
		fields = fields[1:]
	}
	var out []Annotation
	expectName := true
	for _, f := range fields {
		switch {
		case f == ",":
			expectName = true
		case expectName && varName.MatchString(f):
			out = append(out, Annotation{Name: f, Type: typ})
			expectName = false
		default:
			// Anything after the name list is a free-text description.
			return out
		}
	}
	return out
}
