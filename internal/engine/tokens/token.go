// # internal/engine/tokens/token.go
package tokens

import "strings"

// Kind classifies a lexical token.
type Kind int

const (
	None Kind = iota
	Variable
	Ident
	Keyword
	Punct
	String
	Number
	Comment
	DocComment
	OpenTag
	CloseTag
	InlineHTML
)

var kindNames = [...]string{
	None:       "none",
	Variable:   "variable",
	Ident:      "ident",
	Keyword:    "keyword",
	Punct:      "punct",
	String:     "string",
	Number:     "number",
	Comment:    "comment",
	DocComment: "doc_comment",
	OpenTag:    "open_tag",
	CloseTag:   "close_tag",
	InlineHTML: "inline_html",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Token is one lexical unit of a PHP file. Index is the token's position in
// its Stream and is stable for the lifetime of the stream.
type Token struct {
	Kind  Kind
	Text  string
	Line  int
	Index int
}

var noToken = Token{Kind: None, Index: -1}

// Valid reports whether the token exists in the stream.
func (t Token) Valid() bool {
	return t.Kind != None
}

// Is reports whether t is the punctuation or keyword spelled text.
// Keywords compare case-insensitively.
func (t Token) Is(text string) bool {
	switch t.Kind {
	case Punct, CloseTag:
		return t.Text == text
	case Keyword:
		return strings.EqualFold(t.Text, text)
	}
	return false
}

// IsAny reports whether t matches one of texts, see Is.
func (t Token) IsAny(texts ...string) bool {
	for _, text := range texts {
		if t.Is(text) {
			return true
		}
	}
	return false
}

// IsVariable reports whether t is a $variable.
func (t Token) IsVariable() bool {
	return t.Kind == Variable
}

// Trivia tokens are skipped by Next and Prev.
func (t Token) Trivia() bool {
	switch t.Kind {
	case Comment, DocComment, OpenTag, InlineHTML:
		return true
	}
	return false
}

// EndsStatement reports whether t terminates a statement.
func (t Token) EndsStatement() bool {
	return (t.Kind == Punct && t.Text == ";") || t.Kind == CloseTag
}

// Lower returns the lowercase text, used for keyword and function names.
func (t Token) Lower() string {
	return strings.ToLower(t.Text)
}

var keywords = map[string]bool{
	"abstract": true, "and": true, "array": true, "as": true, "break": true,
	"callable": true, "case": true, "catch": true, "class": true, "clone": true,
	"const": true, "continue": true, "declare": true, "default": true, "die": true,
	"do": true, "echo": true, "else": true, "elseif": true, "empty": true,
	"enddeclare": true, "endfor": true, "endforeach": true, "endif": true,
	"endswitch": true, "endwhile": true, "eval": true, "exit": true,
	"extends": true, "final": true, "finally": true, "fn": true, "for": true,
	"foreach": true, "function": true, "global": true, "goto": true, "if": true,
	"implements": true, "include": true, "include_once": true,
	"instanceof": true, "insteadof": true, "interface": true, "isset": true,
	"list": true, "match": true, "namespace": true, "new": true, "or": true,
	"print": true, "private": true, "protected": true, "public": true,
	"readonly": true, "require": true, "require_once": true, "return": true,
	"static": true, "switch": true, "throw": true, "trait": true, "try": true,
	"unset": true, "use": true, "var": true, "while": true, "xor": true,
	"yield": true, "__halt_compiler": true,
}

// Names following these tokens are member, declaration or class names and
// never keywords.
var nameContext = map[string]bool{
	"->": true, "?->": true, "::": true, "\\": true,
	"function": true, "const": true, "class": true, "interface": true,
	"trait": true, "enum": true, "extends": true, "implements": true,
	"new": true, "instanceof": true, "insteadof": true,
}

// Classify returns Keyword or Ident for an identifier-shaped word given the
// previous significant token.
func Classify(word string, prev Token) Kind {
	if !keywords[strings.ToLower(word)] {
		return Ident
	}
	if (prev.Kind == Punct || prev.Kind == Keyword) && nameContext[strings.ToLower(prev.Text)] {
		// "new static" and "new class" still open keyword constructs.
		if lw := strings.ToLower(word); prev.Is("new") && (lw == "static" || lw == "class") {
			return Keyword
		}
		return Ident
	}
	return Keyword
}

// IsWord reports whether s is shaped like a PHP identifier.
func IsWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= 0x80:
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
