// # internal/engine/parser/parser.go
package parser

import (
	"log/slog"
	"strings"
	"time"

	"xreflint/internal/core/errors"
	"xreflint/internal/engine/tokens"
	"xreflint/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var stringKinds = map[string]bool{
	"string":                   true,
	"encapsed_string":          true,
	"heredoc":                  true,
	"nowdoc":                   true,
	"shell_command_expression": true,
}

var classKinds = map[string]bool{
	"class_declaration":     true,
	"interface_declaration": true,
	"trait_declaration":     true,
	"enum_declaration":      true,
	"anonymous_class":       true,
}

var callableKinds = map[string]bool{
	"function_definition":                   true,
	"method_declaration":                    true,
	"anonymous_function":                    true,
	"anonymous_function_creation_expression": true,
	"arrow_function":                        true,
}

// Parser turns PHP source into token streams.
type Parser struct {
	pool *ParserPool
}

func NewParser() *Parser {
	return &Parser{pool: NewParserPool(PHPLanguage())}
}

// Tokenize parses src and flattens the syntax tree into a Stream. Syntax
// errors are tolerated: the leaves of error nodes are kept in order.
func (p *Parser) Tokenize(path string, src []byte) (*tokens.Stream, error) {
	start := time.Now()
	sp := p.pool.Get()
	observability.ParserPoolLeased.Set(float64(p.pool.Leased()))
	defer func() {
		p.pool.Put(sp)
		observability.ParserPoolLeased.Set(float64(p.pool.Leased()))
		observability.ParsingDuration.Observe(time.Since(start).Seconds())
	}()

	tree := sp.Parse(src, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "tree-sitter returned no tree"), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		slog.Debug("syntax errors in source, continuing with recovered tree", "path", path)
	}

	f := &flattener{src: src}
	f.walk(root)
	return tokens.NewStream(path, f.toks, f.classes, f.methods), nil
}

type flattener struct {
	src     []byte
	toks    []tokens.Token
	prev    tokens.Token
	classes []tokens.Interval
	methods []tokens.Interval
}

func (f *flattener) walk(n *sitter.Node) {
	if n == nil || n.IsMissing() {
		return
	}
	kind := n.Kind()
	switch {
	case kind == "variable_name":
		f.emit(tokens.Variable, n.Utf8Text(f.src), n)
		return
	case stringKinds[kind]:
		f.emit(tokens.String, n.Utf8Text(f.src), n)
		f.interpolated(n)
		return
	case kind == "comment":
		text := n.Utf8Text(f.src)
		if strings.HasPrefix(text, "/**") && text != "/**/" {
			f.emit(tokens.DocComment, text, n)
		} else {
			f.emit(tokens.Comment, text, n)
		}
		return
	}

	if n.ChildCount() == 0 {
		f.leaf(n)
		return
	}

	var body *sitter.Node
	if callableKinds[kind] {
		body = n.ChildByFieldName("body")
	}
	start := len(f.toks)
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if body != nil && sameNode(child, body) {
			from := len(f.toks)
			f.walk(child)
			if len(f.toks) > from {
				f.methods = append(f.methods, tokens.Interval{Start: from, End: len(f.toks) - 1})
			}
			continue
		}
		f.walk(child)
	}
	if classKinds[kind] && len(f.toks) > start {
		name := ""
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name = nameNode.Utf8Text(f.src)
		}
		f.classes = append(f.classes, tokens.Interval{Start: start, End: len(f.toks) - 1, Name: name})
	}
}

func (f *flattener) leaf(n *sitter.Node) {
	text := n.Utf8Text(f.src)
	if text == "" {
		return
	}
	switch kind := n.Kind(); {
	case kind == "php_tag":
		f.emit(tokens.OpenTag, text, n)
	case kind == "text":
		f.emit(tokens.InlineHTML, text, n)
	case strings.TrimSpace(text) == "?>":
		f.emit(tokens.CloseTag, "?>", n)
	case kind == "integer" || kind == "float":
		f.emit(tokens.Number, text, n)
	case tokens.IsWord(text):
		f.emit(tokens.Classify(text, f.prev), text, n)
	default:
		f.emit(tokens.Punct, text, n)
	}
}

// interpolated emits the variables embedded in a string-like node.
func (f *flattener) interpolated(n *sitter.Node) {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child.Kind() == "variable_name" {
			f.emit(tokens.Variable, child.Utf8Text(f.src), child)
			continue
		}
		f.interpolated(child)
	}
}

func (f *flattener) emit(kind tokens.Kind, text string, n *sitter.Node) {
	t := tokens.Token{
		Kind:  kind,
		Text:  text,
		Line:  int(n.StartPosition().Row) + 1,
		Index: len(f.toks),
	}
	f.toks = append(f.toks, t)
	if !t.Trivia() {
		f.prev = t
	}
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}
