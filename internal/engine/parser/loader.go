// # internal/engine/parser/loader.go
package parser

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

var (
	phpOnce sync.Once
	phpLang *sitter.Language
)

// PHPLanguage returns the PHP grammar that understands inline HTML and
// <?php ... ?> tags. The grammar is loaded once per process.
func PHPLanguage() *sitter.Language {
	phpOnce.Do(func() {
		phpLang = sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	})
	return phpLang
}
