// Package languages registers tree-sitter grammars for the chunker.
package languages

import (
	"vecgrep/internal/chunker"

	"github.com/smacker/go-tree-sitter/golang"
)

func RegisterGo(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Language: golang.GetLanguage(),
		Query: `
			(function_declaration) @chunk
			(method_declaration) @chunk
			(type_declaration) @chunk
		`,
		Extensions: []string{"go"},
	})
}
