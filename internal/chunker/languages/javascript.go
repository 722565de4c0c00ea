package languages

import (
	"vecgrep/internal/chunker"

	"github.com/smacker/go-tree-sitter/javascript"
)

func RegisterJavaScript(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Language: javascript.GetLanguage(),
		Query: `
			(function_declaration) @chunk
			(class_declaration) @chunk
			(export_statement (function_declaration)) @chunk
			(export_statement (class_declaration)) @chunk
			(lexical_declaration (variable_declarator value: (arrow_function))) @chunk
		`,
		Extensions: []string{"js", "jsx", "mjs", "cjs"},
	})
}
