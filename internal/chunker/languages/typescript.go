package languages

import (
	"vecgrep/internal/chunker"

	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func RegisterTypeScript(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Language: typescript.GetLanguage(),
		Query: `
			(function_declaration) @chunk
			(class_declaration) @chunk
			(export_statement (function_declaration)) @chunk
			(export_statement (class_declaration)) @chunk
			(lexical_declaration (variable_declarator value: (arrow_function))) @chunk
			(interface_declaration) @chunk
			(type_alias_declaration) @chunk
		`,
		Extensions: []string{"ts", "tsx"},
	})
}
