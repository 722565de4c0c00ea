package languages

import (
	"vecgrep/internal/chunker"

	"github.com/smacker/go-tree-sitter/python"
)

func RegisterPython(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Language: python.GetLanguage(),
		Query: `
			(function_definition) @chunk
			(class_definition) @chunk
			(decorated_definition) @chunk
		`,
		Extensions: []string{"py", "pyi"},
	})
}
