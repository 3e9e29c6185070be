package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer splits a chat line into mentions, integers and words.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Mention", Pattern: `@[A-Za-z0-9_]+`},
	{Name: "Int", Pattern: `[-+]?[0-9]+`},
	{Name: "Word", Pattern: `[A-Za-z][A-Za-z0-9_'\-]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// Build creates the parser from the struct tags in ast.go. Keywords match
// without regard to case.
func Build() *participle.Parser[Command] {
	return participle.MustBuild[Command](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Word"),
		participle.UseLookahead(2),
	)
}
