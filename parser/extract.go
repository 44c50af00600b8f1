package parser

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdparser "github.com/gomarkdown/markdown/parser"
)

// ExtractJSON returns the part of raw most likely to hold the JSON object:
// the body of the first fenced code block if there is one, narrowed to the
// outermost brace span. Text without braces is returned trimmed.
func ExtractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	if strings.Contains(text, "```") || strings.Contains(text, "~~~") {
		if block, ok := firstFencedBlock(text); ok {
			text = strings.TrimSpace(block)
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func firstFencedBlock(text string) (string, bool) {
	// gomarkdown parsers keep state and cannot be reused across documents.
	p := mdparser.NewWithExtensions(mdparser.CommonExtensions)
	doc := markdown.Parse([]byte(text), p)

	var (
		body  string
		found bool
	)
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if cb, ok := node.(*ast.CodeBlock); ok && cb.IsFenced {
			body = string(cb.Literal)
			found = true
			return ast.Terminate
		}
		return ast.GoToNext
	})
	return body, found
}
