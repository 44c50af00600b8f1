package parser

import (
	"strings"

	"github.com/tmc/langchaingo/outputparser"
)

// ListParser parses comma separated lists. Full-width commas and ideographic
// enumeration commas, common in Chinese model output, count as separators.
type ListParser struct {
	inner outputparser.CommaSeparatedList
}

// NewListParser creates a ListParser.
func NewListParser() ListParser {
	return ListParser{inner: outputparser.NewCommaSeparatedList()}
}

var listSeparators = strings.NewReplacer("，", ",", "、", ",")

// FormatInstructions tells the model to answer with a comma separated list.
func (p ListParser) FormatInstructions() string {
	return p.inner.GetFormatInstructions()
}

// Parse splits raw into trimmed, non-empty items.
func (p ListParser) Parse(raw string) ([]string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &StructuralError{Raw: raw, Reason: "output is empty"}
	}

	values, err := p.inner.Parse(listSeparators.Replace(text))
	if err != nil {
		return nil, &StructuralError{Raw: raw, Reason: err.Error(), Err: err}
	}

	items := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			items = append(items, v)
		}
	}
	if len(items) == 0 {
		return nil, &StructuralError{Raw: raw, Reason: "list has no items"}
	}
	return items, nil
}
