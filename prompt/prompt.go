// Package prompt holds the task and repair instruction templates used with
// the repair loop. Templates are langchaingo prompt templates in f-string
// format, so variables are written as {name}.
package prompt

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/smallnest/langfix/schema"
)

// Variable names shared by task and repair templates.
const (
	VarFormatInstructions = "format_instructions"
	VarBadOutput          = "bad_output"
	VarErrorMessage       = "error_msg"
)

// RepairTemplate is the default repair instruction. It carries the format
// requirements, the previous output and the error, each verbatim.
const RepairTemplate = `Your previous output could not be accepted and must be corrected.

Format requirements:
{format_instructions}

Previous output:
{bad_output}

Error:
{error_msg}

Fix the error and return only the corrected output. Do not add explanations.`

// DefaultRepair returns the default repair template.
func DefaultRepair() prompts.PromptTemplate {
	t := prompts.NewPromptTemplate(RepairTemplate, repairVariables())
	t.TemplateFormat = prompts.TemplateFormatFString
	return t
}

// NewRepair builds a repair template from text. The text must reference
// {format_instructions}, {bad_output} and {error_msg} and no other variable.
// A template NewRepair accepts always renders.
func NewRepair(text string) (prompts.PromptTemplate, error) {
	for _, v := range repairVariables() {
		if !strings.Contains(text, "{"+v+"}") {
			return prompts.PromptTemplate{}, fmt.Errorf("repair template must reference {%s}", v)
		}
	}
	t := prompts.NewPromptTemplate(text, repairVariables())
	t.TemplateFormat = prompts.TemplateFormatFString
	if _, err := RenderRepair(t, "", "", ""); err != nil {
		return prompts.PromptTemplate{}, fmt.Errorf("invalid repair template: %w", err)
	}
	return t, nil
}

// RenderRepair renders a repair template.
func RenderRepair(t prompts.PromptTemplate, formatInstructions, badOutput, errMsg string) (string, error) {
	out, err := t.Format(map[string]any{
		VarFormatInstructions: formatInstructions,
		VarBadOutput:          badOutput,
		VarErrorMessage:       errMsg,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render repair instruction: %w", err)
	}
	return out, nil
}

// NewTask builds a task template whose {format_instructions} variable is
// pre-filled from s. inputVars lists the remaining variables.
func NewTask(text string, inputVars []string, s *schema.Schema) prompts.PromptTemplate {
	t := prompts.NewPromptTemplate(text, inputVars)
	t.TemplateFormat = prompts.TemplateFormatFString
	if s != nil {
		t.PartialVariables = map[string]any{
			VarFormatInstructions: s.FormatInstructions(),
		}
	}
	return t
}

// Render formats a task template with values.
func Render(t prompts.PromptTemplate, values map[string]any) (string, error) {
	out, err := t.Format(values)
	if err != nil {
		return "", fmt.Errorf("failed to render task instruction: %w", err)
	}
	return out, nil
}

func repairVariables() []string {
	return []string{VarFormatInstructions, VarBadOutput, VarErrorMessage}
}
