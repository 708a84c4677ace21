package gemini

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/tastebase/recipe-api/internal/domain"
)

//go:embed prompts/extract.tmpl
var extractPromptTemplate string

// promptData feeds the extraction prompt template. The taxonomy lists are
// pre-joined so the template stays flat.
type promptData struct {
	Source         string
	CourseTypes    string
	DietaryTypes   string
	CookingMethods string
	SpecialTags    string
	Content        string
}

// buildPrompt renders the extraction prompt for the given page text and
// source label, embedding the taxonomy constraints the model must obey.
func buildPrompt(tmpl *template.Template, content, source string, maxChars int) (string, error) {
	if content == "" {
		return "", ErrEmptyContent
	}

	if maxChars > 0 {
		if runes := []rune(content); len(runes) > maxChars {
			content = string(runes[:maxChars])
		}
	}

	data := promptData{
		Source:         source,
		CourseTypes:    strings.Join(domain.CourseTypes, ", "),
		DietaryTypes:   strings.Join(domain.DietaryTypes, ", "),
		CookingMethods: strings.Join(domain.CookingMethods, ", "),
		SpecialTags:    strings.Join(domain.SpecialTags, ", "),
		Content:        content,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// parseRecipe decodes the model's JSON reply into a recipe, tolerating a
// markdown code fence around the payload.
func parseRecipe(reply string) (*domain.Recipe, error) {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrInvalidResponse)
	}

	trimmed = stripCodeFence(trimmed)

	var recipe domain.Recipe
	if err := json.Unmarshal([]byte(trimmed), &recipe); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON: %v", ErrInvalidResponse, err)
	}

	if err := recipe.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &recipe, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence if present.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
