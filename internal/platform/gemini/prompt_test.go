package gemini

import (
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsedTemplate(t *testing.T) *template.Template {
	t.Helper()
	tmpl, err := template.New("extract").Parse(extractPromptTemplate)
	require.NoError(t, err)
	return tmpl
}

func TestBuildPrompt_EmbedsSourceContentAndTaxonomy(t *testing.T) {
	prompt, err := buildPrompt(parsedTemplate(t), "Boil pasta for 9 minutes.", "https://example.com/pasta", 0)
	require.NoError(t, err)

	assert.Contains(t, prompt, "https://example.com/pasta")
	assert.Contains(t, prompt, "Boil pasta for 9 minutes.")
	assert.Contains(t, prompt, "Main Course")
	assert.Contains(t, prompt, "Keto / Low-Carb")
	assert.Contains(t, prompt, "Boiling / Simmering")
	assert.Contains(t, prompt, "Kids-Friendly")
	assert.Contains(t, prompt, `"healthify"`)
	assert.Contains(t, prompt, `"imagePrompt"`)
}

func TestBuildPrompt_TruncatesContent(t *testing.T) {
	content := strings.Repeat("x", 500)
	prompt, err := buildPrompt(parsedTemplate(t), content, "src", 100)
	require.NoError(t, err)

	assert.Contains(t, prompt, strings.Repeat("x", 100))
	assert.NotContains(t, prompt, strings.Repeat("x", 101))
}

func TestBuildPrompt_RejectsEmptyContent(t *testing.T) {
	_, err := buildPrompt(parsedTemplate(t), "", "src", 0)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

const validRecipeJSON = `{
	"name": "Pasta al Pomodoro",
	"description": "Simple tomato pasta.",
	"totalTime": "30 minutes",
	"servings": 2,
	"caloriesPerPortion": 520,
	"ingredients": [{"item": "spaghetti", "amount": "200", "unit": "g"}],
	"instructions": [{"stepNumber": 1, "instruction": "Boil the pasta."}],
	"healthify": {
		"cut": {"ingredients": ["use whole-grain pasta"], "instructions": ["reduce oil"], "caloriesPerPortion": 430, "notes": "lighter"},
		"bulk": {"ingredients": ["add chickpeas"], "instructions": ["stir in chickpeas"], "caloriesPerPortion": 640, "notes": "more protein"}
	},
	"imagePrompt": "a plate of spaghetti with tomato sauce",
	"course_type": "Main Course",
	"dietary_type": "Vegetarian",
	"cooking_method": "Boiling / Simmering",
	"special_tags": "Quick Meals"
}`

func TestParseRecipe_ValidJSON(t *testing.T) {
	recipe, err := parseRecipe(validRecipeJSON)
	require.NoError(t, err)

	assert.Equal(t, "Pasta al Pomodoro", recipe.Name)
	assert.Equal(t, 2, recipe.Servings)
	require.Len(t, recipe.Instructions, 1)
	assert.Equal(t, "Boil the pasta.", recipe.Instructions[0].Text)
	assert.Equal(t, "lighter", recipe.Healthify.Cut.Notes)
	assert.Equal(t, "more protein", recipe.Healthify.Bulk.Notes)
	assert.Equal(t, "Main Course", recipe.CourseType)
}

func TestParseRecipe_StripsCodeFence(t *testing.T) {
	fenced := "```json\n" + validRecipeJSON + "\n```"
	recipe, err := parseRecipe(fenced)
	require.NoError(t, err)
	assert.Equal(t, "Pasta al Pomodoro", recipe.Name)
}

func TestParseRecipe_RejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "empty", reply: ""},
		{name: "not_json", reply: "I could not find a recipe in the text."},
		{name: "missing_name", reply: `{"instructions": [{"stepNumber": 1, "instruction": "stir"}]}`},
		{name: "missing_instructions", reply: `{"name": "Toast"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRecipe(tt.reply)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}
