package translate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"cloud.google.com/go/translate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/tastebase/recipe-api/internal/domain"
)

// fakeTranslator uppercases inputs, or fails wholesale when broken.
type fakeTranslator struct {
	broken bool
	calls  []string
}

func (f *fakeTranslator) Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error) {
	f.calls = append(f.calls, inputs...)
	if f.broken {
		return nil, errors.New("quota exceeded")
	}
	out := make([]translate.Translation, len(inputs))
	for i, in := range inputs {
		out[i] = translate.Translation{Text: "<" + in + ">"}
	}
	return out, nil
}

func testService(f *fakeTranslator) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newService(f, language.Spanish, logger)
}

func testRecipe() *domain.Recipe {
	return &domain.Recipe{
		Name:        "Lentil Soup",
		Description: "A hearty soup.",
		Ingredients: []domain.Ingredient{
			{Item: "lentils", Amount: "2", Unit: "cups", Notes: "rinsed"},
			{Item: "water", Amount: "1,5", Unit: "l"},
		},
		Instructions: []domain.Instruction{
			{StepNumber: 1, Text: "Simmer the lentils."},
			{StepNumber: 2, Text: "Season to taste."},
		},
		Healthify: domain.Healthify{
			Cut:  domain.HealthifySection{Ingredients: []string{"skip the oil"}, Instructions: []string{"dry saute"}, CaloriesPerPortion: 180, Notes: "lighter"},
			Bulk: domain.HealthifySection{Ingredients: []string{"add spinach"}, Instructions: []string{"stir in greens"}, CaloriesPerPortion: 320, Notes: "more volume"},
		},
	}
}

func TestTranslate_MirrorsAllTranslatableFields(t *testing.T) {
	f := &fakeTranslator{}
	s := testService(f)

	tr, err := s.Translate(context.Background(), testRecipe())
	require.NoError(t, err)

	assert.Equal(t, "<Lentil Soup>", tr.Name)
	assert.Equal(t, "<A hearty soup.>", tr.Description)

	require.Len(t, tr.Ingredients, 2)
	assert.Equal(t, "<lentils>", tr.Ingredients[0].Item)
	assert.Equal(t, "<rinsed>", tr.Ingredients[0].Notes)
	assert.Equal(t, "2", tr.Ingredients[0].Amount, "amounts are not translated")
	assert.Equal(t, "cups", tr.Ingredients[0].Unit)

	require.Len(t, tr.Instructions, 2)
	assert.Equal(t, 1, tr.Instructions[0].StepNumber)
	assert.Equal(t, "<Simmer the lentils.>", tr.Instructions[0].Text)

	require.NotNil(t, tr.Healthify)
	assert.Equal(t, []string{"<skip the oil>"}, tr.Healthify.Cut.Ingredients)
	assert.Equal(t, []string{"<dry saute>"}, tr.Healthify.Cut.Instructions)
	assert.Equal(t, "<lighter>", tr.Healthify.Cut.Notes)
	assert.Equal(t, 180, tr.Healthify.Cut.CaloriesPerPortion, "calories carry over unchanged")
	assert.Equal(t, "<more volume>", tr.Healthify.Bulk.Notes)
}

func TestTranslate_SkipsNumericOnlyStrings(t *testing.T) {
	f := &fakeTranslator{}
	s := testService(f)

	tr, err := s.Translate(context.Background(), testRecipe())
	require.NoError(t, err)

	// "1,5" is numeric-only and must be passed through without an API call.
	assert.Equal(t, "<water>", tr.Ingredients[1].Item)
	assert.NotContains(t, f.calls, "1,5")
}

func TestTranslate_FieldFailuresFallBackToOriginal(t *testing.T) {
	f := &fakeTranslator{broken: true}
	s := testService(f)

	recipe := testRecipe()
	tr, err := s.Translate(context.Background(), recipe)
	require.NoError(t, err, "a broken backend degrades, it does not error")

	assert.Equal(t, recipe.Name, tr.Name)
	assert.Equal(t, recipe.Description, tr.Description)
	assert.Equal(t, recipe.Instructions[0].Text, tr.Instructions[0].Text)
	assert.Equal(t, recipe.Healthify.Cut.Notes, tr.Healthify.Cut.Notes)
}

func TestApplyTranslation_PopulatesLocalMirrors(t *testing.T) {
	f := &fakeTranslator{}
	s := testService(f)

	recipe := testRecipe()
	tr, err := s.Translate(context.Background(), recipe)
	require.NoError(t, err)

	recipe.ApplyTranslation(tr)

	assert.Equal(t, "<Lentil Soup>", recipe.NameLocal)
	assert.Equal(t, "<A hearty soup.>", recipe.DescriptionLocal)
	require.Len(t, recipe.InstructionsLocal, 2)
	require.NotNil(t, recipe.HealthifyLocal)
	assert.Equal(t, "Lentil Soup", recipe.Name, "original fields untouched")
}
