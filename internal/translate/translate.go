// Package translate implements the translation stage: producing the
// target-language mirror of an extracted recipe via the Google Cloud
// Translation API. Individual field failures fall back to the original
// text so a flaky translation backend can only degrade the result.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"

	"github.com/tastebase/recipe-api/internal/config"
	"github.com/tastebase/recipe-api/internal/domain"
)

// numericOnly matches strings with no translatable content (amounts, "1,5").
var numericOnly = regexp.MustCompile(`^[\d\s.,]+$`)

// textTranslator is the minimal surface of the Cloud Translation client the
// service needs. It exists so tests can substitute a fake.
type textTranslator interface {
	Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error)
}

// Service translates recipes field by field into the configured target
// language.
type Service struct {
	client textTranslator
	target language.Tag
	logger *slog.Logger
}

// New creates a translation service from configuration. It relies on
// application-default credentials for the Cloud Translation API.
func New(ctx context.Context, cfg config.TranslateConfig, logger *slog.Logger) (*Service, error) {
	target, err := language.Parse(cfg.TargetLanguage)
	if err != nil {
		return nil, fmt.Errorf("invalid target language %q: %w", cfg.TargetLanguage, err)
	}

	client, err := translate.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create translate client: %w", err)
	}

	return newService(client, target, logger), nil
}

func newService(client textTranslator, target language.Tag, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client: client,
		target: target,
		logger: logger.With(slog.String("component", "translate")),
	}
}

// Translate builds the translated mirror of a recipe. Fields that fail to
// translate keep their original-language text; Translate itself only errors
// when it produced nothing at all, so callers can treat any partial result
// as usable.
func (s *Service) Translate(ctx context.Context, recipe *domain.Recipe) (*domain.Translation, error) {
	s.logger.InfoContext(ctx, "translating recipe",
		"recipe", recipe.Name,
		"target", s.target.String())

	t := &domain.Translation{
		Name:        s.text(ctx, recipe.Name),
		Description: s.text(ctx, recipe.Description),
	}

	if len(recipe.Ingredients) > 0 {
		t.Ingredients = s.ingredients(ctx, recipe.Ingredients)
	}

	if len(recipe.Instructions) > 0 {
		t.Instructions = make([]domain.Instruction, len(recipe.Instructions))
		for i, inst := range recipe.Instructions {
			t.Instructions[i] = domain.Instruction{
				StepNumber: inst.StepNumber,
				Text:       s.text(ctx, inst.Text),
			}
		}
	}

	t.Healthify = &domain.Healthify{
		Cut:  s.healthifySection(ctx, recipe.Healthify.Cut),
		Bulk: s.healthifySection(ctx, recipe.Healthify.Bulk),
	}

	return t, nil
}

func (s *Service) ingredients(ctx context.Context, in []domain.Ingredient) []domain.Ingredient {
	out := make([]domain.Ingredient, len(in))
	for i, ing := range in {
		out[i] = ing // amount and unit carry over untranslated
		out[i].Item = s.text(ctx, ing.Item)
		out[i].Notes = s.text(ctx, ing.Notes)
	}
	return out
}

func (s *Service) healthifySection(ctx context.Context, sec domain.HealthifySection) domain.HealthifySection {
	out := sec
	if len(sec.Ingredients) > 0 {
		out.Ingredients = make([]string, len(sec.Ingredients))
		for i, ing := range sec.Ingredients {
			out.Ingredients[i] = s.text(ctx, ing)
		}
	}
	if len(sec.Instructions) > 0 {
		out.Instructions = make([]string, len(sec.Instructions))
		for i, inst := range sec.Instructions {
			out.Instructions[i] = s.text(ctx, inst)
		}
	}
	out.Notes = s.text(ctx, sec.Notes)
	return out
}

// text translates a single string, returning the input unchanged for empty
// or numeric-only values and on any API error.
func (s *Service) text(ctx context.Context, in string) string {
	if in == "" || numericOnly.MatchString(in) {
		return in
	}

	res, err := s.client.Translate(ctx, []string{in}, s.target, nil)
	if err != nil || len(res) == 0 {
		s.logger.WarnContext(ctx, "field translation failed, keeping original",
			"error", err,
			"chars", len(in))
		return in
	}
	return res[0].Text
}
