// Package postgres implements the persistence collaborator on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tastebase/recipe-api/internal/domain"
	"github.com/tastebase/recipe-api/internal/store"
)

// RecipeStore persists extracted recipes, upserting by source URL: a second
// extraction of the same page overwrites the stored record and refreshes its
// timestamp instead of creating a duplicate.
type RecipeStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewRecipeStore creates a PostgreSQL-backed recipe store. The database
// connection or transaction is managed by the caller.
func NewRecipeStore(db store.DBTX, logger *slog.Logger) *RecipeStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecipeStore{
		db:     db,
		logger: logger.With(slog.String("component", "recipe_store")),
	}
}

const upsertRecipeQuery = `
	INSERT INTO recipes (
		id, url, name, name_local, description, description_local,
		total_time, servings, calories_per_portion,
		ingredients, ingredients_local, instructions, instructions_local,
		healthify, healthify_local,
		image_prompt, image_url,
		course_type, dietary_type, cooking_method, special_tags,
		type_key, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		$14, $15, $16, $17, $18, $19, $20, $21, $22, $23
	)
	ON CONFLICT (url) DO UPDATE SET
		name = EXCLUDED.name,
		name_local = EXCLUDED.name_local,
		description = EXCLUDED.description,
		description_local = EXCLUDED.description_local,
		total_time = EXCLUDED.total_time,
		servings = EXCLUDED.servings,
		calories_per_portion = EXCLUDED.calories_per_portion,
		ingredients = EXCLUDED.ingredients,
		ingredients_local = EXCLUDED.ingredients_local,
		instructions = EXCLUDED.instructions,
		instructions_local = EXCLUDED.instructions_local,
		healthify = EXCLUDED.healthify,
		healthify_local = EXCLUDED.healthify_local,
		image_prompt = EXCLUDED.image_prompt,
		image_url = EXCLUDED.image_url,
		course_type = EXCLUDED.course_type,
		dietary_type = EXCLUDED.dietary_type,
		cooking_method = EXCLUDED.cooking_method,
		special_tags = EXCLUDED.special_tags,
		type_key = EXCLUDED.type_key,
		created_at = EXCLUDED.created_at
	RETURNING id
`

// Upsert stores the recipe under sourceKey, returning the stored record's ID.
func (s *RecipeStore) Upsert(ctx context.Context, recipe *domain.Recipe, sourceKey, typeKey string) (string, error) {
	if err := recipe.Validate(); err != nil {
		return "", err
	}

	ingredients, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	instructions, err := json.Marshal(recipe.Instructions)
	if err != nil {
		return "", fmt.Errorf("failed to marshal instructions: %w", err)
	}
	healthify, err := json.Marshal(recipe.Healthify)
	if err != nil {
		return "", fmt.Errorf("failed to marshal healthify: %w", err)
	}

	ingredientsLocal, err := marshalOptional(recipe.IngredientsLocal, len(recipe.IngredientsLocal) > 0)
	if err != nil {
		return "", err
	}
	instructionsLocal, err := marshalOptional(recipe.InstructionsLocal, len(recipe.InstructionsLocal) > 0)
	if err != nil {
		return "", err
	}
	healthifyLocal, err := marshalOptional(recipe.HealthifyLocal, recipe.HealthifyLocal != nil)
	if err != nil {
		return "", err
	}

	var id string
	err = s.db.QueryRowContext(ctx, upsertRecipeQuery,
		uuid.New(),
		sourceKey,
		recipe.Name,
		recipe.NameLocal,
		recipe.Description,
		recipe.DescriptionLocal,
		recipe.TotalTime,
		recipe.Servings,
		recipe.CaloriesPerPortion,
		ingredients,
		ingredientsLocal,
		instructions,
		instructionsLocal,
		healthify,
		healthifyLocal,
		recipe.ImagePrompt,
		recipe.ImageURL,
		recipe.CourseType,
		recipe.DietaryType,
		recipe.CookingMethod,
		recipe.SpecialTags,
		typeKey,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		s.logger.Error("failed to upsert recipe",
			slog.String("error", err.Error()),
			slog.String("source_key", sourceKey))
		return "", fmt.Errorf("failed to upsert recipe: %w", err)
	}

	s.logger.Debug("recipe upserted",
		slog.String("id", id),
		slog.String("source_key", sourceKey))
	return id, nil
}

// marshalOptional serializes v when present, or yields SQL NULL.
func marshalOptional(v interface{}, present bool) (interface{}, error) {
	if !present {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal optional field: %w", err)
	}
	return data, nil
}
