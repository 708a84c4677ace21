// Package gemini implements the structured-extraction stage using Google's
// Gemini API: given the plain text of a recipe page, it returns the
// structured recipe record the rest of the pipeline works with.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/tastebase/recipe-api/internal/config"
	"github.com/tastebase/recipe-api/internal/domain"
	"google.golang.org/genai"
)

// Extractor calls the Gemini API to turn recipe text into a structured
// domain.Recipe.
type Extractor struct {
	logger *slog.Logger
	config config.LLMConfig

	promptTemplate *template.Template
	client         *genai.Client
	model          string

	// maxContentChars caps the page text embedded in the prompt.
	maxContentChars int
}

// NewExtractor creates a Gemini-backed extractor from the LLM configuration.
func NewExtractor(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
	maxContentChars int,
) (*Extractor, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	promptTemplate, err := template.New("extract").Parse(extractPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return &Extractor{
		logger:          logger.With(slog.String("component", "gemini_extractor")),
		config:          cfg,
		promptTemplate:  promptTemplate,
		client:          client,
		model:           cfg.ModelName,
		maxContentChars: maxContentChars,
	}, nil
}

// Extract sends the page text to the model and parses the JSON reply into a
// recipe. The source label (URL or the manual-text sentinel) is embedded in
// the prompt for attribution context.
func (e *Extractor) Extract(ctx context.Context, text, source string) (*domain.Recipe, error) {
	prompt, err := buildPrompt(e.promptTemplate, text, source, e.maxContentChars)
	if err != nil {
		return nil, err
	}

	e.logger.DebugContext(ctx, "calling gemini",
		"model", e.model,
		"source", source,
		"prompt_chars", len(prompt))

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(e.config.Temperature)),
	}
	if e.config.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(e.config.MaxTokens)
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), genConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini call failed: %w", err)
	}

	reply, err := replyText(resp)
	if err != nil {
		return nil, err
	}

	recipe, err := parseRecipe(reply)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "recipe extracted",
		"recipe", recipe.Name,
		"ingredients", len(recipe.Ingredients),
		"instructions", len(recipe.Instructions))
	return recipe, nil
}

// replyText extracts the concatenated text parts from a model response.
func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", ErrContentBlocked
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", ErrInvalidResponse)
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("%w: no text parts in response", ErrInvalidResponse)
	}
	return text, nil
}
