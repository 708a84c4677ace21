package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	Translate TranslateConfig `mapstructure:"translate"`
	Image     ImageConfig     `mapstructure:"image"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL disables persistence: jobs still complete, but results are
// not stored (degraded-success mode).
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// LLMConfig contains the settings for the structured-extraction model.
type LLMConfig struct {
	GeminiAPIKey string  `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string  `mapstructure:"model_name" validate:"required"`
	Temperature  float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens    int     `mapstructure:"max_tokens" validate:"gte=0"`
}

// TranslateConfig contains the translation stage settings. Translation is
// skipped entirely when ProjectID is empty.
type TranslateConfig struct {
	ProjectID      string `mapstructure:"project_id"`
	TargetLanguage string `mapstructure:"target_language" validate:"omitempty,bcp47_language_tag"`
}

// ImageConfig contains the illustration stage settings. Illustration is
// skipped entirely when ProjectID or Bucket is empty.
type ImageConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	Location        string `mapstructure:"location"`
	ModelName       string `mapstructure:"model_name"`
	Bucket          string `mapstructure:"bucket"`
	AspectRatio     string `mapstructure:"aspect_ratio"`
	Width           int    `mapstructure:"width" validate:"gte=0"`
	Height          int    `mapstructure:"height" validate:"gte=0"`
	BackgroundColor string `mapstructure:"background_color" validate:"omitempty,hexcolor"`
}

// PipelineConfig contains the queue orchestrator settings.
type PipelineConfig struct {
	// TypeKey is the deployment-scoped tag stored on every persisted record.
	TypeKey string `mapstructure:"type_key"`

	// StageTimeoutSeconds bounds each stage adapter call so a stuck
	// collaborator cannot stall the queue forever.
	StageTimeoutSeconds int `mapstructure:"stage_timeout_seconds" validate:"gte=0"`

	// MaxContentChars caps the plain text handed to the extraction model.
	MaxContentChars int `mapstructure:"max_content_chars" validate:"gte=0"`
}
