package gemini

import "errors"

// Errors returned by the extraction client.
var (
	// ErrInvalidConfig indicates the client was constructed with missing or
	// invalid configuration.
	ErrInvalidConfig = errors.New("invalid gemini configuration")

	// ErrInvalidResponse indicates the model returned no content or content
	// that does not parse into a recipe.
	ErrInvalidResponse = errors.New("invalid response from gemini")

	// ErrContentBlocked indicates the model refused the request on safety
	// grounds.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrEmptyContent indicates there was no text to extract from.
	ErrEmptyContent = errors.New("content cannot be empty")
)
