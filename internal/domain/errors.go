// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyRecipeName is returned when an extracted recipe carries no name.
	ErrEmptyRecipeName = errors.New("recipe name cannot be empty")

	// ErrNoInstructions is returned when an extracted recipe has no steps.
	ErrNoInstructions = errors.New("recipe must have at least one instruction")
)
