package model

import "errors"

// Common errors used across the application. Storage backends normalize
// their own failure modes onto these so callers stay backend-agnostic.
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")

	// Game errors
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
	ErrGameClosed   = errors.New("game is closed")

	// Extracted word errors
	ErrWordExtracted = errors.New("word already extracted")
)
