package model

import (
	"strings"
	"time"
)

// MaxGuesses is the number of attempts a player gets per word
const MaxGuesses = 12

// GameKey uniquely identifies a game: a user may attempt a given extracted
// word at most once
type GameKey struct {
	Username string
	Word     string
}

// Game is one user's attempt at one extracted word
type Game struct {
	ID       int
	Username string
	Word     string
	Guesses  int
	Won      bool
	Closed   bool
	// GuessHistory and HintHistory are colon-delimited, in guess order
	GuessHistory string
	HintHistory  string
	CreatedAt    time.Time
}

// Key returns the identity key for this game
func (g *Game) Key() GameKey {
	return GameKey{Username: g.Username, Word: g.Word}
}

// AppendHistory appends an entry to a colon-delimited history string
func AppendHistory(history, entry string) string {
	if history == "" {
		return entry
	}
	return history + ":" + entry
}

// SplitHistory splits a colon-delimited history string, empty-safe
func SplitHistory(history string) []string {
	if history == "" {
		return nil
	}
	return strings.Split(history, ":")
}
