package model

import "time"

// ExtractedWord is a word that has been selected as the secret word at some
// point. Its numeric ID is stable for the server's lifetime and is how
// clients reference games; a word is only ever extracted once.
type ExtractedWord struct {
	ID          int
	Word        string
	ExtractedAt time.Time
}

// Statistics is the per-user aggregate returned by the statistics endpoint
type Statistics struct {
	GamesPlayed   int
	GamesWonPct   float64
	CurrentStreak int
	LongestStreak int
	// GuessDistribution[i] counts won games that took i+1 guesses
	GuessDistribution [MaxGuesses]int
}
