package storage

import (
	"context"

	"github.com/ettorre/wordarena/internal/model"
)

// Store defines the persistence contract shared by the postgres and snapshot
// backends. Every operation the dispatcher or the rotator performs lives
// here; callers never reach into backend internals or their locking.
//
// Failures that map onto a model sentinel (not found, conflict) are returned
// as those sentinels. Anything else is an infrastructure failure the caller
// treats as fatal.
type Store interface {
	// User operations
	InsertUser(ctx context.Context, username, password, role string) error
	ValidateUser(ctx context.Context, username, password string) (model.Authorization, error)
	ResetUserStreak(ctx context.Context, username string) error
	// ResetStreaksForWord zeroes the current streak of every user who played
	// the given word and lost, and every user who never played it at all
	ResetStreaksForWord(ctx context.Context, word string) error

	// Game operations; games are keyed by (username, word)
	InsertGame(ctx context.Context, username, word string) error
	IsPlaying(ctx context.Context, username, word string) (bool, error)
	IsGameWon(ctx context.Context, username, word string) (bool, error)
	IsGameClosed(ctx context.Context, username, word string) (bool, error)
	CloseGame(ctx context.Context, username, word string) error
	SetVictory(ctx context.Context, username, word string) error
	RecordGuess(ctx context.Context, username, word, guess, hint string) error
	// GuessCount returns -1 when no game exists for the pair
	GuessCount(ctx context.Context, username string, wordID int) (int, error)
	GuessHistory(ctx context.Context, username string, wordID int) (string, error)
	HintHistory(ctx context.Context, username string, wordID int) (string, error)

	// Extracted word operations
	InsertExtractedWord(ctx context.Context, word string) (int, error)
	WordAlreadyExtracted(ctx context.Context, word string) (bool, error)
	// WordByID returns "" when no word carries the id
	WordByID(ctx context.Context, id int) (string, error)

	// Aggregates
	UserStatistics(ctx context.Context, username string) (*model.Statistics, error)
	// Ranking returns up to the top 10 usernames, best score first
	Ranking(ctx context.Context) ([]string, error)

	// Lifecycle. Flush persists pending state (commit or snapshot write);
	// Close flushes once more and releases the backend.
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}
