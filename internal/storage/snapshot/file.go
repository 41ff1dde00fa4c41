package snapshot

import (
	"time"

	"github.com/ettorre/wordarena/internal/model"
)

// On-disk snapshot layout. Timestamps are persisted as unix milliseconds so
// the file stays stable across timezone changes.
type snapshotFile struct {
	NextWordID int             `json:"nextWordId"`
	NextGameID int             `json:"nextGameId"`
	Users      []persistedUser `json:"users"`
	Games      []persistedGame `json:"games"`
	Words      []persistedWord `json:"words"`
}

type persistedUser struct {
	Username       string `json:"username"`
	HashedPassword string `json:"hashedPassword"`
	Role           string `json:"role"`
	SubscribedAt   int64  `json:"subscribedAt"`
	LastGameAt     int64  `json:"lastGameAt"`
	GamesPlayed    int    `json:"gamesPlayed"`
	CurrentStreak  int    `json:"currentStreak"`
	LongestStreak  int    `json:"longestStreak"`
}

func (u persistedUser) toModel() *model.User {
	return &model.User{
		Username:       u.Username,
		HashedPassword: u.HashedPassword,
		Role:           u.Role,
		SubscribedAt:   time.UnixMilli(u.SubscribedAt),
		LastGameAt:     time.UnixMilli(u.LastGameAt),
		GamesPlayed:    u.GamesPlayed,
		CurrentStreak:  u.CurrentStreak,
		LongestStreak:  u.LongestStreak,
	}
}

type persistedGame struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Word         string `json:"word"`
	Guesses      int    `json:"guesses"`
	Won          bool   `json:"won"`
	Closed       bool   `json:"closed"`
	GuessHistory string `json:"guessHistory"`
	HintHistory  string `json:"hintHistory"`
	CreatedAt    int64  `json:"createdAt"`
}

func (g persistedGame) toModel() *model.Game {
	return &model.Game{
		ID:           g.ID,
		Username:     g.Username,
		Word:         g.Word,
		Guesses:      g.Guesses,
		Won:          g.Won,
		Closed:       g.Closed,
		GuessHistory: g.GuessHistory,
		HintHistory:  g.HintHistory,
		CreatedAt:    time.UnixMilli(g.CreatedAt),
	}
}

type persistedWord struct {
	ID          int    `json:"id"`
	Word        string `json:"word"`
	ExtractedAt int64  `json:"extractedAt"`
}

func (w persistedWord) toModel() *model.ExtractedWord {
	return &model.ExtractedWord{
		ID:          w.ID,
		Word:        w.Word,
		ExtractedAt: time.UnixMilli(w.ExtractedAt),
	}
}
