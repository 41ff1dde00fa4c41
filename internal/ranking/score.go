// Package ranking holds the scoring rule shared by both storage backends.
package ranking

import (
	"math"
	"sort"

	"github.com/ettorre/wordarena/internal/model"
)

// Size is how many usernames a full ranking carries
const Size = 10

// TopSize is how many leading entries the rotator watches for churn
const TopSize = 3

// Score computes a user's ranking score; lower is better. Each won game
// contributes its guess count, and every other game is penalized as if it
// took one more than the maximum allowed guesses. The result is averaged
// over games played; a user with no games scores +Inf and sorts last.
func Score(gamesPlayed int, dist [model.MaxGuesses]int) float64 {
	if gamesPlayed == 0 {
		return math.Inf(1)
	}
	sum, guessed := 0, 0
	for i, d := range dist {
		sum += (i + 1) * d
		guessed += d
	}
	sum += (model.MaxGuesses + 1) * (gamesPlayed - guessed)
	return float64(sum) / float64(gamesPlayed)
}

// Entry pairs a username with its computed score
type Entry struct {
	Username string
	Score    float64
}

// Order sorts entries best-first and returns at most Size usernames.
// Ties break by username so the ranking is stable across calls no matter
// what order the backend scanned its users in.
func Order(entries []Entry) []string {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score < entries[j].Score
		}
		return entries[i].Username < entries[j].Username
	})
	limit := len(entries)
	if limit > Size {
		limit = Size
	}
	names := make([]string, 0, limit)
	for _, e := range entries[:limit] {
		names = append(names, e.Username)
	}
	return names
}

// TopChanged reports whether the ordered leading entries differ between two
// rankings. Used by the rotator to decide when to notify listeners.
func TopChanged(previous, current []string) bool {
	prev := len(previous)
	if prev > TopSize {
		prev = TopSize
	}
	curr := len(current)
	if curr > TopSize {
		curr = TopSize
	}
	if prev != curr {
		return true
	}
	for i := 0; i < prev; i++ {
		if previous[i] != current[i] {
			return true
		}
	}
	return false
}
