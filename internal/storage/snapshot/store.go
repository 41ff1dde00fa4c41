// Package snapshot implements storage.Store on in-memory maps with a JSON
// snapshot file on disk. All reads are served from memory; mutations either
// rewrite the snapshot immediately (auto mode) or wait for a periodic Flush.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ettorre/wordarena/internal/dependencies/clock"
	"github.com/ettorre/wordarena/internal/dependencies/random"
	"github.com/ettorre/wordarena/internal/model"
	"github.com/ettorre/wordarena/internal/ranking"
	"github.com/ettorre/wordarena/internal/storage"
)

const (
	bootstrapUsername = "admin"
	bootstrapPassword = "changeme"
)

// Store keeps all state in maps guarded by a single RWMutex. Snapshots are
// captured under that lock but encoded and written to disk outside it, so a
// slow disk never blocks readers; fileMu serializes the writes themselves.
type Store struct {
	mu    sync.RWMutex
	users map[string]*model.User
	games map[model.GameKey]*model.Game
	// words is indexed both ways; the two maps always agree
	wordsByText map[string]*model.ExtractedWord
	wordsByID   map[int]*model.ExtractedWord
	nextWordID  int
	nextGameID  int
	// generation is bumped under mu by every mutation; captures carry the
	// generation they saw so racing writers cannot regress the file
	generation uint64

	fileMu    sync.Mutex
	written   uint64
	path      string
	autoFlush bool

	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// New loads the snapshot at path if one exists, otherwise starts empty and
// bootstraps the admin account. With autoFlush set, every mutation rewrites
// the snapshot; otherwise state reaches disk only on Flush and Close.
func New(path string, autoFlush bool, clk clock.Clock, rnd random.Random, logger *slog.Logger) (*Store, error) {
	s := &Store{
		users:       map[string]*model.User{},
		games:       map[model.GameKey]*model.Game{},
		wordsByText: map[string]*model.ExtractedWord{},
		wordsByID:   map[int]*model.ExtractedWord{},
		path:        path,
		autoFlush:   autoFlush,
		clock:       clk,
		random:      rnd,
		logger:      logger.With(slog.String("component", "snapshot-store")),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	if _, ok := s.users[bootstrapUsername]; !ok {
		s.users[bootstrapUsername] = &model.User{
			Username:       bootstrapUsername,
			HashedPassword: storage.HashPassword(rnd, bootstrapPassword),
			Role:           model.RoleAdmin,
			SubscribedAt:   clk.Now(),
		}
		s.logger.Info("bootstrapped admin account")
	}
	return s, nil
}

// mutate runs fn under the write lock. When auto-flush is on and fn
// succeeded, it captures a snapshot before unlocking and writes it to disk
// after, so readers are never held up by the file write.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	err := fn()
	if err == nil {
		s.generation++
	}
	if err != nil || !s.autoFlush {
		s.mu.Unlock()
		return err
	}
	file, gen := s.captureLocked()
	s.mu.Unlock()
	return s.writeSnapshot(file, gen)
}

// User operations

func (s *Store) InsertUser(_ context.Context, username, password, role string) error {
	return s.mutate(func() error {
		if _, ok := s.users[username]; ok {
			return fmt.Errorf("inserting user %s: %w", username, model.ErrUserExists)
		}
		s.users[username] = &model.User{
			Username:       username,
			HashedPassword: storage.HashPassword(s.random, password),
			Role:           role,
			SubscribedAt:   s.clock.Now(),
		}
		return nil
	})
}

func (s *Store) ValidateUser(_ context.Context, username, password string) (model.Authorization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return model.NotAuthorized, fmt.Errorf("validating user %s: %w", username, model.ErrUserNotFound)
	}
	if !storage.VerifyPassword(user.HashedPassword, password) {
		return model.NotAuthorized, nil
	}
	return model.AuthorizationForRole(user.Role), nil
}

func (s *Store) ResetUserStreak(_ context.Context, username string) error {
	return s.mutate(func() error {
		user, ok := s.users[username]
		if !ok {
			return fmt.Errorf("resetting streak for %s: %w", username, model.ErrUserNotFound)
		}
		user.CurrentStreak = 0
		return nil
	})
}

func (s *Store) ResetStreaksForWord(_ context.Context, word string) error {
	return s.mutate(func() error {
		for username, user := range s.users {
			game, ok := s.games[model.GameKey{Username: username, Word: word}]
			if ok && game.Won {
				continue
			}
			user.CurrentStreak = 0
		}
		return nil
	})
}

// Game operations

func (s *Store) InsertGame(_ context.Context, username, word string) error {
	return s.mutate(func() error {
		key := model.GameKey{Username: username, Word: word}
		if _, ok := s.games[key]; ok {
			return fmt.Errorf("inserting game for %s: %w", username, model.ErrGameExists)
		}
		user, ok := s.users[username]
		if !ok {
			return fmt.Errorf("inserting game for %s: %w", username, model.ErrUserNotFound)
		}
		s.nextGameID++
		s.games[key] = &model.Game{
			ID:        s.nextGameID,
			Username:  username,
			Word:      word,
			CreatedAt: s.clock.Now(),
		}
		user.GamesPlayed++
		user.LastGameAt = s.clock.Now()
		return nil
	})
}

func (s *Store) IsPlaying(_ context.Context, username, word string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[model.GameKey{Username: username, Word: word}]
	return ok && !game.Closed, nil
}

func (s *Store) IsGameWon(_ context.Context, username, word string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[model.GameKey{Username: username, Word: word}]
	if !ok {
		return false, fmt.Errorf("checking victory for %s: %w", username, model.ErrGameNotFound)
	}
	return game.Won, nil
}

func (s *Store) IsGameClosed(_ context.Context, username, word string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[model.GameKey{Username: username, Word: word}]
	if !ok {
		return false, fmt.Errorf("checking closure for %s: %w", username, model.ErrGameNotFound)
	}
	return game.Closed, nil
}

func (s *Store) CloseGame(_ context.Context, username, word string) error {
	return s.mutate(func() error {
		game, ok := s.games[model.GameKey{Username: username, Word: word}]
		if !ok {
			return fmt.Errorf("closing game for %s: %w", username, model.ErrGameNotFound)
		}
		game.Closed = true
		return nil
	})
}

func (s *Store) SetVictory(_ context.Context, username, word string) error {
	return s.mutate(func() error {
		game, ok := s.games[model.GameKey{Username: username, Word: word}]
		if !ok {
			return fmt.Errorf("recording victory for %s: %w", username, model.ErrGameNotFound)
		}
		game.Won = true
		user := s.users[username]
		user.CurrentStreak++
		if user.CurrentStreak > user.LongestStreak {
			user.LongestStreak = user.CurrentStreak
		}
		return nil
	})
}

func (s *Store) RecordGuess(_ context.Context, username, word, guess, hint string) error {
	return s.mutate(func() error {
		game, ok := s.games[model.GameKey{Username: username, Word: word}]
		if !ok {
			return fmt.Errorf("recording guess for %s: %w", username, model.ErrGameNotFound)
		}
		if game.Closed {
			return fmt.Errorf("recording guess for %s: %w", username, model.ErrGameClosed)
		}
		game.Guesses++
		game.GuessHistory = model.AppendHistory(game.GuessHistory, guess)
		game.HintHistory = model.AppendHistory(game.HintHistory, hint)
		return nil
	})
}

func (s *Store) GuessCount(_ context.Context, username string, wordID int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.gameByWordIDLocked(username, wordID)
	if !ok {
		return -1, nil
	}
	return game.Guesses, nil
}

func (s *Store) GuessHistory(_ context.Context, username string, wordID int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.gameByWordIDLocked(username, wordID)
	if !ok {
		return "", nil
	}
	return game.GuessHistory, nil
}

func (s *Store) HintHistory(_ context.Context, username string, wordID int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.gameByWordIDLocked(username, wordID)
	if !ok {
		return "", nil
	}
	return game.HintHistory, nil
}

func (s *Store) gameByWordIDLocked(username string, wordID int) (*model.Game, bool) {
	word, ok := s.wordsByID[wordID]
	if !ok {
		return nil, false
	}
	game, ok := s.games[model.GameKey{Username: username, Word: word.Word}]
	return game, ok
}

// Extracted word operations

func (s *Store) InsertExtractedWord(_ context.Context, word string) (int, error) {
	var id int
	err := s.mutate(func() error {
		if _, ok := s.wordsByText[word]; ok {
			return fmt.Errorf("extracting word: %w", model.ErrWordExtracted)
		}
		s.nextWordID++
		extracted := &model.ExtractedWord{
			ID:          s.nextWordID,
			Word:        word,
			ExtractedAt: s.clock.Now(),
		}
		s.wordsByText[word] = extracted
		s.wordsByID[extracted.ID] = extracted
		id = extracted.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) WordAlreadyExtracted(_ context.Context, word string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.wordsByText[word]
	return ok, nil
}

func (s *Store) WordByID(_ context.Context, id int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	extracted, ok := s.wordsByID[id]
	if !ok {
		return "", nil
	}
	return extracted.Word, nil
}

// Aggregates

func (s *Store) UserStatistics(_ context.Context, username string) (*model.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("statistics for %s: %w", username, model.ErrUserNotFound)
	}
	stats := &model.Statistics{
		GamesPlayed:       user.GamesPlayed,
		CurrentStreak:     user.CurrentStreak,
		LongestStreak:     user.LongestStreak,
		GuessDistribution: s.distributionLocked(username),
	}
	if user.GamesPlayed > 0 {
		won := 0
		for _, count := range stats.GuessDistribution {
			won += count
		}
		stats.GamesWonPct = float64(won) / float64(user.GamesPlayed)
	}
	return stats, nil
}

func (s *Store) Ranking(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]ranking.Entry, 0, len(s.users))
	for username, user := range s.users {
		entries = append(entries, ranking.Entry{
			Username: username,
			Score:    ranking.Score(user.GamesPlayed, s.distributionLocked(username)),
		})
	}
	return ranking.Order(entries), nil
}

func (s *Store) distributionLocked(username string) [model.MaxGuesses]int {
	var dist [model.MaxGuesses]int
	for key, game := range s.games {
		if key.Username != username || !game.Won {
			continue
		}
		if game.Guesses >= 1 && game.Guesses <= model.MaxGuesses {
			dist[game.Guesses-1]++
		}
	}
	return dist
}

// Lifecycle

func (s *Store) Flush(_ context.Context) error {
	s.mu.RLock()
	file, gen := s.captureLocked()
	s.mu.RUnlock()
	return s.writeSnapshot(file, gen)
}

func (s *Store) Close(ctx context.Context) error {
	return s.Flush(ctx)
}

// captureLocked copies all state into a snapshotFile. Callers hold at least
// the read lock.
func (s *Store) captureLocked() (snapshotFile, uint64) {
	file := snapshotFile{
		NextWordID: s.nextWordID,
		NextGameID: s.nextGameID,
	}
	for _, user := range s.users {
		file.Users = append(file.Users, persistedUser{
			Username:       user.Username,
			HashedPassword: user.HashedPassword,
			Role:           user.Role,
			SubscribedAt:   user.SubscribedAt.UnixMilli(),
			LastGameAt:     user.LastGameAt.UnixMilli(),
			GamesPlayed:    user.GamesPlayed,
			CurrentStreak:  user.CurrentStreak,
			LongestStreak:  user.LongestStreak,
		})
	}
	for _, game := range s.games {
		file.Games = append(file.Games, persistedGame{
			ID:           game.ID,
			Username:     game.Username,
			Word:         game.Word,
			Guesses:      game.Guesses,
			Won:          game.Won,
			Closed:       game.Closed,
			GuessHistory: game.GuessHistory,
			HintHistory:  game.HintHistory,
			CreatedAt:    game.CreatedAt.UnixMilli(),
		})
	}
	for _, word := range s.wordsByID {
		file.Words = append(file.Words, persistedWord{
			ID:          word.ID,
			Word:        word.Word,
			ExtractedAt: word.ExtractedAt.UnixMilli(),
		})
	}
	return file, s.generation
}

// writeSnapshot replaces the file on disk unless a newer capture already
// made it there.
func (s *Store) writeSnapshot(file snapshotFile, gen uint64) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	if gen < s.written {
		return nil
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	s.written = gen
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if dir := filepath.Dir(s.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating snapshot directory: %w", err)
			}
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	s.nextWordID = file.NextWordID
	s.nextGameID = file.NextGameID
	for _, user := range file.Users {
		s.users[user.Username] = user.toModel()
	}
	for _, game := range file.Games {
		restored := game.toModel()
		s.games[restored.Key()] = restored
	}
	for _, word := range file.Words {
		restored := word.toModel()
		s.wordsByText[restored.Word] = restored
		s.wordsByID[restored.ID] = restored
	}
	s.logger.Info("loaded snapshot",
		slog.Int("users", len(s.users)),
		slog.Int("games", len(s.games)),
		slog.Int("words", len(s.wordsByID)))
	return nil
}
