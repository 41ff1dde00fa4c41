// Package postgres implements storage.Store on a single PostgreSQL
// connection. In manual-commit mode every mutation lands in one long-lived
// transaction that Flush commits and reopens; in auto-commit mode each
// statement commits on its own.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ettorre/wordarena/internal/dependencies/clock"
	"github.com/ettorre/wordarena/internal/dependencies/random"
	"github.com/ettorre/wordarena/internal/model"
	"github.com/ettorre/wordarena/internal/ranking"
	"github.com/ettorre/wordarena/internal/storage"
)

// querier is the subset of pgx shared by *pgx.Conn and pgx.Tx, so the same
// statement helpers serve both commit modes.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	// mu serializes all access; pgx connections are not safe for
	// concurrent use and the worker pool calls in from many goroutines
	mu         sync.Mutex
	conn       *pgx.Conn
	tx         pgx.Tx
	autoCommit bool

	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// New connects to databaseURL, creates the schema if needed, and bootstraps
// the admin account.
func New(ctx context.Context, databaseURL string, autoCommit bool, clk clock.Clock, rnd random.Random, logger *slog.Logger) (*Store, error) {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	s := &Store{
		conn:       conn,
		autoCommit: autoCommit,
		clock:      clk,
		random:     rnd,
		logger:     logger.With(slog.String("component", "postgres-store")),
	}
	if err := s.createSchema(ctx); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	if err := s.bootstrapAdmin(ctx); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	if !autoCommit {
		if err := s.beginLocked(ctx); err != nil {
			conn.Close(ctx)
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username        TEXT PRIMARY KEY,
			hashed_password TEXT NOT NULL,
			role            TEXT NOT NULL,
			subscribed_at   TIMESTAMPTZ NOT NULL,
			last_game_at    TIMESTAMPTZ,
			games_played    INT NOT NULL DEFAULT 0,
			current_streak  INT NOT NULL DEFAULT 0,
			longest_streak  INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS extracted_words (
			id           SERIAL PRIMARY KEY,
			word         TEXT NOT NULL UNIQUE,
			extracted_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id            SERIAL PRIMARY KEY,
			username      TEXT NOT NULL REFERENCES users (username),
			word          TEXT NOT NULL,
			guesses       INT NOT NULL DEFAULT 0,
			won           BOOLEAN NOT NULL DEFAULT FALSE,
			closed        BOOLEAN NOT NULL DEFAULT FALSE,
			guess_history TEXT NOT NULL DEFAULT '',
			hint_history  TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL,
			UNIQUE (username, word)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func (s *Store) bootstrapAdmin(ctx context.Context) error {
	tag, err := s.conn.Exec(ctx,
		`INSERT INTO users (username, hashed_password, role, subscribed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (username) DO NOTHING`,
		"admin", storage.HashPassword(s.random, "changeme"), model.RoleAdmin, s.clock.Now())
	if err != nil {
		return fmt.Errorf("bootstrapping admin: %w", err)
	}
	if tag.RowsAffected() > 0 {
		s.logger.Info("bootstrapped admin account")
	}
	return nil
}

// q returns the executor for the current commit mode. Callers hold mu.
func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

func (s *Store) beginLocked(ctx context.Context) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// User operations

// Duplicate inserts use ON CONFLICT DO NOTHING rather than letting the
// unique constraint raise. In manual-commit mode a raised error would abort
// the shared transaction and poison every statement until the next Flush.

func (s *Store) InsertUser(ctx context.Context, username, password, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, err := s.q().Exec(ctx,
		`INSERT INTO users (username, hashed_password, role, subscribed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (username) DO NOTHING`,
		username, storage.HashPassword(s.random, password), role, s.clock.Now())
	if err != nil {
		return fmt.Errorf("inserting user %s: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inserting user %s: %w", username, model.ErrUserExists)
	}
	return nil
}

func (s *Store) ValidateUser(ctx context.Context, username, password string) (model.Authorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hashed, role string
	err := s.q().QueryRow(ctx,
		`SELECT hashed_password, role FROM users WHERE username = $1`,
		username).Scan(&hashed, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.NotAuthorized, fmt.Errorf("validating user %s: %w", username, model.ErrUserNotFound)
	}
	if err != nil {
		return model.NotAuthorized, fmt.Errorf("validating user %s: %w", username, err)
	}
	if !storage.VerifyPassword(hashed, password) {
		return model.NotAuthorized, nil
	}
	return model.AuthorizationForRole(role), nil
}

func (s *Store) ResetUserStreak(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, err := s.q().Exec(ctx,
		`UPDATE users SET current_streak = 0 WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("resetting streak for %s: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("resetting streak for %s: %w", username, model.ErrUserNotFound)
	}
	return nil
}

func (s *Store) ResetStreaksForWord(ctx context.Context, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.q().Exec(ctx,
		`UPDATE users SET current_streak = 0
		 WHERE username NOT IN (SELECT username FROM games WHERE word = $1 AND won)`,
		word)
	if err != nil {
		return fmt.Errorf("resetting streaks for word: %w", err)
	}
	return nil
}

// Game operations

func (s *Store) InsertGame(ctx context.Context, username, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, err := s.q().Exec(ctx,
		`INSERT INTO games (username, word, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (username, word) DO NOTHING`,
		username, word, s.clock.Now())
	if err != nil {
		return fmt.Errorf("inserting game for %s: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inserting game for %s: %w", username, model.ErrGameExists)
	}
	_, err = s.q().Exec(ctx,
		`UPDATE users SET games_played = games_played + 1, last_game_at = $2
		 WHERE username = $1`,
		username, s.clock.Now())
	if err != nil {
		return fmt.Errorf("inserting game for %s: %w", username, err)
	}
	return nil
}

func (s *Store) gameFlag(ctx context.Context, username, word, column string) (bool, error) {
	// column is one of the fixed callers below, never user input
	var value bool
	err := s.q().QueryRow(ctx,
		`SELECT `+column+` FROM games WHERE username = $1 AND word = $2`,
		username, word).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("reading game for %s: %w", username, model.ErrGameNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("reading game for %s: %w", username, err)
	}
	return value, nil
}

func (s *Store) IsPlaying(ctx context.Context, username, word string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	closed, err := s.gameFlag(ctx, username, word, "closed")
	if errors.Is(err, model.ErrGameNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !closed, nil
}

func (s *Store) IsGameWon(ctx context.Context, username, word string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameFlag(ctx, username, word, "won")
}

func (s *Store) IsGameClosed(ctx context.Context, username, word string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameFlag(ctx, username, word, "closed")
}

func (s *Store) CloseGame(ctx context.Context, username, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, err := s.q().Exec(ctx,
		`UPDATE games SET closed = TRUE WHERE username = $1 AND word = $2`,
		username, word)
	if err != nil {
		return fmt.Errorf("closing game for %s: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("closing game for %s: %w", username, model.ErrGameNotFound)
	}
	return nil
}

func (s *Store) SetVictory(ctx context.Context, username, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, err := s.q().Exec(ctx,
		`UPDATE games SET won = TRUE WHERE username = $1 AND word = $2`,
		username, word)
	if err != nil {
		return fmt.Errorf("recording victory for %s: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recording victory for %s: %w", username, model.ErrGameNotFound)
	}
	_, err = s.q().Exec(ctx,
		`UPDATE users
		 SET current_streak = current_streak + 1,
		     longest_streak = GREATEST(longest_streak, current_streak + 1)
		 WHERE username = $1`,
		username)
	if err != nil {
		return fmt.Errorf("recording victory for %s: %w", username, err)
	}
	return nil
}

func (s *Store) RecordGuess(ctx context.Context, username, word, guess, hint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	closed, err := s.gameFlag(ctx, username, word, "closed")
	if err != nil {
		return err
	}
	if closed {
		return fmt.Errorf("recording guess for %s: %w", username, model.ErrGameClosed)
	}
	_, err = s.q().Exec(ctx,
		`UPDATE games
		 SET guesses = guesses + 1,
		     guess_history = CASE WHEN guess_history = '' THEN $3 ELSE guess_history || ':' || $3 END,
		     hint_history  = CASE WHEN hint_history  = '' THEN $4 ELSE hint_history  || ':' || $4 END
		 WHERE username = $1 AND word = $2`,
		username, word, guess, hint)
	if err != nil {
		return fmt.Errorf("recording guess for %s: %w", username, err)
	}
	return nil
}

func (s *Store) gameColumnByWordID(ctx context.Context, username string, wordID int, column string, dest any) (bool, error) {
	err := s.q().QueryRow(ctx,
		`SELECT g.`+column+`
		 FROM games g JOIN extracted_words w ON w.word = g.word
		 WHERE g.username = $1 AND w.id = $2`,
		username, wordID).Scan(dest)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading game for %s: %w", username, err)
	}
	return true, nil
}

func (s *Store) GuessCount(ctx context.Context, username string, wordID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int
	found, err := s.gameColumnByWordID(ctx, username, wordID, "guesses", &count)
	if err != nil {
		return 0, err
	}
	if !found {
		return -1, nil
	}
	return count, nil
}

func (s *Store) GuessHistory(ctx context.Context, username string, wordID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var history string
	if _, err := s.gameColumnByWordID(ctx, username, wordID, "guess_history", &history); err != nil {
		return "", err
	}
	return history, nil
}

func (s *Store) HintHistory(ctx context.Context, username string, wordID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var history string
	if _, err := s.gameColumnByWordID(ctx, username, wordID, "hint_history", &history); err != nil {
		return "", err
	}
	return history, nil
}

// Extracted word operations

func (s *Store) InsertExtractedWord(ctx context.Context, word string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var id int
	err := s.q().QueryRow(ctx,
		`INSERT INTO extracted_words (word, extracted_at) VALUES ($1, $2)
		 ON CONFLICT (word) DO NOTHING
		 RETURNING id`,
		word, s.clock.Now()).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("extracting word: %w", model.ErrWordExtracted)
	}
	if err != nil {
		return 0, fmt.Errorf("extracting word: %w", err)
	}
	return id, nil
}

func (s *Store) WordAlreadyExtracted(ctx context.Context, word string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var exists bool
	err := s.q().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM extracted_words WHERE word = $1)`,
		word).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking extracted word: %w", err)
	}
	return exists, nil
}

func (s *Store) WordByID(ctx context.Context, id int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var word string
	err := s.q().QueryRow(ctx,
		`SELECT word FROM extracted_words WHERE id = $1`, id).Scan(&word)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up word: %w", err)
	}
	return word, nil
}

// Aggregates

func (s *Store) UserStatistics(ctx context.Context, username string) (*model.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.Statistics{}
	err := s.q().QueryRow(ctx,
		`SELECT games_played, current_streak, longest_streak
		 FROM users WHERE username = $1`,
		username).Scan(&stats.GamesPlayed, &stats.CurrentStreak, &stats.LongestStreak)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("statistics for %s: %w", username, model.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("statistics for %s: %w", username, err)
	}

	rows, err := s.q().Query(ctx,
		`SELECT guesses, COUNT(*) FROM games
		 WHERE username = $1 AND won GROUP BY guesses`,
		username)
	if err != nil {
		return nil, fmt.Errorf("statistics for %s: %w", username, err)
	}
	defer rows.Close()
	won := 0
	for rows.Next() {
		var guesses, count int
		if err := rows.Scan(&guesses, &count); err != nil {
			return nil, fmt.Errorf("statistics for %s: %w", username, err)
		}
		if guesses >= 1 && guesses <= model.MaxGuesses {
			stats.GuessDistribution[guesses-1] = count
		}
		won += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("statistics for %s: %w", username, err)
	}
	if stats.GamesPlayed > 0 {
		stats.GamesWonPct = float64(won) / float64(stats.GamesPlayed)
	}
	return stats, nil
}

func (s *Store) Ranking(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.q().Query(ctx,
		`SELECT u.username, u.games_played, COALESCE(g.guesses, 0), COUNT(g.id)
		 FROM users u
		 LEFT JOIN games g ON g.username = u.username AND g.won
		 GROUP BY u.username, u.games_played, g.guesses
		 ORDER BY u.username`,
		)
	if err != nil {
		return nil, fmt.Errorf("computing ranking: %w", err)
	}
	defer rows.Close()

	played := map[string]int{}
	dists := map[string]*[model.MaxGuesses]int{}
	for rows.Next() {
		var username string
		var gamesPlayed, guesses, count int
		if err := rows.Scan(&username, &gamesPlayed, &guesses, &count); err != nil {
			return nil, fmt.Errorf("computing ranking: %w", err)
		}
		played[username] = gamesPlayed
		dist, ok := dists[username]
		if !ok {
			dist = &[model.MaxGuesses]int{}
			dists[username] = dist
		}
		if guesses >= 1 && guesses <= model.MaxGuesses {
			dist[guesses-1] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("computing ranking: %w", err)
	}

	entries := make([]ranking.Entry, 0, len(played))
	for username, gamesPlayed := range played {
		entries = append(entries, ranking.Entry{
			Username: username,
			Score:    ranking.Score(gamesPlayed, *dists[username]),
		})
	}
	return ranking.Order(entries), nil
}

// Lifecycle

func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return nil
	}
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	s.tx = nil
	return s.beginLocked(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		if err := s.tx.Commit(ctx); err != nil {
			s.logger.Error("final commit failed", slog.String("error", err.Error()))
		}
		s.tx = nil
	}
	if err := s.conn.Close(ctx); err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}
	return nil
}
