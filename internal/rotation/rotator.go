// Package rotation owns the secret word lifecycle: extraction of a fresh
// word when the previous one expires, the streak penalty for players who
// missed it, and ranking-change notifications.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ettorre/wordarena/internal/dependencies/clock"
	"github.com/ettorre/wordarena/internal/model"
	"github.com/ettorre/wordarena/internal/ranking"
	"github.com/ettorre/wordarena/internal/storage"
	"github.com/ettorre/wordarena/internal/words"
)

// pickAttempts bounds the retry loop when the word list runs low on
// never-extracted words.
const pickAttempts = 100

// Notifier receives the new top positions when the ranking head changes.
type Notifier interface {
	NotifyRankingChanged(top []string)
}

// Translator resolves the secret word's translation at extraction time.
type Translator interface {
	Translate(ctx context.Context, word string) string
}

// Current is the secret word in play.
type Current struct {
	Word        string
	ID          int
	Translation string
	ExtractedAt time.Time
}

// Rotator drives word rotation and ranking watches. Poll is called on a
// fixed schedule; rotation happens only when the timeout has elapsed.
type Rotator struct {
	mu      sync.RWMutex
	current Current
	// rotated is false until the first word has been extracted
	rotated bool

	rankingMu   sync.RWMutex
	lastRanking []string

	store      storage.Store
	words      *words.Service
	translator Translator
	notifier   Notifier
	clock      clock.Clock
	timeout    time.Duration
	logger     *slog.Logger
}

func New(store storage.Store, wordList *words.Service, translator Translator, notifier Notifier, clk clock.Clock, timeout time.Duration, logger *slog.Logger) *Rotator {
	return &Rotator{
		store:      store,
		words:      wordList,
		translator: translator,
		notifier:   notifier,
		clock:      clk,
		timeout:    timeout,
		logger:     logger.With(slog.String("component", "rotation")),
	}
}

// Current returns the word in play. ok is false before the first extraction.
func (r *Rotator) Current() (Current, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.rotated
}

// TimeRemaining reports how long the current word stays in play.
func (r *Rotator) TimeRemaining() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.rotated {
		return 0
	}
	remaining := r.timeout - r.clock.Now().Sub(r.current.ExtractedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Poll rotates the word if its time is up and refreshes the ranking watch.
// It is the body of the scheduler tick.
func (r *Rotator) Poll(ctx context.Context) error {
	if err := r.maybeRotate(ctx); err != nil {
		return err
	}
	return r.watchRanking(ctx)
}

func (r *Rotator) maybeRotate(ctx context.Context) error {
	// Poll runs on the single scheduler goroutine, so the rotator is the
	// only writer. The lock covers just the read and the final swap; the
	// storage round trips and the translation call run outside it so
	// readers are never stalled behind a slow backend.
	r.mu.RLock()
	previous, rotated := r.current, r.rotated
	r.mu.RUnlock()

	if rotated && r.clock.Now().Sub(previous.ExtractedAt) < r.timeout {
		return nil
	}

	word, id, err := r.extractFresh(ctx)
	if err != nil {
		return err
	}

	// Players who never beat the outgoing word lose their streak. The
	// first extraction has no outgoing word, so nobody is penalized.
	if rotated {
		if err := r.store.ResetStreaksForWord(ctx, previous.Word); err != nil {
			return fmt.Errorf("rotating word: %w", err)
		}
	}

	next := Current{
		Word:        word,
		ID:          id,
		Translation: r.translator.Translate(ctx, word),
		ExtractedAt: r.clock.Now(),
	}

	r.mu.Lock()
	r.current = next
	r.rotated = true
	r.mu.Unlock()

	r.logger.Info("rotated secret word",
		slog.Int("word_id", id),
		slog.String("previous", previous.Word))
	return nil
}

// extractFresh picks candidates until one that was never extracted before
// sticks.
func (r *Rotator) extractFresh(ctx context.Context) (string, int, error) {
	for attempt := 0; attempt < pickAttempts; attempt++ {
		candidate := r.words.Pick()
		extracted, err := r.store.WordAlreadyExtracted(ctx, candidate)
		if err != nil {
			return "", 0, fmt.Errorf("extracting word: %w", err)
		}
		if extracted {
			continue
		}
		id, err := r.store.InsertExtractedWord(ctx, candidate)
		if err == nil {
			return candidate, id, nil
		}
		// Lost a race with nobody (single rotator), so anything but the
		// duplicate sentinel is a real failure
		if !isDuplicate(err) {
			return "", 0, fmt.Errorf("extracting word: %w", err)
		}
	}
	return "", 0, fmt.Errorf("extracting word: no fresh candidates after %d attempts", pickAttempts)
}

func isDuplicate(err error) bool {
	return errors.Is(err, model.ErrWordExtracted)
}

func (r *Rotator) watchRanking(ctx context.Context) error {
	order, err := r.store.Ranking(ctx)
	if err != nil {
		return fmt.Errorf("watching ranking: %w", err)
	}

	r.rankingMu.Lock()
	changed := ranking.TopChanged(r.lastRanking, order)
	r.lastRanking = order
	r.rankingMu.Unlock()

	if changed {
		top := order
		if len(top) > ranking.TopSize {
			top = top[:ranking.TopSize]
		}
		r.logger.Info("ranking top changed", slog.Any("top", top))
		r.notifier.NotifyRankingChanged(top)
	}
	return nil
}
