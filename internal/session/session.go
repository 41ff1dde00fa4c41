// Package session holds the in-memory token table. Sessions never touch
// storage; a restart logs everyone out.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/ettorre/wordarena/internal/dependencies/clock"
	"github.com/ettorre/wordarena/internal/dependencies/random"
)

const (
	tokenLength = 32
	// the hex digest is 64 chars, so any offset below 31 leaves room
	maxTokenOffset = 31
	nonceSpace     = 100000
)

type session struct {
	username string
	lastSeen time.Time
}

// Table maps tokens to logged-in users. A user holds at most one session.
type Table struct {
	mu       sync.RWMutex
	byToken  map[string]*session
	byUser   map[string]string
	clock    clock.Clock
	random   random.Random
}

func NewTable(clk clock.Clock, rnd random.Random) *Table {
	return &Table{
		byToken: map[string]*session{},
		byUser:  map[string]string{},
		clock:   clk,
		random:  rnd,
	}
}

// Create opens a session for username and returns its token. If the user is
// already logged in the existing token is returned with existing set.
func (t *Table) Create(username string) (token string, existing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token, ok := t.byUser[username]; ok {
		return token, true
	}
	token = t.newToken(username)
	t.byToken[token] = &session{username: username, lastSeen: t.clock.Now()}
	t.byUser[username] = token
	return token, false
}

// Resolve maps a token back to its username without touching the timestamp.
func (t *Table) Resolve(token string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sess, ok := t.byToken[token]
	if !ok {
		return "", false
	}
	return sess.username, true
}

// Renew refreshes the session timestamp and returns the session's username.
func (t *Table) Renew(token string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.byToken[token]
	if !ok {
		return "", false
	}
	sess.lastSeen = t.clock.Now()
	return sess.username, true
}

// Remove closes the session. Removing an unknown token is a no-op.
func (t *Table) Remove(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.byToken[token]
	if !ok {
		return
	}
	delete(t.byUser, sess.username)
	delete(t.byToken, token)
}

// Count returns the number of live sessions.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byToken)
}

// newToken derives a token from the current time, the username and a nonce,
// then slices a 32-char window out of the digest at a random offset.
// Callers hold mu.
func (t *Table) newToken(username string) string {
	seed := fmt.Sprintf("%d%s%d", t.clock.Now().UnixMilli(), username, t.random.Intn(nonceSpace))
	sum := sha256.Sum256([]byte(seed))
	digest := hex.EncodeToString(sum[:])
	offset := t.random.Intn(maxTokenOffset)
	return digest[offset : offset+tokenLength]
}
