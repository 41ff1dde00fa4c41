package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ettorre/wordarena/internal/dependencies/mocks"
)

func newTestTable(t *testing.T) (*Table, *mocks.MockClock) {
	t.Helper()
	clk := mocks.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewTable(clk, mocks.NewMockRandom()), clk
}

func TestCreateAndResolve(t *testing.T) {
	table, _ := newTestTable(t)

	token, existing := table.Create("alice")
	assert.False(t, existing)
	assert.Len(t, token, tokenLength)

	username, ok := table.Resolve(token)
	require.True(t, ok)
	assert.Equal(t, "alice", username)
}

func TestCreateWhileLoggedIn(t *testing.T) {
	table, _ := newTestTable(t)

	first, _ := table.Create("alice")
	second, existing := table.Create("alice")
	assert.True(t, existing)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, table.Count())
}

func TestRenewUpdatesTimestampOnly(t *testing.T) {
	table, clk := newTestTable(t)
	token, _ := table.Create("alice")

	clk.Advance(time.Hour)
	username, ok := table.Renew(token)
	require.True(t, ok)
	assert.Equal(t, "alice", username)

	resolved, ok := table.Resolve(token)
	require.True(t, ok)
	assert.Equal(t, "alice", resolved)
}

func TestRemove(t *testing.T) {
	table, _ := newTestTable(t)
	token, _ := table.Create("alice")

	table.Remove(token)
	_, ok := table.Resolve(token)
	assert.False(t, ok)

	// the user can log in again after logout
	_, existing := table.Create("alice")
	assert.False(t, existing)
}

func TestRemoveUnknownToken(t *testing.T) {
	table, _ := newTestTable(t)
	table.Remove("not-a-token")
	assert.Equal(t, 0, table.Count())
}

func TestResolveUnknownToken(t *testing.T) {
	table, _ := newTestTable(t)
	_, ok := table.Resolve("not-a-token")
	assert.False(t, ok)

	_, ok = table.Renew("not-a-token")
	assert.False(t, ok)
}

func TestTokensDifferAcrossUsers(t *testing.T) {
	table, _ := newTestTable(t)
	first, _ := table.Create("alice")
	second, _ := table.Create("bob")
	assert.NotEqual(t, first, second)
}
