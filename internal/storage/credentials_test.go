package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ettorre/wordarena/internal/dependencies/mocks"
)

func TestHashPassword(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(42)

	stored := HashPassword(rnd, "hunter2")
	salt, digest, found := strings.Cut(stored, ":")
	require.True(t, found)
	assert.Equal(t, "42", salt)
	assert.Len(t, digest, 64)
}

func TestVerifyPassword(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(7)
	stored := HashPassword(rnd, "correct horse")

	assert.True(t, VerifyPassword(stored, "correct horse"))
	assert.False(t, VerifyPassword(stored, "battery staple"))
	assert.False(t, VerifyPassword("notacredential", "correct horse"))
}
