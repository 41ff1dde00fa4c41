package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ettorre/wordarena/internal/dependencies/mocks"
	"github.com/ettorre/wordarena/internal/model"
	"github.com/ettorre/wordarena/internal/testutil"
)

type StoreSuite struct {
	suite.Suite
	store  *Store
	clock  *mocks.MockClock
	random *mocks.MockRandom
	path   string
	ctx    context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.path = filepath.Join(s.T().TempDir(), "state.json")
	s.ctx = context.Background()

	var err error
	s.store, err = New(s.path, false, s.clock, s.random, testutil.NopLogger())
	s.Require().NoError(err)
}

// registerPlayer is a shorthand for the insert boilerplate most tests need.
func (s *StoreSuite) registerPlayer(username string) {
	s.Require().NoError(s.store.InsertUser(s.ctx, username, "pw-"+username, model.RoleUser))
}

// User tests

func (s *StoreSuite) TestInsertUserAndValidate() {
	s.registerPlayer("alice")

	auth, err := s.store.ValidateUser(s.ctx, "alice", "pw-alice")
	s.Require().NoError(err)
	s.Equal(model.AuthorizedUser, auth)
}

func (s *StoreSuite) TestValidateUserWrongPassword() {
	s.registerPlayer("alice")

	auth, err := s.store.ValidateUser(s.ctx, "alice", "wrong")
	s.Require().NoError(err)
	s.Equal(model.NotAuthorized, auth)
}

func (s *StoreSuite) TestValidateUnknownUser() {
	_, err := s.store.ValidateUser(s.ctx, "nobody", "pw")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StoreSuite) TestInsertDuplicateUser() {
	s.registerPlayer("alice")

	err := s.store.InsertUser(s.ctx, "alice", "other", model.RoleUser)
	s.ErrorIs(err, model.ErrUserExists)
}

func (s *StoreSuite) TestAdminBootstrap() {
	auth, err := s.store.ValidateUser(s.ctx, "admin", "changeme")
	s.Require().NoError(err)
	s.Equal(model.AuthorizedAdmin, auth)
}

// Game tests

func (s *StoreSuite) TestInsertGameIncrementsGamesPlayed() {
	s.registerPlayer("alice")
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))

	stats, err := s.store.UserStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, stats.GamesPlayed)
}

func (s *StoreSuite) TestInsertGameTwice() {
	s.registerPlayer("alice")
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))

	err := s.store.InsertGame(s.ctx, "alice", "APPLEBERRY")
	s.ErrorIs(err, model.ErrGameExists)
}

func (s *StoreSuite) TestGameLifecycle() {
	s.registerPlayer("alice")
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))

	playing, err := s.store.IsPlaying(s.ctx, "alice", "APPLEBERRY")
	s.Require().NoError(err)
	s.True(playing)

	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.CloseGame(s.ctx, "alice", "APPLEBERRY"))

	won, err := s.store.IsGameWon(s.ctx, "alice", "APPLEBERRY")
	s.Require().NoError(err)
	s.True(won)

	closed, err := s.store.IsGameClosed(s.ctx, "alice", "APPLEBERRY")
	s.Require().NoError(err)
	s.True(closed)

	playing, err = s.store.IsPlaying(s.ctx, "alice", "APPLEBERRY")
	s.Require().NoError(err)
	s.False(playing)
}

func (s *StoreSuite) TestRecordGuessOnClosedGame() {
	s.registerPlayer("alice")
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.CloseGame(s.ctx, "alice", "APPLEBERRY"))

	err := s.store.RecordGuess(s.ctx, "alice", "APPLEBERRY", "BLUEBERRYX", "XXXXXXXXXX")
	s.ErrorIs(err, model.ErrGameClosed)
}

func (s *StoreSuite) TestGuessHistories() {
	s.registerPlayer("alice")
	id, err := s.store.InsertExtractedWord(s.ctx, "APPLEBERRY")
	s.Require().NoError(err)
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))

	s.Require().NoError(s.store.RecordGuess(s.ctx, "alice", "APPLEBERRY", "BLUEBERRYX", "XX?++++XXX"))
	s.Require().NoError(s.store.RecordGuess(s.ctx, "alice", "APPLEBERRY", "APPLEBERRY", "++++++++++"))

	count, err := s.store.GuessCount(s.ctx, "alice", id)
	s.Require().NoError(err)
	s.Equal(2, count)

	guesses, err := s.store.GuessHistory(s.ctx, "alice", id)
	s.Require().NoError(err)
	s.Equal("BLUEBERRYX:APPLEBERRY", guesses)

	hints, err := s.store.HintHistory(s.ctx, "alice", id)
	s.Require().NoError(err)
	s.Equal("XX?++++XXX:++++++++++", hints)
}

func (s *StoreSuite) TestGuessCountWithoutGame() {
	s.registerPlayer("alice")
	id, err := s.store.InsertExtractedWord(s.ctx, "APPLEBERRY")
	s.Require().NoError(err)

	count, err := s.store.GuessCount(s.ctx, "alice", id)
	s.Require().NoError(err)
	s.Equal(-1, count)
}

// Extracted word tests

func (s *StoreSuite) TestExtractedWordIDsIncrement() {
	first, err := s.store.InsertExtractedWord(s.ctx, "APPLEBERRY")
	s.Require().NoError(err)
	second, err := s.store.InsertExtractedWord(s.ctx, "BLUEBERRYX")
	s.Require().NoError(err)
	s.Equal(first+1, second)

	word, err := s.store.WordByID(s.ctx, first)
	s.Require().NoError(err)
	s.Equal("APPLEBERRY", word)

	word, err = s.store.WordByID(s.ctx, second)
	s.Require().NoError(err)
	s.Equal("BLUEBERRYX", word)
}

func (s *StoreSuite) TestExtractWordTwice() {
	_, err := s.store.InsertExtractedWord(s.ctx, "APPLEBERRY")
	s.Require().NoError(err)

	_, err = s.store.InsertExtractedWord(s.ctx, "APPLEBERRY")
	s.ErrorIs(err, model.ErrWordExtracted)

	extracted, err := s.store.WordAlreadyExtracted(s.ctx, "APPLEBERRY")
	s.Require().NoError(err)
	s.True(extracted)
}

func (s *StoreSuite) TestWordLookupMisses() {
	word, err := s.store.WordByID(s.ctx, 999)
	s.Require().NoError(err)
	s.Equal("", word)

	extracted, err := s.store.WordAlreadyExtracted(s.ctx, "NEVERDRAWN")
	s.Require().NoError(err)
	s.False(extracted)
}

// Streak and aggregate tests

func (s *StoreSuite) TestVictoryExtendsStreak() {
	s.registerPlayer("alice")
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "BLUEBERRYX"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "BLUEBERRYX"))

	stats, err := s.store.UserStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(2, stats.CurrentStreak)
	s.Equal(2, stats.LongestStreak)
}

func (s *StoreSuite) TestResetUserStreakKeepsLongest() {
	s.registerPlayer("alice")
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "APPLEBERRY"))

	s.Require().NoError(s.store.ResetUserStreak(s.ctx, "alice"))

	stats, err := s.store.UserStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(0, stats.CurrentStreak)
	s.Equal(1, stats.LongestStreak)
}

func (s *StoreSuite) TestResetStreaksForWordSparesWinners() {
	s.registerPlayer("alice")
	s.registerPlayer("bob")
	s.registerPlayer("carol")

	// alice won the word, bob lost it, carol never played
	for _, username := range []string{"alice", "bob"} {
		s.Require().NoError(s.store.InsertGame(s.ctx, username, "APPLEBERRY"))
	}
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.InsertGame(s.ctx, "carol", "BLUEBERRYX"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "carol", "BLUEBERRYX"))

	s.Require().NoError(s.store.ResetStreaksForWord(s.ctx, "APPLEBERRY"))

	aliceStats, err := s.store.UserStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, aliceStats.CurrentStreak)

	carolStats, err := s.store.UserStatistics(s.ctx, "carol")
	s.Require().NoError(err)
	s.Equal(0, carolStats.CurrentStreak)
}

func (s *StoreSuite) TestStatisticsDistributionAndPct() {
	s.registerPlayer("alice")
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.RecordGuess(s.ctx, "alice", "APPLEBERRY", "APPLEBERRY", "++++++++++"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "BLUEBERRYX"))
	s.Require().NoError(s.store.CloseGame(s.ctx, "alice", "BLUEBERRYX"))

	stats, err := s.store.UserStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(2, stats.GamesPlayed)
	s.InDelta(0.5, stats.GamesWonPct, 0.001)
	s.Equal(1, stats.GuessDistribution[0])
}

func (s *StoreSuite) TestRankingOrdersByScore() {
	s.registerPlayer("alice")
	s.registerPlayer("bob")
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.RecordGuess(s.ctx, "alice", "APPLEBERRY", "APPLEBERRY", "++++++++++"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.InsertGame(s.ctx, "bob", "APPLEBERRY"))
	s.Require().NoError(s.store.CloseGame(s.ctx, "bob", "APPLEBERRY"))

	order, err := s.store.Ranking(s.ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(order)
	s.Equal("alice", order[0])

	// admin has no games and sorts with an infinite score
	s.Equal("admin", order[len(order)-1])
}

func (s *StoreSuite) TestRankingStableForTiedUsers() {
	// several users with no games all tie; the order must not depend on
	// map iteration, or watchers would see phantom ranking changes
	for _, username := range []string{"mallory", "alice", "bob", "carol", "dave"} {
		s.registerPlayer(username)
	}

	first, err := s.store.Ranking(s.ctx)
	s.Require().NoError(err)
	for i := 0; i < 20; i++ {
		again, err := s.store.Ranking(s.ctx)
		s.Require().NoError(err)
		s.Equal(first, again)
	}
}

// Persistence tests

func (s *StoreSuite) TestFlushAndReload() {
	s.registerPlayer("alice")
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.RecordGuess(s.ctx, "alice", "APPLEBERRY", "APPLEBERRY", "++++++++++"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "APPLEBERRY"))
	id, err := s.store.InsertExtractedWord(s.ctx, "APPLEBERRY")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Flush(s.ctx))

	reloaded, err := New(s.path, false, s.clock, s.random, testutil.NopLogger())
	s.Require().NoError(err)

	auth, err := reloaded.ValidateUser(s.ctx, "alice", "pw-alice")
	s.Require().NoError(err)
	s.Equal(model.AuthorizedUser, auth)

	word, err := reloaded.WordByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("APPLEBERRY", word)

	guesses, err := reloaded.GuessHistory(s.ctx, "alice", id)
	s.Require().NoError(err)
	s.Equal("APPLEBERRY", guesses)
}

func (s *StoreSuite) TestAutoFlushWritesImmediately() {
	auto, err := New(filepath.Join(s.T().TempDir(), "auto.json"), true, s.clock, s.random, testutil.NopLogger())
	s.Require().NoError(err)

	s.Require().NoError(auto.InsertUser(s.ctx, "alice", "pw", model.RoleUser))

	data, err := os.ReadFile(auto.path)
	s.Require().NoError(err)
	s.Contains(string(data), "alice")

	// each later mutation lands too, even with the stale-write guard
	s.Require().NoError(auto.InsertUser(s.ctx, "bob", "pw", model.RoleUser))

	data, err = os.ReadFile(auto.path)
	s.Require().NoError(err)
	s.Contains(string(data), "alice")
	s.Contains(string(data), "bob")
}

func (s *StoreSuite) TestNoFileWrittenBeforeFlush() {
	s.registerPlayer("alice")

	_, err := os.Stat(s.path)
	s.ErrorIs(err, os.ErrNotExist)
}
