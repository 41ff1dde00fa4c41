package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"

	"github.com/ettorre/wordarena/internal/dependencies/mocks"
	"github.com/ettorre/wordarena/internal/model"
	"github.com/ettorre/wordarena/internal/testutil"
)

const testDBEnv = "WORDARENA_TEST_DB"

// StoreSuite runs against a real database and is skipped unless
// WORDARENA_TEST_DB holds a connection URL. Tables are dropped between tests.
type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	if os.Getenv(testDBEnv) == "" {
		t.Skipf("%s not set", testDBEnv)
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	url := os.Getenv(testDBEnv)

	conn, err := pgx.Connect(s.ctx, url)
	s.Require().NoError(err)
	_, err = conn.Exec(s.ctx, `DROP TABLE IF EXISTS games, extracted_words, users`)
	s.Require().NoError(err)
	s.Require().NoError(conn.Close(s.ctx))

	s.store, err = New(s.ctx, url, true, mocks.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)), mocks.NewMockRandom(), testutil.NopLogger())
	s.Require().NoError(err)
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close(s.ctx))
	}
}

func (s *StoreSuite) TestInsertUserAndValidate() {
	s.Require().NoError(s.store.InsertUser(s.ctx, "alice", "pw", model.RoleUser))

	auth, err := s.store.ValidateUser(s.ctx, "alice", "pw")
	s.Require().NoError(err)
	s.Equal(model.AuthorizedUser, auth)

	auth, err = s.store.ValidateUser(s.ctx, "alice", "wrong")
	s.Require().NoError(err)
	s.Equal(model.NotAuthorized, auth)
}

func (s *StoreSuite) TestInsertDuplicateUser() {
	s.Require().NoError(s.store.InsertUser(s.ctx, "alice", "pw", model.RoleUser))
	s.ErrorIs(s.store.InsertUser(s.ctx, "alice", "pw", model.RoleUser), model.ErrUserExists)
}

func (s *StoreSuite) TestAdminBootstrap() {
	auth, err := s.store.ValidateUser(s.ctx, "admin", "changeme")
	s.Require().NoError(err)
	s.Equal(model.AuthorizedAdmin, auth)
}

func (s *StoreSuite) TestGameFlow() {
	s.Require().NoError(s.store.InsertUser(s.ctx, "alice", "pw", model.RoleUser))
	id, err := s.store.InsertExtractedWord(s.ctx, "APPLEBERRY")
	s.Require().NoError(err)

	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))
	s.ErrorIs(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"), model.ErrGameExists)

	s.Require().NoError(s.store.RecordGuess(s.ctx, "alice", "APPLEBERRY", "BLUEBERRYX", "XX?++++XXX"))
	s.Require().NoError(s.store.RecordGuess(s.ctx, "alice", "APPLEBERRY", "APPLEBERRY", "++++++++++"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.CloseGame(s.ctx, "alice", "APPLEBERRY"))

	count, err := s.store.GuessCount(s.ctx, "alice", id)
	s.Require().NoError(err)
	s.Equal(2, count)

	guesses, err := s.store.GuessHistory(s.ctx, "alice", id)
	s.Require().NoError(err)
	s.Equal("BLUEBERRYX:APPLEBERRY", guesses)

	s.ErrorIs(s.store.RecordGuess(s.ctx, "alice", "APPLEBERRY", "APPLEBERRY", "++++++++++"), model.ErrGameClosed)

	stats, err := s.store.UserStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, stats.GamesPlayed)
	s.Equal(1, stats.CurrentStreak)
	s.Equal(1, stats.GuessDistribution[1])
}

func (s *StoreSuite) TestExtractWordTwice() {
	_, err := s.store.InsertExtractedWord(s.ctx, "APPLEBERRY")
	s.Require().NoError(err)
	_, err = s.store.InsertExtractedWord(s.ctx, "APPLEBERRY")
	s.ErrorIs(err, model.ErrWordExtracted)
}

func (s *StoreSuite) TestResetStreaksForWordSparesWinners() {
	s.Require().NoError(s.store.InsertUser(s.ctx, "alice", "pw", model.RoleUser))
	s.Require().NoError(s.store.InsertUser(s.ctx, "bob", "pw", model.RoleUser))

	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.InsertGame(s.ctx, "bob", "APPLEBERRY"))

	s.Require().NoError(s.store.ResetStreaksForWord(s.ctx, "APPLEBERRY"))

	aliceStats, err := s.store.UserStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, aliceStats.CurrentStreak)

	bobStats, err := s.store.UserStatistics(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(0, bobStats.CurrentStreak)
}

func (s *StoreSuite) TestRanking() {
	s.Require().NoError(s.store.InsertUser(s.ctx, "alice", "pw", model.RoleUser))
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "APPLEBERRY"))
	s.Require().NoError(s.store.RecordGuess(s.ctx, "alice", "APPLEBERRY", "APPLEBERRY", "++++++++++"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "APPLEBERRY"))

	order, err := s.store.Ranking(s.ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(order)
	s.Equal("alice", order[0])
}

func (s *StoreSuite) TestManualCommitFlush() {
	manual, err := New(s.ctx, os.Getenv(testDBEnv), false, mocks.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)), mocks.NewMockRandom(), testutil.NopLogger())
	s.Require().NoError(err)
	defer func() { s.Require().NoError(manual.Close(s.ctx)) }()

	s.Require().NoError(manual.InsertUser(s.ctx, "pending", "pw", model.RoleUser))
	s.Require().NoError(manual.Flush(s.ctx))

	auth, err := manual.ValidateUser(s.ctx, "pending", "pw")
	s.Require().NoError(err)
	s.Equal(model.AuthorizedUser, auth)
}

func (s *StoreSuite) TestManualCommitSurvivesDuplicateInserts() {
	manual, err := New(s.ctx, os.Getenv(testDBEnv), false, mocks.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)), mocks.NewMockRandom(), testutil.NopLogger())
	s.Require().NoError(err)
	defer func() { s.Require().NoError(manual.Close(s.ctx)) }()

	// duplicate conflicts must not abort the long-lived transaction;
	// later statements and the commit still have to go through
	s.Require().NoError(manual.InsertUser(s.ctx, "alice", "pw", model.RoleUser))
	s.ErrorIs(manual.InsertUser(s.ctx, "alice", "pw", model.RoleUser), model.ErrUserExists)

	_, err = manual.InsertExtractedWord(s.ctx, "APPLEBERRY")
	s.Require().NoError(err)
	_, err = manual.InsertExtractedWord(s.ctx, "APPLEBERRY")
	s.ErrorIs(err, model.ErrWordExtracted)

	s.Require().NoError(manual.InsertGame(s.ctx, "alice", "APPLEBERRY"))
	s.ErrorIs(manual.InsertGame(s.ctx, "alice", "APPLEBERRY"), model.ErrGameExists)

	s.Require().NoError(manual.RecordGuess(s.ctx, "alice", "APPLEBERRY", "APPLEBERRY", "++++++++++"))
	s.Require().NoError(manual.Flush(s.ctx))

	auth, err := manual.ValidateUser(s.ctx, "alice", "pw")
	s.Require().NoError(err)
	s.Equal(model.AuthorizedUser, auth)
}
