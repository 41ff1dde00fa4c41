package rotation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ettorre/wordarena/internal/dependencies/mocks"
	"github.com/ettorre/wordarena/internal/model"
	"github.com/ettorre/wordarena/internal/storage/snapshot"
	"github.com/ettorre/wordarena/internal/testutil"
	"github.com/ettorre/wordarena/internal/words"
)

type stubNotifier struct {
	calls [][]string
}

func (n *stubNotifier) NotifyRankingChanged(top []string) {
	n.calls = append(n.calls, top)
}

type stubTranslator struct{}

func (stubTranslator) Translate(_ context.Context, word string) string {
	return "it:" + word
}

type blockingTranslator struct {
	started chan struct{}
	release chan struct{}
}

func (t *blockingTranslator) Translate(_ context.Context, word string) string {
	close(t.started)
	<-t.release
	return "it:" + word
}

type RotatorSuite struct {
	suite.Suite
	rotator  *Rotator
	store    *snapshot.Store
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	notifier *stubNotifier
	ctx      context.Context
}

func TestRotatorSuite(t *testing.T) {
	suite.Run(t, new(RotatorSuite))
}

const rotationTimeout = time.Minute

func (s *RotatorSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.notifier = &stubNotifier{}
	s.ctx = context.Background()

	var err error
	s.store, err = snapshot.New(filepath.Join(s.T().TempDir(), "state.json"), false,
		s.clock, s.random, testutil.NopLogger())
	s.Require().NoError(err)

	list := words.New([]string{"APPLEBERRY", "BLUEBERRYX", "CLOUDBERRY"}, s.random)
	s.rotator = New(s.store, list, stubTranslator{}, s.notifier, s.clock, rotationTimeout, testutil.NopLogger())
}

func (s *RotatorSuite) TestFirstPollExtractsWord() {
	_, ok := s.rotator.Current()
	s.False(ok)

	s.Require().NoError(s.rotator.Poll(s.ctx))

	current, ok := s.rotator.Current()
	s.Require().True(ok)
	s.Equal("APPLEBERRY", current.Word)
	s.Equal("it:APPLEBERRY", current.Translation)

	word, err := s.store.WordByID(s.ctx, current.ID)
	s.Require().NoError(err)
	s.Equal("APPLEBERRY", word)
}

func (s *RotatorSuite) TestPollBeforeTimeoutKeepsWord() {
	s.Require().NoError(s.rotator.Poll(s.ctx))
	first, _ := s.rotator.Current()

	s.clock.Advance(rotationTimeout / 2)
	s.Require().NoError(s.rotator.Poll(s.ctx))

	current, _ := s.rotator.Current()
	s.Equal(first.Word, current.Word)
}

func (s *RotatorSuite) TestRotationSkipsExtractedWords() {
	s.Require().NoError(s.rotator.Poll(s.ctx))

	// next pick lands on the already-extracted first word, forcing a retry
	s.random.QueueIntn(0, 1)
	s.clock.Advance(rotationTimeout)
	s.Require().NoError(s.rotator.Poll(s.ctx))

	current, _ := s.rotator.Current()
	s.Equal("BLUEBERRYX", current.Word)
}

func (s *RotatorSuite) TestFirstExtractionSkipsStreakReset() {
	s.Require().NoError(s.store.InsertUser(s.ctx, "alice", "pw", model.RoleUser))
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", "OLDWORDXYZ"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", "OLDWORDXYZ"))

	s.Require().NoError(s.rotator.Poll(s.ctx))

	stats, err := s.store.UserStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, stats.CurrentStreak)
}

func (s *RotatorSuite) TestRotationResetsStreaksForMissedWord() {
	s.Require().NoError(s.rotator.Poll(s.ctx))
	first, _ := s.rotator.Current()

	// alice beats the word, bob sits it out
	s.Require().NoError(s.store.InsertUser(s.ctx, "alice", "pw", model.RoleUser))
	s.Require().NoError(s.store.InsertUser(s.ctx, "bob", "pw", model.RoleUser))
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", first.Word))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", first.Word))
	s.Require().NoError(s.store.InsertGame(s.ctx, "bob", "OLDWORDXYZ"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "bob", "OLDWORDXYZ"))

	s.random.QueueIntn(1)
	s.clock.Advance(rotationTimeout)
	s.Require().NoError(s.rotator.Poll(s.ctx))

	aliceStats, err := s.store.UserStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, aliceStats.CurrentStreak)

	bobStats, err := s.store.UserStatistics(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(0, bobStats.CurrentStreak)
}

func (s *RotatorSuite) TestTimeRemaining() {
	s.Equal(time.Duration(0), s.rotator.TimeRemaining())

	s.Require().NoError(s.rotator.Poll(s.ctx))
	s.Equal(rotationTimeout, s.rotator.TimeRemaining())

	s.clock.Advance(20 * time.Second)
	s.Equal(rotationTimeout-20*time.Second, s.rotator.TimeRemaining())

	s.clock.Advance(2 * rotationTimeout)
	s.Equal(time.Duration(0), s.rotator.TimeRemaining())
}

func (s *RotatorSuite) TestReadsProceedDuringSlowRotation() {
	slow := &blockingTranslator{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	list := words.New([]string{"APPLEBERRY", "BLUEBERRYX", "CLOUDBERRY"}, s.random)
	rotator := New(s.store, list, slow, s.notifier, s.clock, rotationTimeout, testutil.NopLogger())

	done := make(chan error, 1)
	go func() { done <- rotator.Poll(s.ctx) }()
	<-slow.started

	// the translation call is still in flight; readers must not hang
	_, ok := rotator.Current()
	s.False(ok)
	s.Equal(time.Duration(0), rotator.TimeRemaining())

	close(slow.release)
	s.Require().NoError(<-done)

	current, ok := rotator.Current()
	s.Require().True(ok)
	s.Equal("it:APPLEBERRY", current.Translation)
}

func (s *RotatorSuite) TestRankingChangeNotifies() {
	// first poll: the bootstrap admin enters the watched positions
	s.Require().NoError(s.rotator.Poll(s.ctx))
	s.Require().Len(s.notifier.calls, 1)

	// no change, no new notification
	s.Require().NoError(s.rotator.Poll(s.ctx))
	s.Len(s.notifier.calls, 1)

	// a new player with a win takes the head of the ranking
	current, _ := s.rotator.Current()
	s.Require().NoError(s.store.InsertUser(s.ctx, "alice", "pw", model.RoleUser))
	s.Require().NoError(s.store.InsertGame(s.ctx, "alice", current.Word))
	s.Require().NoError(s.store.RecordGuess(s.ctx, "alice", current.Word, current.Word, "++++++++++"))
	s.Require().NoError(s.store.SetVictory(s.ctx, "alice", current.Word))

	s.Require().NoError(s.rotator.Poll(s.ctx))
	s.Require().Len(s.notifier.calls, 2)
	s.Equal("alice", s.notifier.calls[1][0])
}
