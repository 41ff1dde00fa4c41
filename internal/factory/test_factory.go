package factory

import (
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ettorre/wordarena/internal/broadcast"
	"github.com/ettorre/wordarena/internal/config"
	"github.com/ettorre/wordarena/internal/dependencies/mocks"
	"github.com/ettorre/wordarena/internal/notify"
	"github.com/ettorre/wordarena/internal/protocol"
	"github.com/ettorre/wordarena/internal/rotation"
	"github.com/ettorre/wordarena/internal/server"
	"github.com/ettorre/wordarena/internal/session"
	"github.com/ettorre/wordarena/internal/storage/snapshot"
	"github.com/ettorre/wordarena/internal/translate"
	"github.com/ettorre/wordarena/internal/words"
)

// testWordList is a small fixed-length word list for integration tests.
var testWordList = []string{
	"APPLEBERRY",
	"BLUEBONNET",
	"CHIMPANZEE",
	"DANDELIONS",
	"EQUIVALENT",
	"FLOWERBEDS",
	"GRAPEFRUIT",
	"HOVERCRAFT",
	"INCREDIBLE",
	"JELLYBEANS",
}

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom

	// StorageFailures records errors reported by the dispatcher
	StorageFailures []error
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and snapshot storage rooted at dir.
func NewTestApp(dir string) (*TestApp, error) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	mockClock := mocks.NewMockClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := config.Default()
	cfg.SnapshotDatabasePath = filepath.Join(dir, "state.json")
	cfg.AutoCommitDatabase = false
	cfg.SecretWordTimeoutSec = 60

	store, err := snapshot.New(cfg.SnapshotDatabasePath, false, mockClock, mockRandom, logger)
	if err != nil {
		return nil, err
	}

	wordList := words.New(testWordList, mockRandom)

	sharer, err := broadcast.NewSender(cfg.MulticastAddress, cfg.MulticastPort, logger)
	if err != nil {
		return nil, err
	}

	// Points at a closed port so lookups fall back to the placeholder
	translator := translate.NewClient("http://127.0.0.1:1", logger)
	hub := notify.NewHub(logger)
	rotator := rotation.New(store, wordList, translator, hub, mockClock, cfg.SecretWordTimeout(), logger)

	sessions := session.NewTable(mockClock, mockRandom)

	testApp := &TestApp{
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
	dispatcher := protocol.NewDispatcher(store, sessions, rotator, wordList, sharer, translator,
		protocol.Config{
			MulticastAddress: cfg.MulticastAddress,
			MulticastPort:    cfg.MulticastPort,
			Debug:            true,
		}, func(err error) {
			testApp.StorageFailures = append(testApp.StorageFailures, err)
		}, logger)

	testApp.App = &App{
		Config:     cfg,
		Store:      store,
		Clock:      mockClock,
		Random:     mockRandom,
		Words:      wordList,
		Sessions:   sessions,
		Rotator:    rotator,
		Hub:        hub,
		Sharer:     sharer,
		Translator: translator,
		Dispatcher: dispatcher,
		Server:     server.New(dispatcher, mockClock, logger),
	}
	return testApp, nil
}
