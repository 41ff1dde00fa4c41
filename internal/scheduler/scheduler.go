// Package scheduler runs the periodic background jobs: word rotation polls
// and, in manual-commit mode, storage flushes.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ettorre/wordarena/internal/rotation"
	"github.com/ettorre/wordarena/internal/storage"
)

const (
	pollInterval  = 5 * time.Second
	flushInterval = 20 * time.Second
)

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New wires the rotation poll and, when flush is set, the periodic storage
// flush. Jobs do not run until Start.
func New(rotator *rotation.Rotator, store storage.Store, flush bool, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		logger: logger.With(slog.String("component", "scheduler")),
	}

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", pollInterval), func() {
		if err := rotator.Poll(context.Background()); err != nil {
			s.logger.Error("rotation poll failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling rotation poll: %w", err)
	}

	if flush {
		_, err = s.cron.AddFunc(fmt.Sprintf("@every %s", flushInterval), func() {
			if err := store.Flush(context.Background()); err != nil {
				s.logger.Error("storage flush failed", slog.Any("error", err))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("scheduling storage flush: %w", err)
		}
	}
	return s, nil
}

// Start begins running the scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
