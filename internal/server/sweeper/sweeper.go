// Package sweeper periodically removes expired refresh-token records.
// Refresh validation re-checks stored expiry, so a missed sweep only costs
// storage.
package sweeper

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
)

// Recorder receives the number of records removed by each sweep.
type Recorder interface {
	RecordSwept(ctx context.Context, n int64)
}

type Sweeper struct {
	repo     refreshtokens.Repository
	interval time.Duration
	logger   logging.Logger
	recorder Recorder
	now      func() time.Time
}

type Option func(*Sweeper)

func WithRecorder(r Recorder) Option {
	return func(s *Sweeper) { s.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

func New(repo refreshtokens.Repository, interval time.Duration, logger logging.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{repo: repo, interval: interval, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps every interval until ctx is cancelled. Errors are logged and
// the loop keeps going.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn(ctx, "refresh token sweep failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// SweepOnce deletes every record that has expired as of now.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredBefore(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug(ctx, "expired refresh tokens removed", "count", n)
	}
	if s.recorder != nil {
		s.recorder.RecordSwept(ctx, n)
	}
	return n, nil
}
