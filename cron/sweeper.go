package cron

import (
	"context"
	"time"

	requestRepo "fixhive/database/repository/request"
	searchRepo "fixhive/database/repository/search"
	"fixhive/services/matching"

	"go.uber.org/zap"
)

// Sweeper is the periodic background job that expires overdue technician
// requests and re-drives incomplete candidate searches.
type Sweeper struct {
	Requests requestRepo.RequestRepository
	States   searchRepo.SearchStateRepository
	Engine   matching.Engine
	Interval time.Duration
	Lookback time.Duration
	Logger   *zap.Logger
}

func NewSweeper(
	requests requestRepo.RequestRepository,
	states searchRepo.SearchStateRepository,
	engine matching.Engine,
	interval, lookback time.Duration,
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		Requests: requests,
		States:   states,
		Engine:   engine,
		Interval: interval,
		Lookback: lookback,
		Logger:   logger,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Logger.Info("sweeper started",
		zap.Duration("interval", s.Interval), zap.Duration("lookback", s.Lookback))
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs one sweep cycle. Both halves are independently best-effort;
// a failure in one never blocks the other.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := time.Now()

	expired, err := s.Requests.ExpirePending(ctx, now)
	if err != nil {
		s.Logger.Error("request expiry sweep failed", zap.Error(err))
	} else if expired > 0 {
		s.Logger.Info("expired overdue requests", zap.Int64("count", expired))
	}

	states, err := s.States.FindIncomplete(ctx, now.Add(-s.Lookback))
	if err != nil {
		s.Logger.Error("failed to list incomplete searches", zap.Error(err))
		return
	}
	for _, st := range states {
		if _, err := s.Engine.Search(ctx, st.BookingID, st.Params); err != nil {
			s.Logger.Warn("search re-run failed",
				zap.String("bookingId", st.BookingID), zap.Error(err))
		}
	}
}
