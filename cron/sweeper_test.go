package cron

import (
	"context"
	"sync"
	"testing"
	"time"

	requestRepo "fixhive/database/repository/request"
	searchRepo "fixhive/database/repository/search"
	"fixhive/models"
	"fixhive/services/matching"

	"go.uber.org/zap"
)

type sweepRequestRepo struct {
	mu       sync.Mutex
	requests []*models.BookingTechnicianRequest
}

func (r *sweepRequestRepo) Insert(_ context.Context, req *models.BookingTechnicianRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.requests = append(r.requests, &cp)
	return nil
}

func (r *sweepRequestRepo) GetForPair(context.Context, string, string) (*models.BookingTechnicianRequest, error) {
	return nil, requestRepo.ErrNotFound
}

func (r *sweepRequestRepo) MarkResponded(context.Context, string, string, models.RequestStatus, models.RequestStatus, time.Time) error {
	return requestRepo.ErrConflict
}

func (r *sweepRequestRepo) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, req := range r.requests {
		if req.Status == models.RequestPending && !req.ExpiresAt.After(now) {
			req.Status = models.RequestExpired
			n++
		}
	}
	return n, nil
}

func (r *sweepRequestRepo) ListByBooking(context.Context, string) ([]models.BookingTechnicianRequest, error) {
	return nil, nil
}

func (r *sweepRequestRepo) statuses() map[string]models.RequestStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]models.RequestStatus{}
	for _, req := range r.requests {
		out[req.ID] = req.Status
	}
	return out
}

type sweepStateRepo struct {
	states []models.TechnicianSearchState
}

func (r *sweepStateRepo) Get(context.Context, string) (*models.TechnicianSearchState, error) {
	return nil, searchRepo.ErrNotFound
}

func (r *sweepStateRepo) Save(context.Context, *models.TechnicianSearchState) error { return nil }

func (r *sweepStateRepo) FindIncomplete(_ context.Context, cutoff time.Time) ([]models.TechnicianSearchState, error) {
	var out []models.TechnicianSearchState
	for _, st := range r.states {
		if !st.Completed && !st.LastSearchAt.Before(cutoff) {
			out = append(out, st)
		}
	}
	return out, nil
}

type sweepEngine struct {
	mu       sync.Mutex
	searches []string
}

func (e *sweepEngine) Search(_ context.Context, bookingID string, _ models.SearchParams) (*matching.SearchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.searches = append(e.searches, bookingID)
	return &matching.SearchResult{}, nil
}

func (e *sweepEngine) Candidates(context.Context, string) (*matching.SearchResult, error) {
	return &matching.SearchResult{}, nil
}

func TestSweepOnceExpiresAndRedrives(t *testing.T) {
	now := time.Now()
	requests := &sweepRequestRepo{}
	ctx := context.Background()
	requests.Insert(ctx, &models.BookingTechnicianRequest{
		ID: "req-overdue", BookingID: "bk-1", TechnicianID: "tech-1",
		Status: models.RequestPending, ExpiresAt: now.Add(-time.Minute),
	})
	requests.Insert(ctx, &models.BookingTechnicianRequest{
		ID: "req-live", BookingID: "bk-1", TechnicianID: "tech-2",
		Status: models.RequestPending, ExpiresAt: now.Add(time.Hour),
	})
	requests.Insert(ctx, &models.BookingTechnicianRequest{
		ID: "req-accepted", BookingID: "bk-2", TechnicianID: "tech-3",
		Status: models.RequestAccepted, ExpiresAt: now.Add(-time.Hour),
	})

	states := &sweepStateRepo{states: []models.TechnicianSearchState{
		{BookingID: "bk-3", Completed: false, LastSearchAt: now.Add(-5 * time.Minute)},
		{BookingID: "bk-4", Completed: true, LastSearchAt: now.Add(-5 * time.Minute)},
		{BookingID: "bk-stale", Completed: false, LastSearchAt: now.Add(-2 * time.Hour)},
	}}
	engine := &sweepEngine{}

	sweeper := NewSweeper(requests, states, engine, time.Minute, 30*time.Minute, zap.NewNop())
	sweeper.SweepOnce(ctx)

	got := requests.statuses()
	if got["req-overdue"] != models.RequestExpired {
		t.Errorf("overdue request = %s, want EXPIRED", got["req-overdue"])
	}
	if got["req-live"] != models.RequestPending {
		t.Errorf("live request = %s, want PENDING untouched", got["req-live"])
	}
	if got["req-accepted"] != models.RequestAccepted {
		t.Errorf("accepted request = %s, the sweeper must never touch resolved requests", got["req-accepted"])
	}

	// Only the incomplete search inside the lookback window is re-driven.
	if len(engine.searches) != 1 || engine.searches[0] != "bk-3" {
		t.Errorf("re-driven searches = %v, want [bk-3]", engine.searches)
	}
}

func TestSweepOnceNoop(t *testing.T) {
	requests := &sweepRequestRepo{}
	states := &sweepStateRepo{}
	engine := &sweepEngine{}

	sweeper := NewSweeper(requests, states, engine, time.Minute, 30*time.Minute, zap.NewNop())
	sweeper.SweepOnce(context.Background())

	if len(engine.searches) != 0 {
		t.Errorf("searches = %v, want none when nothing is pending", engine.searches)
	}
}
