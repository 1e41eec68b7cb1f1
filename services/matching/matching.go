package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	searchRepo "fixhive/database/repository/search"
	technicianRepo "fixhive/database/repository/technician"
	"fixhive/models"
	"fixhive/services/realtime"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	// MaxCandidates caps the per-booking candidate pool; once reached the
	// search is complete and no further radius passes run.
	MaxCandidates = 10

	maxSaveRetries = 3
	cacheTTL       = 5 * time.Minute
)

// RadiusLadderKm is the fixed expansion schedule, innermost ring first.
var RadiusLadderKm = []float64{5, 10, 15, 30}

// SearchResult is the caller-facing view of one search cycle.
type SearchResult struct {
	Candidates []models.TechnicianCandidate `json:"candidates"`
	Total      int                          `json:"total"`
	Completed  bool                         `json:"completed"`
}

// Engine runs expanding-radius technician discovery for a booking and keeps
// the per-booking candidate snapshot.
type Engine interface {
	// Search runs one full radius-ladder cycle, merges new finds into the
	// stored snapshot, and persists it under an optimistic version guard.
	Search(ctx context.Context, bookingID string, params models.SearchParams) (*SearchResult, error)
	// Candidates returns the current snapshot without running a new cycle.
	Candidates(ctx context.Context, bookingID string) (*SearchResult, error)
}

// DefaultSearchEngine implements Engine on the technician geo index, with a
// redis cache in front of the snapshot store. Cache and Realtime may be nil;
// both are best-effort.
type DefaultSearchEngine struct {
	Technicians technicianRepo.TechnicianRepository
	States      searchRepo.SearchStateRepository
	Cache       *redis.Client
	Realtime    realtime.Channel
	Logger      *zap.Logger
}

func NewDefaultSearchEngine(
	technicians technicianRepo.TechnicianRepository,
	states searchRepo.SearchStateRepository,
	cache *redis.Client,
	rt realtime.Channel,
	logger *zap.Logger,
) *DefaultSearchEngine {
	return &DefaultSearchEngine{
		Technicians: technicians,
		States:      states,
		Cache:       cache,
		Realtime:    rt,
		Logger:      logger,
	}
}

func (e *DefaultSearchEngine) Search(ctx context.Context, bookingID string, params models.SearchParams) (*SearchResult, error) {
	prev, err := e.States.Get(ctx, bookingID)
	if err != nil && !errors.Is(err, searchRepo.ErrNotFound) {
		return nil, fmt.Errorf("failed to load search state for booking %s: %w", bookingID, err)
	}
	if prev != nil && prev.Completed {
		// Nothing left to discover; the stored ordering is final.
		return resultFromState(prev), nil
	}

	found := e.runLadder(ctx, bookingID, params, prev)

	state, err := e.persist(ctx, bookingID, params, found)
	if err != nil {
		// The cycle itself succeeded; surface the persistence failure but
		// still hand the caller what was found.
		return resultFromFound(found), &SearchPersistenceError{BookingID: bookingID, Err: err}
	}

	result := resultFromState(state)
	e.cacheResult(ctx, bookingID, result)
	e.announce(ctx, params.CustomerID, bookingID, result)
	return result, nil
}

// runLadder walks the radius schedule, merging candidates first-seen-wins so
// a technician keeps the ring and distance of their first discovery.
func (e *DefaultSearchEngine) runLadder(ctx context.Context, bookingID string, params models.SearchParams, prev *models.TechnicianSearchState) []models.TechnicianCandidate {
	found := make([]models.TechnicianCandidate, 0, MaxCandidates)
	seen := make(map[string]struct{}, MaxCandidates)
	if prev != nil {
		for _, c := range prev.Candidates {
			if _, ok := seen[c.TechnicianID]; ok {
				continue
			}
			seen[c.TechnicianID] = struct{}{}
			found = append(found, c)
		}
	}

	for _, radius := range RadiusLadderKm {
		if len(found) >= MaxCandidates {
			break
		}
		criteria := technicianRepo.GeoSearchCriteria{
			Center:         params.Center,
			RadiusKm:       radius,
			CategoryID:     params.CategoryID,
			MinBalance:     params.MinBalance,
			Availabilities: params.Availabilities,
			ApprovalStatus: params.ApprovalStatus,
			Limit:          MaxCandidates,
		}
		techs, err := e.Technicians.SearchWithinRadius(ctx, criteria)
		if err != nil {
			e.Logger.Warn("radius pass failed",
				zap.String("bookingId", bookingID),
				zap.Float64("radiusKm", radius),
				zap.Error(err))
			continue
		}
		for _, t := range techs {
			if len(found) >= MaxCandidates {
				break
			}
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			found = append(found, models.TechnicianCandidate{
				TechnicianID:     t.ID,
				FullName:         t.FullName,
				Rating:           t.Rating,
				CompletedJobs:    t.CompletedJobs,
				SubscriptionTier: t.SubscriptionTier,
				DistanceMeters:   t.DistanceMeters,
				FoundAtRadiusKm:  radius,
			})
		}
	}
	return found
}

// persist saves the merged snapshot, retrying version conflicts by rebasing
// onto the latest stored state.
func (e *DefaultSearchEngine) persist(ctx context.Context, bookingID string, params models.SearchParams, found []models.TechnicianCandidate) (*models.TechnicianSearchState, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		latest, err := e.States.Get(ctx, bookingID)
		if err != nil && !errors.Is(err, searchRepo.ErrNotFound) {
			return nil, err
		}

		merged := found
		var version int64 = 1
		if latest != nil {
			merged = mergeCandidates(latest.Candidates, found)
			version = latest.Version + 1
			params = latest.Params
		}

		state := &models.TechnicianSearchState{
			BookingID:          bookingID,
			Params:             params,
			FoundTechnicianIDs: candidateIDs(merged),
			Candidates:         merged,
			LastSearchAt:       time.Now(),
			Completed:          len(merged) >= MaxCandidates,
			Version:            version,
		}
		if err := e.States.Save(ctx, state); err != nil {
			if errors.Is(err, searchRepo.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return state, nil
	}
	return nil, lastErr
}

func (e *DefaultSearchEngine) Candidates(ctx context.Context, bookingID string) (*SearchResult, error) {
	if e.Cache != nil {
		if raw, err := e.Cache.Get(ctx, candidatesCacheKey(bookingID)).Result(); err == nil {
			var cached SearchResult
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}
	state, err := e.States.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, searchRepo.ErrNotFound) {
			return &SearchResult{Candidates: []models.TechnicianCandidate{}}, nil
		}
		return nil, fmt.Errorf("failed to load candidates for booking %s: %w", bookingID, err)
	}
	return resultFromState(state), nil
}

func (e *DefaultSearchEngine) cacheResult(ctx context.Context, bookingID string, result *SearchResult) {
	if e.Cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := e.Cache.Set(ctx, candidatesCacheKey(bookingID), data, cacheTTL).Err(); err != nil {
		e.Logger.Warn("candidate cache write failed", zap.String("bookingId", bookingID), zap.Error(err))
	}
}

func (e *DefaultSearchEngine) announce(ctx context.Context, customerID, bookingID string, result *SearchResult) {
	if e.Realtime == nil || customerID == "" {
		return
	}
	payload := map[string]interface{}{
		"bookingId":  bookingID,
		"candidates": result.Candidates,
		"completed":  result.Completed,
	}
	if err := e.Realtime.Publish(ctx, realtime.CustomerRoom(customerID), "search:candidates", payload); err != nil {
		e.Logger.Warn("candidate broadcast failed", zap.String("bookingId", bookingID), zap.Error(err))
	}
}

// mergeCandidates unions two ordered candidate lists, keeping the position of
// the first occurrence and capping at MaxCandidates.
func mergeCandidates(base, extra []models.TechnicianCandidate) []models.TechnicianCandidate {
	merged := make([]models.TechnicianCandidate, 0, MaxCandidates)
	seen := make(map[string]struct{}, MaxCandidates)
	for _, list := range [][]models.TechnicianCandidate{base, extra} {
		for _, c := range list {
			if len(merged) >= MaxCandidates {
				return merged
			}
			if _, ok := seen[c.TechnicianID]; ok {
				continue
			}
			seen[c.TechnicianID] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}

func candidateIDs(candidates []models.TechnicianCandidate) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.TechnicianID)
	}
	return ids
}

func candidatesCacheKey(bookingID string) string {
	return "candidates:" + bookingID
}

func resultFromState(state *models.TechnicianSearchState) *SearchResult {
	return &SearchResult{
		Candidates: state.Candidates,
		Total:      len(state.Candidates),
		Completed:  state.Completed,
	}
}

func resultFromFound(found []models.TechnicianCandidate) *SearchResult {
	return &SearchResult{
		Candidates: found,
		Total:      len(found),
		Completed:  len(found) >= MaxCandidates,
	}
}
