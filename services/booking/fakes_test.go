package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingRepo "fixhive/database/repository/booking"
	customerRepo "fixhive/database/repository/customer"
	requestRepo "fixhive/database/repository/request"
	technicianRepo "fixhive/database/repository/technician"
	"fixhive/models"
	"fixhive/services/matching"

	"go.uber.org/zap"
)

// The fakes mirror the conditional-write semantics of the mongo repositories
// so the coordinator can be exercised without a database. The booking fake
// holds references to the request and technician fakes the same way the mongo
// repo spans those collections in its transaction.

type fakeTechRepo struct {
	mu    sync.Mutex
	techs map[string]*models.Technician

	completions []float64
}

func newFakeTechRepo(techs ...*models.Technician) *fakeTechRepo {
	r := &fakeTechRepo{techs: map[string]*models.Technician{}}
	for _, t := range techs {
		r.techs[t.ID] = t
	}
	return r
}

func (r *fakeTechRepo) GetByID(_ context.Context, id string) (*models.Technician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.techs[id]
	if !ok {
		return nil, technicianRepo.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTechRepo) SearchWithinRadius(_ context.Context, _ technicianRepo.GeoSearchCriteria) ([]technicianRepo.TechnicianWithDistance, error) {
	return nil, nil
}

func (r *fakeTechRepo) UpdateLocation(_ context.Context, id string, point models.GeoPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.techs[id]
	if !ok {
		return technicianRepo.ErrNotFound
	}
	t.LocationGeo = point
	return nil
}

func (r *fakeTechRepo) SetAvailability(_ context.Context, id string, from, to models.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.techs[id]
	if !ok || t.Availability != from {
		return technicianRepo.ErrConflict
	}
	t.Availability = to
	return nil
}

func (r *fakeTechRepo) forceAvailability(id string, to models.Availability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.techs[id]; ok {
		t.Availability = to
	}
}

func (r *fakeTechRepo) releaseIfOnJob(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.techs[id]; ok && t.Availability == models.AvailabilityOnJob {
		t.Availability = models.AvailabilityFree
	}
}

func (r *fakeTechRepo) availability(id string) models.Availability {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.techs[id]; ok {
		return t.Availability
	}
	return ""
}

func (r *fakeTechRepo) RecordCompletion(_ context.Context, id string, commission float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.techs[id]
	if !ok {
		return technicianRepo.ErrNotFound
	}
	t.Balance -= commission
	t.CompletedJobs++
	r.completions = append(r.completions, commission)
	return nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests []*models.BookingTechnicianRequest
}

func (r *fakeRequestRepo) Insert(_ context.Context, req *models.BookingTechnicianRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.requests = append(r.requests, &cp)
	return nil
}

func (r *fakeRequestRepo) GetForPair(_ context.Context, bookingID, technicianID string) (*models.BookingTechnicianRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.BookingTechnicianRequest
	for _, req := range r.requests {
		if req.BookingID != bookingID || req.TechnicianID != technicianID {
			continue
		}
		if latest == nil || req.RequestedAt.After(latest.RequestedAt) {
			latest = req
		}
	}
	if latest == nil {
		return nil, requestRepo.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeRequestRepo) MarkResponded(_ context.Context, bookingID, technicianID string, from, to models.RequestStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.markLocked(bookingID, technicianID, from, to, at)
}

func (r *fakeRequestRepo) markLocked(bookingID, technicianID string, from, to models.RequestStatus, at time.Time) error {
	var latest *models.BookingTechnicianRequest
	for _, req := range r.requests {
		if req.BookingID != bookingID || req.TechnicianID != technicianID {
			continue
		}
		if latest == nil || req.RequestedAt.After(latest.RequestedAt) {
			latest = req
		}
	}
	if latest == nil || latest.Status != from {
		return requestRepo.ErrConflict
	}
	latest.Status = to
	latest.RespondedAt = &at
	return nil
}

func (r *fakeRequestRepo) ExpirePending(_ context.Context, now time.Time) (int64, error) {
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

func (r *fakeRequestRepo) ListByBooking(_ context.Context, bookingID string) ([]models.BookingTechnicianRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BookingTechnicianRequest
	for _, req := range r.requests {
		if req.BookingID == bookingID {
			out = append(out, *req)
		}
	}
	return out, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	logs     []models.BookingStatusLog

	requests *fakeRequestRepo
	techs    *fakeTechRepo

	// finalizeFailures makes the next N FinalizeAssignment calls fail.
	finalizeFailures int

	// getFailures makes GetByID fail N times, after skipGets reads succeed.
	getFailures int
	skipGets    int
}

func newFakeBookingRepo(requests *fakeRequestRepo, techs *fakeTechRepo, bookings ...*models.Booking) *fakeBookingRepo {
	r := &fakeBookingRepo{
		bookings: map[string]*models.Booking{},
		requests: requests,
		techs:    techs,
	}
	for _, b := range bookings {
		r.bookings[b.ID] = b
	}
	return r
}

func cloneBooking(b *models.Booking) *models.Booking {
	cp := *b
	if b.Quote != nil {
		cp.Quote = cloneQuote(b.Quote)
	}
	return &cp
}

func (r *fakeBookingRepo) Insert(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getFailures > 0 {
		if r.skipGets > 0 {
			r.skipGets--
		} else {
			r.getFailures--
			return nil, errors.New("connection reset")
		}
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *fakeBookingRepo) ApplyTransition(_ context.Context, t bookingRepo.StatusTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[t.BookingID]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if b.Status != t.From {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = t.To
	b.UpdatedAt = time.Now()
	for k, v := range t.Set {
		switch k {
		case "quote":
			b.Quote = v.(*models.Quote)
		case "finalPrice":
			b.FinalPrice = v.(float64)
		case "cancellation":
			b.Cancellation = v.(*models.CancellationInfo)
		case "warrantyUntil":
			w := v.(time.Time)
			b.WarrantyUntil = &w
		}
	}
	releaseID := t.ReleaseTechnicianID
	if t.ClearTechnician {
		b.TechnicianID = ""
	}
	if releaseID != "" {
		r.techs.releaseIfOnJob(releaseID)
	}
	r.logs = append(r.logs, t.Log)
	return nil
}

func (r *fakeBookingRepo) Claim(_ context.Context, bookingID, technicianID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if b.TechnicianID == technicianID {
		return nil
	}
	if b.TechnicianID != "" || b.Status != models.BookingAwaitingConfirm {
		return bookingRepo.ErrAlreadyAssigned
	}
	b.TechnicianID = technicianID
	return nil
}

func (r *fakeBookingRepo) FinalizeAssignment(_ context.Context, p bookingRepo.FinalizeAssignmentParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalizeFailures > 0 {
		r.finalizeFailures--
		return errors.New("transaction aborted")
	}
	b, ok := r.bookings[p.BookingID]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	q := p.Quote
	q.RecomputeTotal()
	b.Status = models.BookingInProgress
	b.Quote = &q
	b.FinalPrice = q.TotalAmount
	b.UpdatedAt = time.Now()

	now := time.Now()
	_ = r.requests.markLockedPair(p.BookingID, p.TechnicianID, models.RequestAccepted, now)
	r.requests.rejectSiblings(p.BookingID, p.TechnicianID, now)
	r.techs.forceAvailability(p.TechnicianID, models.AvailabilityOnJob)
	r.logs = append(r.logs, p.Log)
	return nil
}

func (r *fakeRequestRepo) markLockedPair(bookingID, technicianID string, to models.RequestStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.markLocked(bookingID, technicianID, models.RequestPending, to, at)
}

func (r *fakeRequestRepo) rejectSiblings(bookingID, winnerID string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.BookingID == bookingID && req.TechnicianID != winnerID && req.Status == models.RequestPending {
			req.Status = models.RequestRejected
			req.RespondedAt = &at
		}
	}
}

func (r *fakeBookingRepo) ReleaseAssignment(_ context.Context, bookingID, technicianID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if b.TechnicianID == technicianID {
		b.TechnicianID = ""
		b.Status = models.BookingAwaitingConfirm
	}
	r.techs.releaseIfOnJob(technicianID)
	return nil
}

func (r *fakeBookingRepo) SetPaymentStatus(_ context.Context, bookingID string, status models.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.PaymentStatus = status
	return nil
}

func (r *fakeBookingRepo) ListStatusLogs(_ context.Context, bookingID string) ([]models.BookingStatusLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BookingStatusLog
	for _, l := range r.logs {
		if l.BookingID == bookingID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeCustomerRepo struct {
	customers map[string]*models.Customer
}

func newFakeCustomerRepo(customers ...*models.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{customers: map[string]*models.Customer{}}
	for _, c := range customers {
		r.customers[c.ID] = c
	}
	return r
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*models.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, customerRepo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

type stubEngine struct {
	mu       sync.Mutex
	searches []string
	result   *matching.SearchResult
}

func (e *stubEngine) Search(_ context.Context, bookingID string, _ models.SearchParams) (*matching.SearchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.searches = append(e.searches, bookingID)
	if e.result != nil {
		return e.result, nil
	}
	return &matching.SearchResult{Candidates: []models.TechnicianCandidate{}}, nil
}

func (e *stubEngine) Candidates(_ context.Context, _ string) (*matching.SearchResult, error) {
	if e.result != nil {
		return e.result, nil
	}
	return &matching.SearchResult{Candidates: []models.TechnicianCandidate{}}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	titles []string
}

func (s *recordingSink) Notify(_ context.Context, _, _, title, _, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, title)
	return nil
}

type recordingChannel struct {
	mu     sync.Mutex
	events []string
}

func (c *recordingChannel) Publish(_ context.Context, _, event string, _ interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

type stubGateway struct{}

func (stubGateway) CreateCheckoutLink(_ context.Context, bookingID, _ string, _ float64) (string, error) {
	return "https://checkout.test/" + bookingID, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Resolve(_ context.Context, _ string) (models.GeoPoint, error) {
	return models.NewGeoPoint(52.52, 13.405), nil
}

type testEnv struct {
	svc      *DefaultBookingService
	bookings *fakeBookingRepo
	requests *fakeRequestRepo
	techs    *fakeTechRepo
	engine   *stubEngine
	sink     *recordingSink
	channel  *recordingChannel
}

func newTestEnv(techs []*models.Technician, customers []*models.Customer, bookings ...*models.Booking) *testEnv {
	techRepo := newFakeTechRepo(techs...)
	reqRepo := &fakeRequestRepo{}
	bookRepo := newFakeBookingRepo(reqRepo, techRepo, bookings...)
	engine := &stubEngine{}
	sink := &recordingSink{}
	channel := &recordingChannel{}

	svc := &DefaultBookingService{
		Bookings:    bookRepo,
		Requests:    reqRepo,
		Technicians: techRepo,
		Customers:   newFakeCustomerRepo(customers...),
		Engine:      engine,
		Notifier:    sink,
		Realtime:    channel,
		Payments:    stubGateway{},
		Commission:  DefaultCommission,
		Geocoder:    stubGeocoder{},
		Logger:      zap.NewNop(),
	}
	return &testEnv{
		svc:      svc,
		bookings: bookRepo,
		requests: reqRepo,
		techs:    techRepo,
		engine:   engine,
		sink:     sink,
		channel:  channel,
	}
}

func testTechnician(id string, rate float64) *models.Technician {
	return &models.Technician{
		ID:             id,
		FullName:       "Tech " + id,
		Availability:   models.AvailabilityFree,
		ApprovalStatus: models.ApprovalApproved,
		Balance:        100,
		ServiceRates:   map[string]float64{"svc-plumbing": rate},
	}
}

func testCustomer(id string) *models.Customer {
	return &models.Customer{ID: id, FullName: "Customer " + id}
}

func testBooking(id, customerID string, status models.BookingStatus) *models.Booking {
	now := time.Now()
	return &models.Booking{
		ID:            id,
		CustomerID:    customerID,
		ServiceID:     "svc-plumbing",
		CategoryID:    "cat-plumbing",
		LocationGeo:   models.NewGeoPoint(52.52, 13.405),
		Address:       "Somewhere 1",
		ScheduledAt:   now.Add(2 * time.Hour),
		Status:        status,
		PaymentStatus: models.PaymentUnpaid,
		ChatEnabled:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
