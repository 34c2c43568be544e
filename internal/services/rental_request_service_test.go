package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"microrental/internal/booking"
	"microrental/internal/models"
)

// fakeLedger mirrors the repository contract in memory: Submit holds a lock
// across its overlap check and insert, the way the real one serializes racing
// transactions on the item row, and Accept couples the optimistic status flip
// with the item availability flip.
type fakeLedger struct {
	mu       sync.Mutex
	catalog  *fakeCatalog
	requests map[int]*models.RentalRequest
	nextID   int
}

func newFakeLedger(catalog *fakeCatalog) *fakeLedger {
	return &fakeLedger{catalog: catalog, requests: map[int]*models.RentalRequest{}, nextID: 1}
}

func (l *fakeLedger) Submit(_ context.Context, req models.RentalRequest) (models.RentalRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rng := booking.DateRange{Start: req.StartDate, End: req.EndDate}
	for _, existing := range l.requests {
		if existing.ItemID != req.ItemID {
			continue
		}
		if existing.Status != booking.StatusPending && existing.Status != booking.StatusAccepted {
			continue
		}
		if rng.Overlaps(booking.DateRange{Start: existing.StartDate, End: existing.EndDate}) {
			return models.RentalRequest{}, booking.ErrOverlap
		}
	}
	req.ID = l.nextID
	l.nextID++
	req.Status = booking.StatusPending
	req.CreatedAt = time.Now()
	stored := req
	l.requests[req.ID] = &stored
	return req, nil
}

func (l *fakeLedger) GetByID(_ context.Context, id int) (models.RentalRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	req, ok := l.requests[id]
	if !ok {
		return models.RentalRequest{}, models.ErrRequestNotFound
	}
	return *req, nil
}

func (l *fakeLedger) ListReservingForItem(_ context.Context, itemID int) ([]models.RentalRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []models.RentalRequest{}
	for _, req := range l.requests {
		if req.ItemID == itemID && (req.Status == booking.StatusPending || req.Status == booking.StatusAccepted) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (l *fakeLedger) ListForOwner(_ context.Context, ownerID int, status string) ([]models.RentalRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []models.RentalRequest{}
	for _, req := range l.requests {
		if req.OwnerID == ownerID && (status == "" || req.Status == status) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (l *fakeLedger) ListForRenter(_ context.Context, renterID int) ([]models.RentalRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []models.RentalRequest{}
	for _, req := range l.requests {
		if req.RenterID == renterID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (l *fakeLedger) Accept(_ context.Context, requestID, itemID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	req, ok := l.requests[requestID]
	if !ok || req.Status != booking.StatusPending {
		return booking.ErrInvalidTransition
	}
	req.Status = booking.StatusAccepted
	l.catalog.setAvailable(itemID, false)
	return nil
}

func (l *fakeLedger) Reject(_ context.Context, requestID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	req, ok := l.requests[requestID]
	if !ok || req.Status != booking.StatusPending {
		return booking.ErrInvalidTransition
	}
	req.Status = booking.StatusRejected
	return nil
}

func (l *fakeLedger) CompleteExpired(_ context.Context, now time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := booking.Today(now)
	completed := 0
	for _, req := range l.requests {
		if req.Status != booking.StatusAccepted || !req.EndDate.Before(today) {
			continue
		}
		req.Status = booking.StatusCompleted
		completed++

		active := false
		for _, other := range l.requests {
			if other.ItemID == req.ItemID && other.Status == booking.StatusAccepted &&
				!other.StartDate.After(today) && !other.EndDate.Before(today) {
				active = true
			}
		}
		if !active {
			l.catalog.setAvailable(req.ItemID, true)
		}
	}
	return completed, nil
}

type fakeCatalog struct {
	mu    sync.Mutex
	items map[int]*models.Item
}

func (c *fakeCatalog) GetItemByID(_ context.Context, id int) (models.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	if !ok {
		return models.Item{}, models.ErrItemNotFound
	}
	return *item, nil
}

func (c *fakeCatalog) setAvailable(id int, available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.items[id]; ok {
		item.IsAvailable = available
	}
}

type recordedNote struct {
	userID int
	title  string
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []recordedNote
}

func (n *fakeNotifier) Notify(_ context.Context, userID int, title, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, recordedNote{userID: userID, title: title})
}

const (
	ownerID  = 10
	renterID = 20
	otherID  = 30
)

func newBookingFixture() (*RentalRequestService, *fakeLedger, *fakeCatalog, *fakeNotifier) {
	catalog := &fakeCatalog{items: map[int]*models.Item{
		1: {
			ID:          1,
			UserID:      ownerID,
			Title:       "Canon DSLR Camera",
			Category:    "Cameras & Photography",
			PricePerDay: 500,
			IsAvailable: true,
		},
	}}
	ledger := newFakeLedger(catalog)
	notifier := &fakeNotifier{}
	svc := &RentalRequestService{Ledger: ledger, Catalog: catalog, Notifier: notifier}
	return svc, ledger, catalog, notifier
}

func futureDate(daysAhead int) string {
	return time.Now().UTC().AddDate(0, 0, daysAhead).Format("2006-01-02")
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	svc, _, _, notifier := newBookingFixture()

	req, err := svc.Submit(context.Background(), renterID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: futureDate(5),
		EndDate:   futureDate(7),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if req.Status != booking.StatusPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}
	if req.OwnerID != ownerID {
		t.Fatalf("owner not denormalized onto the request: %d", req.OwnerID)
	}
	if req.TotalPrice != 1500 {
		t.Fatalf("expected frozen total 1500, got %v", req.TotalPrice)
	}
	if len(notifier.notes) != 1 || notifier.notes[0].userID != ownerID {
		t.Fatalf("expected one notification to the owner, got %+v", notifier.notes)
	}
}

func TestSubmitSelfRental(t *testing.T) {
	svc, _, _, _ := newBookingFixture()

	_, err := svc.Submit(context.Background(), ownerID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: futureDate(5),
		EndDate:   futureDate(7),
	})
	if !errors.Is(err, booking.ErrSelfRental) {
		t.Fatalf("expected ErrSelfRental, got %v", err)
	}
}

func TestSubmitPastDate(t *testing.T) {
	svc, _, _, _ := newBookingFixture()

	_, err := svc.Submit(context.Background(), renterID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: "2020-01-01",
		EndDate:   "2020-01-03",
	})
	if !errors.Is(err, booking.ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
}

// Two renters race for the same window: both snapshots are taken before
// either row exists, so both pass validation, and only the ledger's atomic
// overlap condition keeps the second one out.
func TestSubmitOverlapRace(t *testing.T) {
	svc, ledger, _, _ := newBookingFixture()
	ctx := context.Background()

	in := models.SubmitRequestRequest{ItemID: 1, StartDate: futureDate(5), EndDate: futureDate(7)}

	first, err := svc.Submit(ctx, renterID, in)
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	// The validator alone would admit the second request against the
	// pre-insert snapshot; the ledger must still refuse it.
	item, _ := svc.Catalog.GetItemByID(ctx, 1)
	rng, _ := booking.ParseDateRange(in.StartDate, in.EndDate)
	if _, err := booking.Validate(item, nil, otherID, rng, time.Now()); err != nil {
		t.Fatalf("stale-snapshot validation should pass: %v", err)
	}

	_, err = svc.Submit(ctx, otherID, in)
	if !errors.Is(err, booking.ErrOverlap) {
		t.Fatalf("expected ErrOverlap from the ledger, got %v", err)
	}

	if got, _ := ledger.GetByID(ctx, first.ID); got.Status != booking.StatusPending {
		t.Fatalf("winner should stay pending, got %s", got.Status)
	}
}

func TestAcceptFlipsAvailability(t *testing.T) {
	svc, _, catalog, notifier := newBookingFixture()
	ctx := context.Background()

	req, err := svc.Submit(ctx, renterID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: futureDate(5),
		EndDate:   futureDate(7),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := svc.Accept(ctx, req.ID, ownerID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	item, _ := catalog.GetItemByID(ctx, 1)
	if item.IsAvailable {
		t.Fatal("accept must mark the item unavailable")
	}
	last := notifier.notes[len(notifier.notes)-1]
	if last.userID != renterID || last.title != "Request accepted" {
		t.Fatalf("expected acceptance note to the renter, got %+v", last)
	}
}

func TestAcceptAuthorization(t *testing.T) {
	svc, _, _, _ := newBookingFixture()
	ctx := context.Background()

	req, err := svc.Submit(ctx, renterID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: futureDate(5),
		EndDate:   futureDate(7),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := svc.Accept(ctx, req.ID, renterID); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
	if err := svc.Reject(ctx, req.ID, otherID); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
}

func TestSecondAcceptLoses(t *testing.T) {
	svc, _, _, _ := newBookingFixture()
	ctx := context.Background()

	req, err := svc.Submit(ctx, renterID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: futureDate(5),
		EndDate:   futureDate(7),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := svc.Accept(ctx, req.ID, ownerID); err != nil {
		t.Fatalf("first Accept: %v", err)
	}
	if err := svc.Accept(ctx, req.ID, ownerID); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on second accept, got %v", err)
	}
	if err := svc.Reject(ctx, req.ID, ownerID); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition rejecting an accepted request, got %v", err)
	}
}

// Scenario E: after an accepted request takes the item, a second overlapping
// submission is refused before it can become pending.
func TestAcceptedRequestBlocksNewSubmissions(t *testing.T) {
	svc, _, _, _ := newBookingFixture()
	ctx := context.Background()

	req, err := svc.Submit(ctx, renterID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: futureDate(5),
		EndDate:   futureDate(7),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := svc.Accept(ctx, req.ID, ownerID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	_, err = svc.Submit(ctx, otherID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: futureDate(6),
		EndDate:   futureDate(8),
	})
	if !errors.Is(err, booking.ErrItemUnavailable) && !errors.Is(err, booking.ErrOverlap) {
		t.Fatalf("expected ErrItemUnavailable or ErrOverlap, got %v", err)
	}
}

func TestCompleteExpiredIsIdempotent(t *testing.T) {
	svc, ledger, catalog, _ := newBookingFixture()
	ctx := context.Background()

	req, err := svc.Submit(ctx, renterID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: futureDate(1),
		EndDate:   futureDate(2),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := svc.Accept(ctx, req.ID, ownerID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	after := time.Now().UTC().AddDate(0, 0, 4)
	completed, err := svc.CompleteExpired(ctx, after)
	if err != nil {
		t.Fatalf("CompleteExpired: %v", err)
	}
	if completed != 1 {
		t.Fatalf("expected 1 completed request, got %d", completed)
	}
	if got, _ := ledger.GetByID(ctx, req.ID); got.Status != booking.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	item, _ := catalog.GetItemByID(ctx, 1)
	if !item.IsAvailable {
		t.Fatal("completion must release the item")
	}

	// Second sweep finds nothing and leaves the terminal state alone.
	completed, err = svc.CompleteExpired(ctx, after)
	if err != nil {
		t.Fatalf("second CompleteExpired: %v", err)
	}
	if completed != 0 {
		t.Fatalf("expected idempotent sweep, got %d", completed)
	}
	if got, _ := ledger.GetByID(ctx, req.ID); got.Status != booking.StatusCompleted {
		t.Fatalf("status changed on re-run: %s", got.Status)
	}
}

func TestListForOwnerStatusFilter(t *testing.T) {
	svc, _, _, _ := newBookingFixture()
	ctx := context.Background()

	if _, err := svc.ListForOwner(ctx, ownerID, "bogus"); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
	if _, err := svc.ListForOwner(ctx, ownerID, booking.StatusPending); err != nil {
		t.Fatalf("ListForOwner: %v", err)
	}
}

// Two goroutines race to submit the same window. Validation on both sides can
// see a clean snapshot, so the ledger's serialized check-and-insert is the
// only thing keeping the second row out; exactly one submission may win.
func TestSubmitConcurrentOverlap(t *testing.T) {
	svc, ledger, _, _ := newBookingFixture()
	ctx := context.Background()

	in := models.SubmitRequestRequest{ItemID: 1, StartDate: futureDate(5), EndDate: futureDate(7)}
	renters := []int{renterID, otherID}
	errs := make(chan error, len(renters))

	var wg sync.WaitGroup
	for _, renter := range renters {
		wg.Add(1)
		go func(renter int) {
			defer wg.Done()
			_, err := svc.Submit(ctx, renter, in)
			errs <- err
		}(renter)
	}
	wg.Wait()
	close(errs)

	won, lost := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, booking.ErrOverlap):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner and one ErrOverlap, got %d/%d", won, lost)
	}

	reserving, _ := ledger.ListReservingForItem(ctx, 1)
	if len(reserving) != 1 {
		t.Fatalf("expected a single reserving request, got %d", len(reserving))
	}
}

// A completed rental releases the item even when another accepted booking
// exists for a future window; the gap between the two stays bookable and the
// overlap rule alone guards the future window.
func TestSweepReleasesItemWithFutureAcceptedBooking(t *testing.T) {
	svc, ledger, catalog, _ := newBookingFixture()
	ctx := context.Background()

	first, err := svc.Submit(ctx, renterID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: futureDate(1),
		EndDate:   futureDate(2),
	})
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	second, err := svc.Submit(ctx, otherID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: futureDate(20),
		EndDate:   futureDate(22),
	})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if err := svc.Accept(ctx, first.ID, ownerID); err != nil {
		t.Fatalf("accept first: %v", err)
	}
	if err := svc.Accept(ctx, second.ID, ownerID); err != nil {
		t.Fatalf("accept second: %v", err)
	}

	completed, err := svc.CompleteExpired(ctx, time.Now().UTC().AddDate(0, 0, 4))
	if err != nil {
		t.Fatalf("CompleteExpired: %v", err)
	}
	if completed != 1 {
		t.Fatalf("expected 1 completed request, got %d", completed)
	}

	item, _ := catalog.GetItemByID(ctx, 1)
	if !item.IsAvailable {
		t.Fatal("a future accepted booking must not keep the item blocked")
	}
	if got, _ := ledger.GetByID(ctx, second.ID); got.Status != booking.StatusAccepted {
		t.Fatalf("future booking must stay accepted, got %s", got.Status)
	}

	// The gap between the completed rental and the future booking is open.
	if _, err := svc.Submit(ctx, renterID, models.SubmitRequestRequest{
		ItemID:    1,
		StartDate: futureDate(6),
		EndDate:   futureDate(8),
	}); err != nil {
		t.Fatalf("gap window should be bookable: %v", err)
	}
}
