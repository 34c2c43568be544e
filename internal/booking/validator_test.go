package booking

import (
	"errors"
	"testing"
	"time"

	"microrental/internal/models"
)

func day(value string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func testItem() models.Item {
	return models.Item{
		ID:          1,
		UserID:      10,
		Title:       "Canon DSLR Camera",
		Category:    "Cameras & Photography",
		PricePerDay: 500,
		IsAvailable: true,
	}
}

func TestValidateTotalPrice(t *testing.T) {
	// 2024-12-10..2024-12-12 inclusive is three days at 500/day.
	rng := DateRange{Start: day("2024-12-10"), End: day("2024-12-12")}
	now := day("2024-12-08")

	total, err := Validate(testItem(), nil, 20, rng, now)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if total != 1500 {
		t.Fatalf("expected total 1500, got %v", total)
	}
}

func TestValidateSingleDayRange(t *testing.T) {
	rng := DateRange{Start: day("2024-12-10"), End: day("2024-12-10")}
	total, err := Validate(testItem(), nil, 20, rng, day("2024-12-01"))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if total != 500 {
		t.Fatalf("expected total 500 for one day, got %v", total)
	}
}

func TestValidateSelfRental(t *testing.T) {
	item := testItem()
	rng := DateRange{Start: day("2024-12-10"), End: day("2024-12-12")}

	_, err := Validate(item, nil, item.UserID, rng, day("2024-12-01"))
	if !errors.Is(err, ErrSelfRental) {
		t.Fatalf("expected ErrSelfRental, got %v", err)
	}
}

func TestValidatePastDate(t *testing.T) {
	rng := DateRange{Start: day("2024-12-01"), End: day("2024-12-03")}

	_, err := Validate(testItem(), nil, 20, rng, day("2024-12-08"))
	if !errors.Is(err, ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
}

func TestValidateDateOrder(t *testing.T) {
	rng := DateRange{Start: day("2024-12-12"), End: day("2024-12-10")}

	_, err := Validate(testItem(), nil, 20, rng, day("2024-12-01"))
	if !errors.Is(err, ErrDateOrder) {
		t.Fatalf("expected ErrDateOrder, got %v", err)
	}
}

func TestValidateUnavailableItem(t *testing.T) {
	item := testItem()
	item.IsAvailable = false
	rng := DateRange{Start: day("2024-12-10"), End: day("2024-12-12")}

	// Mid-rental: an accepted request still covers today.
	existing := []models.RentalRequest{
		{Status: StatusAccepted, StartDate: day("2024-11-30"), EndDate: day("2024-12-05")},
	}
	_, err := Validate(item, existing, 20, rng, day("2024-12-01"))
	if !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}

	// Manually deactivated: no accepted request at all.
	_, err = Validate(item, nil, 20, rng, day("2024-12-01"))
	if !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}

	// Stale flag: the accepted window has already elapsed and the sweep has
	// not yet flipped the item back; new bookings are not blocked.
	elapsed := []models.RentalRequest{
		{Status: StatusAccepted, StartDate: day("2024-11-20"), EndDate: day("2024-11-25")},
	}
	if _, err := Validate(item, elapsed, 20, rng, day("2024-12-01")); err != nil {
		t.Fatalf("expected stale availability flag to be ignored, got %v", err)
	}
}

func TestValidateOverlap(t *testing.T) {
	rng := DateRange{Start: day("2024-12-10"), End: day("2024-12-12")}
	now := day("2024-12-01")

	cases := []struct {
		name    string
		status  string
		start   string
		end     string
		overlap bool
	}{
		{"pending inside", StatusPending, "2024-12-11", "2024-12-11", true},
		{"accepted spanning", StatusAccepted, "2024-12-01", "2024-12-31", true},
		{"shared end day", StatusPending, "2024-12-12", "2024-12-14", true},
		{"shared start day", StatusAccepted, "2024-12-08", "2024-12-10", true},
		{"rejected ignored", StatusRejected, "2024-12-10", "2024-12-12", false},
		{"completed ignored", StatusCompleted, "2024-12-10", "2024-12-12", false},
		{"adjacent before", StatusAccepted, "2024-12-07", "2024-12-09", false},
		{"adjacent after", StatusPending, "2024-12-13", "2024-12-15", false},
	}

	for _, tc := range cases {
		existing := []models.RentalRequest{
			{Status: tc.status, StartDate: day(tc.start), EndDate: day(tc.end)},
		}
		_, err := Validate(testItem(), existing, 20, rng, now)
		if tc.overlap && !errors.Is(err, ErrOverlap) {
			t.Fatalf("%s: expected ErrOverlap, got %v", tc.name, err)
		}
		if !tc.overlap && err != nil {
			t.Fatalf("%s: expected admissible, got %v", tc.name, err)
		}
	}
}

func TestValidateRuleOrder(t *testing.T) {
	// Self-rental wins over every other violation.
	item := testItem()
	item.IsAvailable = false
	rng := DateRange{Start: day("2024-11-01"), End: day("2024-10-01")}

	_, err := Validate(item, nil, item.UserID, rng, day("2024-12-01"))
	if !errors.Is(err, ErrSelfRental) {
		t.Fatalf("expected ErrSelfRental first, got %v", err)
	}

	// With a valid renter the availability check fires before date checks.
	_, err = Validate(item, nil, 20, rng, day("2024-12-01"))
	if !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable before date checks, got %v", err)
	}

	// Past start is reported before reversed ordering.
	item.IsAvailable = true
	_, err = Validate(item, nil, 20, rng, day("2024-12-01"))
	if !errors.Is(err, ErrPastDate) {
		t.Fatalf("expected ErrPastDate before ErrDateOrder, got %v", err)
	}
}

func TestParseDateRange(t *testing.T) {
	rng, err := ParseDateRange("2024-12-10", "2024-12-12")
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if rng.Days() != 3 {
		t.Fatalf("expected 3 days, got %d", rng.Days())
	}
	if _, err := ParseDateRange("10-12-2024", "2024-12-12"); err == nil {
		t.Fatal("expected parse error for malformed date")
	}
}
