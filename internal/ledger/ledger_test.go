package ledger

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/eddiefleurent/trade_scribe/internal/models"
)

func expiry(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewOpensPosition(t *testing.T) {
	exp := expiry(2026, 5, 17)
	tr := New("user-1", " aapl ", "CALL $150", exp, 3.0, 2, "earnings play")

	if tr.Symbol != "AAPL" {
		t.Errorf("Expected normalized symbol AAPL, got %q", tr.Symbol)
	}
	if !tr.IsOpen {
		t.Error("Expected new position to be open")
	}
	if tr.Remaining() != 2 {
		t.Errorf("Expected remaining 2, got %d", tr.Remaining())
	}
	if len(tr.Sells) != 0 {
		t.Errorf("Expected empty sell history, got %d entries", len(tr.Sells))
	}
}

// Full lifecycle: buy 2 @ $3, merge 3 @ $4 (avg $3.60), sell 2 @ $5
// (+$280, still open), sell 3 @ $2 (-$480, closed).
func TestPositionLifecycle(t *testing.T) {
	exp := expiry(2026, 5, 17)
	tr := New("user-1", "AAPL", "CALL $150", exp, 3.0, 2, "")

	merged, err := MergeBuy(tr, 4.0, 3, "")
	if err != nil {
		t.Fatalf("MergeBuy failed: %v", err)
	}
	if merged.BuyQuantity != 5 {
		t.Errorf("Expected quantity 5 after merge, got %d", merged.BuyQuantity)
	}
	if math.Abs(merged.BuyPrice-3.60) > 1e-9 {
		t.Errorf("Expected weighted average 3.60, got %v", merged.BuyPrice)
	}

	afterFirst, err := ApplySell(merged, 5.0, 2)
	if err != nil {
		t.Fatalf("First sell failed: %v", err)
	}
	if !afterFirst.IsOpen {
		t.Error("Expected position to stay open after partial sell")
	}
	if afterFirst.Remaining() != 3 {
		t.Errorf("Expected remaining 3, got %d", afterFirst.Remaining())
	}
	if pl := afterFirst.SellProfit(afterFirst.Sells[0]); math.Abs(pl-280) > 1e-9 {
		t.Errorf("Expected first sell P/L 280, got %v", pl)
	}

	afterSecond, err := ApplySell(afterFirst, 2.0, 3)
	if err != nil {
		t.Fatalf("Second sell failed: %v", err)
	}
	if afterSecond.IsOpen {
		t.Error("Expected position to close when remainder sold")
	}
	if pl := afterSecond.SellProfit(afterSecond.Sells[1]); math.Abs(pl-(-480)) > 1e-9 {
		t.Errorf("Expected second sell P/L -480, got %v", pl)
	}
	if len(afterSecond.Sells) != 2 {
		t.Errorf("Expected 2 sell events, got %d", len(afterSecond.Sells))
	}
}

func TestApplySellRejectsOverSell(t *testing.T) {
	exp := expiry(2026, 5, 17)
	tr := New("user-1", "AAPL", "CALL $150", exp, 3.60, 5, "")

	_, err := ApplySell(tr, 5.0, 6)
	if !errors.Is(err, ErrOverSell) {
		t.Fatalf("Expected ErrOverSell, got %v", err)
	}
	// Rejection leaves the input untouched.
	if tr.SoldQuantity != 0 || len(tr.Sells) != 0 || !tr.IsOpen {
		t.Error("Expected rejected sell to leave position unchanged")
	}

	_, err = ApplySell(tr, 5.0, 0)
	if !errors.Is(err, ErrOverSell) {
		t.Fatalf("Expected ErrOverSell for zero quantity, got %v", err)
	}
}

func TestMergeBuyRejectsClosedPosition(t *testing.T) {
	exp := expiry(2026, 5, 17)
	tr := New("user-1", "AAPL", "CALL $150", exp, 3.0, 1, "")
	closed, err := ApplySell(tr, 4.0, 1)
	if err != nil {
		t.Fatalf("ApplySell failed: %v", err)
	}

	_, err = MergeBuy(closed, 2.0, 1, "")
	if !errors.Is(err, ErrInvalidMergeState) {
		t.Fatalf("Expected ErrInvalidMergeState, got %v", err)
	}
}

func TestMergeBuyKeepsNotesWhenEmpty(t *testing.T) {
	exp := expiry(2026, 5, 17)
	tr := New("user-1", "AAPL", "CALL $150", exp, 3.0, 2, "original thesis")

	merged, err := MergeBuy(tr, 3.0, 2, "")
	if err != nil {
		t.Fatalf("MergeBuy failed: %v", err)
	}
	if merged.Notes != "original thesis" {
		t.Errorf("Expected original notes kept, got %q", merged.Notes)
	}
	if math.Abs(merged.BuyPrice-3.0) > 1e-9 {
		t.Errorf("Expected equal-price merge to keep price 3.0, got %v", merged.BuyPrice)
	}

	merged, err = MergeBuy(tr, 3.0, 2, "added on dip")
	if err != nil {
		t.Fatalf("MergeBuy failed: %v", err)
	}
	if merged.Notes != "added on dip" {
		t.Errorf("Expected replacement notes, got %q", merged.Notes)
	}
}

func TestFindMergeCandidateIdentity(t *testing.T) {
	exp := expiry(2026, 5, 17)
	open := []models.Trade{
		New("user-1", "AAPL", "CALL $150", exp, 3.0, 2, ""),
		New("user-1", "TSLA", "PUT $200", exp, 2.0, 1, ""),
	}

	// Case and whitespace differences still match; time of day on the
	// expiration is ignored.
	laterSameDay := exp.Add(15 * time.Hour)
	got := FindMergeCandidate(open, "user-1", " aapl ", "call $150", laterSameDay)
	if got == nil {
		t.Fatal("Expected a merge candidate for case/whitespace variant")
	}
	if got.Symbol != "AAPL" {
		t.Errorf("Expected AAPL candidate, got %q", got.Symbol)
	}

	// A different user never matches.
	if c := FindMergeCandidate(open, "user-2", "AAPL", "CALL $150", exp); c != nil {
		t.Error("Expected no candidate for a different user")
	}

	// A different expiration day never matches.
	nextDay := exp.AddDate(0, 0, 1)
	if c := FindMergeCandidate(open, "user-1", "AAPL", "CALL $150", nextDay); c != nil {
		t.Error("Expected no candidate for a different expiration day")
	}

	// Closed positions are skipped.
	closed, err := ApplySell(open[0], 4.0, 2)
	if err != nil {
		t.Fatalf("ApplySell failed: %v", err)
	}
	if c := FindMergeCandidate([]models.Trade{closed}, "user-1", "AAPL", "CALL $150", exp); c != nil {
		t.Error("Expected closed position to be ignored")
	}
}
