package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfel/tracker/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func entry(id int64, minutes int, action domain.Action, qty, price, fee string) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:        id,
		HoldingID: 1,
		TS:        t0.Add(time.Duration(minutes) * time.Minute),
		Action:    action,
		Qty:       dec(qty),
		Price:     dec(price),
		Fee:       dec(fee),
	}
}

func TestReplayConservation(t *testing.T) {
	state, err := Replay([]domain.LedgerEntry{
		entry(1, 0, domain.ActionBuy, "1.5", "100", "0"),
		entry(2, 1, domain.ActionBuy, "2.25", "110", "0"),
		entry(3, 2, domain.ActionBuy, "0.25", "90", "0"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !state.TotalQty().Equal(dec("4")) {
		t.Errorf("total qty = %s, want 4", state.TotalQty())
	}
	if len(state.Lots) != 3 {
		t.Errorf("lots = %d, want 3", len(state.Lots))
	}
	if !state.RealizedPL.IsZero() {
		t.Errorf("realized P/L = %s, want 0", state.RealizedPL)
	}
}

func TestReplayBuyFeeAmortized(t *testing.T) {
	state, err := Replay([]domain.LedgerEntry{
		entry(1, 0, domain.ActionBuy, "2", "40000", "200"),
	})
	if err != nil {
		t.Fatal(err)
	}
	// unit cost = 40000 + 200/2
	if !state.Lots[0].UnitCost.Equal(dec("40100")) {
		t.Errorf("unit cost = %s, want 40100", state.Lots[0].UnitCost)
	}
}

func TestReplayZeroQtyBuyIsNoop(t *testing.T) {
	state, err := Replay([]domain.LedgerEntry{
		entry(1, 0, domain.ActionBuy, "0", "100", "5"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Lots) != 0 {
		t.Errorf("lots = %d, want 0", len(state.Lots))
	}
}

func TestReplayFIFOOrder(t *testing.T) {
	// Selling exactly the first lot consumes it and leaves later lots untouched.
	state, err := Replay([]domain.LedgerEntry{
		entry(1, 0, domain.ActionBuy, "1", "100", "0"),
		entry(2, 1, domain.ActionBuy, "2", "200", "0"),
		entry(3, 2, domain.ActionSell, "1", "150", "0"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Lots) != 1 {
		t.Fatalf("lots = %d, want 1", len(state.Lots))
	}
	if !state.Lots[0].Qty.Equal(dec("2")) || !state.Lots[0].UnitCost.Equal(dec("200")) {
		t.Errorf("remaining lot = %s @ %s, want 2 @ 200", state.Lots[0].Qty, state.Lots[0].UnitCost)
	}
	// realized = 1*150 - 1*100
	if !state.RealizedPL.Equal(dec("50")) {
		t.Errorf("realized P/L = %s, want 50", state.RealizedPL)
	}
}

func TestReplaySellFeeFullyAllocated(t *testing.T) {
	// Selling the entirety of a single lot allocates the whole fee to it.
	state, err := Replay([]domain.LedgerEntry{
		entry(1, 0, domain.ActionBuy, "3", "10", "0"),
		entry(2, 1, domain.ActionSell, "3", "12", "9"),
	})
	if err != nil {
		t.Fatal(err)
	}
	// realized = 3*12 - 3*10 - 9
	if !state.RealizedPL.Equal(dec("-3")) {
		t.Errorf("realized P/L = %s, want -3", state.RealizedPL)
	}
	if len(state.Lots) != 0 {
		t.Errorf("lots = %d, want 0", len(state.Lots))
	}
}

func TestReplaySellFeeProportional(t *testing.T) {
	// Sell spans two lots; the fee splits by consumed fraction.
	state, err := Replay([]domain.LedgerEntry{
		entry(1, 0, domain.ActionBuy, "1", "30100", "0"), // 30000 + fee rolled in manually for clarity
		entry(2, 1, domain.ActionBuy, "2", "40100", "0"),
		entry(3, 2, domain.ActionSell, "1.5", "50000", "150"),
	})
	if err != nil {
		t.Fatal(err)
	}
	// lot 1: 1*50000 - 1*30100 - 150*(1/1.5)   = 19800
	// lot 2: 0.5*50000 - 0.5*40100 - 150*(0.5/1.5) = 4900
	want := dec("19800").Add(dec("4900"))
	if !state.RealizedPL.Equal(want) {
		t.Errorf("realized P/L = %s, want %s", state.RealizedPL, want)
	}
	if !state.TotalQty().Equal(dec("1.5")) {
		t.Errorf("remaining qty = %s, want 1.5", state.TotalQty())
	}
	if !state.Lots[0].UnitCost.Equal(dec("40100")) {
		t.Errorf("remaining unit cost = %s, want 40100", state.Lots[0].UnitCost)
	}
}

func TestReplayOversellTruncates(t *testing.T) {
	state, err := Replay([]domain.LedgerEntry{
		entry(1, 0, domain.ActionBuy, "1", "100", "0"),
		entry(2, 1, domain.ActionSell, "3", "120", "0"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Lots) != 0 {
		t.Errorf("lots = %d, want 0", len(state.Lots))
	}
	if !state.Oversold.Equal(dec("2")) {
		t.Errorf("oversold = %s, want 2", state.Oversold)
	}
	// Only the matched unit realizes P/L; the shortfall is dropped.
	// realized = 1*120 - 1*100 - 0*(1/3)
	if !state.RealizedPL.Equal(dec("20")) {
		t.Errorf("realized P/L = %s, want 20", state.RealizedPL)
	}
}

func TestReplayIgnoresCashActions(t *testing.T) {
	state, err := Replay([]domain.LedgerEntry{
		entry(1, 0, domain.ActionBuy, "2", "50", "0"),
		entry(2, 1, domain.ActionDividend, "0", "0", "0"),
		entry(3, 2, domain.ActionTransfer, "1", "0", "0"),
		entry(4, 3, domain.ActionCoupon, "0", "0", "0"),
		entry(5, 4, domain.ActionAdjustment, "0", "0", "0"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !state.TotalQty().Equal(dec("2")) {
		t.Errorf("total qty = %s, want 2", state.TotalQty())
	}
}

func TestReplayOrderViolation(t *testing.T) {
	// Same timestamp, decreasing insertion sequence.
	e1 := entry(5, 0, domain.ActionBuy, "1", "100", "0")
	e2 := entry(4, 0, domain.ActionBuy, "1", "100", "0")
	_, err := Replay([]domain.LedgerEntry{e1, e2})
	if !errors.Is(err, ErrLedgerOrder) {
		t.Errorf("err = %v, want ErrLedgerOrder", err)
	}

	// Decreasing timestamp.
	e3 := entry(1, 10, domain.ActionBuy, "1", "100", "0")
	e4 := entry(2, 5, domain.ActionBuy, "1", "100", "0")
	_, err = Replay([]domain.LedgerEntry{e3, e4})
	if !errors.Is(err, ErrLedgerOrder) {
		t.Errorf("err = %v, want ErrLedgerOrder", err)
	}
}
