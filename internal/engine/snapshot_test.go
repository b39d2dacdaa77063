package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func exitedCondor() []Leg {
	return []Leg{
		optionLeg("p1", KindPut, SideSell, 17500, 100, 50, decPtr(20)),
		optionLeg("p2", KindPut, SideBuy, 17000, 50, 50, decPtr(10)),
		optionLeg("c1", KindCall, SideSell, 18500, 100, 50, decPtr(30)),
		optionLeg("c2", KindCall, SideBuy, 19000, 50, 50, decPtr(15)),
	}
}

func TestBuildSnapshot_SumsPerLegRealized(t *testing.T) {
	legs := exitedCondor()
	if !IsFullyExited(legs) {
		t.Fatalf("fixture must be fully exited")
	}
	snap := BuildSnapshot(legs, SnapshotOptions{ExitDate: "2026-08-31"})

	// Manual sum: sold put +80, bought put -40, sold call +70,
	// bought call -35, each times 50.
	want := dec((80 - 40 + 70 - 35) * 50)
	if snap.RealizedPnL().Cmp(want) != 0 {
		t.Fatalf("realized=%s want=%s", snap.RealizedPnL().String(), want.String())
	}
	if !snap.IsWin() || snap.IsLoss() || snap.IsBreakEven() {
		t.Fatalf("positive pnl must classify as win only")
	}
	if !snap.Valid() {
		t.Fatalf("fully exited snapshot must be valid")
	}
	if len(snap.Breakdown()) != 4 {
		t.Fatalf("breakdown=%d want=4", len(snap.Breakdown()))
	}
}

func TestBuildSnapshot_Totals(t *testing.T) {
	lot := decPtr(25)
	legs := []Leg{
		futureLeg("f1", SideBuy, 18000, 2, decPtr(18500)),
		futureLeg("f2", SideSell, 18000, 3, decPtr(18500)),
	}
	legs[0].LotSize = lot
	snap := BuildSnapshot(legs, SnapshotOptions{})
	if snap.TotalQuantity().Cmp(dec(5)) != 0 {
		t.Fatalf("total quantity=%s want=5", snap.TotalQuantity().String())
	}
	// 2*25 + 3*1 (lot size defaults to 1).
	if snap.TotalLotSize().Cmp(dec(53)) != 0 {
		t.Fatalf("total lot size=%s want=53", snap.TotalLotSize().String())
	}
}

func TestBuildSnapshot_DetachedFromLiveLegs(t *testing.T) {
	legs := exitedCondor()
	snap := BuildSnapshot(legs, SnapshotOptions{})
	frozen := snap.RealizedPnL()

	// Mutate the live strategy after the snapshot is taken.
	bigger := dec(500)
	legs[0].ExitPremium = &bigger
	legs[1].Quantity = dec(9999)

	if snap.RealizedPnL().Cmp(frozen) != 0 {
		t.Fatalf("snapshot changed after live mutation: %s vs %s", snap.RealizedPnL().String(), frozen.String())
	}
	got := snap.Legs()
	if got[0].ExitPremium.Cmp(dec(20)) != 0 {
		t.Fatalf("frozen leg exit=%s want=20", got[0].ExitPremium.String())
	}

	// Mutating an accessor's return value must not reach the snapshot.
	got[1].Quantity = dec(1)
	if snap.Legs()[1].Quantity.Cmp(dec(50)) != 0 {
		t.Fatalf("accessor copy leaked back into snapshot")
	}
}

func TestBuildSnapshot_OpenLegContributesZero(t *testing.T) {
	legs := []Leg{
		futureLeg("f1", SideBuy, 18000, 50, decPtr(18500)),
		futureLeg("f2", SideBuy, 18000, 50, nil),
	}
	snap := BuildSnapshot(legs, SnapshotOptions{})
	if snap.RealizedPnL().Cmp(dec(25000)) != 0 {
		t.Fatalf("realized=%s want=25000 (open leg contributes zero)", snap.RealizedPnL().String())
	}
	if snap.Valid() {
		t.Fatalf("snapshot over open legs must not be valid")
	}
	bd := snap.Breakdown()
	if bd[1].Exited || bd[1].RealizedPnL.Sign() != 0 {
		t.Fatalf("open leg breakdown=%+v want exited=false pnl=0", bd[1])
	}
}

func TestBuildSnapshot_ExitDateDefaultsToNow(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	snap := BuildSnapshot(exitedCondor(), SnapshotOptions{Now: now})
	if snap.ExitDate() != "2026-08-31" {
		t.Fatalf("exit date=%s want=2026-08-31", snap.ExitDate())
	}
	if !snap.SnapshotDate().Equal(now) {
		t.Fatalf("snapshot date=%s want=%s", snap.SnapshotDate(), now)
	}
}

func TestSnapshotValid_NilAndEmpty(t *testing.T) {
	var nilSnap *Snapshot
	if nilSnap.Valid() {
		t.Fatalf("nil snapshot must not be valid")
	}
	empty := BuildSnapshot(nil, SnapshotOptions{})
	if empty.Valid() {
		t.Fatalf("empty snapshot must not be valid")
	}
}

func TestDisplayedRealizedPnL(t *testing.T) {
	snap := BuildSnapshot(exitedCondor(), SnapshotOptions{})
	if v := DisplayedRealizedPnL(&snap, decPtr(-1)); v.Cmp(snap.RealizedPnL()) != 0 {
		t.Fatalf("valid snapshot must win over fallback, got %s", v.String())
	}
	if v := DisplayedRealizedPnL(nil, decPtr(123)); v.Cmp(dec(123)) != 0 {
		t.Fatalf("fallback=%s want=123", v.String())
	}
	if v := DisplayedRealizedPnL(nil, nil); v.Sign() != 0 {
		t.Fatalf("no snapshot, no fallback: %s want=0", v.String())
	}
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	price := decPtr(18250)
	snap := BuildSnapshot(exitedCondor(), SnapshotOptions{
		EntryDate:             "2026-08-01",
		ExitDate:              "2026-08-31",
		UnderlyingPriceAtExit: price,
		Notes:                 "condor closed early",
	})
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var loaded Snapshot
	if err := json.Unmarshal(raw, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !loaded.Valid() {
		t.Fatalf("loaded snapshot must stay valid")
	}
	if loaded.RealizedPnL().Cmp(snap.RealizedPnL()) != 0 {
		t.Fatalf("realized=%s want=%s", loaded.RealizedPnL().String(), snap.RealizedPnL().String())
	}
	if loaded.ExitDate() != "2026-08-31" || loaded.EntryDate() != "2026-08-01" {
		t.Fatalf("dates lost: entry=%s exit=%s", loaded.EntryDate(), loaded.ExitDate())
	}
	up := loaded.UnderlyingPriceAtExit()
	if up == nil || up.Cmp(decimal.NewFromInt(18250)) != 0 {
		t.Fatalf("underlying price at exit lost: %v", up)
	}
	if loaded.Notes() != "condor closed early" {
		t.Fatalf("notes=%q", loaded.Notes())
	}
}
