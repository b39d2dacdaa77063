package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"optionbook/internal/engine"
	"optionbook/internal/models"
)

func completedStrategy(t *testing.T, repo *stubRepo, name string, pnl int64) {
	t.Helper()
	exit := decimal.NewFromInt(18000 + pnl)
	legs := []engine.Leg{{
		ID:         "f1",
		Kind:       engine.KindFuture,
		Side:       engine.SideBuy,
		Quantity:   dec(1),
		EntryPrice: dec(18000),
		ExitPrice:  &exit,
	}}
	snap := engine.BuildSnapshot(legs, engine.SnapshotOptions{ExitDate: "2026-08-31"})
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	legsJSON, err := json.Marshal(legs)
	if err != nil {
		t.Fatalf("marshal legs: %v", err)
	}
	item := &models.Strategy{
		Name:     name,
		Status:   models.StatusCompleted,
		Legs:     legsJSON,
		Snapshot: snapJSON,
	}
	if err := repo.CreateStrategy(context.Background(), item); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestStatsRefresh_Aggregates(t *testing.T) {
	repo := newStubRepo()
	completedStrategy(t, repo, "win", 5000)
	completedStrategy(t, repo, "loss", -2000)
	completedStrategy(t, repo, "flat", 0)

	svc := &StatsService{Repo: repo}
	out, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if out.CompletedTrades != 3 || out.Wins != 1 || out.Losses != 1 || out.BreakEvens != 1 {
		t.Fatalf("counts=%+v", out)
	}
	if out.NetRealizedPnL.Cmp(dec(3000)) != 0 {
		t.Fatalf("net=%s want=3000", out.NetRealizedPnL.String())
	}
	if out.NetFormatted != "+₹3,000" {
		t.Fatalf("formatted=%s want=+₹3,000", out.NetFormatted)
	}
}

func TestStatsRefresh_LegacyFallback(t *testing.T) {
	repo := newStubRepo()
	// A pre-snapshot row: completed, no snapshot, legacy actual profit.
	fallback := decimal.NewFromInt(-750)
	item := &models.Strategy{
		Name:         "legacy",
		Status:       models.StatusCompleted,
		Legs:         []byte(`[]`),
		ActualProfit: &fallback,
	}
	if err := repo.CreateStrategy(context.Background(), item); err != nil {
		t.Fatalf("create: %v", err)
	}

	svc := &StatsService{Repo: repo}
	out, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if out.CompletedTrades != 1 || out.Losses != 1 {
		t.Fatalf("counts=%+v", out)
	}
	if out.NetRealizedPnL.Cmp(dec(-750)) != 0 {
		t.Fatalf("net=%s want=-750", out.NetRealizedPnL.String())
	}
}

func TestStats_CacheWithinMaxAge(t *testing.T) {
	repo := newStubRepo()
	completedStrategy(t, repo, "win", 1000)
	svc := &StatsService{Repo: repo, MaxAge: time.Hour}

	first, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	completedStrategy(t, repo, "win2", 1000)

	second, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !second.ComputedAt.Equal(first.ComputedAt) {
		t.Fatalf("cache was not used within max age")
	}
	if second.CompletedTrades != 1 {
		t.Fatalf("cached trades=%d want=1", second.CompletedTrades)
	}
}
