package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"optionbook/internal/engine"
	"optionbook/internal/repository"
)

// DashboardStats aggregates completed trades for the dashboard. All
// realized values come through the snapshot display path, never from
// recomputing live legs.
type DashboardStats struct {
	CompletedTrades int    `json:"completed_trades"`
	Wins            int    `json:"wins"`
	Losses          int    `json:"losses"`
	BreakEvens      int    `json:"break_evens"`
	WinRate         float64 `json:"win_rate"`

	NetRealizedPnL decimal.Decimal `json:"net_realized_pnl"`
	NetFormatted   string          `json:"net_formatted"`

	ComputedAt time.Time `json:"computed_at"`
}

// StatsService keeps a cached dashboard aggregate, refreshed by cron
// and on demand when the cache has gone stale.
type StatsService struct {
	Repo     repository.Repository
	Logger   *zap.Logger
	MaxAge   time.Duration
	Lookback time.Duration

	mu    sync.RWMutex
	cache DashboardStats
}

func (s *StatsService) Stats(ctx context.Context) (DashboardStats, error) {
	if s == nil || s.Repo == nil {
		return DashboardStats{}, nil
	}
	maxAge := s.MaxAge
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}
	s.mu.RLock()
	cached := s.cache
	s.mu.RUnlock()
	if !cached.ComputedAt.IsZero() && time.Since(cached.ComputedAt) < maxAge {
		return cached, nil
	}
	return s.Refresh(ctx)
}

func (s *StatsService) Refresh(ctx context.Context) (DashboardStats, error) {
	if s == nil || s.Repo == nil {
		return DashboardStats{}, nil
	}
	var since *time.Time
	if s.Lookback > 0 {
		t := time.Now().UTC().Add(-s.Lookback)
		since = &t
	}
	items, err := s.Repo.ListCompletedStrategies(ctx, since, 0)
	if err != nil {
		return DashboardStats{}, err
	}

	out := DashboardStats{ComputedAt: time.Now().UTC()}
	net := decimal.Zero
	for _, item := range items {
		snap, err := DecodeSnapshot(item.Snapshot)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("skipping strategy with bad snapshot",
					zap.Uint64("id", item.ID), zap.Error(err))
			}
			continue
		}
		pnl := engine.DisplayedRealizedPnL(snap, item.ActualProfit)
		out.CompletedTrades++
		net = net.Add(pnl)
		switch {
		case pnl.Sign() > 0:
			out.Wins++
		case pnl.Sign() < 0:
			out.Losses++
		default:
			out.BreakEvens++
		}
	}
	if out.CompletedTrades > 0 {
		out.WinRate = float64(out.Wins) / float64(out.CompletedTrades)
	}
	out.NetRealizedPnL = net
	out.NetFormatted = engine.FormatCurrency(net)

	s.mu.Lock()
	s.cache = out
	s.mu.Unlock()
	if s.Logger != nil {
		s.Logger.Info("dashboard stats refreshed",
			zap.Int("completed", out.CompletedTrades),
			zap.String("net_realized_pnl", net.String()),
		)
	}
	return out, nil
}
