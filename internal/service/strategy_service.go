package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"optionbook/internal/engine"
	"optionbook/internal/models"
	"optionbook/internal/repository"
)

var (
	ErrNotFound          = errors.New("strategy not found")
	ErrNotFullyExited    = errors.New("strategy is not fully exited")
	ErrSnapshotExists    = errors.New("strategy already has a snapshot")
	ErrCompletedReadOnly = errors.New("completed strategy is read-only")
)

const dateLayout = "2006-01-02"

// DefaultRangePercent is the payoff chart price range when the caller
// does not pick one (center price ±20%).
const DefaultRangePercent = 20.0

type StrategyService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

// StrategyInput is the write shape for create and update. Date fields
// are YYYY-MM-DD; leg numeric fields accept JSON numbers or
// numeric-looking strings (decimal parses either, anything else is
// rejected during decoding).
type StrategyInput struct {
	Name            string          `json:"name"`
	EntryDate       string          `json:"entry_date"`
	ExpiryDate      string          `json:"expiry_date"`
	UnderlyingPrice decimal.Decimal `json:"underlying_price"`
	Notes           string          `json:"notes"`
	Legs            []engine.Leg    `json:"legs"`
}

// LegExit carries one leg's exit value for the exit flow. Value is the
// exit premium for options and the exit price for futures.
type LegExit struct {
	LegID string          `json:"leg_id"`
	Value decimal.Decimal `json:"value"`
}

type ExitInput struct {
	ExitDate              string           `json:"exit_date"`
	UnderlyingPriceAtExit *decimal.Decimal `json:"underlying_price_at_exit,omitempty"`
	Notes                 string           `json:"notes"`
	LegExits              []LegExit        `json:"leg_exits"`
}

func (s *StrategyService) Create(ctx context.Context, input StrategyInput) (*models.Strategy, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("strategy service not configured")
	}
	item, err := strategyFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.CreateStrategy(ctx, item); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("strategy created",
			zap.Uint64("id", item.ID),
			zap.String("name", item.Name),
			zap.Int("legs", len(input.Legs)),
		)
	}
	return item, nil
}

func (s *StrategyService) Get(ctx context.Context, id uint64) (*models.Strategy, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("strategy service not configured")
	}
	item, err := s.Repo.GetStrategyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *StrategyService) List(ctx context.Context, params repository.ListStrategiesParams) ([]models.Strategy, int64, error) {
	if s == nil || s.Repo == nil {
		return nil, 0, errors.New("strategy service not configured")
	}
	items, err := s.Repo.ListStrategies(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountStrategies(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update replaces the editable fields of an open strategy. A completed
// strategy with a snapshot is frozen history and cannot be edited.
func (s *StrategyService) Update(ctx context.Context, id uint64, input StrategyInput) (*models.Strategy, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status == models.StatusCompleted && len(item.Snapshot) > 0 {
		return nil, ErrCompletedReadOnly
	}
	next, err := strategyFromInput(input)
	if err != nil {
		return nil, err
	}
	item.Name = next.Name
	item.EntryDate = next.EntryDate
	item.ExpiryDate = next.ExpiryDate
	item.UnderlyingPrice = next.UnderlyingPrice
	item.Notes = next.Notes
	item.Legs = next.Legs
	if err := s.Repo.UpdateStrategy(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *StrategyService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.Repo.DeleteStrategy(ctx, id)
}

// Exit closes a strategy: applies the supplied exit values to its legs,
// requires every leg to be exited, freezes the historical snapshot and
// marks the row completed. The snapshot is created exactly once; a
// strategy that already has one cannot be exited again.
func (s *StrategyService) Exit(ctx context.Context, id uint64, input ExitInput) (*models.Strategy, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(item.Snapshot) > 0 {
		return nil, ErrSnapshotExists
	}
	legs, err := DecodeLegs(item.Legs)
	if err != nil {
		return nil, err
	}
	legs = applyLegExits(legs, input.LegExits)
	if err := engine.ValidateLegs(legs); err != nil {
		return nil, err
	}
	if !engine.IsFullyExited(legs) {
		return nil, ErrNotFullyExited
	}

	exitDate := strings.TrimSpace(input.ExitDate)
	var exitAt *time.Time
	if exitDate != "" {
		t, err := time.Parse(dateLayout, exitDate)
		if err != nil {
			return nil, fmt.Errorf("invalid exit_date: %w", err)
		}
		exitAt = &t
	} else {
		t := time.Now().UTC().Truncate(24 * time.Hour)
		exitAt = &t
		exitDate = t.Format(dateLayout)
	}

	entryDate := ""
	if item.EntryDate != nil {
		entryDate = item.EntryDate.Format(dateLayout)
	}
	notes := strings.TrimSpace(input.Notes)
	if notes == "" {
		notes = item.Notes
	}
	snap := engine.BuildSnapshot(legs, engine.SnapshotOptions{
		EntryDate:             entryDate,
		ExitDate:              exitDate,
		UnderlyingPriceAtExit: input.UnderlyingPriceAtExit,
		Notes:                 notes,
	})

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	legsJSON, err := json.Marshal(legs)
	if err != nil {
		return nil, err
	}
	ok, err := s.Repo.SetStrategySnapshot(ctx, id, legsJSON, snapJSON, exitAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race to another exit; the first snapshot stands.
		return nil, ErrSnapshotExists
	}
	if s.Logger != nil {
		s.Logger.Info("strategy exited",
			zap.Uint64("id", id),
			zap.String("realized_pnl", snap.RealizedPnL().String()),
			zap.Bool("is_win", snap.IsWin()),
		)
	}
	return s.Get(ctx, id)
}

// Summary is the single payload behind the strategy card. Open and
// completed views are mutually exclusive: an open strategy shows
// theoretical metrics, a completed one shows only the frozen realized
// result.
type Summary struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	FullyExited bool   `json:"fully_exited"`

	// Open view.
	MaxProfit  *engine.Result    `json:"max_profit,omitempty"`
	MaxLoss    *engine.Result    `json:"max_loss,omitempty"`
	Breakevens []decimal.Decimal `json:"breakevens,omitempty"`

	// Completed view.
	RealizedPnL *engine.Result   `json:"realized_pnl,omitempty"`
	Snapshot    *engine.Snapshot `json:"snapshot,omitempty"`
}

func (s *StrategyService) Summary(ctx context.Context, id uint64, rangePct float64) (*Summary, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	legs, err := DecodeLegs(item.Legs)
	if err != nil {
		return nil, err
	}
	out := &Summary{
		ID:          item.ID,
		Name:        item.Name,
		Status:      item.Status,
		FullyExited: engine.IsFullyExited(legs),
	}

	snap, err := DecodeSnapshot(item.Snapshot)
	if err != nil {
		return nil, err
	}
	if snap.Valid() {
		realized := engine.Classify(engine.DisplayedRealizedPnL(snap, item.ActualProfit))
		out.RealizedPnL = &realized
		out.Snapshot = snap
		return out, nil
	}

	if rangePct <= 0 {
		rangePct = DefaultRangePercent
	}
	maxProfit, maxLoss := engine.PayoffExtrema(legs, item.UnderlyingPrice, rangePct)
	mp := engine.Classify(maxProfit)
	ml := engine.Classify(maxLoss)
	out.MaxProfit = &mp
	out.MaxLoss = &ml
	out.Breakevens = engine.BreakevenPoints(legs, item.UnderlyingPrice, rangePct)
	return out, nil
}

// Payoff is the chart payload for a stored strategy.
type Payoff struct {
	Points     []engine.CurvePoint `json:"points"`
	MaxProfit  decimal.Decimal     `json:"max_profit"`
	MaxLoss    decimal.Decimal     `json:"max_loss"`
	Breakevens []decimal.Decimal   `json:"breakevens"`
}

func (s *StrategyService) Payoff(ctx context.Context, id uint64, rangePct float64) (*Payoff, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	legs, err := DecodeLegs(item.Legs)
	if err != nil {
		return nil, err
	}
	return PayoffForLegs(legs, item.UnderlyingPrice, rangePct), nil
}

// PayoffForLegs also serves ad-hoc charting for strategies that are not
// stored yet (the builder screen).
func PayoffForLegs(legs []engine.Leg, center decimal.Decimal, rangePct float64) *Payoff {
	if rangePct <= 0 {
		rangePct = DefaultRangePercent
	}
	maxProfit, maxLoss := engine.PayoffExtrema(legs, center, rangePct)
	return &Payoff{
		Points:     engine.PayoffCurve(legs, center, rangePct),
		MaxProfit:  maxProfit,
		MaxLoss:    maxLoss,
		Breakevens: engine.BreakevenPoints(legs, center, rangePct),
	}
}

func strategyFromInput(input StrategyInput) (*models.Strategy, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("name required")
	}
	if input.UnderlyingPrice.IsNegative() {
		return nil, errors.New("underlying_price must be non-negative")
	}
	if err := engine.ValidateLegs(input.Legs); err != nil {
		return nil, err
	}
	legsJSON, err := json.Marshal(input.Legs)
	if err != nil {
		return nil, err
	}
	item := &models.Strategy{
		Name:            name,
		Status:          models.StatusCurrent,
		UnderlyingPrice: input.UnderlyingPrice,
		Notes:           input.Notes,
		Legs:            legsJSON,
	}
	if item.EntryDate, err = parseDate(input.EntryDate); err != nil {
		return nil, fmt.Errorf("invalid entry_date: %w", err)
	}
	if item.ExpiryDate, err = parseDate(input.ExpiryDate); err != nil {
		return nil, fmt.Errorf("invalid expiry_date: %w", err)
	}
	return item, nil
}

func applyLegExits(legs []engine.Leg, exits []LegExit) []engine.Leg {
	if len(exits) == 0 {
		return legs
	}
	byID := make(map[string]decimal.Decimal, len(exits))
	for _, e := range exits {
		byID[strings.TrimSpace(e.LegID)] = e.Value
	}
	out := engine.CloneLegs(legs)
	for i, l := range out {
		v, ok := byID[l.ID]
		if !ok {
			continue
		}
		val := v
		if l.IsOption() {
			out[i].ExitPremium = &val
		} else {
			out[i].ExitPrice = &val
		}
	}
	return out
}

// DecodeLegs unpacks the stored leg JSON.
func DecodeLegs(raw datatypes.JSON) ([]engine.Leg, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var legs []engine.Leg
	if err := json.Unmarshal(raw, &legs); err != nil {
		return nil, fmt.Errorf("decode legs: %w", err)
	}
	return legs, nil
}

// DecodeSnapshot unpacks the stored snapshot JSON; nil when absent.
func DecodeSnapshot(raw datatypes.JSON) (*engine.Snapshot, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
