package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"optionbook/internal/models"
	"optionbook/internal/repository"
)

// stubRepo is an in-memory Repository for service tests.
type stubRepo struct {
	nextID uint64
	items  map[uint64]*models.Strategy
}

func newStubRepo() *stubRepo {
	return &stubRepo{nextID: 1, items: map[uint64]*models.Strategy{}}
}

func (r *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (r *stubRepo) CreateStrategy(ctx context.Context, item *models.Strategy) error {
	item.ID = r.nextID
	r.nextID++
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *stubRepo) GetStrategyByID(ctx context.Context, id uint64) (*models.Strategy, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (r *stubRepo) ListStrategies(ctx context.Context, params repository.ListStrategiesParams) ([]models.Strategy, error) {
	var out []models.Strategy
	for _, item := range r.items {
		if params.Status != nil && item.Status != *params.Status {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (r *stubRepo) CountStrategies(ctx context.Context, params repository.ListStrategiesParams) (int64, error) {
	items, err := r.ListStrategies(ctx, params)
	return int64(len(items)), err
}

func (r *stubRepo) UpdateStrategy(ctx context.Context, item *models.Strategy) error {
	cp := *item
	cp.UpdatedAt = time.Now().UTC()
	r.items[item.ID] = &cp
	return nil
}

func (r *stubRepo) DeleteStrategy(ctx context.Context, id uint64) error {
	delete(r.items, id)
	return nil
}

func (r *stubRepo) SetStrategySnapshot(ctx context.Context, id uint64, legs []byte, snapshot []byte, exitDate *time.Time) (bool, error) {
	item, ok := r.items[id]
	if !ok {
		return false, nil
	}
	if len(item.Snapshot) > 0 {
		return false, nil
	}
	item.Legs = legs
	item.Snapshot = snapshot
	item.Status = models.StatusCompleted
	item.ExitDate = exitDate
	item.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *stubRepo) ListCompletedStrategies(ctx context.Context, since *time.Time, limit int) ([]models.Strategy, error) {
	status := models.StatusCompleted
	return r.ListStrategies(ctx, repository.ListStrategiesParams{Status: &status})
}
