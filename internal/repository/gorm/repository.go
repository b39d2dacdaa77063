package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"optionbook/internal/models"
	"optionbook/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) CreateStrategy(ctx context.Context, item *models.Strategy) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetStrategyByID(ctx context.Context, id uint64) (*models.Strategy, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Strategy
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListStrategies(ctx context.Context, params repository.ListStrategiesParams) ([]models.Strategy, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.strategyQuery(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Strategy
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountStrategies(ctx context.Context, params repository.ListStrategiesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var n int64
	if err := s.strategyQuery(ctx, params).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) strategyQuery(ctx context.Context, params repository.ListStrategiesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Strategy{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	return query
}

func (s *Store) UpdateStrategy(ctx context.Context, item *models.Strategy) error {
	if s == nil || s.db == nil || item == nil || item.ID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) DeleteStrategy(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&models.Strategy{}, "id = ?", id).Error
}

// SetStrategySnapshot is guarded by "snapshot IS NULL" so a second exit
// can never replace the frozen record; the conditional update is the
// storage-level half of the snapshot-immutability contract.
func (s *Store) SetStrategySnapshot(ctx context.Context, id uint64, legs []byte, snapshot []byte, exitDate *time.Time) (bool, error) {
	if s == nil || s.db == nil || id == 0 || len(snapshot) == 0 {
		return false, nil
	}
	updates := map[string]any{
		"status":   models.StatusCompleted,
		"legs":     legs,
		"snapshot": snapshot,
	}
	if exitDate != nil {
		updates["exit_date"] = *exitDate
	}
	res := s.db.WithContext(ctx).
		Model(&models.Strategy{}).
		Where("id = ?", id).
		Where("snapshot IS NULL").
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (s *Store) ListCompletedStrategies(ctx context.Context, since *time.Time, limit int) ([]models.Strategy, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 1000)
	query := s.db.WithContext(ctx).
		Model(&models.Strategy{}).
		Where("status = ?", models.StatusCompleted)
	if since != nil && !since.IsZero() {
		query = query.Where("exit_date >= ?", *since)
	}
	var items []models.Strategy
	if err := query.Order("exit_date desc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	switch column {
	case "created_at", "updated_at", "exit_date", "name":
	default:
		column = fallback
	}
	dir := "desc"
	if asc != nil && *asc {
		dir = "asc"
	}
	return query.Order(column + " " + dir)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
