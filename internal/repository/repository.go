package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"optionbook/internal/models"
)

type ListStrategiesParams struct {
	Status  *string
	Limit   int
	Offset  int
	OrderBy string
	Asc     *bool
}

// Repository is the persistence boundary for strategies. The engine
// itself never touches storage; services go through this interface so
// tests can run against an in-memory stub.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	CreateStrategy(ctx context.Context, item *models.Strategy) error
	GetStrategyByID(ctx context.Context, id uint64) (*models.Strategy, error)
	ListStrategies(ctx context.Context, params ListStrategiesParams) ([]models.Strategy, error)
	CountStrategies(ctx context.Context, params ListStrategiesParams) (int64, error)
	UpdateStrategy(ctx context.Context, item *models.Strategy) error
	DeleteStrategy(ctx context.Context, id uint64) error

	// SetStrategySnapshot attaches the frozen exit record and marks the
	// row completed, but only while no snapshot exists yet. The false
	// return means a snapshot was already attached and nothing changed;
	// an existing snapshot is never overwritten.
	SetStrategySnapshot(ctx context.Context, id uint64, legs []byte, snapshot []byte, exitDate *time.Time) (bool, error)

	// ListCompletedStrategies feeds the dashboard aggregation.
	ListCompletedStrategies(ctx context.Context, since *time.Time, limit int) ([]models.Strategy, error)
}
