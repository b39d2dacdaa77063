package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Strategy lifecycle statuses. A strategy is current while any leg is
// open and completed once it has been exited and snapshotted.
const (
	StatusCurrent   = "current"
	StatusCompleted = "completed"
)

// Strategy is a stored multi-leg trade. Legs hold the live leg data as
// JSON (engine.Leg shape); Snapshot holds the frozen historical record
// and is written exactly once, at exit. The snapshot is owned by its
// strategy and is destroyed only when the row is deleted.
type Strategy struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:varchar(100);not null;index"`

	Status string `gorm:"type:varchar(20);not null;default:'current';index"`

	EntryDate  *time.Time `gorm:"type:date"`
	ExpiryDate *time.Time `gorm:"type:date"`
	ExitDate   *time.Time `gorm:"type:date"`

	UnderlyingPrice decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0"`
	Notes           string          `gorm:"type:text"`

	Legs     datatypes.JSON `gorm:"not null"`
	Snapshot datatypes.JSON

	// ActualProfit is the pre-snapshot legacy result, kept only as the
	// display fallback for rows completed before snapshots existed.
	ActualProfit *decimal.Decimal `gorm:"type:numeric(30,10)"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Strategy) TableName() string {
	return "strategies"
}
