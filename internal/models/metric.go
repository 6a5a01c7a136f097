package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Metric is one extracted figure from a filing, keyed by (filing_id, var).
type Metric struct {
	ID          uint            `gorm:"primaryKey"`
	FilingID    uint            `gorm:"index;not null;uniqueIndex:uq_filing_var,priority:1"`
	Var         string          `gorm:"type:text;not null;uniqueIndex:uq_filing_var,priority:2"`
	Value       decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	PeriodStart *datatypes.Date
	PeriodEnd   *datatypes.Date
	Currency    *string `gorm:"type:text"`
}

func (Metric) TableName() string {
	return "metrics"
}
