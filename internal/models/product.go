package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StringSlice is a list of strings persisted as a JSON text column, used for
// product size and color options.
type StringSlice []string

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string slice: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", src)
	}
	return json.Unmarshal(data, s)
}

// Product represents a product in the store. Price is an exact decimal and
// serializes to JSON as a fixed-point string, never a binary float.
type Product struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name              string          `json:"name" validate:"required,min=3,max=100"`
	Description       string          `json:"description" validate:"omitempty,max=500"`
	Price             decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	ImageURL          string          `json:"image_url" validate:"omitempty,max=500"`
	Sizes             StringSlice     `json:"sizes" gorm:"type:text"`
	Colors            StringSlice     `json:"colors" gorm:"type:text"`
	Stock             int             `json:"stock" validate:"gte=0"`
	LowStockThreshold int             `json:"low_stock_threshold" validate:"gte=0"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// LowOnStock reports whether the product is at or under its low-stock threshold.
func (p *Product) LowOnStock() bool {
	return p.Stock <= p.LowStockThreshold
}
