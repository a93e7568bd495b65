package types

import "time"

// Product is a tracked listing. The monitoring run mutates only the price
// state fields; id, url and target_price belong to the CRUD boundary.
type Product struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	URL              string     `json:"url"`
	TargetPrice      float64    `json:"target_price"`
	CurrentPrice     *float64   `json:"current_price"`
	LastCheckedPrice *float64   `json:"last_checked_price"`
	LastChecked      *time.Time `json:"last_checked"`
	LastNotified     *time.Time `json:"last_notified"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        string     `json:"created_at"`
}

// PricePoint is one observed price for a product.
type PricePoint struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"product_id"`
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}
