package database

import (
	"database/sql"
	"fmt"
	"time"

	"price-tracker-bot/internal/types"

	_ "modernc.org/sqlite"
)

// Store wraps the tracked-product queries so consumers can depend on an
// interface instead of package globals.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// CreateProduct inserts a new tracked product and returns it with its id.
func (s *Store) CreateProduct(name, url string, targetPrice float64) (*types.Product, error) {
	query := `
	INSERT INTO products (name, url, target_price)
	VALUES (?, ?, ?);`

	res, err := DB.Exec(query, name, url, targetPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted product id: %w", err)
	}
	return s.GetProduct(id)
}

// GetProduct fetches a single product. Returns sql.ErrNoRows if it does not exist.
func (s *Store) GetProduct(id int64) (*types.Product, error) {
	query := productSelect + ` WHERE id = ?;`

	var p types.Product
	if err := scanProduct(DB.QueryRow(query, id), &p); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query product %d: %w", id, err)
	}
	return &p, nil
}

// GetAllProducts fetches every tracked product, active or not.
func (s *Store) GetAllProducts() ([]types.Product, error) {
	return s.queryProducts(productSelect + ` ORDER BY id;`)
}

// GetActiveProducts fetches the snapshot a monitoring run iterates over.
func (s *Store) GetActiveProducts() ([]types.Product, error) {
	return s.queryProducts(productSelect + ` WHERE is_active = 1 ORDER BY id;`)
}

// UpdateProduct changes the user-editable fields of a product.
func (s *Store) UpdateProduct(id int64, targetPrice float64, isActive bool) error {
	query := `UPDATE products SET target_price = ?, is_active = ? WHERE id = ?;`
	res, err := DB.Exec(query, targetPrice, isActive, id)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteProduct removes a product and, via cascade, its price history.
func (s *Store) DeleteProduct(id int64) error {
	_, err := DB.Exec(`DELETE FROM products WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

// UpdatePriceState writes the result of one successful check. The three price
// state columns change together in a single statement. A missing id is a
// no-op: the product was deleted while the run was in flight.
func (s *Store) UpdatePriceState(id int64, price float64, checkedAt time.Time) error {
	query := `
	UPDATE products
	SET current_price = ?, last_checked_price = ?, last_checked = ?
	WHERE id = ?;`

	_, err := DB.Exec(query, price, price, checkedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update price state for product %d: %w", id, err)
	}
	return nil
}

// MarkNotified records that an alert was delivered. Missing id is a no-op.
func (s *Store) MarkNotified(id int64, notifiedAt time.Time) error {
	_, err := DB.Exec(`UPDATE products SET last_notified = ? WHERE id = ?;`, notifiedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark product %d notified: %w", id, err)
	}
	return nil
}

// ClearNotified re-arms alerting for a product after an undelivered alert.
// Missing id is a no-op.
func (s *Store) ClearNotified(id int64) error {
	_, err := DB.Exec(`UPDATE products SET last_notified = NULL WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("failed to clear notification state for product %d: %w", id, err)
	}
	return nil
}

// InsertPricePoint appends one observation to the product's history.
func (s *Store) InsertPricePoint(productID int64, price float64, recordedAt time.Time) error {
	_, err := DB.Exec(
		`INSERT INTO price_history (product_id, price, recorded_at) VALUES (?, ?, ?);`,
		productID, price, recordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert price point for product %d: %w", productID, err)
	}
	return nil
}

// GetPriceHistory returns the most recent observations, newest first.
func (s *Store) GetPriceHistory(productID int64, limit int) ([]types.PricePoint, error) {
	query := `
	SELECT id, product_id, price, recorded_at
	FROM price_history
	WHERE product_id = ?
	ORDER BY recorded_at DESC
	LIMIT ?;`

	rows, err := DB.Query(query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history for product %d: %w", productID, err)
	}
	defer rows.Close()

	var points []types.PricePoint
	for rows.Next() {
		var p types.PricePoint
		if err := rows.Scan(&p.ID, &p.ProductID, &p.Price, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

const productSelect = `
	SELECT id, name, url, target_price, current_price, last_checked_price,
	       last_checked, last_notified, is_active, created_at
	FROM products`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *types.Product) error {
	var (
		currentPrice     sql.NullFloat64
		lastCheckedPrice sql.NullFloat64
		lastChecked      sql.NullTime
		lastNotified     sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Name, &p.URL, &p.TargetPrice, &currentPrice,
		&lastCheckedPrice, &lastChecked, &lastNotified, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return err
	}
	if currentPrice.Valid {
		p.CurrentPrice = &currentPrice.Float64
	}
	if lastCheckedPrice.Valid {
		p.LastCheckedPrice = &lastCheckedPrice.Float64
	}
	if lastChecked.Valid {
		p.LastChecked = &lastChecked.Time
	}
	if lastNotified.Valid {
		p.LastNotified = &lastNotified.Time
	}
	return nil
}

func (s *Store) queryProducts(query string) ([]types.Product, error) {
	rows, err := DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []types.Product
	for rows.Next() {
		var p types.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
