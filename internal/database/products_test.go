package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()
	if err := InitDB(filepath.Join(t.TempDir(), "tracker.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { CloseDB() })
	return NewStore()
}

func TestCreateAndGetProduct(t *testing.T) {
	store := setupTestDB(t)

	created, err := store.CreateProduct("mechanical keyboard", "https://shop.example/p/1", 79.99)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if created.ID == 0 || created.Name != "mechanical keyboard" || created.TargetPrice != 79.99 {
		t.Fatalf("created product = %+v", created)
	}
	if !created.IsActive {
		t.Error("new products must start active")
	}
	if created.CurrentPrice != nil || created.LastChecked != nil || created.LastNotified != nil {
		t.Errorf("price state must start empty, got %+v", created)
	}
}

func TestGetProductMissingReturnsNoRows(t *testing.T) {
	store := setupTestDB(t)

	if _, err := store.GetProduct(42); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestUpdateProductMissingReturnsNoRows(t *testing.T) {
	store := setupTestDB(t)

	if err := store.UpdateProduct(42, 10, true); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestPriceStateUpdatesOnDeletedProductAreNoOps(t *testing.T) {
	store := setupTestDB(t)

	p, err := store.CreateProduct("widget", "https://shop.example/p/1", 50)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if err := store.DeleteProduct(p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	// The product vanished mid-run; none of these may fail the check.
	if err := store.UpdatePriceState(p.ID, 42.50, time.Now()); err != nil {
		t.Errorf("UpdatePriceState on deleted id: %v", err)
	}
	if err := store.MarkNotified(p.ID, time.Now()); err != nil {
		t.Errorf("MarkNotified on deleted id: %v", err)
	}
	if err := store.ClearNotified(p.ID); err != nil {
		t.Errorf("ClearNotified on deleted id: %v", err)
	}
}

func TestUpdatePriceStateRoundTrip(t *testing.T) {
	store := setupTestDB(t)

	p, err := store.CreateProduct("widget", "https://shop.example/p/1", 50)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if err := store.UpdatePriceState(p.ID, 42.50, time.Now()); err != nil {
		t.Fatalf("UpdatePriceState: %v", err)
	}

	got, err := store.GetProduct(p.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.CurrentPrice == nil || *got.CurrentPrice != 42.50 {
		t.Errorf("CurrentPrice = %v, want 42.50", got.CurrentPrice)
	}
	if got.LastCheckedPrice == nil || *got.LastCheckedPrice != 42.50 {
		t.Errorf("LastCheckedPrice = %v, want 42.50", got.LastCheckedPrice)
	}
	if got.LastChecked == nil {
		t.Error("LastChecked not set")
	}
}

func TestMarkAndClearNotified(t *testing.T) {
	store := setupTestDB(t)

	p, err := store.CreateProduct("widget", "https://shop.example/p/1", 50)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	if err := store.MarkNotified(p.ID, time.Now()); err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}
	got, _ := store.GetProduct(p.ID)
	if got.LastNotified == nil {
		t.Fatal("LastNotified not set after MarkNotified")
	}

	if err := store.ClearNotified(p.ID); err != nil {
		t.Fatalf("ClearNotified: %v", err)
	}
	got, _ = store.GetProduct(p.ID)
	if got.LastNotified != nil {
		t.Error("LastNotified still set after ClearNotified")
	}
}

func TestGetActiveProductsFiltersInactive(t *testing.T) {
	store := setupTestDB(t)

	active, err := store.CreateProduct("active", "https://shop.example/p/1", 10)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	paused, err := store.CreateProduct("paused", "https://shop.example/p/2", 10)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if err := store.UpdateProduct(paused.ID, 10, false); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	products, err := store.GetActiveProducts()
	if err != nil {
		t.Fatalf("GetActiveProducts: %v", err)
	}
	if len(products) != 1 || products[0].ID != active.ID {
		t.Errorf("active snapshot = %+v, want only product %d", products, active.ID)
	}
}

func TestPriceHistoryNewestFirstWithLimit(t *testing.T) {
	store := setupTestDB(t)

	p, err := store.CreateProduct("widget", "https://shop.example/p/1", 50)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	base := time.Now().Add(-3 * time.Hour)
	for i, price := range []float64{60, 55, 40} {
		at := base.Add(time.Duration(i) * time.Hour)
		if err := store.InsertPricePoint(p.ID, price, at); err != nil {
			t.Fatalf("InsertPricePoint: %v", err)
		}
	}

	points, err := store.GetPriceHistory(p.ID, 2)
	if err != nil {
		t.Fatalf("GetPriceHistory: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].Price != 40 || points[1].Price != 55 {
		t.Errorf("points = %v/%v, want newest first 40/55", points[0].Price, points[1].Price)
	}
}

func TestDeleteProductCascadesHistory(t *testing.T) {
	store := setupTestDB(t)

	p, err := store.CreateProduct("widget", "https://shop.example/p/1", 50)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if err := store.InsertPricePoint(p.ID, 42, time.Now()); err != nil {
		t.Fatalf("InsertPricePoint: %v", err)
	}

	if err := store.DeleteProduct(p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	points, err := store.GetPriceHistory(p.ID, 10)
	if err != nil {
		t.Fatalf("GetPriceHistory: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("history survived the delete: %d points", len(points))
	}
}
