package cart

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/circuitbreaker"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.CartRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func newDBRemoteStore(t *testing.T, conn *gorm.DB, breaker *circuitbreaker.Breaker) RemoteStore {
	t.Helper()
	products, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	store, err := NewRemoteStore(NewRepository(conn), db.NewFromGorm(conn), products, breaker, 0)
	if err != nil {
		t.Fatalf("remote store: %v", err)
	}
	return store
}

func TestRemoteStoreReplaceAndFetch(t *testing.T) {
	conn := openTestDB(t)
	store := newDBRemoteStore(t, conn, nil)
	ctx := context.Background()

	tee := testProduct("tee", "20")
	jacket := testProduct("jacket", "80")
	for _, p := range []*models.Product{&tee, &jacket} {
		if err := conn.Create(p).Error; err != nil {
			t.Fatalf("create product: %v", err)
		}
	}

	first := mustResolve(t, jacket, 1, "L")
	first.Quantity = 1
	second := mustResolve(t, tee, 0, "M")
	second.Quantity = 3

	if err := store.Replace(ctx, "user-1", []LineItem{first, second}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := store.Replace(ctx, "user-2", []LineItem{second}); err != nil {
		t.Fatalf("replace other user: %v", err)
	}

	items, err := store.Fetch(ctx, "user-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 || items[0].ID != first.ID || items[1].ID != second.ID {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].Variant.Color != "black" || items[1].Quantity != 3 {
		t.Fatalf("unexpected join result: %+v", items)
	}

	if err := store.Replace(ctx, "user-1", []LineItem{second}); err != nil {
		t.Fatalf("replace again: %v", err)
	}
	var count int64
	conn.Model(&models.CartRow{}).Where("user_id = ?", "user-1").Count(&count)
	if count != 1 {
		t.Fatalf("expected previous rows deleted, got %d rows", count)
	}

	if err := store.Replace(ctx, "user-1", nil); err != nil {
		t.Fatalf("replace empty: %v", err)
	}
	items, err = store.Fetch(ctx, "user-1")
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v %v", items, err)
	}
}

func TestRemoteStoreResnapshotsFromCatalog(t *testing.T) {
	conn := openTestDB(t)
	store := newDBRemoteStore(t, conn, nil)
	ctx := context.Background()

	tee := testProduct("tee", "20")
	gone := testProduct("gone", "5")
	for _, p := range []*models.Product{&tee, &gone} {
		if err := conn.Create(p).Error; err != nil {
			t.Fatalf("create product: %v", err)
		}
	}
	if err := store.Replace(ctx, "user-1", []LineItem{mustResolve(t, tee, 0, "M"), mustResolve(t, gone, 0, "M")}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := conn.Model(&models.Product{}).Where("id = ?", tee.ID).Update("name", "tee v2").Error; err != nil {
		t.Fatalf("update product: %v", err)
	}
	if err := conn.Where("id = ?", gone.ID).Delete(&models.Product{}).Error; err != nil {
		t.Fatalf("delete product: %v", err)
	}

	items, err := store.Fetch(ctx, "user-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 || items[0].Name != "tee v2" {
		t.Fatalf("expected refreshed snapshot without vanished product, got %+v", items)
	}
}

func TestRemoteStoreBreakerOpens(t *testing.T) {
	conn := openTestDB(t)
	breaker := circuitbreaker.New("cart-remote", config.BreakerConfig{MaxFailures: 1}, nil)
	store := newDBRemoteStore(t, conn, breaker)
	ctx := context.Background()

	if err := conn.Migrator().DropTable(&models.CartRow{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if _, err := store.Fetch(ctx, "user-1"); err == nil {
		t.Fatalf("expected fetch failure")
	}
	_, err := store.Fetch(ctx, "user-1")
	if !circuitbreaker.IsOpen(err) {
		t.Fatalf("expected open breaker, got %v", err)
	}
}

func TestRepositoryDeleteStaleRows(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC()

	seed := []models.CartRow{
		{UserID: "stale", LineItemID: "a", ProductID: uuid.New(), Size: "M", Quantity: 1, CreatedAt: now.Add(-40 * 24 * time.Hour)},
		{UserID: "fresh", LineItemID: "b", ProductID: uuid.New(), Size: "M", Quantity: 1, CreatedAt: now.Add(-40 * 24 * time.Hour)},
		{UserID: "fresh", LineItemID: "c", ProductID: uuid.New(), Size: "L", Quantity: 2, CreatedAt: now},
	}
	if err := conn.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	deleted, err := repo.DeleteStaleRows(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("delete stale: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected one stale row removed, got %d", deleted)
	}
	rows, err := repo.FetchRows(ctx, "fresh")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("a cart with a recent row must be kept whole, got %d rows", len(rows))
	}
}
