package db

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestNewSQLiteAutoMigratesStorefrontTables(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{DSN: "file:automigrate?mode=memory&cache=shared"}, Options{UseSQLite: true}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if !client.IsSQLite() {
		t.Fatal("expected sqlite client")
	}
	if err := client.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	product := models.Product{
		Name:     "Classic Tee",
		Category: "tops",
		Price:    decimal.RequireFromString("15.00"),
		Variants: types.Variants{{Color: "black", Image: "black.png"}},
		Sizes:    types.StringList{"S", "M"},
	}
	if err := client.DB().Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	var loaded models.Product
	if err := client.DB().First(&loaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if !loaded.Price.Equal(decimal.RequireFromString("15")) {
		t.Fatalf("unexpected price %s", loaded.Price)
	}
	if len(loaded.Variants) != 1 || loaded.Variants[0].Color != "black" {
		t.Fatalf("unexpected variants %+v", loaded.Variants)
	}
}

func TestNewRequiresDSNForPostgres(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, Options{}, nil); err == nil {
		t.Fatal("expected missing dsn to fail")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := errors.New(`ERROR: duplicate key value violates unique constraint "ux_cart_rows_identity_line"`)
	if !IsUniqueViolation(err, "") {
		t.Fatal("expected generic duplicate detection")
	}
	if !IsUniqueViolation(err, "ux_cart_rows_identity_line") {
		t.Fatal("expected constraint match")
	}
	if IsUniqueViolation(err, "ux_other") || IsUniqueViolation(nil, "") {
		t.Fatal("unexpected match")
	}
}
