package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/circuitbreaker"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// RemoteStore is the durable cart store used for authenticated identities.
type RemoteStore interface {
	Fetch(ctx context.Context, identity string) ([]LineItem, error)
	Replace(ctx context.Context, identity string, items []LineItem) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productFinder interface {
	FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type dbRemoteStore struct {
	repo     *Repository
	tx       txRunner
	products productFinder
	breaker  *circuitbreaker.Breaker
	timeout  time.Duration
}

// NewRemoteStore builds the database-backed remote store. Calls are bounded
// by timeout and guarded by breaker; a nil breaker disables the guard.
func NewRemoteStore(repo *Repository, tx txRunner, products productFinder, breaker *circuitbreaker.Breaker, timeout time.Duration) (RemoteStore, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	return &dbRemoteStore{
		repo:     repo,
		tx:       tx,
		products: products,
		breaker:  breaker,
		timeout:  timeout,
	}, nil
}

func (s *dbRemoteStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Fetch loads the rows of identity and joins them with the current catalog.
// Rows whose product or variant no longer exists are dropped.
func (s *dbRemoteStore) Fetch(ctx context.Context, identity string) ([]LineItem, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return circuitbreaker.Run(ctx, s.breaker, func(ctx context.Context) ([]LineItem, error) {
		rows, err := s.repo.FetchRows(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("fetch cart rows: %w", err)
		}
		if len(rows) == 0 {
			return []LineItem{}, nil
		}
		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ProductID)
		}
		products, err := s.products.FindProducts(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("join cart products: %w", err)
		}

		items := make([]LineItem, 0, len(rows))
		for _, row := range rows {
			product, ok := products[row.ProductID]
			if !ok {
				continue
			}
			item, ok := catalog.Resnapshot(LineItem{
				ID:           row.LineItemID,
				ProductID:    row.ProductID,
				VariantIndex: row.VariantIndex,
				Size:         enums.Size(row.Size),
				Quantity:     row.Quantity,
			}, product)
			if !ok {
				continue
			}
			items = append(items, item)
		}
		return items, nil
	})
}

// Replace deletes every row of identity and inserts items in one transaction.
func (s *dbRemoteStore) Replace(ctx context.Context, identity string, items []LineItem) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows := make([]models.CartRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.CartRow{
			LineItemID:   item.ID,
			ProductID:    item.ProductID,
			VariantIndex: item.VariantIndex,
			Size:         item.Size.String(),
			Quantity:     item.Quantity,
		})
	}

	return s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.DeleteRows(ctx, identity); err != nil {
				return fmt.Errorf("delete cart rows: %w", err)
			}
			if err := repo.InsertRows(ctx, identity, rows); err != nil {
				return fmt.Errorf("insert cart rows: %w", err)
			}
			return nil
		})
	})
}
