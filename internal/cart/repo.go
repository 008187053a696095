package cart

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists authenticated carts as cart_rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FetchRows returns the rows of userID in display order.
func (r *Repository) FetchRows(ctx context.Context, userID string) ([]models.CartRow, error) {
	var rows []models.CartRow
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteRows removes every row of userID.
func (r *Repository) DeleteRows(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartRow{}).Error
}

// InsertRows writes rows for userID, numbering positions in slice order.
func (r *Repository) InsertRows(ctx context.Context, userID string, rows []models.CartRow) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].UserID = userID
		rows[i].Position = i
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// DeleteStaleRows removes carts whose newest row predates cutoff. Saves
// rewrite every row so created_at tracks the last save.
func (r *Repository) DeleteStaleRows(ctx context.Context, cutoff time.Time) (int64, error) {
	stale := r.db.Model(&models.CartRow{}).
		Select("user_id").
		Group("user_id").
		Having("MAX(created_at) < ?", cutoff)
	res := r.db.WithContext(ctx).
		Where("user_id IN (?)", stale).
		Delete(&models.CartRow{})
	return res.RowsAffected, res.Error
}
