package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/product_catalog/internal/db"
	"github.com/Skotchmaster/product_catalog/internal/models"
)

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	items := make([]models.Category, 0)
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	if err := r.DB.WithContext(ctx).Create(c).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", c.Name, ErrDuplicate)
		}
		return err
	}
	return nil
}

// lockCategory takes a share lock on the category row so it cannot be
// deleted before the dependent write commits.
func lockCategory(tx *gorm.DB, id uint) error {
	var c models.Category
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Select("id").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("category %d: %w", id, ErrCategoryNotFound)
	}
	return err
}
