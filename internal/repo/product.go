package repo

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/product_catalog/internal/db"
	"github.com/Skotchmaster/product_catalog/internal/models"
	"github.com/Skotchmaster/product_catalog/internal/transport"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// productFilterScope ANDs every supplied filter onto the query.
func productFilterScope(f transport.ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if f.MinPrice != nil {
			tx = tx.Where("products.price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			tx = tx.Where("products.price <= ?", *f.MaxPrice)
		}
		if f.CategoryID != nil {
			tx = tx.Where("products.category_id = ?", *f.CategoryID)
		}
		if f.Search != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(f.Search)) + "%"
			tx = tx.Where(`LOWER(products.name) LIKE ? ESCAPE '\'`, pattern)
		}
		return tx
	}
}

func (r *GormRepo) ListProducts(ctx context.Context, f transport.ProductFilter) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Scopes(productFilterScope(f)).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, f.Limit)
	if total == 0 {
		return 0, items, nil
	}

	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Scopes(productFilterScope(f)).
		Preload("Category").
		Order("products.created_at DESC").
		Order("products.id DESC").
		Offset(f.Offset()).
		Limit(f.Limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs returns the products in the order of ids, skipping ids
// that no longer exist.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	out := make([]models.Product, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var found []models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCategory(tx, prod.CategoryID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(prod).Error; err != nil {
			return mapProductWriteErr(err, prod.CategoryID)
		}
		return tx.Preload("Category").First(prod, prod.ID).Error
	})
}

// UpdateProduct applies the column changes to an existing product. The row is
// locked for the duration so the existence check and the write are atomic.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, changes map[string]any) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&prod, id).Error; err != nil {
			return err
		}

		if v, ok := changes["category_id"]; ok {
			categoryID, _ := v.(uint)
			if err := lockCategory(tx, categoryID); err != nil {
				return err
			}
		}

		if len(changes) > 0 {
			if err := tx.Model(&prod).Omit(clause.Associations).Updates(changes).Error; err != nil {
				categoryID, _ := changes["category_id"].(uint)
				return mapProductWriteErr(err, categoryID)
			}
		}

		return tx.Preload("Category").First(&prod, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func mapProductWriteErr(err error, categoryID uint) error {
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("category %d: %w", categoryID, ErrCategoryNotFound)
	}
	return err
}
