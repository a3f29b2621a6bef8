package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/product_catalog/internal/logging"
	"github.com/Skotchmaster/product_catalog/internal/models"
	"github.com/Skotchmaster/product_catalog/internal/mykafka"
	"github.com/Skotchmaster/product_catalog/internal/repo"
	"github.com/Skotchmaster/product_catalog/internal/transport"
	"github.com/Skotchmaster/product_catalog/internal/util"
	"github.com/Skotchmaster/product_catalog/internal/validation"
)

type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	ListProducts(ctx context.Context, f transport.ProductFilter) (int64, []models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id uint, changes map[string]any) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type SearchIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

// CatalogService owns category and product operations. Events and Search are
// optional; a nil value disables them.
type CatalogService struct {
	Repo   CatalogStore
	Events Publisher
	Search SearchIndex
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	c := models.Category{Name: req.Name, Description: req.Description}
	if err := s.Repo.CreateCategory(ctx, &c); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateCategory
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	publish(ctx, s.Events, mykafka.TopicCatalogEvents, "category-"+idKey(c.ID), CategoryEvent{
		Type:       EventCategoryCreated,
		CategoryID: c.ID,
		Name:       c.Name,
		At:         time.Now().UTC(),
	})
	return &c, nil
}

// ListFiltered returns one page of products matching every supplied filter,
// most recent first.
func (s *CatalogService) ListFiltered(ctx context.Context, f transport.ProductFilter) (*transport.ProductPage, error) {
	if f.Page < 1 {
		f.Page = util.DefaultPage
	}
	_, f.Limit = util.Calculate(f.Page, f.Limit)

	total, items, err := s.Repo.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &transport.ProductPage{
		TotalProducts: total,
		TotalPages:    util.TotalPages(total, f.Limit),
		CurrentPage:   f.Page,
		Products:      items,
	}, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, page, limit int) (*transport.ProductPage, error) {
	return s.ListFiltered(ctx, transport.ProductFilter{Page: page, Limit: limit})
}

// SearchProducts uses the search index when one is configured and falls back
// to a name substring match otherwise or when the index is unavailable.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, page, limit int) (*transport.ProductPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		verr := &validation.Error{Fields: []validation.FieldError{{Field: "q", Rule: "required", Message: "is required"}}}
		return nil, fmt.Errorf("%w: %w", ErrValidation, verr)
	}

	if page < 1 {
		page = util.DefaultPage
	}
	offset, limit := util.Calculate(page, limit)

	if s.Search != nil {
		total, ids, err := s.Search.Search(ctx, query, offset, limit)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("hydrate search hits: %w", err)
			}
			return &transport.ProductPage{
				TotalProducts: total,
				TotalPages:    util.TotalPages(total, limit),
				CurrentPage:   page,
				Products:      items,
			}, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "reason", "falling back to database", "error", err)
	}

	return s.ListFiltered(ctx, transport.ProductFilter{Search: query, Page: page, Limit: limit})
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, mapProductErr(err)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	p := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       roundPrice(*req.Price),
		Stock:       *req.Stock,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	}
	if err := s.Repo.CreateProduct(ctx, &p); err != nil {
		return nil, mapProductErr(err)
	}

	s.syncIndex(ctx, &p)
	s.publishProduct(ctx, EventProductCreated, &p)
	return &p, nil
}

// UpdateProduct changes only the fields present in req. An empty request
// returns the product unchanged.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.UpdateProductRequest) (*models.Product, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	changes := make(map[string]any, 6)
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.Price != nil {
		changes["price"] = roundPrice(*req.Price)
	}
	if req.Stock != nil {
		changes["stock"] = *req.Stock
	}
	if req.CategoryID != nil {
		changes["category_id"] = *req.CategoryID
	}
	if req.ImageURL != nil {
		changes["image_url"] = *req.ImageURL
	}

	p, err := s.Repo.UpdateProduct(ctx, id, changes)
	if err != nil {
		return nil, mapProductErr(err)
	}

	if !req.Empty() {
		s.syncIndex(ctx, p)
		s.publishProduct(ctx, EventProductUpdated, p)
	}
	return p, nil
}

func (s *CatalogService) UpdateProductCategory(ctx context.Context, id uint, req transport.UpdateProductCategoryRequest) (*models.Product, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	p, err := s.Repo.UpdateProduct(ctx, id, map[string]any{"category_id": req.CategoryID})
	if err != nil {
		return nil, mapProductErr(err)
	}

	s.syncIndex(ctx, p)
	s.publishProduct(ctx, EventProductCategoryChanged, p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return mapProductErr(err)
	}

	if s.Search != nil {
		if err := s.Search.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "op", "delete", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, mykafka.TopicCatalogEvents, idKey(id), ProductEvent{
		Type:      EventProductDeleted,
		ProductID: id,
		At:        time.Now().UTC(),
	})
	return nil
}

func (s *CatalogService) syncIndex(ctx context.Context, p *models.Product) {
	if s.Search == nil {
		return
	}
	if err := s.Search.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_error", "op", "index", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publishProduct(ctx context.Context, eventType string, p *models.Product) {
	publish(ctx, s.Events, mykafka.TopicCatalogEvents, idKey(p.ID), ProductEvent{
		Type:       eventType,
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price,
		CategoryID: p.CategoryID,
		At:         time.Now().UTC(),
	})
}

func mapProductErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrCategoryNotFound):
		return ErrInvalidReference
	default:
		return err
	}
}

// roundPrice matches the two decimal places of the price column so every
// store keeps the same value.
func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}

func idKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
