package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/product_catalog/internal/models"
	"github.com/Skotchmaster/product_catalog/internal/repo"
	"github.com/Skotchmaster/product_catalog/internal/testutil"
	"github.com/Skotchmaster/product_catalog/internal/transport"
)

type fakeIndex struct {
	indexed []uint
	deleted []uint
	hits    []uint
	total   int64
	err     error
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.indexed = append(f.indexed, p.ID)
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []uint, error) {
	return f.total, f.hits, f.err
}

func ptr[T any](v T) *T { return &v }

func newTestCatalog(t *testing.T) (*CatalogService, *gorm.DB, *recordingPublisher) {
	t.Helper()

	gdb := testutil.OpenDB(t)
	pub := &recordingPublisher{}
	return &CatalogService{Repo: repo.New(gdb), Events: pub}, gdb, pub
}

func countProducts(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, gdb.Model(&models.Product{}).Count(&n).Error)
	return n
}

func TestCatalogService_CreateProduct_InvalidCategory(t *testing.T) {
	t.Parallel()

	svc, gdb, pub := newTestCatalog(t)

	p, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{
		Name:       "widget",
		Price:      ptr(9.99),
		Stock:      ptr(1),
		CategoryID: 404,
	})
	require.ErrorIs(t, err, ErrInvalidReference)
	assert.Nil(t, p)
	assert.Zero(t, countProducts(t, gdb))
	assert.Empty(t, pub.Events())
}

func TestCatalogService_CreateProduct(t *testing.T) {
	t.Parallel()

	svc, gdb, pub := newTestCatalog(t)
	idx := &fakeIndex{}
	svc.Search = idx
	cat := testutil.SeedCategory(t, gdb, "kitchen")

	p, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{
		Name:       " kettle ",
		Price:      ptr(0.0),
		Stock:      ptr(0),
		CategoryID: cat.ID,
		ImageURL:   ptr("https://img.example.com/kettle.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "kettle", p.Name)
	require.NotNil(t, p.Category)
	assert.Equal(t, "kitchen", p.Category.Name)
	assert.Equal(t, []uint{p.ID}, idx.indexed)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "catalog_events", events[0].Topic)
	ev := events[0].Event.(ProductEvent)
	assert.Equal(t, EventProductCreated, ev.Type)
	assert.Equal(t, p.ID, ev.ProductID)
}

func TestCatalogService_CreateProduct_Validation(t *testing.T) {
	t.Parallel()

	svc, gdb, _ := newTestCatalog(t)
	cat := testutil.SeedCategory(t, gdb, "any")

	tests := []struct {
		name string
		req  transport.CreateProductRequest
	}{
		{name: "missing name", req: transport.CreateProductRequest{Price: ptr(1.0), Stock: ptr(1), CategoryID: cat.ID}},
		{name: "missing price", req: transport.CreateProductRequest{Name: "x", Stock: ptr(1), CategoryID: cat.ID}},
		{name: "negative stock", req: transport.CreateProductRequest{Name: "x", Price: ptr(1.0), Stock: ptr(-1), CategoryID: cat.ID}},
		{name: "missing category", req: transport.CreateProductRequest{Name: "x", Price: ptr(1.0), Stock: ptr(1)}},
		{name: "price above column range", req: transport.CreateProductRequest{Name: "x", Price: ptr(1e8), Stock: ptr(1), CategoryID: cat.ID}},
		{name: "bad image url", req: transport.CreateProductRequest{Name: "x", Price: ptr(1.0), Stock: ptr(1), CategoryID: cat.ID, ImageURL: ptr("not a url")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Zero(t, countProducts(t, gdb))
}

func TestCatalogService_ListFiltered_PriceRange(t *testing.T) {
	t.Parallel()

	svc, gdb, _ := newTestCatalog(t)
	cat := testutil.SeedCategory(t, gdb, "c")
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	prices := []float64{5, 10, 12, 20, 21}
	for i, price := range prices {
		testutil.SeedProduct(t, gdb, "p"+string(rune('a'+i)), price, cat.ID, base.Add(time.Duration(i)*time.Hour))
	}

	page, err := svc.ListFiltered(context.Background(), transport.ProductFilter{MinPrice: ptr(10.0), MaxPrice: ptr(20.0)})
	require.NoError(t, err)

	assert.EqualValues(t, 3, page.TotalProducts)
	assert.EqualValues(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Products, 3)
	for i, p := range page.Products {
		assert.GreaterOrEqual(t, p.Price, 10.0)
		assert.LessOrEqual(t, p.Price, 20.0)
		if i > 0 {
			assert.False(t, p.CreatedAt.After(page.Products[i-1].CreatedAt))
		}
	}
	assert.Equal(t, "pd", page.Products[0].Name)
}

func TestCatalogService_ListFiltered_Pagination(t *testing.T) {
	t.Parallel()

	svc, gdb, _ := newTestCatalog(t)
	cat := testutil.SeedCategory(t, gdb, "c")
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		testutil.SeedProduct(t, gdb, "row"+string(rune('5'-i)), 1, cat.ID, base.Add(time.Duration(i)*time.Minute))
	}

	page, err := svc.ListFiltered(context.Background(), transport.ProductFilter{Page: 2, Limit: 2})
	require.NoError(t, err)

	assert.EqualValues(t, 5, page.TotalProducts)
	assert.EqualValues(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "row3", page.Products[0].Name)
	assert.Equal(t, "row4", page.Products[1].Name)
}

func TestCatalogService_UpdateAndDelete_NotFound(t *testing.T) {
	t.Parallel()

	svc, gdb, pub := newTestCatalog(t)
	cat := testutil.SeedCategory(t, gdb, "c")
	existing := testutil.SeedProduct(t, gdb, "keep", 3, cat.ID, time.Now().UTC())

	_, err := svc.UpdateProduct(context.Background(), 9999, transport.UpdateProductRequest{Name: ptr("new")})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateProductCategory(context.Background(), 9999, transport.UpdateProductCategoryRequest{CategoryID: cat.ID})
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.DeleteProduct(context.Background(), 9999), ErrNotFound)

	got, err := svc.GetProduct(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Name)
	assert.EqualValues(t, 1, countProducts(t, gdb))
	assert.Empty(t, pub.Events())
}

func TestCatalogService_UpdateProduct_PartialFields(t *testing.T) {
	t.Parallel()

	svc, gdb, pub := newTestCatalog(t)
	cat := testutil.SeedCategory(t, gdb, "c")
	p := testutil.SeedProduct(t, gdb, "mug", 7, cat.ID, time.Now().UTC())

	updated, err := svc.UpdateProduct(context.Background(), p.ID, transport.UpdateProductRequest{Stock: ptr(42)})
	require.NoError(t, err)
	assert.Equal(t, "mug", updated.Name)
	assert.InDelta(t, 7.0, updated.Price, 0.001)
	assert.Equal(t, 42, updated.Stock)

	unchanged, err := svc.UpdateProduct(context.Background(), p.ID, transport.UpdateProductRequest{})
	require.NoError(t, err)
	assert.Equal(t, 42, unchanged.Stock)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventProductUpdated, events[0].Event.(ProductEvent).Type)
}

func TestCatalogService_UpdateProductCategory(t *testing.T) {
	t.Parallel()

	svc, gdb, pub := newTestCatalog(t)
	from := testutil.SeedCategory(t, gdb, "from")
	to := testutil.SeedCategory(t, gdb, "to")
	p := testutil.SeedProduct(t, gdb, "lamp", 7, from.ID, time.Now().UTC())

	_, err := svc.UpdateProductCategory(context.Background(), p.ID, transport.UpdateProductCategoryRequest{CategoryID: 555})
	require.ErrorIs(t, err, ErrInvalidReference)

	moved, err := svc.UpdateProductCategory(context.Background(), p.ID, transport.UpdateProductCategoryRequest{CategoryID: to.ID})
	require.NoError(t, err)
	assert.Equal(t, to.ID, moved.CategoryID)
	assert.Equal(t, "to", moved.Category.Name)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventProductCategoryChanged, events[0].Event.(ProductEvent).Type)
}

func TestCatalogService_DeleteProduct(t *testing.T) {
	t.Parallel()

	svc, gdb, pub := newTestCatalog(t)
	idx := &fakeIndex{}
	svc.Search = idx
	cat := testutil.SeedCategory(t, gdb, "c")
	p := testutil.SeedProduct(t, gdb, "gone", 1, cat.ID, time.Now().UTC())

	require.NoError(t, svc.DeleteProduct(context.Background(), p.ID))
	assert.Zero(t, countProducts(t, gdb))
	assert.Equal(t, []uint{p.ID}, idx.deleted)
	require.Len(t, pub.Events(), 1)
	assert.Equal(t, EventProductDeleted, pub.Events()[0].Event.(ProductEvent).Type)
}

func TestCatalogService_Categories(t *testing.T) {
	t.Parallel()

	svc, _, pub := newTestCatalog(t)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Books", Description: "paper"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)

	_, err = svc.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Books"})
	require.ErrorIs(t, err, ErrDuplicateCategory)

	_, err = svc.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "  "})
	require.ErrorIs(t, err, ErrValidation)

	items, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Books", items[0].Name)

	require.Len(t, pub.Events(), 1)
	assert.Equal(t, EventCategoryCreated, pub.Events()[0].Event.(CategoryEvent).Type)
}

func TestCatalogService_SearchProducts(t *testing.T) {
	t.Parallel()

	svc, gdb, _ := newTestCatalog(t)
	cat := testutil.SeedCategory(t, gdb, "c")
	now := time.Now().UTC()
	a := testutil.SeedProduct(t, gdb, "Red Apple", 1, cat.ID, now)
	b := testutil.SeedProduct(t, gdb, "Green Apple", 1, cat.ID, now.Add(time.Second))
	testutil.SeedProduct(t, gdb, "Pear", 1, cat.ID, now.Add(2*time.Second))

	_, err := svc.SearchProducts(context.Background(), " ", 1, 10)
	require.ErrorIs(t, err, ErrValidation)

	page, err := svc.SearchProducts(context.Background(), "apple", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalProducts)

	svc.Search = &fakeIndex{total: 2, hits: []uint{a.ID, b.ID}}
	page, err = svc.SearchProducts(context.Background(), "aple", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "Red Apple", page.Products[0].Name)

	svc.Search = &fakeIndex{err: errors.New("cluster red")}
	page, err = svc.SearchProducts(context.Background(), "pear", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Pear", page.Products[0].Name)
}

func TestCatalogService_PriceBounds(t *testing.T) {
	t.Parallel()

	svc, gdb, _ := newTestCatalog(t)
	cat := testutil.SeedCategory(t, gdb, "bounds")

	p, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{
		Name: "max", Price: ptr(99999999.99), Stock: ptr(1), CategoryID: cat.ID,
	})
	require.NoError(t, err)

	_, err = svc.UpdateProduct(context.Background(), p.ID, transport.UpdateProductRequest{Price: ptr(1e9)})
	require.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UpdateProduct(context.Background(), p.ID, transport.UpdateProductRequest{Price: ptr(10.006)})
	require.NoError(t, err)
	assert.InDelta(t, 10.01, updated.Price, 0.0001)
}

func TestCatalogService_FreeProductEventCarriesPrice(t *testing.T) {
	t.Parallel()

	svc, gdb, pub := newTestCatalog(t)
	cat := testutil.SeedCategory(t, gdb, "freebies")

	_, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{
		Name:       "sticker",
		Price:      ptr(0.0),
		Stock:      ptr(100),
		CategoryID: cat.ID,
	})
	require.NoError(t, err)

	events := pub.Events()
	require.Len(t, events, 1)
	raw, err := json.Marshal(events[0].Event)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	price, ok := body["price"]
	require.True(t, ok, "price missing from %s", raw)
	assert.Equal(t, 0.0, price)
}
