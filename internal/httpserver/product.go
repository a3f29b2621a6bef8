package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/product_catalog/internal/logging"
	"github.com/Skotchmaster/product_catalog/internal/service"
	"github.com/Skotchmaster/product_catalog/internal/transport"
	"github.com/Skotchmaster/product_catalog/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func parseID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	page := util.ParseIntDefault(c.QueryParam("page"), util.DefaultPage)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)

	res, err := h.Svc.ListProducts(ctx, page, limit)
	if err != nil {
		return respondError(c, l, "get_products_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) FilterProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.filter")

	res, err := h.Svc.ListFiltered(ctx, transport.ParseProductFilter(c.QueryParams()))
	if err != nil {
		return respondError(c, l, "filter_products_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), util.DefaultPage)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)

	res, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page, limit)
	if err != nil {
		return respondError(c, l, "search_products_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, ok := parseID(c)
	if !ok {
		l.Warn("get_product_error", "status", http.StatusBadRequest, "reason", "id is not a positive integer", "id", c.Param("id"))
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidID)
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return respondError(c, l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_error", "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody)
	}

	product, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return respondError(c, l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, transport.ProductResponse{
		Message: "Product created successfully",
		Product: product,
	})
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, ok := parseID(c)
	if !ok {
		l.Warn("update_product_error", "status", http.StatusBadRequest, "reason", "id is not a positive integer", "id", c.Param("id"))
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidID)
	}

	var req transport.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_product_error", "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody)
	}

	product, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return respondError(c, l, "update_product_error", err)
	}

	l.Info("update_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.ProductResponse{
		Message: "Product updated successfully",
		Product: product,
	})
}

func (h *CatalogHTTP) UpdateProductCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_category")

	id, ok := parseID(c)
	if !ok {
		l.Warn("update_product_category_error", "status", http.StatusBadRequest, "reason", "id is not a positive integer", "id", c.Param("id"))
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidID)
	}

	var req transport.UpdateProductCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_product_category_error", "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody)
	}

	product, err := h.Svc.UpdateProductCategory(ctx, id, req)
	if err != nil {
		return respondError(c, l, "update_product_category_error", err)
	}

	l.Info("update_product_category_success", "product_id", id, "category_id", product.CategoryID)
	return c.JSON(http.StatusOK, transport.ProductResponse{
		Message: "Product category updated successfully",
		Product: product,
	})
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, ok := parseID(c)
	if !ok {
		l.Warn("delete_product_error", "status", http.StatusBadRequest, "reason", "id is not a positive integer", "id", c.Param("id"))
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidID)
	}

	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return respondError(c, l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product deleted successfully"})
}
