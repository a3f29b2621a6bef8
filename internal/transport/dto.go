package transport

import (
	"time"

	"github.com/Skotchmaster/product_catalog/internal/models"
)

type SignupRequest struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	UserType string `json:"userType" validate:"omitempty,oneof=admin user"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    uint      `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"        validate:"required,max=255"`
	Description string `json:"description" validate:"max=1024"`
}

type CreateProductRequest struct {
	Name        string   `json:"name"        validate:"required,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2048"`
	Price       *float64 `json:"price"       validate:"required,gte=0,lte=99999999.99"`
	Stock       *int     `json:"stock"       validate:"required,gte=0"`
	CategoryID  uint     `json:"categoryId"  validate:"required"`
	ImageURL    *string  `json:"imageUrl"    validate:"omitempty,url"`
}

// UpdateProductRequest carries only the fields the client sent.
type UpdateProductRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2048"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0,lte=99999999.99"`
	Stock       *int     `json:"stock"       validate:"omitempty,gte=0"`
	CategoryID  *uint    `json:"categoryId"  validate:"omitempty,gt=0"`
	ImageURL    *string  `json:"imageUrl"    validate:"omitempty,url"`
}

func (r UpdateProductRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil &&
		r.Stock == nil && r.CategoryID == nil && r.ImageURL == nil
}

type UpdateProductCategoryRequest struct {
	CategoryID uint `json:"categoryId" validate:"required"`
}

type ProductPage struct {
	TotalProducts int64            `json:"totalProducts"`
	TotalPages    int64            `json:"totalPages"`
	CurrentPage   int              `json:"currentPage"`
	Products      []models.Product `json:"products"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CategoryResponse struct {
	Message  string           `json:"message"`
	Category *models.Category `json:"category"`
}

type ProductResponse struct {
	Message string          `json:"message"`
	Product *models.Product `json:"product"`
}
