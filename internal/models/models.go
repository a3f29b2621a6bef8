package models

import (
	"time"
)

const (
	UserTypeAdmin = "admin"
	UserTypeUser  = "user"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	Name         string    `gorm:"not null"                   json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"       json:"email"`
	PasswordHash string    `gorm:"column:password;not null"   json:"-"`
	UserType     string    `gorm:"not null"                   json:"userType"`
	CreatedAt    time.Time `                                  json:"createdAt"`
	UpdatedAt    time.Time `                                  json:"updatedAt"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string    `gorm:"uniqueIndex;not null"      json:"name"`
	Description string    `gorm:"not null"                 json:"description"`
	CreatedAt   time.Time `                                 json:"createdAt"`
	UpdatedAt   time.Time `                                 json:"updatedAt"`
}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"                          json:"id"`
	Name        string    `gorm:"not null"                                          json:"name"`
	Description *string   `                                                         json:"description"`
	Price       float64   `gorm:"type:decimal(10,2);not null;check:price >= 0"      json:"price"`
	Stock       int       `gorm:"not null;check:stock >= 0"                         json:"stock"`
	ImageURL    *string   `                                                         json:"imageUrl"`
	CategoryID  uint      `gorm:"not null;index"                                    json:"categoryId"`
	Category    *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"     json:"category,omitempty"`
	CreatedAt   time.Time `gorm:"index"                                             json:"createdAt"`
	UpdatedAt   time.Time `                                                         json:"updatedAt"`
}
