package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/product_catalog/internal/logging"
)

const publishTimeout = 5 * time.Second

const (
	EventUserRegistered         = "user_registered"
	EventUserLoggedIn           = "user_logged_in"
	EventCategoryCreated        = "category_created"
	EventProductCreated         = "product_created"
	EventProductUpdated         = "product_updated"
	EventProductCategoryChanged = "product_category_changed"
	EventProductDeleted         = "product_deleted"
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   uint      `json:"userID"`
	Email    string    `json:"email"`
	UserType string    `json:"userType,omitempty"`
	At       time.Time `json:"at"`
}

type CategoryEvent struct {
	Type       string    `json:"type"`
	CategoryID uint      `json:"categoryID"`
	Name       string    `json:"name"`
	At         time.Time `json:"at"`
}

type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  uint      `json:"productID"`
	Name       string    `json:"name,omitempty"`
	Price      float64   `json:"price"`
	CategoryID uint      `json:"categoryID,omitempty"`
	At         time.Time `json:"at"`
}

// publish hands the event to the broker without failing the caller. The
// write is detached from request cancellation so a finished response does not
// abort it.
func publish(ctx context.Context, pub Publisher, topic, key string, event any) {
	if pub == nil {
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := pub.PublishEvent(pctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "key", key, "error", err)
	}
}
