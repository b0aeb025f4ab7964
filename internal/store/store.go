// Package store defines the row store the gateway persists entities to.
//
// Every backend keeps one table per entity type. Lookups compare the id
// column as a string, updates overwrite the whole row, deletes remove it and
// inserts append. Callers serialize writes; backends do not lock.
package store

import (
	"context"
	"errors"

	"cafe-pos-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Table names, also used as sheet titles.
const (
	TableProducts   = "Products"
	TableCategories = "Categories"
	TableOrders     = "Orders"
)

// Column layouts. The id column always comes first.
var (
	ProductColumns  = []string{"id", "name", "category", "productType", "prices", "description", "image", "additionalImages", "video", "isPopular", "isRecommended"}
	CategoryColumns = []string{"id", "name"}
	OrderColumns    = []string{"id", "customerName", "userType", "items", "totalAmount", "paymentMethod", "deliveryLocation", "status", "slipUrl", "timestamp", "paymentStatus"}
)

type Store interface {
	Products(ctx context.Context) ([]models.Product, error)
	// SaveProduct inserts p or overwrites the row with the same id.
	SaveProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id string) error

	Categories(ctx context.Context) ([]models.Category, error)
	SaveCategory(ctx context.Context, c models.Category) error
	DeleteCategory(ctx context.Context, id string) error

	Orders(ctx context.Context) ([]models.Order, error)
	Order(ctx context.Context, id string) (models.Order, error)
	// CreateOrder appends o and fails with ErrDuplicate if the id is taken.
	CreateOrder(ctx context.Context, o models.Order) error
	// ReplaceOrder overwrites the full row of an existing order in one write.
	ReplaceOrder(ctx context.Context, o models.Order) error
}
