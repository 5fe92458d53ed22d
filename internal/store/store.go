// Package store defines the persistence contracts shared by the MongoDB,
// PostgreSQL, Redis and in-memory backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mynature/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockError reports which line item aborted an order. Err is either
// ErrProductNotFound or ErrInsufficientStock.
type StockError struct {
	ProductID string
	Requested int
	Available int
	Err       error
}

func (e *StockError) Error() string {
	if errors.Is(e.Err, ErrProductNotFound) {
		return fmt.Sprintf("product %s not found", e.ProductID)
	}
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return e.Err
}

type ProductRepository interface {
	Search(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
}

type OrderRepository interface {
	// Create inserts the order and its items and decrements stock for every
	// item in one transaction. Nothing is written when it returns an error.
	Create(ctx context.Context, order *models.Order, items []models.OrderItem) error
	FindByID(ctx context.Context, id string) (*models.OrderDetail, error)
	List(ctx context.Context, filter models.OrderListFilter) ([]models.OrderDetail, error)
	UpdateStatus(ctx context.Context, id, status string, notes *string, updatedAt time.Time) (*models.Order, error)
	// Delete restores stock for every item, then removes the items and the
	// order, in one transaction.
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, since time.Time) (*models.OrderStats, error)
}

type AdminRepository interface {
	FindActiveByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindActiveByID(ctx context.Context, id string) (*models.AdminUser, error)
	Create(ctx context.Context, admin *models.AdminUser) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.AdminSession) error
	Get(ctx context.Context, id string) (*models.AdminSession, error)
	Delete(ctx context.Context, id string) error
}

// CategoryIDs returns the distinct category ids referenced by products.
func CategoryIDs(products []models.Product) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, p := range products {
		if p.CategoryID == nil || *p.CategoryID == "" {
			continue
		}
		if _, ok := seen[*p.CategoryID]; ok {
			continue
		}
		seen[*p.CategoryID] = struct{}{}
		ids = append(ids, *p.CategoryID)
	}
	return ids
}

// AttachCategories fills Product.Category from categories. Products whose
// category no longer exists keep a nil Category.
func AttachCategories(products []models.Product, categories []models.Category) {
	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	for i := range products {
		if products[i].CategoryID == nil {
			continue
		}
		if c, ok := byID[*products[i].CategoryID]; ok {
			products[i].Category = &c
		}
	}
}
