// Package memstore keeps every collection in process memory. It backs
// STORE_DRIVER=memory and doubles as the fake in service and handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"mynature/internal/models"
	"mynature/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	products   []models.Product
	categories []models.Category
	orders     []models.Order
	items      []models.OrderItem
	admins     map[string]models.AdminUser
	sessions   map[string]models.AdminSession
}

func New() *Store {
	return &Store{
		admins:   make(map[string]models.AdminUser),
		sessions: make(map[string]models.AdminSession),
	}
}

func (s *Store) AddProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
}

func (s *Store) AddCategory(c models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
}

// Product returns a copy of the stored product.
func (s *Store) Product(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.productIndex(id); i >= 0 {
		return s.products[i], true
	}
	return models.Product{}, false
}

func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func (s *Store) ItemCount(orderID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		if it.OrderID == orderID {
			n++
		}
	}
	return n
}

func (s *Store) productIndex(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) orderIndex(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Products() store.ProductRepository   { return productRepo{s} }
func (s *Store) Categories() store.CategoryRepository { return categoryRepo{s} }
func (s *Store) Orders() store.OrderRepository       { return orderRepo{s} }
func (s *Store) Admins() store.AdminRepository       { return adminRepo{s} }
func (s *Store) Sessions() store.SessionRepository   { return sessionRepo{s} }

type productRepo struct{ s *Store }

func (r productRepo) Search(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]models.Product, 0)
	for _, p := range r.s.products {
		if matches(p, q) {
			matched = append(matched, p)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch q.SortBy {
		case models.SortName:
			return a.NameAr < b.NameAr
		case models.SortPriceLow:
			return a.Price.LessThan(b.Price.Decimal)
		case models.SortPriceHigh:
			return a.Price.GreaterThan(b.Price.Decimal)
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})

	total := int64(len(matched))
	start := q.Offset()
	if start >= len(matched) {
		return []models.Product{}, total, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page := matched[start:end]
	store.AttachCategories(page, r.s.categories)
	return page, total, nil
}

func matches(p models.Product, q models.ProductQuery) bool {
	if !p.IsActive {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		found := false
		for _, field := range []string{p.Name, p.NameAr, p.Description, p.DescriptionAr} {
			if strings.Contains(strings.ToLower(field), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(q.CategoryIDs) > 0 {
		if p.CategoryID == nil {
			return false
		}
		found := false
		for _, id := range q.CategoryIDs {
			if id == *p.CategoryID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.MinPrice != nil && p.Price.LessThan(q.MinPrice.Decimal) {
		return false
	}
	if q.MaxPrice != nil && p.Price.GreaterThan(q.MaxPrice.Decimal) {
		return false
	}
	if q.InStockOnly && !p.InStock {
		return false
	}
	return true
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) List(ctx context.Context) ([]models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := append([]models.Category(nil), r.s.categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].NameAr < out[j].NameAr })
	return out, nil
}

type orderRepo struct{ s *Store }

// Create holds the write lock for the whole call, which makes the stock
// checks and the inserts one atomic step.
func (r orderRepo) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	need := make(map[string]int)
	for _, it := range items {
		need[it.ProductID] += it.Quantity
	}
	for _, it := range items {
		i := r.s.productIndex(it.ProductID)
		if i < 0 {
			return &store.StockError{ProductID: it.ProductID, Requested: need[it.ProductID], Err: store.ErrProductNotFound}
		}
		if r.s.products[i].StockQuantity < need[it.ProductID] {
			return &store.StockError{
				ProductID: it.ProductID,
				Requested: need[it.ProductID],
				Available: r.s.products[i].StockQuantity,
				Err:       store.ErrInsufficientStock,
			}
		}
	}

	for _, it := range items {
		i := r.s.productIndex(it.ProductID)
		r.s.products[i].StockQuantity -= it.Quantity
		if r.s.products[i].StockQuantity == 0 {
			r.s.products[i].InStock = false
		}
	}
	r.s.orders = append(r.s.orders, *order)
	r.s.items = append(r.s.items, items...)
	return nil
}

func (r orderRepo) FindByID(ctx context.Context, id string) (*models.OrderDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := r.s.orderIndex(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	detail := r.s.detail(r.s.orders[i])
	return &detail, nil
}

func (s *Store) detail(o models.Order) models.OrderDetail {
	out := models.OrderDetail{Order: o, OrderItems: []models.OrderItemDetail{}}
	for _, it := range s.items {
		if it.OrderID != o.ID {
			continue
		}
		d := models.OrderItemDetail{OrderItem: it}
		if pi := s.productIndex(it.ProductID); pi >= 0 {
			p := s.products[pi]
			d.Product = &models.ProductSnapshot{ID: p.ID, NameAr: p.NameAr, Price: p.Price, Images: p.Images}
		}
		out.OrderItems = append(out.OrderItems, d)
	}
	return out
}

func (r orderRepo) List(ctx context.Context, filter models.OrderListFilter) ([]models.OrderDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	orders := make([]models.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		if filter.Status == "" || o.Status == filter.Status {
			orders = append(orders, o)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	if filter.Limit > 0 && len(orders) > filter.Limit {
		orders = orders[:filter.Limit]
	}

	out := make([]models.OrderDetail, 0, len(orders))
	for _, o := range orders {
		out = append(out, r.s.detail(o))
	}
	return out, nil
}

func (r orderRepo) UpdateStatus(ctx context.Context, id, status string, notes *string, updatedAt time.Time) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.s.orderIndex(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	r.s.orders[i].Status = status
	r.s.orders[i].Notes = notes
	r.s.orders[i].UpdatedAt = updatedAt
	updated := r.s.orders[i]
	return &updated, nil
}

func (r orderRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.s.orderIndex(id)
	if i < 0 {
		return store.ErrNotFound
	}

	kept := r.s.items[:0]
	for _, it := range r.s.items {
		if it.OrderID != id {
			kept = append(kept, it)
			continue
		}
		if pi := r.s.productIndex(it.ProductID); pi >= 0 {
			r.s.products[pi].StockQuantity += it.Quantity
			if r.s.products[pi].StockQuantity > 0 {
				r.s.products[pi].InStock = true
			}
		}
	}
	r.s.items = kept
	r.s.orders = append(r.s.orders[:i], r.s.orders[i+1:]...)
	return nil
}

func (r orderRepo) Stats(ctx context.Context, since time.Time) (*models.OrderStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &models.OrderStats{}
	for _, o := range r.s.orders {
		stats.TotalOrders++
		stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
		stats.OrdersByStatus.Add(o.Status, 1)
		if !o.CreatedAt.Before(since) {
			stats.RecentOrders++
		}
	}
	return stats, nil
}

type adminRepo struct{ s *Store }

func (r adminRepo) FindActiveByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.admins {
		if a.Email == email && a.IsActive {
			found := a
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r adminRepo) FindActiveByID(ctx context.Context, id string) (*models.AdminUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.admins[id]
	if !ok || !a.IsActive {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (r adminRepo) Create(ctx context.Context, admin *models.AdminUser) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.admins[admin.ID] = *admin
	return nil
}

// SetAdminActive flips the active flag of a stored admin.
func (s *Store) SetAdminActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.admins[id]; ok {
		a.IsActive = active
		s.admins[id] = a
	}
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(ctx context.Context, session *models.AdminSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.ID] = *session
	return nil
}

func (r sessionRepo) Get(ctx context.Context, id string) (*models.AdminSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sess, nil
}

func (r sessionRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}
