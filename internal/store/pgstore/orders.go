package pgstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"mynature/internal/models"
	"mynature/internal/store"
)

type orderRepo struct {
	db *gorm.DB
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	for _, item := range items {
		if !isUUID(item.ProductID) {
			return &store.StockError{ProductID: item.ProductID, Requested: item.Quantity, Err: store.ErrProductNotFound}
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		for _, item := range items {
			if err := decrementStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// decrementStock is a single conditional UPDATE, so a concurrent order for
// the same product either sees the reduced quantity or fails the guard.
func decrementStock(tx *gorm.DB, productID string, quantity int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity - ?", quantity),
			"in_stock":       gorm.Expr("CASE WHEN stock_quantity - ? <= 0 THEN false ELSE in_stock END", quantity),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var available []int
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).Pluck("stock_quantity", &available).Error; err != nil {
		return err
	}
	if len(available) == 0 {
		return &store.StockError{ProductID: productID, Requested: quantity, Err: store.ErrProductNotFound}
	}
	return &store.StockError{
		ProductID: productID,
		Requested: quantity,
		Available: available[0],
		Err:       store.ErrInsufficientStock,
	}
}

func restoreStock(tx *gorm.DB, productID string, quantity int) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity + ?", quantity),
			"in_stock":       gorm.Expr("CASE WHEN stock_quantity + ? > 0 THEN true ELSE in_stock END", quantity),
		}).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*models.OrderDetail, error) {
	if !isUUID(id) {
		return nil, store.ErrNotFound
	}
	db := r.db.WithContext(ctx)

	var order models.Order
	if err := db.Where("id = ?", id).Take(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	details, err := withItems(db, []models.Order{order})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (r *orderRepo) List(ctx context.Context, filter models.OrderListFilter) ([]models.OrderDetail, error) {
	db := r.db.WithContext(ctx)

	query := db.Order("created_at DESC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	orders := make([]models.Order, 0)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return withItems(db, orders)
}

func withItems(db *gorm.DB, orders []models.Order) ([]models.OrderDetail, error) {
	details := make([]models.OrderDetail, 0, len(orders))
	if len(orders) == 0 {
		return details, nil
	}

	orderIDs := make([]string, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
	}

	var items []models.OrderItem
	if err := db.Where("order_id IN ?", orderIDs).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	snapshots := make(map[string]models.ProductSnapshot)
	if len(items) > 0 {
		productIDs := make([]string, 0, len(items))
		for _, it := range items {
			productIDs = append(productIDs, it.ProductID)
		}

		var found []models.ProductSnapshot
		if err := db.Model(&models.Product{}).
			Select("id", "name_ar", "price", "images").
			Where("id IN ?", productIDs).
			Find(&found).Error; err != nil {
			return nil, err
		}
		for _, p := range found {
			snapshots[p.ID] = p
		}
	}

	byOrder := make(map[string][]models.OrderItemDetail)
	for _, it := range items {
		d := models.OrderItemDetail{OrderItem: it}
		if snap, ok := snapshots[it.ProductID]; ok {
			snap := snap
			d.Product = &snap
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], d)
	}

	for _, o := range orders {
		lines := byOrder[o.ID]
		if lines == nil {
			lines = []models.OrderItemDetail{}
		}
		details = append(details, models.OrderDetail{Order: o, OrderItems: lines})
	}
	return details, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id, status string, notes *string, updatedAt time.Time) (*models.Order, error) {
	if !isUUID(id) {
		return nil, store.ErrNotFound
	}
	db := r.db.WithContext(ctx)

	res := db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"notes":      notes,
		"updated_at": updatedAt,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}

	var order models.Order
	if err := db.Where("id = ?", id).Take(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return store.ErrNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return store.ErrNotFound
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ?", id).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			if err := restoreStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Order{}).Error
	})
}

func (r *orderRepo) Stats(ctx context.Context, since time.Time) (*models.OrderStats, error) {
	db := r.db.WithContext(ctx)

	var groups []struct {
		Status  string
		Count   int64
		Revenue models.Money
	}
	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue").
		Group("status").
		Scan(&groups).Error; err != nil {
		return nil, err
	}

	stats := &models.OrderStats{}
	for _, g := range groups {
		stats.TotalOrders += g.Count
		stats.TotalRevenue = stats.TotalRevenue.Add(g.Revenue)
		stats.OrdersByStatus.Add(g.Status, g.Count)
	}

	if err := db.Model(&models.Order{}).Where("created_at >= ?", since).Count(&stats.RecentOrders).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
