package pgstore

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"mynature/internal/models"
	"mynature/internal/store"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type productRepo struct {
	db *gorm.DB
}

func (r *productRepo) Search(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	if len(q.CategoryIDs) > 0 {
		q.CategoryIDs = uuidsOnly(q.CategoryIDs)
		if len(q.CategoryIDs) == 0 {
			return []models.Product{}, 0, nil
		}
	}

	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.filtered(ctx, q).Order(productOrder(q.SortBy)).Limit(q.Limit)
	if offset := q.Offset(); offset > 0 {
		query = query.Offset(offset)
	}

	products := make([]models.Product, 0, q.Limit)
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, err
	}

	if ids := store.CategoryIDs(products); len(ids) > 0 {
		var categories []models.Category
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
			return nil, 0, err
		}
		store.AttachCategories(products, categories)
	}
	return products, total, nil
}

func (r *productRepo) filtered(ctx context.Context, q models.ProductQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)

	if q.Search != "" {
		pattern := "%" + likeEscaper.Replace(q.Search) + "%"
		db = db.Where(
			"name ILIKE ? OR name_ar ILIKE ? OR description ILIKE ? OR description_ar ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if len(q.CategoryIDs) > 0 {
		db = db.Where("category_id IN ?", q.CategoryIDs)
	}
	if q.MinPrice != nil {
		db = db.Where("price >= ?", q.MinPrice.Decimal)
	}
	if q.MaxPrice != nil {
		db = db.Where("price <= ?", q.MaxPrice.Decimal)
	}
	if q.InStockOnly {
		db = db.Where("in_stock = ?", true)
	}
	return db
}

func productOrder(sortBy string) string {
	switch sortBy {
	case models.SortName:
		return "name_ar ASC"
	case models.SortPriceLow:
		return "price ASC"
	case models.SortPriceHigh:
		return "price DESC"
	default:
		return "created_at DESC"
	}
}

type categoryRepo struct {
	db *gorm.DB
}

func (r *categoryRepo) List(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	if err := r.db.WithContext(ctx).Order("name_ar ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}
