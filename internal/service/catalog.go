package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"mynature/internal/models"
	"mynature/internal/store"
)

const PageSize = 12

// MaxPage keeps page*PageSize inside 32 bits for every store's skip/offset.
const MaxPage = math.MaxInt32 / PageSize

// CatalogParams carries the raw query string values of a product listing.
type CatalogParams struct {
	Search      string
	Categories  string
	MinPrice    string
	MaxPrice    string
	InStockOnly string
	SortBy      string
	Page        string
}

type CatalogService struct {
	products   store.ProductRepository
	categories store.CategoryRepository
}

func NewCatalogService(products store.ProductRepository, categories store.CategoryRepository) *CatalogService {
	return &CatalogService{products: products, categories: categories}
}

func (s *CatalogService) Search(ctx context.Context, params CatalogParams) (*models.ProductPage, error) {
	q, err := NormalizeProductQuery(params)
	if err != nil {
		return nil, err
	}

	products, total, err := s.products.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	return &models.ProductPage{
		Products: products,
		HasMore:  int64(q.Page*q.Limit) < total,
		Total:    total,
		Page:     q.Page,
		Limit:    q.Limit,
	}, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// NormalizeProductQuery turns raw parameters into a store query. A missing,
// malformed or non-positive page falls back to 1; a page past MaxPage and a
// malformed price are errors.
func NormalizeProductQuery(params CatalogParams) (models.ProductQuery, error) {
	q := models.ProductQuery{
		Search:      strings.TrimSpace(params.Search),
		CategoryIDs: splitList(params.Categories),
		InStockOnly: parseFlag(params.InStockOnly),
		SortBy:      normalizeSort(params.SortBy),
		Page:        1,
		Limit:       PageSize,
	}

	p, err := strconv.Atoi(strings.TrimSpace(params.Page))
	if errors.Is(err, strconv.ErrRange) {
		// Atoi saturates to MaxInt or MinInt on overflow.
		err = nil
	}
	switch {
	case err != nil || p <= 1:
	case p > MaxPage:
		return models.ProductQuery{}, invalid("page", "out of range")
	default:
		q.Page = p
	}

	if q.MinPrice, err = parsePrice("minPrice", params.MinPrice); err != nil {
		return models.ProductQuery{}, err
	}
	if q.MaxPrice, err = parsePrice("maxPrice", params.MaxPrice); err != nil {
		return models.ProductQuery{}, err
	}
	return q, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseFlag(raw string) bool {
	v := strings.TrimSpace(raw)
	return strings.EqualFold(v, "true") || v == "1"
}

func normalizeSort(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case models.SortName:
		return models.SortName
	case models.SortPriceLow, "price-asc":
		return models.SortPriceLow
	case models.SortPriceHigh, "price-desc":
		return models.SortPriceHigh
	default:
		return models.SortNewest
	}
}

func parsePrice(field, raw string) (*models.Money, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, nil
	}
	m, err := models.ParseMoney(v)
	if err != nil {
		return nil, invalid(field, "must be a number")
	}
	return &m, nil
}
