package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mynature/internal/logger"
	"mynature/internal/service"
)

/*
GET /api/products
- search, categories (comma separated), minPrice, maxPrice, inStockOnly, sortBy, page
- page size is fixed, hasMore tells the storefront to keep scrolling
*/
func GetProducts(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		params := service.CatalogParams{
			Search:      c.Query("search"),
			Categories:  c.Query("categories"),
			MinPrice:    c.Query("minPrice"),
			MaxPrice:    c.Query("maxPrice"),
			InStockOnly: c.Query("inStockOnly"),
			SortBy:      c.Query("sortBy"),
			Page:        c.Query("page"),
		}
		if params.Categories == "" {
			params.Categories = c.Query("category")
		}
		if params.InStockOnly == "" {
			params.InStockOnly = c.Query("inStock")
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		page, err := catalog.Search(ctx, params)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		logger.Log.Debug("products listed",
			zap.String("route", route),
			zap.Int("page", page.Page),
			zap.Int("count", len(page.Products)),
			zap.Int64("total", page.Total),
		)
		c.JSON(http.StatusOK, page)
	}
}

func GetCategories(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/categories"
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		categories, err := catalog.Categories(ctx)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}
