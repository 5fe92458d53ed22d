package mongostore

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mynature/internal/models"
	"mynature/internal/store"
)

type productRepo struct {
	db *mongo.Database
}

func (r *productRepo) Search(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	filter, err := buildProductFilter(q)
	if err != nil {
		return nil, 0, err
	}

	coll := r.db.Collection(productsCollection)

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(productSort(q.SortBy)).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))

	cursor, err := coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0, q.Limit)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	if ids := store.CategoryIDs(products); len(ids) > 0 {
		catCursor, err := r.db.Collection(categoriesCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, 0, err
		}
		defer catCursor.Close(ctx)

		var categories []models.Category
		if err := catCursor.All(ctx, &categories); err != nil {
			return nil, 0, err
		}
		store.AttachCategories(products, categories)
	}
	return products, total, nil
}

// buildProductFilter translates a catalog query. Inactive products never match.
func buildProductFilter(q models.ProductQuery) (bson.M, error) {
	filter := bson.M{"is_active": true}

	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"name_ar": pattern},
			bson.M{"description": pattern},
			bson.M{"description_ar": pattern},
		}
	}

	if len(q.CategoryIDs) > 0 {
		filter["category_id"] = bson.M{"$in": q.CategoryIDs}
	}

	price := bson.M{}
	if q.MinPrice != nil {
		d, err := primitive.ParseDecimal128(q.MinPrice.String())
		if err != nil {
			return nil, err
		}
		price["$gte"] = d
	}
	if q.MaxPrice != nil {
		d, err := primitive.ParseDecimal128(q.MaxPrice.String())
		if err != nil {
			return nil, err
		}
		price["$lte"] = d
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	if q.InStockOnly {
		filter["in_stock"] = true
	}
	return filter, nil
}

func productSort(sortBy string) bson.D {
	switch sortBy {
	case models.SortName:
		return bson.D{{Key: "name_ar", Value: 1}}
	case models.SortPriceLow:
		return bson.D{{Key: "price", Value: 1}}
	case models.SortPriceHigh:
		return bson.D{{Key: "price", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

type categoryRepo struct {
	db *mongo.Database
}

func (r *categoryRepo) List(ctx context.Context) ([]models.Category, error) {
	cursor, err := r.db.Collection(categoriesCollection).Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "name_ar", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := make([]models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
