package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mynature/internal/models"
	"mynature/internal/store"
)

type orderRepo struct {
	db *mongo.Database
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.db.Collection(ordersCollection).InsertOne(sessCtx, order); err != nil {
			return nil, err
		}

		docs := make([]interface{}, 0, len(items))
		for i := range items {
			docs = append(docs, items[i])
		}
		if _, err := r.db.Collection(orderItemsCollection).InsertMany(sessCtx, docs); err != nil {
			return nil, err
		}

		for _, item := range items {
			if err := r.decrementStock(sessCtx, item.ProductID, item.Quantity); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// decrementStock applies a conditional $inc-style pipeline update. The
// in_stock flag drops to false when the new quantity reaches zero.
func (r *orderRepo) decrementStock(ctx mongo.SessionContext, productID string, quantity int) error {
	products := r.db.Collection(productsCollection)

	newQty := bson.M{"$subtract": bson.A{"$stock_quantity", quantity}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stock_quantity", Value: newQty},
			{Key: "in_stock", Value: bson.M{"$cond": bson.A{bson.M{"$lte": bson.A{newQty, 0}}, false, "$in_stock"}}},
		}}},
	}

	res, err := products.UpdateOne(ctx, bson.M{
		"_id":            productID,
		"stock_quantity": bson.M{"$gte": quantity},
	}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	var current struct {
		StockQuantity int `bson:"stock_quantity"`
	}
	err = products.FindOne(ctx, bson.M{"_id": productID}).Decode(&current)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &store.StockError{ProductID: productID, Requested: quantity, Err: store.ErrProductNotFound}
	}
	if err != nil {
		return err
	}
	return &store.StockError{
		ProductID: productID,
		Requested: quantity,
		Available: current.StockQuantity,
		Err:       store.ErrInsufficientStock,
	}
}

func (r *orderRepo) restoreStock(ctx mongo.SessionContext, productID string, quantity int) error {
	newQty := bson.M{"$add": bson.A{"$stock_quantity", quantity}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stock_quantity", Value: newQty},
			{Key: "in_stock", Value: bson.M{"$cond": bson.A{bson.M{"$gt": bson.A{newQty, 0}}, true, "$in_stock"}}},
		}}},
	}
	_, err := r.db.Collection(productsCollection).UpdateOne(ctx, bson.M{"_id": productID}, update)
	return err
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*models.OrderDetail, error) {
	var order models.Order
	err := r.db.Collection(ordersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	details, err := r.withItems(ctx, []models.Order{order})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (r *orderRepo) List(ctx context.Context, filter models.OrderListFilter) ([]models.OrderDetail, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		findOptions.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.db.Collection(ordersCollection).Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return r.withItems(ctx, orders)
}

// withItems loads the items of every order and the product snapshot of every
// item with one query per collection.
func (r *orderRepo) withItems(ctx context.Context, orders []models.Order) ([]models.OrderDetail, error) {
	details := make([]models.OrderDetail, 0, len(orders))
	if len(orders) == 0 {
		return details, nil
	}

	orderIDs := make([]string, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
	}

	cursor, err := r.db.Collection(orderItemsCollection).Find(
		ctx,
		bson.M{"order_id": bson.M{"$in": orderIDs}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.OrderItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}

	productIDs := make([]string, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
	}

	snapshots := make(map[string]models.ProductSnapshot)
	if len(productIDs) > 0 {
		pcur, err := r.db.Collection(productsCollection).Find(
			ctx,
			bson.M{"_id": bson.M{"$in": productIDs}},
			options.Find().SetProjection(bson.M{"_id": 1, "name_ar": 1, "price": 1, "images": 1}),
		)
		if err != nil {
			return nil, err
		}
		defer pcur.Close(ctx)

		var found []models.ProductSnapshot
		if err := pcur.All(ctx, &found); err != nil {
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
	var order models.Order
	err := r.db.Collection(ordersCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":     status,
			"notes":      notes,
			"updated_at": updatedAt,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) Delete(ctx context.Context, id string) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		count, err := r.db.Collection(ordersCollection).CountDocuments(sessCtx, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, store.ErrNotFound
		}

		cursor, err := r.db.Collection(orderItemsCollection).Find(sessCtx, bson.M{"order_id": id})
		if err != nil {
			return nil, err
		}
		var items []models.OrderItem
		if err := cursor.All(sessCtx, &items); err != nil {
			return nil, err
		}

		for _, item := range items {
			if err := r.restoreStock(sessCtx, item.ProductID, item.Quantity); err != nil {
				return nil, err
			}
		}

		if _, err := r.db.Collection(orderItemsCollection).DeleteMany(sessCtx, bson.M{"order_id": id}); err != nil {
			return nil, err
		}
		if _, err := r.db.Collection(ordersCollection).DeleteOne(sessCtx, bson.M{"_id": id}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

func (r *orderRepo) Stats(ctx context.Context, since time.Time) (*models.OrderStats, error) {
	coll := r.db.Collection(ordersCollection)

	cursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.M{"$sum": 1}},
			{Key: "revenue", Value: bson.M{"$sum": "$total_amount"}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Status  string       `bson:"_id"`
		Count   int64        `bson:"count"`
		Revenue models.Money `bson:"revenue"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	stats := &models.OrderStats{}
	for _, g := range groups {
		stats.TotalOrders += g.Count
		stats.TotalRevenue = stats.TotalRevenue.Add(g.Revenue)
		stats.OrdersByStatus.Add(g.Status, g.Count)
	}

	recent, err := coll.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": since}})
	if err != nil {
		return nil, err
	}
	stats.RecentOrders = recent
	return stats, nil
}
