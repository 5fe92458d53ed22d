// Package mongostore implements the repositories on MongoDB. Order writes use
// multi-document transactions and so need a replica set or sharded cluster.
package mongostore

import (
	"go.mongodb.org/mongo-driver/mongo"

	"mynature/internal/store"
)

const (
	productsCollection      = "products"
	categoriesCollection    = "categories"
	ordersCollection        = "orders"
	orderItemsCollection    = "order_items"
	adminUsersCollection    = "admin_users"
	adminSessionsCollection = "admin_sessions"
)

type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) Products() store.ProductRepository   { return &productRepo{db: s.db} }
func (s *Store) Categories() store.CategoryRepository { return &categoryRepo{db: s.db} }
func (s *Store) Orders() store.OrderRepository       { return &orderRepo{db: s.db} }
func (s *Store) Admins() store.AdminRepository       { return &adminRepo{db: s.db} }
func (s *Store) Sessions() store.SessionRepository   { return &sessionRepo{db: s.db} }
