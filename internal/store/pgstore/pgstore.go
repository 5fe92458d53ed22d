// Package pgstore implements the repositories on PostgreSQL through GORM.
package pgstore

import (
	"gorm.io/gorm"

	"mynature/internal/store"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Products() store.ProductRepository   { return &productRepo{db: s.db} }
func (s *Store) Categories() store.CategoryRepository { return &categoryRepo{db: s.db} }
func (s *Store) Orders() store.OrderRepository       { return &orderRepo{db: s.db} }
func (s *Store) Admins() store.AdminRepository       { return &adminRepo{db: s.db} }
func (s *Store) Sessions() store.SessionRepository   { return &sessionRepo{db: s.db} }
