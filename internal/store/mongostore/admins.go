package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"mynature/internal/models"
	"mynature/internal/store"
)

type adminRepo struct {
	db *mongo.Database
}

func (r *adminRepo) FindActiveByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	return r.findOne(ctx, bson.M{"email": email, "is_active": true})
}

func (r *adminRepo) FindActiveByID(ctx context.Context, id string) (*models.AdminUser, error) {
	return r.findOne(ctx, bson.M{"_id": id, "is_active": true})
}

func (r *adminRepo) findOne(ctx context.Context, filter bson.M) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.db.Collection(adminUsersCollection).FindOne(ctx, filter).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepo) Create(ctx context.Context, admin *models.AdminUser) error {
	_, err := r.db.Collection(adminUsersCollection).InsertOne(ctx, admin)
	return err
}

type sessionRepo struct {
	db *mongo.Database
}

func (r *sessionRepo) Create(ctx context.Context, session *models.AdminSession) error {
	_, err := r.db.Collection(adminSessionsCollection).InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*models.AdminSession, error) {
	var session models.AdminSession
	err := r.db.Collection(adminSessionsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Collection(adminSessionsCollection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}
