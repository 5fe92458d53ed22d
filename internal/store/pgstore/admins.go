package pgstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mynature/internal/models"
	"mynature/internal/store"
)

type adminRepo struct {
	db *gorm.DB
}

func (r *adminRepo) FindActiveByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	return r.take(ctx, "email = ? AND is_active = ?", email, true)
}

func (r *adminRepo) FindActiveByID(ctx context.Context, id string) (*models.AdminUser, error) {
	if !isUUID(id) {
		return nil, store.ErrNotFound
	}
	return r.take(ctx, "id = ? AND is_active = ?", id, true)
}

func (r *adminRepo) take(ctx context.Context, query string, args ...interface{}) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.db.WithContext(ctx).Where(query, args...).Take(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepo) Create(ctx context.Context, admin *models.AdminUser) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

type sessionRepo struct {
	db *gorm.DB
}

func (r *sessionRepo) Create(ctx context.Context, session *models.AdminSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*models.AdminSession, error) {
	if !isUUID(id) {
		return nil, store.ErrNotFound
	}
	var session models.AdminSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AdminSession{}).Error
}
