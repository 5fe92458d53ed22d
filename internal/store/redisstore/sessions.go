// Package redisstore keeps admin session records in Redis with a TTL equal
// to the remaining session lifetime.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mynature/internal/models"
	"mynature/internal/store"
)

type SessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client, now: time.Now}
}

func sessionKey(id string) string {
	return fmt.Sprintf("admin:session:%s", id)
}

// ttlFor returns how long Redis should keep a session record. Already
// expired sessions get no TTL and are not written.
func ttlFor(session *models.AdminSession, now time.Time) time.Duration {
	ttl := session.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return 0
	}
	return ttl
}

func (r *SessionRepository) Create(ctx context.Context, session *models.AdminSession) error {
	ttl := ttlFor(session, r.now())
	if ttl == 0 {
		return errors.New("session already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*models.AdminSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var session models.AdminSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}
