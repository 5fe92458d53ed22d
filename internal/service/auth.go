package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mynature/internal/logger"
	"mynature/internal/models"
	"mynature/internal/store"
)

const DefaultSessionTTL = 48 * time.Hour

type sessionClaims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	Token   string
	Admin   models.AdminIdentity
	Session models.AdminSession
}

// AuthService issues, validates and revokes admin sessions. The cookie
// carries a signed token naming a server-side session record; both must
// agree for a request to count as authenticated.
type AuthService struct {
	verifier CredentialVerifier
	sessions store.SessionRepository
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(verifier CredentialVerifier, sessions store.SessionRepository, secret []byte, ttl time.Duration) (*AuthService, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		verifier: verifier,
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

func (s *AuthService) TTL() time.Duration {
	return s.ttl
}

func (s *AuthService) Now() time.Time {
	return s.now()
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" {
		return nil, invalid("email", "is required")
	}
	if password == "" {
		return nil, invalid("password", "is required")
	}

	identity, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := models.AdminSession{
		ID:        uuid.NewString(),
		AdminID:   identity.ID,
		Email:     identity.Email,
		Name:      identity.Name,
		CreatedAt: now.UTC(),
		ExpiresAt: now.Add(s.ttl).UTC(),
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	token, err := s.sign(session, now)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("admin logged in", zap.String("admin_id", identity.ID), zap.String("session_id", session.ID))
	return &LoginResult{Token: token, Admin: *identity, Session: session}, nil
}

func (s *AuthService) sign(session models.AdminSession, now time.Time) (string, error) {
	claims := sessionClaims{
		SessionID: session.ID,
		Email:     session.Email,
		Name:      session.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.AdminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) parse(token string, opts ...jwt.ParserOption) (*sessionClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthenticated
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// Validate resolves a cookie token to a live session. Every failure,
// including store errors, is reported as ErrUnauthenticated.
func (s *AuthService) Validate(ctx context.Context, token string) (*models.AdminSession, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Log.Error("session lookup failed", zap.String("session_id", claims.SessionID), zap.Error(err))
		}
		return nil, ErrUnauthenticated
	}
	if session.AdminID != claims.Subject || !session.Valid(s.now()) {
		return nil, ErrUnauthenticated
	}

	identity, err := s.verifier.Lookup(ctx, session.AdminID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Log.Error("admin lookup failed", zap.String("admin_id", session.AdminID), zap.Error(err))
		}
		return nil, ErrUnauthenticated
	}

	session.Email = identity.Email
	session.Name = identity.Name
	return session, nil
}

// Logout deletes the session record named by the token. It never fails on a
// missing, expired or foreign token.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}

	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return
	}

	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		logger.Log.Warn("session delete failed", zap.String("session_id", claims.SessionID), zap.Error(err))
		return
	}
	logger.Log.Info("admin logged out", zap.String("admin_id", claims.Subject), zap.String("session_id", claims.SessionID))
}
