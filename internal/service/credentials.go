package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mynature/internal/models"
	"mynature/internal/store"
)

// CredentialVerifier checks admin passwords and resolves admin ids back to
// active accounts.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*models.AdminIdentity, error)
	Lookup(ctx context.Context, adminID string) (*models.AdminIdentity, error)
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnCompare spends one bcrypt comparison so an unknown email takes as
// long to reject as a wrong password.
func burnCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("mynature-unknown-admin"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StaticVerifier accepts the single admin configured through the environment.
type StaticVerifier struct {
	identity models.AdminIdentity
	hash     []byte
}

func NewStaticVerifier(email, passwordHash, name string) (*StaticVerifier, error) {
	email = NormalizeEmail(email)
	if email == "" || passwordHash == "" {
		return nil, errors.New("static admin requires an email and a bcrypt hash")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, errors.New("ADMIN_PASSWORD_HASH is not a bcrypt hash")
	}

	return &StaticVerifier{
		identity: models.AdminIdentity{
			ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("mynature:admin:"+email)).String(),
			Email: email,
			Name:  name,
		},
		hash: []byte(passwordHash),
	}, nil
}

func (v *StaticVerifier) Verify(ctx context.Context, email, password string) (*models.AdminIdentity, error) {
	if NormalizeEmail(email) != v.identity.Email {
		burnCompare(password)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	identity := v.identity
	return &identity, nil
}

func (v *StaticVerifier) Lookup(ctx context.Context, adminID string) (*models.AdminIdentity, error) {
	if adminID != v.identity.ID {
		return nil, store.ErrNotFound
	}
	identity := v.identity
	return &identity, nil
}

// StoreVerifier checks credentials against the admin_users collection.
type StoreVerifier struct {
	admins store.AdminRepository
}

func NewStoreVerifier(admins store.AdminRepository) *StoreVerifier {
	return &StoreVerifier{admins: admins}
}

func (v *StoreVerifier) Verify(ctx context.Context, email, password string) (*models.AdminIdentity, error) {
	admin, err := v.admins.FindActiveByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		burnCompare(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	identity := admin.Identity()
	return &identity, nil
}

func (v *StoreVerifier) Lookup(ctx context.Context, adminID string) (*models.AdminIdentity, error) {
	admin, err := v.admins.FindActiveByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	identity := admin.Identity()
	return &identity, nil
}
