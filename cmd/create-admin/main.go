package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mynature/internal/config"
	"mynature/internal/database"
	"mynature/internal/models"
	"mynature/internal/service"
	"mynature/internal/store"
	"mynature/internal/store/mongostore"
	"mynature/internal/store/pgstore"
)

func main() {
	config.Load()
	cfg := config.AppEnv

	var email, password, name, driver string
	var hashOnly bool
	flag.StringVar(&email, "email", "", "admin email")
	flag.StringVar(&password, "password", os.Getenv("ADMIN_PASSWORD"), "admin password (or ADMIN_PASSWORD)")
	flag.StringVar(&name, "name", cfg.AdminName, "display name")
	flag.StringVar(&driver, "driver", cfg.StoreDriver, "store driver: mongo or postgres")
	flag.BoolVar(&hashOnly, "hash-only", false, "print the bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	flag.Parse()

	if password == "" {
		log.Fatal("password is required (-password or ADMIN_PASSWORD)")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	if hashOnly {
		fmt.Println(string(hash))
		return
	}

	email = service.NormalizeEmail(email)
	if email == "" {
		log.Fatal("email is required")
	}

	admins, closeFn, err := openAdmins(cfg, driver)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer closeFn()

	admin := &models.AdminUser{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := admins.Create(ctx, admin); err != nil {
		log.Fatalf("create admin: %v", err)
	}
	fmt.Printf("admin %s created with id %s\n", admin.Email, admin.ID)
}

func openAdmins(cfg config.Config, driver string) (store.AdminRepository, func(), error) {
	switch driver {
	case config.DriverPostgres:
		db, err := database.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.New(db).Admins(), func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	case config.DriverMongo:
		client, err := database.Connect(cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.DBName)
		if err := database.EnsureAdminIndexes(db); err != nil {
			log.Printf("admin index warning: %v", err)
		}
		return mongostore.New(db).Admins(), func() { _ = client.Disconnect(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("driver %q cannot persist admins", driver)
	}
}
