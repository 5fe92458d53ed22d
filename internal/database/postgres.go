package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mynature/internal/logger"
	"mynature/internal/models"
)

// OpenPostgres connects through GORM and migrates the storefront tables.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.AdminUser{},
		&models.AdminSession{},
	); err != nil {
		return nil, err
	}

	logger.Log.Info("postgres connected and migrated")
	return db, nil
}
