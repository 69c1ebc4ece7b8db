package config

import (
	"fmt"
	"log"
	"os"

	"github.com/avolkhin/storefront/internal/models"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DB_HOST       string
	DB_PORT       string
	DB_USER       string
	DB_PASSWORD   string
	DB_NAME       string
	KAFKA_ADDRESS string
	REDIS_ADDRESS string
	JWT_SECRET    string
	LOG_LEVEL     string
	ORDER_PREFIX  string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:       os.Getenv("DB_HOST"),
		DB_PORT:       os.Getenv("DB_PORT"),
		DB_USER:       os.Getenv("DB_USER"),
		DB_PASSWORD:   os.Getenv("DB_PASSWORD"),
		DB_NAME:       os.Getenv("DB_NAME"),
		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
		REDIS_ADDRESS: os.Getenv("REDIS_ADDRESS"),
		JWT_SECRET:    os.Getenv("JWT_SECRET"),
		LOG_LEVEL:     os.Getenv("LOG_LEVEL"),
		ORDER_PREFIX:  os.Getenv("ORDER_PREFIX"),
	}

	if config.ORDER_PREFIX == "" {
		config.ORDER_PREFIX = "ORD"
	}

	return config, nil
}

func InitDB() (*gorm.DB, error) {
	configuration, _ := LoadConfig()

	host := configuration.DB_HOST
	port := configuration.DB_PORT
	user := configuration.DB_USER
	password := configuration.DB_PASSWORD
	dbname := configuration.DB_NAME

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbname,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.AddressSnapshot{},
		&models.InventoryLogEntry{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
