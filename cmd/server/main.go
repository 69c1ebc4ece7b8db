package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/avolkhin/storefront/internal/config"
	"github.com/avolkhin/storefront/internal/handlers"
	"github.com/avolkhin/storefront/internal/idempotency"
	"github.com/avolkhin/storefront/internal/inventory"
	"github.com/avolkhin/storefront/internal/logging"
	loggingmw "github.com/avolkhin/storefront/internal/middleware/logging"
	"github.com/avolkhin/storefront/internal/mykafka"
	"github.com/avolkhin/storefront/internal/orders"
	httpserver "github.com/avolkhin/storefront/internal/transport/http"
)

func main() {
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	jwtSecret := []byte(configuration.JWT_SECRET)

	brokers := []string{configuration.KAFKA_ADDRESS}
	topics := []string{"order_events", "inventory_events"}
	prod, err := mykafka.NewProducer(brokers, topics)
	if err != nil {
		log.Fatal(err)
	}

	var guard *idempotency.Guard
	var redisClient *redis.Client
	if configuration.REDIS_ADDRESS != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: configuration.REDIS_ADDRESS})
		guard = idempotency.New(redisClient)
	}

	inventorySvc := &inventory.Service{DB: db}
	orderSvc := &orders.Service{DB: db, Inventory: inventorySvc, NumberPrefix: configuration.ORDER_PREFIX}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:           db,
		OrderHandler: &handlers.OrderHandler{Orders: orderSvc, Producer: prod, Guard: guard},
		AdminHandler: &handlers.AdminHandler{DB: db, Orders: orderSvc, Inventory: inventorySvc, Producer: prod},
		JWTSecret:    jwtSecret,
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
