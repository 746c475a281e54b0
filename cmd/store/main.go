package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/salman854raza/test-sanity-e-commerce/internal/cache"
	"github.com/salman854raza/test-sanity-e-commerce/internal/cart"
	"github.com/salman854raza/test-sanity-e-commerce/internal/catalog"
	"github.com/salman854raza/test-sanity-e-commerce/internal/checkout"
	"github.com/salman854raza/test-sanity-e-commerce/internal/docstore"
	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
	"github.com/salman854raza/test-sanity-e-commerce/internal/events"
	h "github.com/salman854raza/test-sanity-e-commerce/internal/http"
	"github.com/salman854raza/test-sanity-e-commerce/internal/order"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	Postgres        order.Credentials
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	SeedDemoData    bool
}

func loadConfig() *Config {
	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		log.Fatalf("invalid POSTGRES_PORT: %v", err)
	}

	return &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getEnv("MONGO_DB_NAME", "storedb"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:  []string{getEnv("KAFKA_BROKER", "localhost:9092")},
		Postgres: order.Credentials{
			Host:              getEnv("POSTGRES_HOST", "localhost"),
			Port:              pgPort,
			User:              getEnv("POSTGRES_USER", "postgres"),
			Password:          getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:            getEnv("POSTGRES_DB", "ordersdb"),
			MigrationsDirPath: getEnv("MIGRATIONS_DIR", "internal/order/migrations"),
		},
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		SeedDemoData:    getEnv("SEED_DEMO_DATA", "") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	// MongoDB holds the product documents and the carts
	mongoDB, err := docstore.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	products := docstore.NewMongoStore(mongoDB, "products")
	catalogService := catalog.NewService(products)

	if cfg.SeedDemoData {
		seedProducts(ctx, catalogService)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	cartRepo := cart.NewMongoRepository(mongoDB)
	cartService := cart.NewService(cartRepo, cache.NewRedisCache(redisClient))

	ordersRepo, err := order.NewRepository(&cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer ordersRepo.Close()
	if err := ordersRepo.RunMigrations(&cfg.Postgres); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to postgres")

	publisher := events.NewPublisher(cfg.KafkaBrokers...)
	defer publisher.Close()

	coordinator := checkout.NewCoordinator(products)
	checkoutService := checkout.NewService(coordinator, catalogService, ordersRepo, cartService, publisher)

	cartHandler := h.NewCartHandler(cartService, catalogService, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout)
	productHandler := h.NewProductHandler(catalogService, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(ordersRepo, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.MockAuthMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Post("/items/{product_id}/increment", cartHandler.IncrementQuantity)
			r.Post("/items/{product_id}/decrement", cartHandler.DecrementQuantity)
		})
		r.Post("/checkout", checkoutHandler.Checkout)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/{product_id}", productHandler.GetProduct)
			r.Put("/{product_id}/stock", productHandler.SetStock)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{order_id}", ordersHandler.GetOrder)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Store backend starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := mongoDB.Client().Disconnect(ctx); err != nil {
		log.Printf("failed to disconnect mongo: %v", err)
	}
	log.Println("Store backend stopped")
}

// Demo catalog matching the storefront seeds
func seedProducts(ctx context.Context, c *catalog.Service) {
	demo := []domain.Product{
		{ID: "library-stool", Name: "Library Stool", Price: decimal.NewFromInt(99), Stock: 100},
		{ID: "sleek-chair", Name: "Sleek Chair", Price: decimal.NewFromInt(150), Stock: 500},
		{ID: "wing-chair", Name: "Wing Chair", Price: decimal.NewFromInt(250), Stock: 300},
		{ID: "wooden-sofa", Name: "Wooden Sofa", Price: decimal.NewFromInt(400), Stock: 150},
		{ID: "cozy-sofa", Name: "Cozy Sofa", Price: decimal.NewFromInt(320), Stock: 200},
	}

	for _, product := range demo {
		if err := c.SaveProduct(ctx, &product); err != nil {
			log.Fatalf("Failed to seed product %s: %v", product.ID, err)
		}
	}
	log.Printf("Seeded %d products", len(demo))
}
