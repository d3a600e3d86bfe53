package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"colourful-store-api/internal/cache"
	"colourful-store-api/internal/config"
	"colourful-store-api/internal/handler"
	"colourful-store-api/internal/middleware"
	"colourful-store-api/internal/repository"
	"colourful-store-api/internal/router"
	"colourful-store-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Colourful Store API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Open the primary store (cart, catalog, orders, favorites)
	var storeDB *sql.DB
	var err error
	var cartRepo repository.CartRepository
	var catalogRepo repository.CatalogRepository
	var orderRepo repository.OrderRepository
	var favoriteRepo repository.FavoriteRepository

	switch cfg.StoreDB.Type {
	case "postgres", "postgresql":
		storeDB, err = repository.OpenPostgresStore(cfg.StoreDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL store: %v", err)
		}
		cartRepo = repository.NewPostgresCartRepository(storeDB)
		catalogRepo = repository.NewPostgresCatalogRepository(storeDB)
		orderRepo = repository.NewPostgresOrderRepository(storeDB)
		favoriteRepo = repository.NewPostgresFavoriteRepository(storeDB)
		log.Println("PostgreSQL store initialized")
	default: // sqlite
		storeDB, err = repository.OpenSQLiteStore(cfg.StoreDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite store: %v", err)
		}
		cartRepo = repository.NewSQLiteCartRepository(storeDB)
		catalogRepo = repository.NewSQLiteCatalogRepository(storeDB)
		orderRepo = repository.NewSQLiteOrderRepository(storeDB)
		favoriteRepo = repository.NewSQLiteFavoriteRepository(storeDB)
		log.Println("SQLite store initialized")
	}
	defer storeDB.Close()

	// Account store: MySQL in production, SQLite fallback for development
	var userRepo repository.UserRepository
	if cfg.UserDB.Type == "mysql" {
		mysqlDB, err := sql.Open("mysql", cfg.UserDB.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to open MySQL: %v", err)
		}
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)
		if err := mysqlDB.Ping(); err != nil {
			log.Fatalf("Failed to ping MySQL: %v", err)
		}
		defer mysqlDB.Close()
		userRepo = repository.NewMySQLUserRepository(mysqlDB)
		log.Println("MySQL user repository initialized")
	} else {
		sqliteUsers, err := repository.NewSQLiteUserRepository(storeDB)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite user repository: %v", err)
		}
		userRepo = sqliteUsers
		log.Println("SQLite user repository initialized")
	}

	// Session store: Redis with an in-process fallback
	var sessionCache cache.Cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Session.RedisAddress(),
		Password: cfg.Session.RedisPassword,
		DB:       cfg.Session.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed, using in-memory sessions: %v", err)
		redisClient.Close()
		sessionCache = cache.NewMemoryCache()
	} else {
		sessionCache = cache.NewRedisCache(redisClient, "")
		log.Println("Redis session store initialized")
	}
	cancel()
	defer sessionCache.Close()

	// Initialize services
	sessionService := service.NewSessionService(sessionCache, cfg.Session.TokenTTL)

	authLimiter := service.NewAuthLimiter(service.DefaultAuthLimiterConfig())
	authLimiter.Start()
	defer authLimiter.Stop()

	authService := service.NewAuthService(userRepo, sessionService, authLimiter)
	cartService := service.NewCartService(cartRepo, catalogRepo)
	containerService := service.NewContainerService(catalogRepo, cartService)
	catalogService := service.NewCatalogService(catalogRepo, sessionCache)
	orderService := service.NewOrderService(orderRepo, cartRepo)
	favoriteService := service.NewFavoriteService(favoriteRepo)

	// Initialize handlers
	healthHandler := handler.New(storeDB)
	authHandler := handler.NewAuthHandler(authService)
	cartHandler := handler.NewCartHandler(cartService)
	containerHandler := handler.NewContainerHandler(containerService)
	orderHandler := handler.NewOrderHandler(orderService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	favoriteHandler := handler.NewFavoriteHandler(favoriteService)

	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		Auth: authService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:          healthHandler,
		AuthHandler:      authHandler,
		CartHandler:      cartHandler,
		ContainerHandler: containerHandler,
		OrderHandler:     orderHandler,
		CatalogHandler:   catalogHandler,
		FavoriteHandler:  favoriteHandler,
		AuthMiddleware:   authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
