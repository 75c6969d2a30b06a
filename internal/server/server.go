package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"checkout-api/internal/cache"
	"checkout-api/internal/config"
	"checkout-api/internal/health"
	"checkout-api/internal/lock"
	"checkout-api/internal/metrics"
	custommiddleware "checkout-api/internal/middleware"
	"checkout-api/internal/repository"
	"checkout-api/internal/service"
	"checkout-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

// NewServer wires the checkout API. rdb may be nil when Redis is disabled.
func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, rdb *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()
	m := metrics.New(cfg.Metrics.Namespace, nil)

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(m.Middleware)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.CORSAllowedOrigins, cfg.Server.Env == "development"))

	// Initialize repositories
	store := repository.NewStore(db)

	// Redis-backed collaborators degrade to in-process equivalents when Redis is off
	var locker lock.Locker = lock.NewLocalLocker()
	var discountCache *cache.DiscountCache
	if rdb != nil {
		locker = lock.RedisLocker{R: rdb, TTL: cfg.Checkout.CartLockTTL, RetryBackoff: 25 * time.Millisecond}
		discountCache = cache.NewDiscountCache(rdb, cfg.Checkout.DiscountCacheTTL)
	}

	// Initialize services
	catalog := service.NewDiscountCatalog(discountCache, logger)
	cartService := service.NewCartService(store, catalog, locker, logger, m)
	productService := service.NewProductService(store.Products(), logger)
	discountService := service.NewDiscountService(store.Discounts(), catalog, logger)

	// Initialize handlers
	customerHandler := transport.NewCustomerHandler(cartService, productService, logger)
	adminHandler := transport.NewAdminHandler(productService, discountService, logger)
	healthHandler := health.NewHandler(logger)

	healthHandler.RegisterCheck("database", db.PingContext)
	if rdb != nil {
		healthHandler.RegisterCheck("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	healthHandler.RegisterTable("products", store.Products().Count)
	healthHandler.RegisterTable("carts", store.Carts().Count)
	healthHandler.RegisterTable("cart_items", store.Carts().CountItems)
	healthHandler.RegisterTable("discounts", store.Discounts().Count)

	rateLimit := custommiddleware.RateLimitMiddleware(rdb, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "checkout:ratelimit",
	}, logger)

	// Register routes
	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", m.Handler())

	if cfg.JWT.Secret != "" {
		authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
		customerRoles := custommiddleware.RequireRole([]string{custommiddleware.RoleCustomer, custommiddleware.RoleAdmin}, logger)
		customerHandler.RegisterRoutes(router, authMiddleware, customerRoles, rateLimit)
		adminHandler.RegisterRoutes(router, authMiddleware, custommiddleware.RequireAdmin(logger), rateLimit)
	} else {
		logger.Warn("JWT_SECRET is not set, API routes are unauthenticated")
		customerHandler.RegisterRoutes(router, rateLimit)
		adminHandler.RegisterRoutes(router, rateLimit)
	}

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  rdb,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
