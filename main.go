package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mynature/internal/config"
	"mynature/internal/database"
	"mynature/internal/events"
	"mynature/internal/handlers"
	"mynature/internal/logger"
	"mynature/internal/middleware"
	"mynature/internal/service"
	"mynature/internal/store"
	"mynature/internal/store/memstore"
	"mynature/internal/store/mongostore"
	"mynature/internal/store/pgstore"
	"mynature/internal/store/redisstore"
)

type backend interface {
	Products() store.ProductRepository
	Categories() store.CategoryRepository
	Orders() store.OrderRepository
	Admins() store.AdminRepository
	Sessions() store.SessionRepository
}

type app struct {
	catalog *service.CatalogService
	orders  *service.OrderService
	auth    *service.AuthService
}

func main() {
	config.Load()
	cfg := config.AppEnv

	logger.Initialize(cfg.AppEnv)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("configuration rejected", zap.Error(err))
	}

	db, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Log.Fatal("store unavailable", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	sessions := db.Sessions()
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("redis unavailable", zap.Error(err))
		}
		defer client.Close()
		sessions = redisstore.NewSessionRepository(client)
	}

	verifier, err := credentialVerifier(cfg, db.Admins())
	if err != nil {
		logger.Log.Fatal("admin credentials rejected", zap.Error(err))
	}

	auth, err := service.NewAuthService(verifier, sessions, sessionSecret(cfg), cfg.SessionTTL)
	if err != nil {
		logger.Log.Fatal("auth service", zap.Error(err))
	}

	a := &app{
		catalog: service.NewCatalogService(db.Products(), db.Categories()),
		orders:  service.NewOrderService(db.Orders(), orderPublisher(cfg)),
		auth:    auth,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(cfg config.Config) (backend, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return pgstore.New(db), closeFn, nil

	case config.DriverMemory:
		logger.Log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil

	default:
		client, err := database.Connect(cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.DBName)

		if err := database.EnsureProductIndexes(db); err != nil {
			logger.Log.Warn("product index warning", zap.Error(err))
		}
		if err := database.EnsureOrderIndexes(db); err != nil {
			logger.Log.Warn("order index warning", zap.Error(err))
		}
		if err := database.EnsureAdminIndexes(db); err != nil {
			logger.Log.Warn("admin index warning", zap.Error(err))
		}

		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		return mongostore.New(db), closeFn, nil
	}
}

func credentialVerifier(cfg config.Config, admins store.AdminRepository) (service.CredentialVerifier, error) {
	if cfg.CredentialSource == config.CredentialSourceEnv {
		return service.NewStaticVerifier(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.AdminName)
	}
	return service.NewStoreVerifier(admins), nil
}

// sessionSecret falls back to a random per-process secret in development,
// which logs every admin out on restart.
func sessionSecret(cfg config.Config) []byte {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		logger.Log.Fatal("generate session secret", zap.Error(err))
	}
	logger.Log.Warn("SESSION_SECRET not set, using a random secret for this process")
	return secret
}

func orderPublisher(cfg config.Config) events.Publisher {
	if cfg.OrderEventsTopicARN == "" {
		return events.LogPublisher{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	publisher, err := events.NewSNSPublisher(ctx, cfg.OrderEventsTopicARN, cfg.AWSEndpoint)
	if err != nil {
		logger.Log.Error("sns publisher unavailable, logging order events instead", zap.Error(err))
		return events.LogPublisher{}
	}
	return publisher
}

func newRouter(cfg config.Config, a *app) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.AdminPages(a.auth))

	secure := cfg.IsProduction()
	loginLimiter := middleware.PerMinute(cfg.LoginRatePerMinute, cfg.LoginBurst)

	r.GET("/", handlers.Home())
	r.GET("/health", handlers.Health())
	for route, file := range handlers.AdminPages {
		r.GET(route, handlers.AdminPage(cfg.AdminUIDir, file))
	}
	r.Static("/admin/assets", cfg.AdminUIDir+"/assets")

	api := r.Group("/api")
	{
		api.GET("/products", handlers.GetProducts(a.catalog))
		api.GET("/categories", handlers.GetCategories(a.catalog))
		api.POST("/orders", handlers.CreateOrder(a.orders))

		for _, prefix := range []string{"/admin", "/auth"} {
			api.POST(prefix+"/login", loginLimiter.Middleware(), handlers.AdminLogin(a.auth, secure))
			api.POST(prefix+"/logout", handlers.AdminLogout(a.auth, secure))
			api.GET(prefix+"/session", handlers.AdminSession(a.auth))
		}
	}

	admin := api.Group("")
	admin.Use(middleware.AdminAuth(a.auth))
	{
		admin.GET("/orders", handlers.ListOrders(a.orders))
		admin.GET("/orders/:id", handlers.GetOrder(a.orders))
		admin.PUT("/orders/:id", handlers.UpdateOrder(a.orders))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(a.orders))
		admin.GET("/admin/stats", handlers.GetOrderStats(a.orders))
	}

	return r
}
