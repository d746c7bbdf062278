package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/cotador/backend/internal/application/catalog"
	partnerapp "github.com/cotador/backend/internal/application/partner"
	quotationapp "github.com/cotador/backend/internal/application/quotation"
	reconapp "github.com/cotador/backend/internal/application/reconciliation"
	"github.com/cotador/backend/internal/domain/reconciliation"
	"github.com/cotador/backend/internal/infrastructure/config"
	"github.com/cotador/backend/internal/infrastructure/logger"
	"github.com/cotador/backend/internal/infrastructure/persistence"
	"github.com/cotador/backend/internal/interfaces/http/handler"
	"github.com/cotador/backend/internal/interfaces/http/middleware"
	"github.com/cotador/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting cotador backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	quotationRepo := persistence.NewGormQuotationRepository(db.DB)

	// Application services
	matcher := reconciliation.NewMatcherWithThresholds(
		cfg.Matching.AcceptanceThreshold,
		cfg.Matching.ExactCutoff,
	)
	sessionService := reconapp.NewSessionService(productRepo, supplierRepo, matcher, log)
	commitService := reconapp.NewCommitService(sessionService, quotationRepo, productRepo, supplierRepo, log)
	quotationService := quotationapp.NewService(quotationRepo, productRepo, log)
	productService := catalogapp.NewProductService(productRepo)
	supplierService := partnerapp.NewSupplierService(supplierRepo)

	// Handlers
	reconciliationHandler := handler.NewReconciliationHandler(sessionService, commitService)
	quotationHandler := handler.NewQuotationHandler(quotationService)
	productHandler := handler.NewProductHandler(productService)
	supplierHandler := handler.NewSupplierHandler(supplierService, quotationService)
	systemHandler := handler.NewSystemHandler(db)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(logger.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Reconciliation sessions: ingest, review, item operations, commit
	reconciliationRoutes := router.NewDomainGroup("reconciliation", "/reconciliation")
	reconciliationRoutes.POST("/sessions", reconciliationHandler.Create)
	reconciliationRoutes.GET("/sessions/:id", reconciliationHandler.Get)
	reconciliationRoutes.GET("/sessions/:id/review", reconciliationHandler.Review)
	reconciliationRoutes.DELETE("/sessions/:id", reconciliationHandler.Discard)
	reconciliationRoutes.PUT("/sessions/:id/exchange-rate", reconciliationHandler.SetExchangeRate)
	reconciliationRoutes.POST("/sessions/:id/items/:item_id/link", reconciliationHandler.LinkItem)
	reconciliationRoutes.POST("/sessions/:id/items/:item_id/accept", reconciliationHandler.AcceptSuggestion)
	reconciliationRoutes.POST("/sessions/:id/items/:item_id/unlink", reconciliationHandler.UnlinkItem)
	reconciliationRoutes.POST("/sessions/:id/items/:item_id/rematch", reconciliationHandler.RematchItem)
	reconciliationRoutes.POST("/sessions/:id/items/:item_id/duplicate", reconciliationHandler.DuplicateItem)
	reconciliationRoutes.PATCH("/sessions/:id/items/:item_id", reconciliationHandler.EditItem)
	reconciliationRoutes.DELETE("/sessions/:id/items/:item_id", reconciliationHandler.RemoveItem)
	reconciliationRoutes.GET("/sessions/:id/commit-plan", reconciliationHandler.CommitPlan)
	reconciliationRoutes.POST("/sessions/:id/commit", reconciliationHandler.Commit)

	// Quotations
	quotationRoutes := router.NewDomainGroup("quotation", "/quotations")
	quotationRoutes.GET("", quotationHandler.List)
	quotationRoutes.GET("/:id", quotationHandler.GetByID)
	quotationRoutes.POST("/:id/close", quotationHandler.Close)
	quotationRoutes.POST("/:id/items", quotationHandler.AddItem)
	quotationRoutes.PATCH("/:id", quotationHandler.UpdateTerms)

	// Catalog
	catalogRoutes := router.NewDomainGroup("catalog", "/catalog")
	catalogRoutes.GET("/products/search", productHandler.Search)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)

	// Partners
	partnerRoutes := router.NewDomainGroup("partner", "/partners")
	partnerRoutes.GET("/suppliers", supplierHandler.List)
	partnerRoutes.GET("/suppliers/:id", supplierHandler.GetByID)
	partnerRoutes.GET("/suppliers/:id/active-quotation", supplierHandler.GetActiveQuotation)

	// System
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/health", systemHandler.Health)
	systemRoutes.GET("/info", systemHandler.Info)

	r.Register(reconciliationRoutes).
		Register(quotationRoutes).
		Register(catalogRoutes).
		Register(partnerRoutes).
		Register(systemRoutes)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
