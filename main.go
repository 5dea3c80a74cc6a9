package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/zone-orders-api/config"
	"github.com/kendall-kelly/zone-orders-api/controllers"
	"github.com/kendall-kelly/zone-orders-api/middleware"
	"github.com/kendall-kelly/zone-orders-api/models"
	"github.com/kendall-kelly/zone-orders-api/notifications"
	"github.com/kendall-kelly/zone-orders-api/services"
	"github.com/kendall-kelly/zone-orders-api/utils"
)

func main() {
	log.Println("Starting Zone Orders API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(&models.Zone{}, &models.Shop{}, &models.MenuItem{}, &models.Order{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifications.DispatchTimeout = cfg.NotifyTimeout
	notifier, closers := buildNotifier(ctx, cfg)
	defer closeAll(closers)

	var receipts services.ReceiptArchive
	if cfg.AWSS3Bucket != "" {
		archive, err := services.NewS3ReceiptArchive(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize receipt archive: %v", err)
		}
		receipts = archive
		log.Printf("Archiving receipts to s3://%s", cfg.AWSS3Bucket)
	}

	services.InitOrderServices(services.Deps{
		Store:    services.NewGormOrderStore(db),
		Catalog:  services.NewGormCatalog(db),
		Notifier: notifier,
		Receipts: receipts,
		Pricing: utils.PricingPolicy{
			TaxRate:        cfg.TaxRate,
			ServiceFeeRate: cfg.ServiceFeeRate,
		},
		DefaultPrepTime:        cfg.DefaultPrepTimeMinutes,
		OrderNumberMaxAttempts: cfg.OrderNumberMaxAttempts,
		RecomputeMaxAttempts:   cfg.RecomputeMaxAttempts,
	})

	router := setupRouter(middleware.EnsureValidToken(cfg), cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server is running on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}

// setupRouter builds the HTTP API. auth authenticates the order routes.
func setupRouter(auth gin.HandlerFunc, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), cors.New(corsConfig(allowedOrigins)))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		controllers.RegisterOrderRoutes(v1, auth)
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = allowedOrigins
	}
	return c
}

// buildNotifier fans notifications out to every configured transport. Transports that
// fail to connect are skipped. With none configured, notifications are only logged.
func buildNotifier(ctx context.Context, cfg *config.Config) (notifications.Notifier, []io.Closer) {
	var (
		fanout  notifications.Fanout
		closers []io.Closer
	)

	if cfg.RedisAddr != "" {
		r, err := notifications.DialRedis(ctx, cfg.RedisAddr, cfg.RedisChannelPrefix)
		if err != nil {
			log.Printf("warning: redis notifications disabled: %v", err)
		} else {
			fanout = append(fanout, r)
			closers = append(closers, r)
			log.Printf("Publishing notifications to redis at %s", cfg.RedisAddr)
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		k := notifications.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		fanout = append(fanout, k)
		closers = append(closers, k)
		log.Printf("Publishing notifications to kafka topic %s", cfg.KafkaTopic)
	}

	if cfg.AMQPURL != "" {
		a, err := notifications.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("warning: amqp notifications disabled: %v", err)
		} else {
			fanout = append(fanout, a)
			closers = append(closers, a)
			log.Printf("Publishing notifications to amqp exchange %s", cfg.AMQPExchange)
		}
	}

	if len(fanout) == 0 {
		log.Println("No notification transport configured, logging notifications only")
		return notifications.LogNotifier{}, nil
	}
	return fanout, closers
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Printf("warning: failed to close notifier: %v", err)
		}
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Zone Orders API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not configured",
			},
		})
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
