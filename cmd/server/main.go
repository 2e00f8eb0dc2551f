package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/recipe-catalog/internal/config"
	"github.com/yukikurage/recipe-catalog/internal/constants"
	"github.com/yukikurage/recipe-catalog/internal/database"
	apierrors "github.com/yukikurage/recipe-catalog/internal/errors"
	"github.com/yukikurage/recipe-catalog/internal/handlers"
	"github.com/yukikurage/recipe-catalog/internal/logging"
	"github.com/yukikurage/recipe-catalog/internal/middleware"
	"github.com/yukikurage/recipe-catalog/internal/repository"
	"github.com/yukikurage/recipe-catalog/internal/services"
	"github.com/yukikurage/recipe-catalog/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.GinMode != gin.ReleaseMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}

	// Run migrations
	if err := database.Migrate(db, logger); err != nil {
		return err
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(logger), gin.Recovery())

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	// pool size 10, default user, no password
	store, err := redisStore.NewStore(10, "tcp", redisAddr, "", "", []byte(cfg.SessionSecret))
	if err != nil {
		return fmt.Errorf("failed to create Redis store: %w", err)
	}
	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize services and handlers
	repos := repository.NewStore(db)
	authService := services.NewAuthService(repos.Users(), logger)
	recipeService := services.NewRecipeService(repos, blobs, logger)

	authHandler := handlers.NewAuthHandler(authService, logger)
	recipeHandler := handlers.NewRecipeHandler(recipeService, authService, logger)

	if disk, ok := blobs.(*storage.DiskStore); ok {
		r.Static("/uploads", disk.Dir())
	}

	// Health check endpoint
	r.GET("/health", healthHandler(db))

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Recipe routes
		recipes := api.Group("/recipes")
		{
			recipes.GET("", recipeHandler.ListRecipes)
			recipes.GET("/search", recipeHandler.SearchRecipes)
			recipes.GET("/:id", middleware.RequireRecipeID(), recipeHandler.GetRecipe)
			recipes.POST("", middleware.RequireAuth(), recipeHandler.CreateRecipe)
			recipes.DELETE("/:id", middleware.RequireAuth(), middleware.RequireRecipeID(), recipeHandler.DeleteRecipe)
		}

		api.GET("/categories/:name/recipes", recipeHandler.ListCategoryRecipes)
		api.GET("/users/:id/recipes", recipeHandler.ListUserRecipes)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.BlobBackend {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
			Prefix:    cfg.S3Prefix,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
		})
	case "disk":
		return storage.NewDiskStore(cfg.UploadDir, "/uploads")
	default:
		return nil, fmt.Errorf("unsupported blob backend %q", cfg.BlobBackend)
	}
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			apierrors.ServiceUnavailable(c, "Database unavailable")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Recipe Catalog API is running",
		})
	}
}
