package server

import (
	"errors"
	"time"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/upload"
	"storefront/internal/validation"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"gorm.io/gorm"
)

// NewApp wires repositories, services and handlers into a Fiber app.
// Uploaded images are stored on fs; events may be nil.
func NewApp(cfg *config.Config, db *gorm.DB, fs afero.Fs, events services.EventPublisher) (*fiber.App, *services.AuthService) {
	// Repositories
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	validator := validation.New()
	images := upload.NewHandler(fs, upload.Config{
		Root:             cfg.Upload.Dir,
		MaxBytes:         cfg.Upload.MaxBytes,
		KeepOriginalName: cfg.Upload.KeepOriginalName,
	})

	// Services
	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	productService := services.NewProductService(productRepo, validator, images, events)
	categoryService := services.NewCategoryService(categoryRepo, validator)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, validator)
	productHandler := handlers.NewProductHandler(productService, images)
	categoryHandler := handlers.NewCategoryHandler(categoryService)

	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		BodyLimit:    int(cfg.Upload.MaxBytes) + 1<<20,
		ErrorHandler: errorHandler,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(metrics.Handler())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	api := app.Group("/api")
	authRequired := middleware.AuthRequired(authService, cfg.Auth.Header)

	authHandler.RegisterRoutes(api)
	productHandler.RegisterRoutes(api, authRequired)
	categoryHandler.RegisterRoutes(api, authRequired)

	return app, authService
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		logger.Error(c.UserContext()).Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	return c.Status(code).JSON(fiber.Map{"message": message})
}
