package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/PrabuPro/restaurant-web-app/internal/handlers"
	"github.com/PrabuPro/restaurant-web-app/internal/images"
	"github.com/PrabuPro/restaurant-web-app/internal/middleware"
	"github.com/PrabuPro/restaurant-web-app/internal/models"
	"github.com/PrabuPro/restaurant-web-app/internal/repositories"
	"github.com/PrabuPro/restaurant-web-app/internal/search"
	"github.com/PrabuPro/restaurant-web-app/internal/services"
	"github.com/PrabuPro/restaurant-web-app/pkg/mailer"
	"github.com/PrabuPro/restaurant-web-app/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":7777")
	viper.SetDefault("UPLOADS_DIR", "./public/uploads")
	viper.SetDefault("VIEWS_DIR", "./views")
	viper.SetDefault("SMTP_HOST", "localhost")
	viper.SetDefault("SMTP_PORT", 1025)
	viper.SetDefault("MAIL_FROM", "noreply@restaurant.local")
	viper.AutomaticEnv()

	dsn := viper.GetString("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}
	jwtSecret := viper.GetString("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// --- Database ---
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Tag{}, &models.Store{}, &models.Review{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ (optional) ---
	var mqClient *rabbitmq.Client
	if rabbitURL := viper.GetString("RABBITMQ_URL"); rabbitURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: rabbitURL})
		if err != nil {
			log.Printf("RabbitMQ unavailable, events will not be published: %v", err)
			mqClient = nil
		} else {
			defer mqClient.Close()
		}
	}

	// --- Search Index ---
	index, err := search.New()
	if err != nil {
		log.Fatalf("Failed to create search index: %v", err)
	}

	// --- Uploads ---
	photos, err := images.NewProcessor(viper.GetString("UPLOADS_DIR"))
	if err != nil {
		log.Fatalf("Failed to prepare uploads directory: %v", err)
	}

	// --- Mail ---
	mail := mailer.NewSMTP(
		viper.GetString("SMTP_HOST"),
		viper.GetInt("SMTP_PORT"),
		viper.GetString("SMTP_USER"),
		viper.GetString("SMTP_PASS"),
		viper.GetString("MAIL_FROM"),
	)

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	storeRepo := repositories.NewGORMStoreRepository(db)
	reviewRepo := repositories.NewGORMReviewRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, mail, jwtSecret)
	storeService := services.NewStoreService(storeRepo, userRepo, index, mqClient)
	reviewService := services.NewReviewService(reviewRepo, storeRepo, mqClient)

	// The index lives in memory, so rebuild it from the database on boot.
	if err := storeService.RebuildIndex(); err != nil {
		log.Fatalf("Failed to build search index: %v", err)
	}

	// --- Sessions ---
	sessions := session.New()

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, sessions)
	storeHandler := handlers.NewStoreHandler(storeService, photos, sessions)
	reviewHandler := handlers.NewReviewHandler(reviewService, sessions)

	// --- Fiber App ---
	app := fiber.New(fiber.Config{
		Views:        handlers.NewViewEngine(viper.GetString("VIEWS_DIR")),
		ErrorHandler: errorHandler(),
	})

	app.Use(logger.New())
	app.Static("/public", "./public")

	requireAuth := middleware.AuthRequired(sessions, authService)
	authHandler.RegisterRoutes(app, requireAuth)
	storeHandler.RegisterRoutes(app, requireAuth)
	reviewHandler.RegisterRoutes(app, requireAuth)

	// --- Event Consumer ---
	if mqClient != nil {
		go func() {
			log.Println("Starting event consumer...")
			handler := func(msg amqp.Delivery) error {
				log.Printf("Received event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumeErr := mqClient.ConsumeEvents(handler); consumeErr != nil {
				log.Printf("Failed to start event consumer: %v", consumeErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	appPort := viper.GetString("APP_PORT")
	log.Printf("Starting server on %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// errorHandler renders the error page for browser routes and returns JSON
// for the API. Unexpected errors are logged and reported as a 500.
func errorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Something went wrong"
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}
		if code == fiber.StatusInternalServerError {
			log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(code).JSON(fiber.Map{"message": message})
		}
		return c.Status(code).Render("error", fiber.Map{
			"Title":   fmt.Sprintf("%d", code),
			"Message": message,
		})
	}
}
