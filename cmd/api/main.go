package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dentaheal/booking-api/internal/config"
	"github.com/dentaheal/booking-api/internal/handlers"
	"github.com/dentaheal/booking-api/internal/middleware"
	"github.com/dentaheal/booking-api/internal/models"
	"github.com/dentaheal/booking-api/internal/scheduler"
	"github.com/dentaheal/booking-api/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("load config")
	}

	log := newLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting api")

	// --- Database Connection ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDatabase)
	if err := handlers.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("create indexes")
	}
	log.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")

	// --- Services ---
	mailer := services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.ReminderRecipient)
	reminders := services.NewReminderService(scheduler.New(), mailer, log)

	h := handlers.NewHandler(db, reminders, cfg.JWTSecret, log)

	// --- Gin Router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// --- Routes ---
	v1 := r.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
		authRoutes.GET("/me", middleware.Protect(cfg.JWTSecret), h.Me)
	}

	dentistRoutes := v1.Group("/dentists")
	{
		dentistRoutes.GET("", h.GetDentists)
		dentistRoutes.POST("", h.CreateDentist)
		dentistRoutes.GET("/:id", h.GetDentist)
		dentistRoutes.PUT("/:id", h.UpdateDentist)
		dentistRoutes.DELETE("/:id", h.DeleteDentist)

		// Nested booking routes, scoped to one dentist.
		dentistRoutes.GET("/:id/bookings", middleware.Protect(cfg.JWTSecret), h.GetBookings)
		dentistRoutes.POST("/:id/bookings",
			middleware.Protect(cfg.JWTSecret),
			middleware.Authorize(models.RoleAdmin, models.RoleUser),
			h.CreateBooking)
	}

	bookingRoutes := v1.Group("/bookings")
	bookingRoutes.Use(middleware.Protect(cfg.JWTSecret))
	{
		bookingRoutes.GET("", h.GetBookings)
		bookingRoutes.GET("/:id", h.GetBooking)
		bookingRoutes.PUT("/:id", middleware.Authorize(models.RoleAdmin, models.RoleUser), h.UpdateBooking)
		bookingRoutes.DELETE("/:id", middleware.Authorize(models.RoleAdmin, models.RoleUser), h.DeleteBooking)
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
