package handlers

import (
	"context"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dentaheal/booking-api/internal/services"
)

// Handler carries the shared dependencies of every route: the database, the
// reminder service and the signing secret for issued tokens.
type Handler struct {
	DB        *mongo.Database
	Reminders *services.ReminderService
	JWTSecret string
	Log       zerolog.Logger
}

func NewHandler(db *mongo.Database, reminders *services.ReminderService, jwtSecret string, log zerolog.Logger) *Handler {
	return &Handler{
		DB:        db,
		Reminders: reminders,
		JWTSecret: jwtSecret,
		Log:       log,
	}
}

// EnsureIndexes creates the unique indexes the validation rules rely on:
// dentist names and user emails must be unique.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("dentists").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
