package services

import (
	"context"

	"github.com/vitatrack/vitatrack-backend/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes configures the indexes the query paths rely on.
// Called on startup from main after Mongo has connected.
func EnsureIndexes(ctx context.Context) error {
	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "recipient", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_recipient_created"),
		},
		{
			Keys: bson.D{
				{Key: "sender", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_sender_created"),
		},
		{
			Keys: bson.D{
				{Key: "type", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_type_created"),
		},
	}
	if _, err := database.DB.Collection(database.MessagesCollection).Indexes().CreateMany(ctx, messageIndexes); err != nil {
		return err
	}

	activityIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user", Value: 1},
				{Key: "date", Value: -1},
			},
			Options: options.Index().SetName("idx_user_date"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: -1}},
			Options: options.Index().SetName("idx_date"),
		},
	}
	if _, err := database.DB.Collection(database.ActivitiesCollection).Indexes().CreateMany(ctx, activityIndexes); err != nil {
		return err
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_email_unique").SetUnique(true),
		},
	}
	if _, err := database.DB.Collection(database.UsersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return err
	}

	return nil
}
