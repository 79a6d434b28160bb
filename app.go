package main

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agrimarket/models"
)

type App struct {
	cfg     Config
	mongo   *mongo.Client
	db      *mongo.Database
	users   *mongo.Collection
	crops   *mongo.Collection
	reports *mongo.Collection

	// Store-backed lookups consumed by the auth middleware and the report
	// pipeline. Function values so tests can stub them.
	findUser         func(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	fetchActiveCrops func(ctx context.Context) ([]models.Crop, error)
}

func newApp(ctx context.Context, cfg Config) (*App, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB)

	app := &App{
		cfg:     cfg,
		mongo:   client,
		db:      db,
		users:   db.Collection("users"),
		crops:   db.Collection("crops"),
		reports: db.Collection("reports"),
	}
	app.findUser = func(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
		var u models.User
		if err := app.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
			return nil, err
		}
		return &u, nil
	}
	app.fetchActiveCrops = func(ctx context.Context) ([]models.Crop, error) {
		cur, err := app.crops.Find(ctx, bson.M{"isActive": true})
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)
		var crops []models.Crop
		if err := cur.All(ctx, &crops); err != nil {
			return nil, err
		}
		return crops, nil
	}
	// Indexes
	if _, err := app.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, err
	}
	if _, err := app.crops.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, err
	}
	if _, err := app.crops.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return nil, err
	}
	if _, err := app.reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "generatedBy", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return nil, err
	}

	return app, nil
}

func (a *App) close(ctx context.Context) { _ = a.mongo.Disconnect(ctx) }
