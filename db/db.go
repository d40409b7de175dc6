package db

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	AccountsCollection   *mongo.Collection
	CategoriesCollection *mongo.Collection
	ProductsCollection   *mongo.Collection
	OrdersCollection     *mongo.Collection
	CountersCollection   *mongo.Collection
	Client               *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("kirana")
	AccountsCollection = database.Collection("accounts")
	CategoriesCollection = database.Collection("categories")
	ProductsCollection = database.Collection("products")
	OrdersCollection = database.Collection("orders")
	CountersCollection = database.Collection("counters")

	EnsureIndexes()
}

// EnsureIndexes creates the unique and lookup indexes the handlers rely on.
// The unique index on order_number is the backstop for order number
// collisions under concurrent checkouts.
func EnsureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)

	_, err := AccountsCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "verification_token", Value: 1}}},
		{Keys: bson.D{{Key: "password_reset_token", Value: 1}}},
	})
	if err != nil {
		log.Printf("accounts index error: %v", err)
	}

	_, err = CategoriesCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
	})
	if err != nil {
		log.Printf("categories index error: %v", err)
	}

	_, err = ProductsCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "productid", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "category_id", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
	})
	if err != nil {
		log.Printf("products index error: %v", err)
	}

	_, err = OrdersCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderid", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "order_number", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "customer_info.email", Value: 1}}},
		{Keys: bson.D{{Key: "customer_info.phone", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "ordered_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "ordered_at", Value: -1}}},
	})
	if err != nil {
		log.Printf("orders index error: %v", err)
	}
}
