package main

import (
	"context"
	"fmt"
	"log"

	"github.com/anonto42/nastani/backend/internal/handlers"
	"github.com/anonto42/nastani/backend/internal/repositories"
	"github.com/anonto42/nastani/backend/internal/router"
	"github.com/anonto42/nastani/backend/pkg/config"
	"github.com/anonto42/nastani/backend/pkg/firebase"
	"github.com/anonto42/nastani/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Initialize Firebase
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseProjectID, cfg.FirebaseStorageBucket)
	if err != nil {
		if cfg.PostStore == "firestore" {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		log.Printf("Firebase unavailable, continuing without it: %v", err)
		firebaseApp = nil
	}
	if firebaseApp != nil {
		defer firebaseApp.Close()
	}

	postRepo, err := newPostRepository(ctx, cfg, db, firebaseApp)
	if err != nil {
		log.Fatalf("Failed to initialize post store: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler

	// Setup global middleware
	config.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db.Postgres, postRepo, firebaseApp)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

// newPostRepository picks the post store named by POST_STORE.
func newPostRepository(ctx context.Context, cfg *config.Config, db *config.DB, fb *firebase.App) (repositories.PostRepository, error) {
	switch cfg.PostStore {
	case "firestore":
		log.Println("Posts are stored in Firestore.")
		return repositories.NewFirestorePostRepository(fb.Firestore), nil
	case "mongo":
		repo := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		log.Printf("Posts are stored in MongoDB database %q.", cfg.MongoDatabase)
		return repo, nil
	case "memory":
		log.Println("Posts are stored in memory and will not survive a restart.")
		return repositories.NewMemoryPostRepository(), nil
	}
	return nil, fmt.Errorf("unknown POST_STORE %q (want firestore, mongo or memory)", cfg.PostStore)
}
