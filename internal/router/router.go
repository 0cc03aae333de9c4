package router

import (
	"log"
	"net/http"

	"github.com/anonto42/nastani/backend/internal/handlers"
	"github.com/anonto42/nastani/backend/internal/location"
	"github.com/anonto42/nastani/backend/internal/middleware"
	"github.com/anonto42/nastani/backend/internal/models"
	"github.com/anonto42/nastani/backend/internal/ratelimit"
	"github.com/anonto42/nastani/backend/internal/repositories"
	"github.com/anonto42/nastani/backend/internal/services"
	"github.com/anonto42/nastani/backend/internal/uploads"
	"github.com/anonto42/nastani/backend/pkg/config"
	"github.com/anonto42/nastani/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes and injects dependencies.
// fb may be nil when Firebase is not configured; Firebase tokens and image
// uploads are then unavailable.
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, postRepo repositories.PostRepository, fb *firebase.App) {
	if err := pgdb.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	totalMode, err := services.ParseTotalMode(cfg.PaginationTotal)
	if err != nil {
		log.Fatalf("Invalid PAGINATION_TOTAL: %v", err)
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories and Services ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	postService := services.NewPostService(postRepo, totalMode)

	verifiers := []middleware.TokenVerifier{middleware.JWTVerifier{Secret: cfg.JWTSecret}}
	var firebaseAuth handlers.IDTokenVerifier
	if fb != nil {
		verifiers = append(verifiers, middleware.FirebaseVerifier{Client: fb.AuthClient})
		firebaseAuth = fb.AuthClient
	}
	requireAuth := middleware.Authenticate(true, verifiers...)
	throttle := middleware.ActionRateLimiter(ratelimit.NewWindow(cfg.ActionRateLimit, cfg.ActionRateWindow))

	// --- Unprotected routes for authentication ---
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuth, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(e.Group("/api/auth"))
	log.Println("Auth routes configured.")

	api := e.Group("/api")
	api.GET("/categories", handlers.GetCategories)

	// Post routes
	postHandler := handlers.NewPostHandler(postService)
	postHandler.RegisterPostRoutes(api, requireAuth, throttle)
	log.Printf("Post routes configured (edits limited to %d per %s).", cfg.ActionRateLimit, cfg.ActionRateWindow)

	// Profile routes
	profileHandler := handlers.NewProfileHandler(userRepo, postService)
	profileHandler.RegisterProfileRoutes(api, requireAuth)
	log.Println("Profile routes configured.")

	// Location routes
	geocoder := location.NewNominatimClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, &http.Client{Timeout: location.DetectTimeout})
	locationHandler := handlers.NewLocationHandler(geocoder)
	locationHandler.RegisterLocationRoutes(api)
	log.Println("Location routes configured.")

	// Upload routes
	if fb != nil && fb.Bucket != nil {
		uploader := uploads.NewUploader(uploads.NewGCSBucket(fb.Bucket, fb.BucketName), cfg.MaxUploadBytes)
		uploadHandler := handlers.NewUploadHandler(uploader)
		uploadHandler.RegisterUploadRoutes(api, requireAuth)
		log.Println("Upload routes configured.")
	} else {
		log.Println("No storage bucket configured, upload routes disabled.")
	}

	log.Println("All routes configured.")
}
