package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ammar1510/voicelink/internal/api"
	"github.com/ammar1510/voicelink/internal/audio"
	"github.com/ammar1510/voicelink/internal/auth"
	"github.com/ammar1510/voicelink/internal/chat"
	"github.com/ammar1510/voicelink/internal/push"
	"github.com/ammar1510/voicelink/internal/realtime"
	"github.com/ammar1510/voicelink/internal/store"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Set Gin mode based on environment
	env := os.Getenv("ENV")
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize JWT key from environment variable
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	auth.InitJWTKey([]byte(jwtSecret))

	// Access key guarding the local API
	accessKeyHash := os.Getenv("ACCESS_KEY_HASH")
	if accessKeyHash == "" {
		accessKey := os.Getenv("ACCESS_KEY")
		if accessKey == "" {
			log.Fatal("Set ACCESS_KEY_HASH or ACCESS_KEY")
		}
		var err error
		accessKeyHash, err = auth.HashAccessKey(accessKey)
		if err != nil {
			log.Fatalf("Failed to hash access key: %v", err)
		}
	}

	// The user this daemon runs as
	uid := os.Getenv("VOICELINK_UID")
	if uid == "" {
		log.Fatal("VOICELINK_UID environment variable is required")
	}

	// Determine store type from environment (default to PostgreSQL)
	storeTypeStr := os.Getenv("STORE_TYPE")
	if storeTypeStr == "" {
		storeTypeStr = "postgres"
	}
	storeType := store.StoreType(storeTypeStr)

	// Get connection string
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		// Fallback to individual connection parameters if DATABASE_URL not set
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		dbName := os.Getenv("DB_NAME")
		dbUser := os.Getenv("DB_USER")
		dbPass := os.Getenv("DB_PASSWORD")

		if dbHost == "" || dbName == "" || dbUser == "" {
			log.Fatal("Database connection details missing. Set DATABASE_URL or individual DB_* variables")
		}

		dbURL = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			dbUser, dbPass, dbHost, dbPort, dbName,
		)
	}

	// Create store connection using factory
	remoteStore, err := store.NewStore(storeType, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to store: %v", err)
	}
	defer remoteStore.Close()
	log.Printf("Connected to %s store successfully", storeType)

	// Blob storage for audio clips
	blobURL := os.Getenv("BLOB_STORE_URL")
	if blobURL == "" {
		log.Fatal("BLOB_STORE_URL environment variable is required")
	}
	blob := store.NewHTTPBlobStore(blobURL, os.Getenv("BLOB_STORE_KEY"))

	// Change feed: websocket by default, NATS when configured
	var feed realtime.Feed
	feedURL := os.Getenv("FEED_URL")
	if feedURL != "" {
		feedTypeStr := os.Getenv("FEED_TYPE")
		if feedTypeStr == "" {
			feedTypeStr = "websocket"
		}
		feed, err = realtime.NewFeed(realtime.FeedType(feedTypeStr), feedURL)
		if err != nil {
			log.Fatalf("Failed to connect to change feed: %v", err)
		}
		defer feed.Close()
		log.Printf("Connected to %s change feed", feedTypeStr)
	} else {
		log.Println("Warning: FEED_URL not set, running without live updates")
	}

	// Push notifications are optional
	var sender push.Sender
	if appID := os.Getenv("ONESIGNAL_APP_ID"); appID != "" {
		sender = push.NewOneSignalSender(appID, os.Getenv("ONESIGNAL_API_KEY"))
	}

	player := audio.NewLocalPlayer(os.Getenv("PLAYBACK_COMMAND"))

	session := chat.NewSession(chat.SessionConfig{
		Store:  remoteStore,
		Blob:   blob,
		Feed:   feed,
		Push:   sender,
		Player: player,
	})

	var pushTokens []string
	if tokens := os.Getenv("PUSH_TOKENS"); tokens != "" {
		pushTokens = strings.Split(tokens, ",")
	}
	if err := session.Initialize(uid, pushTokens); err != nil {
		log.Fatalf("Failed to initialize session: %v", err)
	}
	defer session.Teardown()

	// Initialize router with default middleware (logger and recovery)
	router := gin.Default()

	// Configure CORS using environment variable
	allowedOriginsStr := os.Getenv("ALLOWED_ORIGINS")
	allowedOrigins := strings.Split(allowedOriginsStr, ",")

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.RegisterRoutes(router, &api.Handlers{
		Auth:          api.NewAuthHandler(session, accessKeyHash),
		Conversations: api.NewConversationHandler(session),
		Friends:       api.NewFriendHandler(session),
		Push:          api.NewPushHandler(session.Push),
	})

	// Add health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Get server port from environment variable or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Configure HTTP server
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Local API listening on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	// Give the server 5 seconds to finish processing remaining requests
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Daemon exited properly")
}
