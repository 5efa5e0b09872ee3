package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/prometheus/client_golang/prometheus"

	"santaAPI/handlers"
	"santaAPI/internal/config"
	"santaAPI/internal/database"
	"santaAPI/internal/repository"
	"santaAPI/internal/storage"
	"santaAPI/middleware"
	"santaAPI/services"

	_ "net/http/pprof"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	log.Println("Clerk initialized successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbPool, err := database.NewPool(initCtx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatal("Failed to connect to database: ", err)
	}
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()
	log.Println("Successfully connected to Postgres")

	if cfg.MigrateOnStart {
		if err := database.Migrate(initCtx, dbPool); err != nil {
			cancel()
			log.Fatal("Failed to apply schema: ", err)
		}
	}

	images, err := newImageStorage(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal("Failed to initialize image storage: ", err)
	}

	middleware.InitPrometheus(prometheus.DefaultRegisterer)
	services.RegisterMetrics(prometheus.DefaultRegisterer)

	txManager := database.NewTxManager(dbPool)
	challengeRepo := repository.NewChallengeRepository(dbPool)

	challengeService := services.NewChallengeService(
		txManager,
		repository.NewCategoryRepository(dbPool),
		challengeRepo,
		images,
	)
	userChallengeService := services.NewUserChallengeService(
		txManager,
		repository.NewUserRepository(dbPool),
		repository.NewUserMountainRepository(dbPool),
		repository.NewMeetingRepository(dbPool),
		challengeRepo,
		repository.NewUserChallengeRepository(dbPool),
	)

	limiter := middleware.NewRateLimiter(5, 30)
	go limiter.Cleanup(ctx)

	router := newRouter(routerDeps{
		db:                   dbPool,
		challengeHandler:     handlers.NewChallengeHandler(challengeService),
		userChallengeHandler: handlers.NewUserChallengeHandler(userChallengeService),
		limiter:              limiter,
	})

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withCORS(withAccessLog(router)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func newImageStorage(ctx context.Context, cfg *config.Config) (services.ImageUploader, error) {
	switch cfg.ImageStorage {
	case config.ImageStorageS3:
		s3cfg := storage.NewS3ConfigFromEnv()
		log.Printf("Image storage: S3 bucket %s at %s", s3cfg.Bucket, s3cfg.Endpoint)
		s3Storage, err := storage.NewS3ImageStorage(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		return s3Storage, nil
	default:
		log.Printf("Image storage: Firebase bucket %s", cfg.FirebaseStorageBucket)
		fbStorage, err := storage.NewFirebaseImageStorage(ctx, cfg.FirebaseStorageBucket, cfg.FirebaseCredentialFile)
		if err != nil {
			return nil, err
		}
		return fbStorage, nil
	}
}
