package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

const (
	ImageStorageFirebase = "firebase"
	ImageStorageS3       = "s3"
)

type Config struct {
	DatabaseURL            string
	ClerkSecretKey         string
	Port                   string
	ImageStorage           string
	FirebaseStorageBucket  string
	FirebaseCredentialFile string
	MigrateOnStart         bool
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		ClerkSecretKey:         os.Getenv("CLERK_SECRET_KEY"),
		Port:                   os.Getenv("PORT"),
		ImageStorage:           os.Getenv("IMAGE_STORAGE"),
		FirebaseStorageBucket:  os.Getenv("FIREBASE_STORAGE_BUCKET"),
		FirebaseCredentialFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		MigrateOnStart:         os.Getenv("MIGRATE_ON_START") != "false",
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.ClerkSecretKey == "" {
		return nil, fmt.Errorf("CLERK_SECRET_KEY environment variable is not set")
	}
	if cfg.Port == "" {
		cfg.Port = "3333"
	}
	if cfg.FirebaseCredentialFile == "" {
		cfg.FirebaseCredentialFile = "./serviceAccountKey.json"
	}

	switch cfg.ImageStorage {
	case "":
		cfg.ImageStorage = ImageStorageFirebase
	case ImageStorageFirebase, ImageStorageS3:
	default:
		return nil, fmt.Errorf("unsupported IMAGE_STORAGE %q", cfg.ImageStorage)
	}

	return cfg, nil
}
