package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

const firebasePublicEndpoint = "https://storage.googleapis.com"

// FirebaseImageStorage stores challenge images in the project's Firebase
// Storage bucket and hands back their public URL.
type FirebaseImageStorage struct {
	app    *firebase.App
	bucket string
}

// NewFirebaseImageStorage first tries base64 credentials in
// FIREBASE_SERVICE_ACCOUNT_JSON and falls back to the local key file.
func NewFirebaseImageStorage(ctx context.Context, bucket, localFilePath string) (*FirebaseImageStorage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("firebase storage bucket is not configured")
	}

	var opt option.ClientOption
	encodedCreds := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials from FIREBASE_SERVICE_ACCOUNT_JSON: %v", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Println("Firebase Storage: Initializing from FIREBASE_SERVICE_ACCOUNT_JSON environment variable.")
	} else {
		if _, err := os.Stat(localFilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("local firebase file not found: %s, and FIREBASE_SERVICE_ACCOUNT_JSON environment variable is not set", localFilePath)
		}
		opt = option.WithCredentialsFile(localFilePath)
		log.Printf("Firebase Storage: Initializing from local file: %s.", localFilePath)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: bucket}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}

	return &FirebaseImageStorage{app: app, bucket: bucket}, nil
}

func (s *FirebaseImageStorage) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	client, err := s.app.Storage(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting storage client: %w", err)
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return "", fmt.Errorf("error opening bucket %s: %w", s.bucket, err)
	}

	key := ObjectKey(filename, contentType)
	w := bucket.Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return publicURL(firebasePublicEndpoint, s.bucket, key), nil
}

func (s *FirebaseImageStorage) Delete(ctx context.Context, imageURL string) error {
	key, err := keyFromURL(firebasePublicEndpoint, s.bucket, imageURL)
	if err != nil {
		return err
	}

	client, err := s.app.Storage(ctx)
	if err != nil {
		return fmt.Errorf("error getting storage client: %w", err)
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return fmt.Errorf("error opening bucket %s: %w", s.bucket, err)
	}

	if err := bucket.Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
