package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

const ChallengeImagePrefix = "challenges/"

var allowedExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectKey builds a collision-free key for an uploaded challenge image. The
// original extension is kept; when it is missing the content type decides it.
func ObjectKey(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = allowedExtensions[contentType]
	}
	return fmt.Sprintf("%s%s%s", ChallengeImagePrefix, uuid.New().String(), ext)
}

// publicURL joins an endpoint, bucket and key into a path-style object URL.
func publicURL(endpoint, bucket, key string) string {
	endpoint = strings.TrimRight(endpoint, "/")
	return fmt.Sprintf("%s/%s/%s", endpoint, bucket, key)
}

// keyFromURL recovers the object key from a URL produced by publicURL.
func keyFromURL(endpoint, bucket, rawURL string) (string, error) {
	prefix := strings.TrimRight(endpoint, "/") + "/" + bucket + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", fmt.Errorf("url %q does not belong to bucket %s", rawURL, bucket)
	}
	key, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil {
		return "", fmt.Errorf("invalid object url %q: %w", rawURL, err)
	}
	return key, nil
}
