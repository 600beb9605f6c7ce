package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/foodsnap-ai/backend/config"
)

// Object key prefixes for the two upload families.
const (
	PrefixRecipes  = "recipes/"
	PrefixProfiles = "profiles/"
)

// StorageService uploads images and derives time-limited signed read URLs
// from stored object references.
type StorageService struct {
	s3cfg     *config.S3Config
	uploader  *manager.Uploader
	chunkSize int64
	urlTTL    time.Duration
}

// NewStorageService creates a new StorageService instance
func NewStorageService(s3cfg *config.S3Config, cfg *config.Config) *StorageService {
	chunk := cfg.UploadChunkSize()
	uploader := manager.NewUploader(s3cfg.Client, func(u *manager.Uploader) {
		u.PartSize = chunk
	})
	return &StorageService{
		s3cfg:     s3cfg,
		uploader:  uploader,
		chunkSize: chunk,
		urlTTL:    cfg.SignedURLTTL,
	}
}

// Upload stores a file stream under the given key prefix and returns the
// object key. Payloads at or below the chunk threshold go up in one PutObject
// call; larger ones use a managed multipart upload.
func (s *StorageService) Upload(ctx context.Context, r io.Reader, size int64, contentType, prefix string) (string, error) {
	key := prefix + uuid.New().String() + extensionFor(contentType)

	if size <= s.chunkSize {
		_, err := s.s3cfg.Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.s3cfg.BucketName),
			Key:         aws.String(key),
			Body:        r,
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload to S3: %w", err)
		}
		return key, nil
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3cfg.BucketName),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed multipart upload to S3: %w", err)
	}
	return key, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// SignedURL turns a stored object reference into a time-boxed presigned GET
// URL, confirming the object exists first. It returns "" on any failure
// rather than an error; callers fall back to whatever they already have.
func (s *StorageService) SignedURL(ctx context.Context, ref string) string {
	key := ExtractObjectKey(ref, s.s3cfg.BucketHost())
	if key == "" {
		return ""
	}

	_, err := s.s3cfg.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.s3cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Printf("[StorageService] object %s not found: %v", key, err)
		return ""
	}

	signed, err := s.s3cfg.GeneratePresignedURL(ctx, key, s.urlTTL)
	if err != nil {
		log.Printf("[StorageService] failed to sign %s: %v", key, err)
		return ""
	}
	return signed
}

// ExtractObjectKey normalizes a stored reference into a bare object key.
// References were written at different times in different formats, so a small
// ordered set of strategies is tried, first match wins:
//  1. the reference is already a bare key carrying a known prefix
//  2. a full (possibly percent-encoded) URL containing the bucket host
//  3. a known key prefix located anywhere in the decoded string
//
// Any query string is stripped. An empty result means no strategy matched.
func ExtractObjectKey(ref, bucketHost string) string {
	if ref == "" {
		return ""
	}

	if !strings.HasPrefix(ref, "http") {
		if strings.HasPrefix(ref, PrefixProfiles) || strings.HasPrefix(ref, PrefixRecipes) {
			return stripQuery(ref)
		}
	}

	decoded, err := url.QueryUnescape(ref)
	if err != nil {
		decoded = ref
	}

	if marker := bucketHost + "/"; bucketHost != "" && strings.Contains(decoded, marker) {
		rest := decoded[strings.Index(decoded, marker)+len(marker):]
		return stripQuery(rest)
	}

	for _, prefix := range []string{PrefixProfiles, PrefixRecipes} {
		if idx := strings.Index(decoded, prefix); idx >= 0 {
			return stripQuery(decoded[idx:])
		}
	}

	return ""
}

func stripQuery(s string) string {
	if idx := strings.IndexByte(s, '?'); idx >= 0 {
		return s[:idx]
	}
	return s
}
