// Package blob stores profile images in S3 and hands out CDN URLs for the
// rendered variants.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/classmatch/classmatch/internal/config"
)

// UploadResult carries the stored object key and the URLs clients render.
// Variant URLs are CDN paths (the CDN resizes on the fly), not separate
// stored objects.
type UploadResult struct {
	PublicID     string `json:"publicId"`
	SecureURL    string `json:"secureUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	MediumURL    string `json:"mediumUrl"`
}

// Store wraps the S3 client for profile image storage.
type Store struct {
	client     *s3.Client
	bucket     string
	cdnBaseURL string
	logger     *slog.Logger
}

// NewStore builds a Store from the ambient AWS credential chain.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Blob.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &Store{
		client:     s3.NewFromConfig(awsCfg),
		bucket:     cfg.Blob.Bucket,
		cdnBaseURL: strings.TrimRight(cfg.Blob.CDNBaseURL, "/"),
		logger:     logger,
	}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// Upload writes the image under a fresh key scoped to the owner and
// returns the public URLs.
func (s *Store) Upload(ctx context.Context, ownerID string, data []byte, contentType string) (UploadResult, error) {
	key := fmt.Sprintf("profile-images/%s/%s%s", ownerID, uuid.NewString(), extensionFor(contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("uploading %s: %w", key, err)
	}

	s.logger.Info("profile image stored", "key", key, "bytes", len(data))
	return UploadResult{
		PublicID:     key,
		SecureURL:    s.variantURL("", key),
		ThumbnailURL: s.variantURL("t_thumb", key),
		MediumURL:    s.variantURL("t_medium", key),
	}, nil
}

// variantURL builds a CDN URL; variant "" is the original.
func (s *Store) variantURL(variant, key string) string {
	if variant == "" {
		return fmt.Sprintf("%s/%s", s.cdnBaseURL, key)
	}
	return fmt.Sprintf("%s/%s/%s", s.cdnBaseURL, variant, key)
}

// Delete removes a stored object. Callers treat failure as non-fatal: the
// orphaned object costs storage, not correctness.
func (s *Store) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", publicID, err)
	}
	return nil
}

// PresignUpload returns a short-lived URL the client can PUT the image to
// directly, plus the key it will land under.
func (s *Store) PresignUpload(ctx context.Context, ownerID, contentType string) (string, string, error) {
	key := fmt.Sprintf("profile-images/%s/%s%s", ownerID, uuid.NewString(), extensionFor(contentType))

	presigner := s3.NewPresignClient(s.client)
	presigned, err := presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(5*time.Minute))
	if err != nil {
		return "", "", fmt.Errorf("presigning %s: %w", key, err)
	}
	return presigned.URL, key, nil
}
