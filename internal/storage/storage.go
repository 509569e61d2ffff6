// Package storage keeps rendered quote PDFs and customer artwork in MinIO.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"headwear_backend/platform/apperr"
	"headwear_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is how long generated upload and download links stay valid.
const PresignedURLTTL = 15 * time.Minute

// PresignedURL is a short-lived link to an object.
type PresignedURL struct {
	URL       string    `json:"url"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store wraps a MinIO client with the two quote buckets.
type Store struct {
	client      *minio.Client
	pdfBucket   string
	fileBucket  string
	maxFileSize int64
	now         func() time.Time
}

// New connects to MinIO. It returns nil, nil when storage is not configured.
func New(cfg config.MinIOConfig) (*Store, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, nil
	}
	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &Store{
		client:      client,
		pdfBucket:   cfg.GetMinioBucketQuotePDFs(),
		fileBucket:  cfg.GetMinioBucketQuoteFiles(),
		maxFileSize: DefaultMaxFileSize,
		now:         time.Now,
	}, nil
}

// EnsureBuckets creates both buckets if they do not exist yet.
func (s *Store) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.pdfBucket, s.fileBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// QuotePDFKey is the object key a quote's PDF is stored under.
func QuotePDFKey(quoteID uuid.UUID, fileName string) string {
	return path.Join("quotes", quoteID.String(), sanitizeFileName(fileName))
}

// UploadQuotePDF stores a rendered quote PDF and returns its object key.
func (s *Store) UploadQuotePDF(ctx context.Context, quoteID uuid.UUID, fileName string, body []byte) (string, error) {
	if len(body) == 0 {
		return "", apperr.Validation("refusing to store an empty quote PDF")
	}
	key := QuotePDFKey(quoteID, fileName)
	_, err := s.client.PutObject(ctx, s.pdfBucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", apperr.Dependency("failed to upload quote pdf", err)
	}
	return key, nil
}

// QuotePDFDownloadURL presigns a GET for a stored quote PDF.
func (s *Store) QuotePDFDownloadURL(ctx context.Context, key string) (*PresignedURL, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	u, err := s.client.PresignedGetObject(ctx, s.pdfBucket, key, PresignedURLTTL, params)
	if err != nil {
		return nil, apperr.Dependency("failed to presign quote pdf download", err)
	}
	return &PresignedURL{URL: u.String(), ObjectKey: key, ExpiresAt: s.now().Add(PresignedURLTTL)}, nil
}

// AttachmentUploadURL validates an artwork upload and presigns a PUT for it.
func (s *Store) AttachmentUploadURL(ctx context.Context, conversationID uuid.UUID, fileName, contentType string, size int64) (*PresignedURL, error) {
	if err := ValidateAttachment(contentType, size, s.maxFileSize); err != nil {
		return nil, err
	}
	key := path.Join("conversations", conversationID.String(), uuid.NewString()+"-"+sanitizeFileName(fileName))
	u, err := s.client.PresignedPutObject(ctx, s.fileBucket, key, PresignedURLTTL)
	if err != nil {
		return nil, apperr.Dependency("failed to presign attachment upload", err)
	}
	return &PresignedURL{URL: u.String(), ObjectKey: key, ExpiresAt: s.now().Add(PresignedURLTTL)}, nil
}

// DownloadQuotePDF streams a stored quote PDF.
func (s *Store) DownloadQuotePDF(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.pdfBucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperr.Dependency("failed to download quote pdf", err)
	}
	return obj, nil
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
