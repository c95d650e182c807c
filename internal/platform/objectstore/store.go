// Package objectstore resolves media storage keys against an S3-compatible
// bucket. It either signs time-limited GET links or downloads objects to the
// local filesystem.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/phrazzld/mediamatch-api/internal/config"
)

var (
	// ErrInvalidConfig is returned when the store configuration is unusable.
	ErrInvalidConfig = errors.New("invalid object store configuration")

	// ErrInvalidKey is returned for empty keys or keys escaping the bucket root.
	ErrInvalidKey = errors.New("invalid object key")

	// ErrObjectNotFound is returned when the object does not exist.
	ErrObjectNotFound = errors.New("object not found")
)

// objectAPI is the subset of *minio.Client used by Store.
type objectAPI interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// Store implements retrieval.AccessResolver and retrieval.Downloader.
type Store struct {
	api           objectAPI
	bucket        string
	expiry        time.Duration
	verifyObjects bool
	logger        *slog.Logger
}

// New creates a Store backed by a MinIO client.
func New(cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: empty endpoint", ErrInvalidConfig)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: empty bucket", ErrInvalidConfig)
	}
	if cfg.PresignExpiry <= 0 {
		return nil, fmt.Errorf("%w: presign expiry must be positive", ErrInvalidConfig)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create MinIO client: %w", err)
	}

	return newStore(client, cfg, logger), nil
}

func newStore(api objectAPI, cfg config.StorageConfig, logger *slog.Logger) *Store {
	return &Store{
		api:           api,
		bucket:        cfg.Bucket,
		expiry:        cfg.PresignExpiry,
		verifyObjects: cfg.VerifyObjects,
		logger:        logger.With("component", "object_store", "bucket", cfg.Bucket),
	}
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: bucket %s does not exist", ErrInvalidConfig, s.bucket)
	}
	return nil
}

// ResolveAccess returns a presigned GET URL for key, valid for the
// configured expiry.
func (s *Store) ResolveAccess(ctx context.Context, key string) (string, error) {
	objectName, err := objectName(key)
	if err != nil {
		return "", err
	}

	if s.verifyObjects {
		if err := s.stat(ctx, objectName); err != nil {
			return "", err
		}
	}

	u, err := s.api.PresignedGetObject(ctx, s.bucket, objectName, s.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}

// DownloadTo copies the object at key to localPath, creating parent
// directories as needed.
func (s *Store) DownloadTo(ctx context.Context, key, localPath string) error {
	objectName, err := objectName(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}

	if err := s.api.FGetObject(ctx, s.bucket, objectName, localPath, minio.GetObjectOptions{}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return fmt.Errorf("get object: %w", err)
	}

	s.logger.DebugContext(ctx, "object downloaded", "key", key, "path", localPath)
	return nil
}

func (s *Store) stat(ctx context.Context, objectName string) error {
	if _, err := s.api.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, objectName)
		}
		return fmt.Errorf("stat object: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == minio.NoSuchKey || code == "NotFound"
}

// objectName cleans key into a bucket-relative object name.
func objectName(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	clean := path.Clean("/" + strings.TrimSpace(key))
	clean = strings.TrimLeft(clean, "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return clean, nil
}
