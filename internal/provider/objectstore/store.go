// Package objectstore opens s3://bucket/key locators from MinIO or any
// S3-compatible endpoint.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/rodrigopv/streamfetch/internal/locator"
)

// Scheme is the locator scheme served by Store.
const Scheme = "s3"

// Config holds the connection settings of an S3-compatible endpoint.
type Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Region    string `yaml:"region,omitempty"`
	UseSSL    bool   `yaml:"useSSL"`
}

// Store implements fetch.ResourceProvider for the s3 scheme. The locator
// authority is the bucket and the path is the object key.
type Store struct {
	client *minio.Client
	log    *zap.SugaredLogger
}

// New connects a Store using cfg.
func New(cfg Config, log *zap.SugaredLogger) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("objectstore: endpoint is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to create client: %w", err)
	}
	return NewStore(client, log), nil
}

// NewStore wraps an existing client.
func NewStore(client *minio.Client, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{client: client, log: log}
}

// Schemes lists the locator schemes served by Store.
func (s *Store) Schemes() []string {
	return []string{Scheme}
}

// OpenStream opens the object named by loc. A missing object yields nil, nil.
func (s *Store) OpenStream(ctx context.Context, loc locator.Locator) (io.ReadCloser, error) {
	bucket, key, err := objectName(loc)
	if err != nil {
		return nil, err
	}

	// Stat first so a missing object is reported before any body is read.
	if _, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			s.log.Debugf("objectstore: %s/%s does not exist", bucket, key)
			return nil, nil
		}
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func objectName(loc locator.Locator) (string, string, error) {
	if loc.Scheme() != Scheme {
		return "", "", fmt.Errorf("objectstore: unsupported scheme in %s", loc)
	}
	if loc.Authority() == "" {
		return "", "", fmt.Errorf("objectstore: %s has no bucket", loc)
	}
	if loc.Len() == 0 {
		return "", "", fmt.Errorf("objectstore: %s has no object key", loc)
	}
	return loc.Authority(), strings.Join(loc.Segments(), "/"), nil
}

func isNotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" || errResp.Code == "NoSuchBucket"
}
