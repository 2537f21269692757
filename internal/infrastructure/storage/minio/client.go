// Package minio reads structure files from an S3-compatible object store.
package minio

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/irisuniflora/VF/internal/config"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
	"github.com/irisuniflora/VF/pkg/errors"
)

// MaxObjectSize bounds a single structure download.
const MaxObjectSize = 256 << 20

// MinIOAPI is the subset of the SDK the client uses.  GetObject returns a
// ReadCloser so tests can fake it.
type MinIOAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

type sdk struct{ *minio.Client }

func (s sdk) GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return s.Client.GetObject(ctx, bucket, object, opts)
}

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeStructureNotFound, "object not found")
	ErrClientClosed   = errors.New(errors.ErrCodeServiceUnavailable, "minio client is closed")
)

// ObjectInfo describes a stored structure file.
type ObjectInfo struct {
	Bucket       string    `json:"bucket"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"last_modified"`
}

// Client reads and writes structure objects.
type Client struct {
	api    MinIOAPI
	cfg    config.MinIOConfig
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient connects to the endpoint and makes sure the default bucket
// exists.
func NewClient(cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to create minio client")
	}
	c := NewClientWithAPI(sdk{mc}, cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("MinIO client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientWithAPI wraps an existing API implementation.
func NewClientWithAPI(api MinIOAPI, cfg config.MinIOConfig, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{api: api, cfg: cfg, logger: log}
}

// DefaultBucket is the configured bucket.
func (c *Client) DefaultBucket() string { return c.cfg.Bucket }

// EnsureBucket creates the default bucket when it is missing.
func (c *Client) EnsureBucket(ctx context.Context) error {
	if c.cfg.Bucket == "" {
		return nil
	}
	ok, err := c.api.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}
	if ok {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.cfg.Bucket, minio.MakeBucketOptions{Region: c.cfg.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create bucket").WithDetail(c.cfg.Bucket)
	}
	c.logger.Info("Created bucket", logging.String("bucket", c.cfg.Bucket))
	return nil
}

// Stat returns object metadata.  Missing objects map to ErrObjectNotFound.
func (c *Client) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	if err := c.check(); err != nil {
		return ObjectInfo{}, err
	}
	bucket = c.bucket(bucket)
	info, err := c.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, c.mapErr(err, bucket, key)
	}
	return toInfo(bucket, info), nil
}

// Fetch downloads an object.
func (c *Client) Fetch(ctx context.Context, bucket, key string) ([]byte, ObjectInfo, error) {
	info, err := c.Stat(ctx, bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	if info.Size > MaxObjectSize {
		return nil, ObjectInfo{}, errors.New(errors.ErrCodeBadRequest, "object too large").WithDetail(key)
	}
	rc, err := c.api.GetObject(ctx, info.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, c.mapErr(err, info.Bucket, key)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, MaxObjectSize+1))
	if err != nil {
		return nil, ObjectInfo{}, c.mapErr(err, info.Bucket, key)
	}
	c.logger.Debug("fetched object",
		logging.String("bucket", info.Bucket),
		logging.String("key", key),
		logging.Int("bytes", len(data)))
	return data, info, nil
}

// Put stores a structure file.
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte) (ObjectInfo, error) {
	if err := c.check(); err != nil {
		return ObjectInfo{}, err
	}
	bucket = c.bucket(bucket)
	up, err := c.api.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "chemical/x-pdb"})
	if err != nil {
		return ObjectInfo{}, errors.Wrap(err, errors.ErrCodeExternalService, "failed to upload object").WithDetail(key)
	}
	return ObjectInfo{Bucket: bucket, Key: key, Size: up.Size, ETag: up.ETag, LastModified: up.LastModified}, nil
}

// List returns the objects under prefix.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	bucket = c.bucket(bucket)
	var out []ObjectInfo
	for obj := range c.api.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, c.mapErr(obj.Err, bucket, prefix)
		}
		out = append(out, toInfo(bucket, obj))
	}
	return out, nil
}

// HealthCheck verifies the default bucket is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	ok, err := c.api.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio unreachable")
	}
	if !ok {
		return errors.New(errors.ErrCodeServiceUnavailable, "bucket missing").WithDetail(c.cfg.Bucket)
	}
	return nil
}

// Close marks the client closed.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *Client) check() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

func (c *Client) bucket(b string) string {
	if b == "" {
		return c.cfg.Bucket
	}
	return b
}

func (c *Client) mapErr(err error, bucket, key string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrObjectNotFound.WithDetail(bucket + "/" + key)
	}
	return errors.Wrap(err, errors.ErrCodeStructureSourceFailed, "object store request failed").WithDetail(bucket + "/" + key)
}

func toInfo(bucket string, o minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{Bucket: bucket, Key: o.Key, Size: o.Size, ETag: o.ETag, LastModified: o.LastModified}
}
