// Package loader resolves structure sources into text and parsed registries.
//
// Three sources are supported: a local file path, an object in the object
// store addressed as minio://bucket/key, and inline text.  File and object
// reads go through an optional cache keyed by the source's identity and
// version (mtime for files, ETag for objects), so an edited file is never
// served stale.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/internal/infrastructure/database/redis"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
	"github.com/irisuniflora/VF/internal/infrastructure/storage/minio"
	"github.com/irisuniflora/VF/pkg/errors"
)

// Source names where a document came from.
type Source string

const (
	SourceFile   Source = "file"
	SourceObject Source = "object"
	SourceInline Source = "inline"
)

// ObjectScheme prefixes object store references.
const ObjectScheme = "minio://"

// DefaultMaxFileSize bounds local file reads.
const DefaultMaxFileSize = 256 << 20

// ObjectStore is the subset of the object store client the loader needs.
type ObjectStore interface {
	DefaultBucket() string
	Stat(ctx context.Context, bucket, key string) (minio.ObjectInfo, error)
	Fetch(ctx context.Context, bucket, key string) ([]byte, minio.ObjectInfo, error)
}

// TextCache is the cache-aside primitive used for structure text.
type TextCache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
}

var _ TextCache = (redis.Cache)(nil)

// Metrics receives loader measurements.
type Metrics interface {
	CacheAccess(source string, hit bool)
	ObserveLoad(source string, d time.Duration, err error)
}

type nopMetrics struct{}

func (nopMetrics) CacheAccess(string, bool)                 {}
func (nopMetrics) ObserveLoad(string, time.Duration, error) {}

// Request selects exactly one source.
type Request struct {
	Name    string `json:"name,omitempty"`
	Path    string `json:"path,omitempty"`
	Object  string `json:"object,omitempty"`
	Content string `json:"content,omitempty"`
}

// Document is resolved structure text.
type Document struct {
	Name     string    `json:"name"`
	Source   Source    `json:"source"`
	Location string    `json:"location,omitempty"`
	Content  string    `json:"-"`
	Version  string    `json:"version,omitempty"`
	CacheHit bool      `json:"cache_hit"`
	ReadAt   time.Time `json:"read_at"`
}

// Loader reads structure text from files, the object store, or inline
// content.
type Loader struct {
	cache       TextCache
	ttl         time.Duration
	objects     ObjectStore
	metrics     Metrics
	logger      logging.Logger
	maxFileSize int64
	now         func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithCache enables cache-aside reads.  A zero ttl uses the cache default.
func WithCache(c TextCache, ttl time.Duration) Option {
	return func(l *Loader) {
		l.cache = c
		l.ttl = ttl
	}
}

// WithObjectStore enables minio:// references.
func WithObjectStore(o ObjectStore) Option {
	return func(l *Loader) { l.objects = o }
}

func WithMetrics(m Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

func WithLogger(log logging.Logger) Option {
	return func(l *Loader) { l.logger = log }
}

func WithMaxFileSize(n int64) Option {
	return func(l *Loader) { l.maxFileSize = n }
}

// New builds a Loader.  Without options it reads files and inline text
// only, uncached.
func New(opts ...Option) *Loader {
	l := &Loader{
		metrics:     nopMetrics{},
		logger:      logging.NewNopLogger(),
		maxFileSize: DefaultMaxFileSize,
		now:         time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// ReadFile returns the text of a local file.  A missing file is reported
// with ErrCodeStructureNotFound, an empty path with
// ErrCodeStructurePathRequired.
func (l *Loader) ReadFile(ctx context.Context, path string) (doc Document, err error) {
	start := l.now()
	defer func() { l.metrics.ObserveLoad(string(SourceFile), time.Since(start), err) }()

	if path == "" {
		return Document{}, errors.New(errors.ErrCodeStructurePathRequired, "pdb_path required")
	}
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.New(errors.ErrCodeStructureNotFound, "File not found: "+path).WithCause(err)
		}
		return Document{}, errors.Wrap(err, errors.ErrCodeStructureSourceFailed, err.Error())
	}
	if fi.IsDir() {
		return Document{}, errors.New(errors.ErrCodeStructureSourceFailed, "Is a directory: "+path)
	}
	if fi.Size() > l.maxFileSize {
		return Document{}, errors.Newf(errors.ErrCodeBadRequest, "file exceeds %d bytes", l.maxFileSize).WithDetail(path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	version := fi.ModTime().UTC().Format(time.RFC3339Nano)
	doc = Document{
		Name:     filepath.Base(path),
		Source:   SourceFile,
		Location: path,
		Version:  version,
	}

	content, hit, err := l.cached(ctx, SourceFile, "file:"+abs+"@"+version, func(context.Context) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeStructureSourceFailed, err.Error())
		}
		return string(data), nil
	})
	if err != nil {
		return Document{}, err
	}
	doc.Content = content
	doc.CacheHit = hit
	doc.ReadAt = l.now()
	return doc, nil
}

// ReadObject returns the text of an object store reference, either
// "minio://bucket/key" or a bare key in the default bucket.
func (l *Loader) ReadObject(ctx context.Context, ref string) (doc Document, err error) {
	start := l.now()
	defer func() { l.metrics.ObserveLoad(string(SourceObject), time.Since(start), err) }()

	if l.objects == nil {
		return Document{}, errors.New(errors.ErrCodeFeatureDisabled, "object store is not configured")
	}
	bucket, key, err := ParseObjectRef(ref, l.objects.DefaultBucket())
	if err != nil {
		return Document{}, err
	}
	info, err := l.objects.Stat(ctx, bucket, key)
	if err != nil {
		return Document{}, err
	}

	doc = Document{
		Name:     filepath.Base(key),
		Source:   SourceObject,
		Location: ObjectScheme + bucket + "/" + key,
		Version:  info.ETag,
	}
	cacheKey := "object:" + bucket + "/" + key + "@" + info.ETag
	content, hit, err := l.cached(ctx, SourceObject, cacheKey, func(ctx context.Context) (string, error) {
		data, _, err := l.objects.Fetch(ctx, bucket, key)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
	if err != nil {
		return Document{}, err
	}
	doc.Content = content
	doc.CacheHit = hit
	doc.ReadAt = l.now()
	return doc, nil
}

// Resolve returns the document named by req.  Exactly one of Path, Object
// and Content must be set.
func (l *Loader) Resolve(ctx context.Context, req Request) (Document, error) {
	set := 0
	for _, s := range []string{req.Path, req.Object, req.Content} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return Document{}, errors.New(errors.ErrCodeBadRequest, "exactly one of path, object or content is required")
	}

	var (
		doc Document
		err error
	)
	switch {
	case req.Path != "":
		if strings.HasPrefix(req.Path, ObjectScheme) {
			doc, err = l.ReadObject(ctx, req.Path)
		} else {
			doc, err = l.ReadFile(ctx, req.Path)
		}
	case req.Object != "":
		doc, err = l.ReadObject(ctx, req.Object)
	default:
		doc = Document{Name: "inline", Source: SourceInline, Content: req.Content, ReadAt: l.now()}
	}
	if err != nil {
		return Document{}, err
	}
	if req.Name != "" {
		doc.Name = req.Name
	}
	return doc, nil
}

// Load resolves req and parses the text into a Registry.
func (l *Loader) Load(ctx context.Context, req Request) (Document, *structure.Registry, error) {
	doc, err := l.Resolve(ctx, req)
	if err != nil {
		l.logger.Error("structure source failed",
			logging.String("path", req.Path),
			logging.String("object", req.Object),
			logging.Err(err))
		return Document{}, nil, err
	}
	reg, err := structure.ParsePDB(strings.NewReader(doc.Content))
	if err != nil {
		l.logger.Error("structure parse failed",
			logging.String("name", doc.Name),
			logging.String("source", string(doc.Source)),
			logging.Err(err))
		return Document{}, nil, err
	}
	l.logger.Info("structure read",
		logging.String("name", doc.Name),
		logging.String("source", string(doc.Source)),
		logging.Int("residues", reg.Len()),
		logging.Bool("cache_hit", doc.CacheHit))
	return doc, reg, nil
}

// cached reads through the cache when one is configured.  hit reports
// whether read was skipped.
func (l *Loader) cached(ctx context.Context, src Source, key string, read func(context.Context) (string, error)) (string, bool, error) {
	if l.cache == nil {
		s, err := read(ctx)
		return s, false, err
	}
	var (
		content string
		missed  bool
	)
	err := l.cache.GetOrSet(ctx, key, &content, l.ttl, func(ctx context.Context) (interface{}, error) {
		missed = true
		return read(ctx)
	})
	if err != nil {
		return "", false, err
	}
	l.metrics.CacheAccess(string(src), !missed)
	return content, !missed, nil
}

// ParseObjectRef splits "minio://bucket/key" into bucket and key.  A
// reference without the scheme is a key in defaultBucket.
func ParseObjectRef(ref, defaultBucket string) (bucket, key string, err error) {
	rest, hasScheme := strings.CutPrefix(ref, ObjectScheme)
	if !hasScheme {
		bucket, key = defaultBucket, strings.TrimPrefix(ref, "/")
	} else {
		var ok bool
		bucket, key, ok = strings.Cut(rest, "/")
		if !ok {
			key = ""
		}
	}
	if bucket == "" || key == "" {
		return "", "", errors.New(errors.ErrCodeBadRequest, fmt.Sprintf("invalid object reference %q", ref))
	}
	return bucket, key, nil
}
