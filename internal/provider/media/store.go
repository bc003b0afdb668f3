// Package media serves media locators (content://media/<volume>/...) from a
// local directory tree. Besides the generic open primitive it offers a
// descriptor-based fast path, gated on a host capability check.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/rodrigopv/streamfetch/internal/fetch"
	"github.com/rodrigopv/streamfetch/internal/locator"
)

// Authority is the locator authority served by Store.
const Authority = "media"

// DefaultMinKernel is the lowest kernel release on which the fast path is
// offered when no minimum is configured.
const DefaultMinKernel = "3.2"

// Option configures a Store.
type Option func(*Store)

// WithMinKernel sets the minimum kernel release ("major.minor") required for
// the fast path.
func WithMinKernel(v string) Option {
	return func(s *Store) {
		if v != "" {
			s.minKernel = v
		}
	}
}

// WithAvailability replaces the host capability check.
func WithAvailability(check func() bool) Option {
	return func(s *Store) {
		s.check = check
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store maps media locators onto files below root.
type Store struct {
	root      string
	minKernel string
	check     func() bool
	log       *zap.SugaredLogger

	once      sync.Once
	available bool
}

var (
	_ fetch.FastPathProvider = (*Store)(nil)
	_ fetch.ResourceProvider = (*Store)(nil)
)

// NewStore creates a Store rooted at root.
func NewStore(root string, opts ...Option) *Store {
	s := &Store{
		root:      root,
		minKernel: DefaultMinKernel,
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.check == nil {
		s.check = func() bool { return hostSupportsFastPath(s.minKernel) }
	}
	return s
}

// Authority returns the locator authority served by the store.
func (s *Store) Authority() string {
	return Authority
}

// IsEligible reports whether loc is a media locator.
func (s *Store) IsEligible(loc locator.Locator) bool {
	return loc.Scheme() == locator.DefaultScheme && loc.Authority() == Authority && loc.Len() > 0
}

// FastPathAvailable reports whether the host supports the descriptor API.
// The check runs once per Store.
func (s *Store) FastPathAvailable() bool {
	s.once.Do(func() {
		s.available = s.check()
		s.log.Debugf("media: fast path available: %t", s.available)
	})
	return s.available
}

// AcquireDescriptor opens the file behind loc. A missing file yields nil, nil.
func (s *Store) AcquireDescriptor(ctx context.Context, loc locator.Locator) (fetch.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(loc)
	if err != nil {
		return nil, err
	}
	offset, length, err := parseRange(loc.Query())
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Descriptor{file: f, offset: offset, length: length}, nil
}

// OpenStream opens the whole file behind loc, ignoring any range. A
// missing file yields nil, nil.
func (s *Store) OpenStream(ctx context.Context, loc locator.Locator) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(loc)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Store) path(loc locator.Locator) (string, error) {
	if !s.IsEligible(loc) {
		return "", fmt.Errorf("media: %s is not a media locator", loc)
	}
	rel := filepath.Join(loc.Segments()...)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("media: %s escapes the media root", loc)
	}
	return filepath.Join(s.root, rel), nil
}

// parseRange reads the optional offset and length query parameters.
// A negative length means "to the end of the file".
func parseRange(query string) (int64, int64, error) {
	if query == "" {
		return 0, -1, nil
	}
	q, err := url.ParseQuery(query)
	if err != nil {
		return 0, 0, fmt.Errorf("media: invalid query %q: %w", query, err)
	}

	offset, length := int64(0), int64(-1)
	if v := q.Get("offset"); v != "" {
		offset, err = strconv.ParseInt(v, 10, 64)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("media: invalid offset %q", v)
		}
	}
	if v := q.Get("length"); v != "" {
		length, err = strconv.ParseInt(v, 10, 64)
		if err != nil || length < 0 {
			return 0, 0, fmt.Errorf("media: invalid length %q", v)
		}
	}
	return offset, length, nil
}
