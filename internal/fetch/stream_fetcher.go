package fetch

import (
	"context"
	"errors"
	"io"
	"reflect"

	"go.uber.org/zap"

	"github.com/rodrigopv/streamfetch/internal/locator"
)

// Option configures a StreamFetcher.
type Option func(*StreamFetcher)

// WithFastPath sets the capability flag. When set, eligible locators are
// opened through the fast-path provider if the host supports it.
func WithFastPath(enabled bool) Option {
	return func(f *StreamFetcher) {
		f.useFastPath = enabled
	}
}

// WithFastPathProvider wires the descriptor-based provider.
func WithFastPathProvider(p FastPathProvider) Option {
	return func(f *StreamFetcher) {
		f.fastPath = p
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(f *StreamFetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// StreamFetcher classifies locators and opens them with the strategy that
// matches their kind. It holds no per-call state and is safe for
// concurrent use if its providers are.
type StreamFetcher struct {
	identity    IdentityProvider
	resources   ResourceProvider
	fastPath    FastPathProvider
	useFastPath bool
	log         *zap.SugaredLogger
}

var _ Fetcher = (*StreamFetcher)(nil)

// New creates a StreamFetcher. identity serves contact locators and
// resources serves everything else.
func New(identity IdentityProvider, resources ResourceProvider, opts ...Option) *StreamFetcher {
	f := &StreamFetcher{
		identity:  identity,
		resources: resources,
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open classifies loc and opens a stream for it. Exactly one of the
// returned values is non-nil. A strategy that yields no content is
// reported as a *NotFoundError; provider I/O errors are returned as is.
// The caller is responsible for closing the returned Stream.
func (f *StreamFetcher) Open(ctx context.Context, loc locator.Locator) (*Stream, error) {
	kind := locator.Classify(loc)

	rc, resolved, strategy, err := f.load(ctx, loc, kind)
	if err != nil {
		f.log.Debugf("fetch: %s (%s) failed via %s: %v", loc, kind, strategy, err)
		return nil, err
	}
	if isNilStream(rc) {
		return nil, notFound(loc.String(), "stream is null for %s", loc)
	}

	f.log.Debugf("fetch: opened %s (%s) via %s", loc, kind, strategy)
	return &Stream{
		rc:       rc,
		loc:      loc,
		resolved: resolved,
		kind:     kind,
		strategy: strategy,
	}, nil
}

// Close releases a stream returned by Open and reports the close-time error.
func (f *StreamFetcher) Close(s *Stream) error {
	if s == nil {
		return errors.New("fetch: close of nil stream")
	}
	return s.Close()
}

// Plan returns the kind of loc and the strategy Open would use for it.
// It consults the fast-path oracle but does not open anything.
func (f *StreamFetcher) Plan(loc locator.Locator) (locator.Kind, Strategy) {
	kind := locator.Classify(loc)
	switch kind {
	case locator.KindDirectContactRecord:
		return kind, StrategyContactPhoto
	case locator.KindContactLookupKey, locator.KindPhoneNumberLookup:
		return kind, StrategyLookupContactPhoto
	default:
		if f.fastPathApplies(loc) {
			return kind, StrategyFastPath
		}
		return kind, StrategyGenericOpen
	}
}

// Capabilities implements the Fetcher interface.
func (f *StreamFetcher) Capabilities() Capabilities {
	c := Capabilities{
		FastPathRequested: f.useFastPath,
		FastPathProvider:  f.fastPath != nil,
	}
	if f.fastPath != nil {
		c.FastPathAvailable = f.fastPath.FastPathAvailable()
	}
	return c
}

func (f *StreamFetcher) load(ctx context.Context, loc locator.Locator, kind locator.Kind) (io.ReadCloser, locator.Locator, Strategy, error) {
	switch kind {
	case locator.KindDirectContactRecord:
		rc, err := f.openContactPhoto(ctx, loc)
		return rc, locator.Locator{}, StrategyContactPhoto, err

	case locator.KindContactLookupKey, locator.KindPhoneNumberLookup:
		// Resolve the indirect locator first, then load the contact it names.
		if f.identity == nil {
			return nil, locator.Locator{}, StrategyLookupContactPhoto, errors.New("fetch: no identity provider configured")
		}
		resolved, err := f.identity.ResolveLookup(ctx, loc)
		if err != nil {
			return nil, locator.Locator{}, StrategyLookupContactPhoto, err
		}
		if resolved == nil || resolved.IsZero() {
			return nil, locator.Locator{}, StrategyLookupContactPhoto, notFound(loc.String(), "contact cannot be found for %s", loc)
		}
		f.log.Debugf("fetch: resolved %s to %s", loc, resolved)
		rc, err := f.openContactPhoto(ctx, *resolved)
		return rc, *resolved, StrategyLookupContactPhoto, err

	case locator.KindContactThumbnail, locator.KindContactDisplayPhoto, locator.KindGenericAddressable:
		rc, strategy, err := f.openGeneric(ctx, loc)
		return rc, locator.Locator{}, strategy, err

	default:
		rc, strategy, err := f.openGeneric(ctx, loc)
		return rc, locator.Locator{}, strategy, err
	}
}

func (f *StreamFetcher) openContactPhoto(ctx context.Context, contact locator.Locator) (io.ReadCloser, error) {
	if f.identity == nil {
		return nil, errors.New("fetch: no identity provider configured")
	}
	return f.identity.OpenContactPhoto(ctx, contact, true)
}

func (f *StreamFetcher) openGeneric(ctx context.Context, loc locator.Locator) (io.ReadCloser, Strategy, error) {
	if f.fastPathApplies(loc) {
		rc, err := f.openFastPath(ctx, loc)
		return rc, StrategyFastPath, err
	}
	if f.resources == nil {
		return nil, StrategyGenericOpen, errors.New("fetch: no resource provider configured")
	}
	rc, err := f.resources.OpenStream(ctx, loc)
	return rc, StrategyGenericOpen, err
}

// fastPathApplies checks the capability flag, the locator and the host, in
// that order. The provider is not consulted when the flag is off.
func (f *StreamFetcher) fastPathApplies(loc locator.Locator) bool {
	return f.useFastPath &&
		f.fastPath != nil &&
		f.fastPath.IsEligible(loc) &&
		f.fastPath.FastPathAvailable()
}

func (f *StreamFetcher) openFastPath(ctx context.Context, loc locator.Locator) (rc io.ReadCloser, err error) {
	d, err := f.fastPath.AcquireDescriptor(ctx, loc)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFound(loc.String(), "descriptor is null for %s", loc)
	}

	// Until a stream owns it, the descriptor is ours to release.
	defer func() {
		if isNilStream(rc) {
			f.release(loc, d)
		}
	}()

	// A stream returned with an error is discarded; only the descriptor is released.
	s, err := d.Stream()
	if err != nil {
		return nil, &StreamDerivationError{Locator: loc.String(), Err: err}
	}
	return s, nil
}

func (f *StreamFetcher) release(loc locator.Locator, d Descriptor) {
	if err := d.Close(); err != nil {
		f.log.Warnf("fetch: ignoring descriptor close error for %s: %v", loc, err)
	}
}

// isNilStream also catches a nil pointer wrapped in the interface.
func isNilStream(rc io.ReadCloser) bool {
	if rc == nil {
		return true
	}
	v := reflect.ValueOf(rc)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
