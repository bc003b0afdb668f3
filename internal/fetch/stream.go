package fetch

import (
	"io"
	"sync/atomic"

	"github.com/rodrigopv/streamfetch/internal/locator"
)

// Strategy names the retrieval path used to open a stream.
type Strategy int

const (
	// StrategyGenericOpen opens the locator through the ResourceProvider.
	StrategyGenericOpen Strategy = iota
	// StrategyFastPath derives the stream from a fast-path descriptor.
	StrategyFastPath
	// StrategyContactPhoto opens the photo of a direct contact record.
	StrategyContactPhoto
	// StrategyLookupContactPhoto resolves a lookup locator, then opens the contact photo.
	StrategyLookupContactPhoto
)

func (s Strategy) String() string {
	switch s {
	case StrategyGenericOpen:
		return "generic_open"
	case StrategyFastPath:
		return "fast_path"
	case StrategyContactPhoto:
		return "contact_photo"
	case StrategyLookupContactPhoto:
		return "lookup_contact_photo"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stream is an open resource returned by StreamFetcher.Open. The caller
// owns it and must close it exactly once.
type Stream struct {
	rc       io.ReadCloser
	loc      locator.Locator
	resolved locator.Locator
	kind     locator.Kind
	strategy Strategy
	closed   atomic.Bool
}

// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrStreamClosed
	}
	return s.rc.Read(p)
}

// Close releases the underlying stream. Only the first call reaches the
// underlying stream; later calls return ErrStreamClosed.
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrStreamClosed
	}
	return s.rc.Close()
}

// Locator returns the locator the stream was requested for.
func (s *Stream) Locator() locator.Locator { return s.loc }

// Resolved returns the direct locator a lookup resolved to. It is the
// zero Locator when no resolution took place.
func (s *Stream) Resolved() locator.Locator { return s.resolved }

// Kind returns the classification of the requested locator.
func (s *Stream) Kind() locator.Kind { return s.kind }

// Strategy returns the retrieval path that produced the stream.
func (s *Stream) Strategy() Strategy { return s.strategy }
