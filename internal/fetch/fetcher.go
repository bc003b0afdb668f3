package fetch

import (
	"context"
	"io"

	"github.com/rodrigopv/streamfetch/internal/locator"
)

// Capabilities describes the optional abilities of a StreamFetcher.
type Capabilities struct {
	FastPathRequested bool // The caller asked for the fast path when applicable.
	FastPathProvider  bool // A fast-path provider is wired in.
	FastPathAvailable bool // The host supports the fast-path API right now.
}

// FastPathUsable reports whether eligible locators will take the fast path.
func (c Capabilities) FastPathUsable() bool {
	return c.FastPathRequested && c.FastPathProvider && c.FastPathAvailable
}

// IdentityProvider resolves contact locators and opens contact photos.
type IdentityProvider interface {
	// ResolveLookup turns an indirect contact locator (lookup key or phone
	// number) into a direct contact record locator. It returns nil, nil when
	// no contact matches.
	ResolveLookup(ctx context.Context, loc locator.Locator) (*locator.Locator, error)

	// OpenContactPhoto opens the photo of a direct contact record. When
	// preferHighRes is set the display photo is preferred over the thumbnail.
	// It returns an untyped nil, nil when the contact has no photo.
	OpenContactPhoto(ctx context.Context, contact locator.Locator, preferHighRes bool) (io.ReadCloser, error)
}

// ResourceProvider is the generic open primitive keyed only by the locator.
// Implementations may return an untyped nil, nil when the resource has no
// content. A nil pointer wrapped in io.ReadCloser is also read as no content.
type ResourceProvider interface {
	OpenStream(ctx context.Context, loc locator.Locator) (io.ReadCloser, error)
}

// FastPathProvider exposes an optional descriptor-based retrieval API.
type FastPathProvider interface {
	// IsEligible reports whether loc belongs to this provider.
	IsEligible(loc locator.Locator) bool
	// FastPathAvailable reports whether the host supports the descriptor API.
	FastPathAvailable() bool
	// AcquireDescriptor opens a descriptor for loc. It returns nil, nil when
	// the provider has nothing for loc.
	AcquireDescriptor(ctx context.Context, loc locator.Locator) (Descriptor, error)
}

// Descriptor is an acquired handle that is not yet a stream. It must be
// closed unless a stream derived from it has taken ownership.
type Descriptor interface {
	// Stream derives a stream from the descriptor. On success the stream owns
	// the descriptor and closing the stream releases it.
	Stream() (io.ReadCloser, error)
	Close() error
}

// Fetcher opens locators. *StreamFetcher is the implementation used by
// the CLI and the MCP server.
type Fetcher interface {
	// Open classifies loc and returns an open stream for it.
	// The caller is responsible for closing the returned Stream.
	Open(ctx context.Context, loc locator.Locator) (*Stream, error)

	// Plan returns the kind and strategy Open would use for loc.
	Plan(loc locator.Locator) (locator.Kind, Strategy)

	// Capabilities returns a description of the fetcher's optional abilities.
	Capabilities() Capabilities
}
