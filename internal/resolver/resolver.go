// Package resolver implements the generic open primitive: it routes a
// locator to the provider registered for its scheme, or for content
// locators, its authority.
package resolver

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rodrigopv/streamfetch/internal/fetch"
	"github.com/rodrigopv/streamfetch/internal/locator"
)

// Resolver routes locators to providers. Register everything before the
// first OpenStream call; routing tables are not guarded for concurrent
// registration.
type Resolver struct {
	schemes     map[string]fetch.ResourceProvider
	authorities map[string]fetch.ResourceProvider
	files       *FileProvider
	log         *zap.SugaredLogger
}

var _ fetch.ResourceProvider = (*Resolver)(nil)

// New creates a Resolver that serves file and relative locators from the
// local filesystem. Relative locators resolve against fileRoot.
func New(fileRoot string, log *zap.SugaredLogger) *Resolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	files := &FileProvider{Root: fileRoot}
	r := &Resolver{
		schemes:     make(map[string]fetch.ResourceProvider),
		authorities: make(map[string]fetch.ResourceProvider),
		files:       files,
		log:         log,
	}
	r.RegisterScheme("file", files)
	return r
}

// RegisterScheme routes every locator with the given scheme to p.
func (r *Resolver) RegisterScheme(scheme string, p fetch.ResourceProvider) {
	r.schemes[strings.ToLower(scheme)] = p
}

// RegisterAuthority routes content locators with the given authority to p.
func (r *Resolver) RegisterAuthority(authority string, p fetch.ResourceProvider) {
	r.authorities[authority] = p
}

// Schemes returns the registered schemes, sorted.
func (r *Resolver) Schemes() []string {
	return sortedKeys(r.schemes)
}

// Authorities returns the registered content authorities, sorted.
func (r *Resolver) Authorities() []string {
	return sortedKeys(r.authorities)
}

// OpenStream opens loc with the provider responsible for it. Provider
// errors are returned unchanged.
func (r *Resolver) OpenStream(ctx context.Context, loc locator.Locator) (io.ReadCloser, error) {
	p, err := r.route(loc)
	if err != nil {
		return nil, err
	}
	return p.OpenStream(ctx, loc)
}

func (r *Resolver) route(loc locator.Locator) (fetch.ResourceProvider, error) {
	if loc.IsRelative() {
		// Relative paths classify as contacts paths, so contact kinds go to
		// the contacts provider like their content:// form.
		if locator.Classify(loc) != locator.KindGenericAddressable {
			if p, ok := r.authorities[locator.ContactsAuthority]; ok {
				return p, nil
			}
			return nil, fmt.Errorf("resolver: no provider for authority %q in %s", locator.ContactsAuthority, loc)
		}
		r.log.Debugf("resolver: %s is relative, opening as a local path", loc)
		return r.files, nil
	}
	if loc.Scheme() == locator.DefaultScheme {
		if p, ok := r.authorities[loc.Authority()]; ok {
			return p, nil
		}
		return nil, fmt.Errorf("resolver: no provider for authority %q in %s", loc.Authority(), loc)
	}
	if p, ok := r.schemes[loc.Scheme()]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("resolver: no provider for scheme %q in %s", loc.Scheme(), loc)
}

func sortedKeys(m map[string]fetch.ResourceProvider) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
