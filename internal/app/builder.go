// Package app wires providers and the stream fetcher from configuration.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rodrigopv/streamfetch/internal/config"
	"github.com/rodrigopv/streamfetch/internal/diag"
	"github.com/rodrigopv/streamfetch/internal/fetch"
	"github.com/rodrigopv/streamfetch/internal/provider/contacts"
	"github.com/rodrigopv/streamfetch/internal/provider/media"
	"github.com/rodrigopv/streamfetch/internal/provider/objectstore"
	"github.com/rodrigopv/streamfetch/internal/provider/web"
	"github.com/rodrigopv/streamfetch/internal/resolver"
)

// App holds the wired components. Media is nil when no media root is
// configured.
type App struct {
	Fetcher  *fetch.StreamFetcher
	Resolver *resolver.Resolver
	Contacts *contacts.Directory
	Media    *media.Store
}

// Build creates every provider enabled in cfg and the fetcher on top of them.
func Build(cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = diag.Nop()
	}

	res := resolver.New(cfg.FileRoot, log.Named("resolver"))
	a := &App{Resolver: res, Contacts: contacts.Empty()}

	if cfg.Contacts.Directory != "" {
		dir, err := contacts.Load(cfg.Contacts.Directory)
		if err != nil {
			return nil, err
		}
		log.Debugf("loaded %d contacts from %s", len(dir.Contacts()), cfg.Contacts.Directory)
		a.Contacts = dir
	}
	res.RegisterAuthority(a.Contacts.Authority(), a.Contacts)

	if !cfg.HTTP.Disabled {
		client := web.NewClient(cfg.HTTP.Profiles, log.Named("web"))
		for _, scheme := range client.Schemes() {
			res.RegisterScheme(scheme, client)
		}
	}

	if cfg.ObjectStore != nil {
		store, err := objectstore.New(*cfg.ObjectStore, log.Named("objectstore"))
		if err != nil {
			return nil, fmt.Errorf("failed to set up object store: %w", err)
		}
		for _, scheme := range store.Schemes() {
			res.RegisterScheme(scheme, store)
		}
	}

	opts := []fetch.Option{
		fetch.WithFastPath(cfg.FastPath),
		fetch.WithLogger(log.Named("fetch")),
	}
	if cfg.Media.Root != "" {
		a.Media = media.NewStore(cfg.Media.Root,
			media.WithMinKernel(cfg.Media.MinKernel),
			media.WithLogger(log.Named("media")),
		)
		res.RegisterAuthority(a.Media.Authority(), a.Media)
		opts = append(opts, fetch.WithFastPathProvider(a.Media))
	}

	a.Fetcher = fetch.New(a.Contacts, res, opts...)
	return a, nil
}
