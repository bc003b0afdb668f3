package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rodrigopv/streamfetch/internal/config"
	"github.com/rodrigopv/streamfetch/internal/fetch"
	"github.com/rodrigopv/streamfetch/internal/locator"
)

func TestBuild_Defaults(t *testing.T) {
	t.Parallel()

	a, err := Build(nil, nil)
	require.NoError(t, err)
	require.NotNil(t, a.Fetcher)
	require.Nil(t, a.Media)
	require.Empty(t, a.Contacts.Contacts())
	require.ElementsMatch(t, []string{"file", "http", "https"}, a.Resolver.Schemes())
	require.Equal(t, []string{locator.ContactsAuthority}, a.Resolver.Authorities())

	caps := a.Fetcher.Capabilities()
	require.True(t, caps.FastPathRequested)
	require.False(t, caps.FastPathProvider)
}

func TestBuild_WiresProviders(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mediaDir := filepath.Join(root, "media", "external", "images", "media")
	require.NoError(t, os.MkdirAll(mediaDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mediaDir, "7"), []byte("pixels"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "note.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "contacts.html"),
		[]byte(`<div class="h-card" data-id="1" data-lookup="k1"><img class="u-photo" src="data:,face"></div>`), 0o644))

	cfg := config.Default()
	cfg.FileRoot = root
	cfg.Contacts.Directory = filepath.Join(root, "contacts.html")
	cfg.Media.Root = filepath.Join(root, "media")
	cfg.HTTP.Disabled = true

	a, err := Build(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, a.Media)
	require.Equal(t, []string{"file"}, a.Resolver.Schemes())
	require.ElementsMatch(t, []string{locator.ContactsAuthority, "media"}, a.Resolver.Authorities())
	require.True(t, a.Fetcher.Capabilities().FastPathProvider)

	ctx := context.Background()
	testCases := []struct {
		locator string
		want    string
	}{
		{"note.txt", "hello"},
		{"content://contacts/contacts/lookup/k1", "face"},
		{"contacts/1/photo", "face"},
		{"contacts/lookup/k1", "face"},
		{"content://media/external/images/media/7", "pixels"},
	}
	for _, tc := range testCases {
		s, err := a.Fetcher.Open(ctx, locator.MustParse(tc.locator))
		require.NoError(t, err, tc.locator)
		b, err := io.ReadAll(s)
		require.NoError(t, err, tc.locator)
		require.Equal(t, tc.want, string(b), tc.locator)
		require.NoError(t, a.Fetcher.Close(s), tc.locator)
	}

	_, err = a.Fetcher.Open(ctx, locator.MustParse("content://contacts/contacts/lookup/missing"))
	require.ErrorIs(t, err, fetch.ErrNotFound)

	_, err = a.Fetcher.Open(ctx, locator.MustParse("contacts/99/photo"))
	require.ErrorIs(t, err, fetch.ErrNotFound)
	require.EqualError(t, err, "stream is null for contacts/99/photo")
}

func TestBuild_BadContactsDirectory(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Contacts.Directory = filepath.Join(t.TempDir(), "missing.html")
	_, err := Build(cfg, nil)
	require.Error(t, err)
}
