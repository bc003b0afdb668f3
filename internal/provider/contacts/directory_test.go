package contacts

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rodrigopv/streamfetch/internal/locator"
)

const directoryHTML = `<!doctype html>
<html><body>
<div class="h-card" data-id="38" data-lookup="abc123">
  <span class="p-name">Ada Lovelace</span>
  <a class="p-tel" href="tel:+1 (555) 1234">call</a>
  <img class="u-photo" src="photos/38-thumb.jpg">
  <img class="u-photo u-featured" src="photos/38.jpg">
</div>
<div class="h-card" data-id="39">
  <span class="p-name">Grace Hopper</span>
  <span class="p-tel">555-0000</span>
  <img class="u-photo" src="data:text/plain;base64,dGh1bWI=">
</div>
<div class="h-card" data-id="40" data-lookup="nophoto">
  <span class="p-name">No Photo</span>
</div>
</body></html>`

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "photos"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photos", "38-thumb.jpg"), []byte("thumb-38"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photos", "38.jpg"), []byte("hires-38"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contacts.html"), []byte(directoryHTML), 0o644))

	d, err := Load(filepath.Join(dir, "contacts.html"))
	require.NoError(t, err)
	return d
}

func readAndClose(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	require.NotNil(t, rc)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestParse(t *testing.T) {
	t.Parallel()

	d := newTestDirectory(t)
	all := d.Contacts()
	require.Len(t, all, 3)
	require.Equal(t, "38", all[0].ID)
	require.Equal(t, "Ada Lovelace", all[0].Name)
	require.Equal(t, []string{"+15551234"}, all[0].Phones)
	require.Equal(t, "photos/38.jpg", all[0].DisplayPhoto)
	require.Equal(t, "photos/38-thumb.jpg", all[0].Thumbnail)

	c, ok := d.Get("39")
	require.True(t, ok)
	require.Equal(t, []string{"5550000"}, c.Phones)
	require.Empty(t, c.LookupKey)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader(`<div class="h-card" data-id="x"></div>`), "")
	require.ErrorContains(t, err, "not numeric")

	_, err = Parse(strings.NewReader(`<div class="h-card" data-id="1"></div><div class="h-card" data-id="1"></div>`), "")
	require.ErrorContains(t, err, "duplicate contact id")

	_, err = Load(filepath.Join(t.TempDir(), "missing.html"))
	require.Error(t, err)
}

func TestDirectory_ResolveLookup(t *testing.T) {
	t.Parallel()

	d := newTestDirectory(t)
	ctx := context.Background()

	testCases := []struct {
		locator string
		want    string
	}{
		{"content://contacts/contacts/lookup/abc123", "content://contacts/contacts/38"},
		{"content://contacts/contacts/lookup/abc123/38", "content://contacts/contacts/38"},
		{"contacts/lookup/abc123/38", "contacts/38"},
		{"content://contacts/contacts/lookup/stale/39", "content://contacts/contacts/39"},
		{"content://contacts/phone_lookup/%2B15551234", "content://contacts/contacts/38"},
		{"phone_lookup/555-0000", "contacts/39"},
		{"content://contacts/contacts/lookup/unknown", ""},
		{"content://contacts/contacts/lookup/stale/38", ""},
		{"content://contacts/phone_lookup/999", ""},
	}

	for _, tc := range testCases {
		got, err := d.ResolveLookup(ctx, locator.MustParse(tc.locator))
		require.NoError(t, err, tc.locator)
		if tc.want == "" {
			require.Nil(t, got, tc.locator)
			continue
		}
		require.NotNil(t, got, tc.locator)
		require.Equal(t, tc.want, got.String())
	}

	_, err := d.ResolveLookup(ctx, locator.MustParse("content://contacts/contacts/38"))
	require.Error(t, err)
}

func TestDirectory_OpenContactPhoto(t *testing.T) {
	t.Parallel()

	d := newTestDirectory(t)
	ctx := context.Background()

	rc, err := d.OpenContactPhoto(ctx, locator.Contact("38"), true)
	require.NoError(t, err)
	require.Equal(t, "hires-38", readAndClose(t, rc))

	rc, err = d.OpenContactPhoto(ctx, locator.Contact("38"), false)
	require.NoError(t, err)
	require.Equal(t, "thumb-38", readAndClose(t, rc))

	// No display photo: high resolution preference falls back to the thumbnail.
	rc, err = d.OpenContactPhoto(ctx, locator.Contact("39"), true)
	require.NoError(t, err)
	require.Equal(t, "thumb", readAndClose(t, rc))

	rc, err = d.OpenContactPhoto(ctx, locator.Contact("40"), true)
	require.NoError(t, err)
	require.Nil(t, rc)

	rc, err = d.OpenContactPhoto(ctx, locator.Contact("404"), true)
	require.NoError(t, err)
	require.Nil(t, rc)

	_, err = d.OpenContactPhoto(ctx, locator.MustParse("randomscheme/foo"), true)
	require.Error(t, err)
}

func TestDirectory_OpenStream(t *testing.T) {
	t.Parallel()

	d := newTestDirectory(t)
	ctx := context.Background()

	rc, err := d.OpenStream(ctx, locator.MustParse("content://contacts/contacts/38/photo"))
	require.NoError(t, err)
	require.Equal(t, "thumb-38", readAndClose(t, rc))

	rc, err = d.OpenStream(ctx, locator.MustParse("content://contacts/contacts/38/display_photo"))
	require.NoError(t, err)
	require.Equal(t, "hires-38", readAndClose(t, rc))

	rc, err = d.OpenStream(ctx, locator.MustParse("content://contacts/contacts/39/display_photo"))
	require.NoError(t, err)
	require.Nil(t, rc)

	_, err = d.OpenStream(ctx, locator.MustParse("content://contacts/contacts/lookup/abc123"))
	require.Error(t, err)
}

func TestDirectory_CanceledContext(t *testing.T) {
	t.Parallel()

	d := newTestDirectory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.ResolveLookup(ctx, locator.MustParse("contacts/lookup/abc123"))
	require.ErrorIs(t, err, context.Canceled)
	_, err = d.OpenContactPhoto(ctx, locator.Contact("38"), true)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	require.Equal(t, "+15551234", NormalizePhone(" +1 (555) 123-4 "))
	require.Equal(t, "5551234", NormalizePhone("555.1234"))
	require.Equal(t, "", NormalizePhone("+"))
	require.Equal(t, "", NormalizePhone("call me"))
	require.Equal(t, "12", NormalizePhone("1+2"))
}
