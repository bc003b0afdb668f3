package scanner

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rodrigopv/streamfetch/internal/fetch"
	"github.com/rodrigopv/streamfetch/internal/locator"
	"github.com/rodrigopv/streamfetch/internal/provider/contacts"
	"github.com/rodrigopv/streamfetch/internal/resolver"
)

func newTestScanner(t *testing.T) (*Scanner, string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte("<!doctype html><html><head><title> Hello Page </title></head><body>hi</body></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.bin"), nil, 0o644))

	f := fetch.New(contacts.Empty(), resolver.New(dir, nil))
	return NewScanner(f, nil), dir
}

func TestScanner_ScanTarget(t *testing.T) {
	t.Parallel()

	s, _ := newTestScanner(t)
	result, err := s.ScanTarget(context.Background(), "index.html")
	require.NoError(t, err)
	require.Equal(t, locator.KindGenericAddressable, result.Kind)
	require.Equal(t, fetch.StrategyGenericOpen, result.Strategy)
	require.Equal(t, int64(83), result.Bytes)
	require.Equal(t, "text/html; charset=utf-8", result.ContentType)
	require.Equal(t, "Hello Page", result.Title)
	require.Len(t, result.SHA256, 64)
	require.Empty(t, result.Error)
	require.False(t, result.NotFound)
	require.Empty(t, result.Resolved)
}

func TestScanner_ReportsResolvedLocator(t *testing.T) {
	t.Parallel()

	dir, err := contacts.Parse(strings.NewReader(
		`<div class="h-card" data-id="7" data-lookup="k7"><img class="u-photo" src="data:,face"></div>`), "")
	require.NoError(t, err)
	s := NewScanner(fetch.New(dir, resolver.New(t.TempDir(), nil)), nil)

	result, err := s.ScanTarget(context.Background(), "content://contacts/contacts/lookup/k7")
	require.NoError(t, err)
	require.Equal(t, "content://contacts/contacts/7", result.Resolved)
	require.Equal(t, int64(4), result.Bytes)

	result, err = s.ScanTarget(context.Background(), "content://contacts/contacts/7")
	require.NoError(t, err)
	require.Empty(t, result.Resolved)
}

func TestScanner_EmptyStream(t *testing.T) {
	t.Parallel()

	s, _ := newTestScanner(t)
	result, err := s.ScanTarget(context.Background(), "empty.bin")
	require.NoError(t, err)
	require.Zero(t, result.Bytes)
	require.Empty(t, result.ContentType)
	// Digest of the empty input.
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", result.SHA256)
}

func TestScanner_Failures(t *testing.T) {
	t.Parallel()

	s, _ := newTestScanner(t)
	ctx := context.Background()

	result, err := s.ScanTarget(ctx, "content://contacts/contacts/lookup/nobody")
	require.ErrorIs(t, err, fetch.ErrNotFound)
	require.NotNil(t, result)
	require.True(t, result.NotFound)
	require.Equal(t, locator.KindContactLookupKey, result.Kind)
	require.Equal(t, fetch.StrategyLookupContactPhoto, result.Strategy)
	require.Contains(t, result.Error, "contact cannot be found")

	result, err = s.ScanTarget(ctx, "missing.txt")
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.NotNil(t, result)
	require.False(t, result.NotFound)
}

func TestWriteOutput(t *testing.T) {
	t.Parallel()

	s, _ := newTestScanner(t)
	result, err := s.ScanTarget(context.Background(), "index.html")
	require.NoError(t, err)

	out := t.TempDir()

	jsonPath := filepath.Join(out, "result.json")
	require.NoError(t, WriteOutput(result, jsonPath, "json"))
	b, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "generic", decoded["kind"])
	require.Equal(t, "generic_open", decoded["strategy"])
	require.Equal(t, "Hello Page", decoded["title"])

	textPath := filepath.Join(out, "result.txt")
	require.NoError(t, WriteOutput(result, textPath, "text"))
	b, err = os.ReadFile(textPath)
	require.NoError(t, err)
	require.Contains(t, string(b), "Kind: generic\n")
	require.Contains(t, string(b), "HTML Title: Hello Page\n")

	require.Error(t, WriteOutput(result, textPath, "xml"))
	require.Error(t, PrintResults(result, "xml"))
}
