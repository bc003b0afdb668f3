// Package contacts serves contact locators from an HTML contact directory.
//
// The directory is a single HTML document holding one h-card element per
// contact:
//
//	<div class="h-card" data-id="38" data-lookup="3570i61d948d30808e537">
//	  <span class="p-name">Ada Lovelace</span>
//	  <a class="p-tel" href="tel:+15551234">+1 555 1234</a>
//	  <img class="u-photo" src="photos/38-thumb.jpg">
//	  <img class="u-photo u-featured" src="photos/38.jpg">
//	</div>
//
// The plain u-photo is the thumbnail and the u-featured one is the high
// resolution display photo. Photo sources are file paths relative to the
// directory document, absolute paths, or base64 data URIs.
package contacts

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rodrigopv/streamfetch/internal/locator"
)

// Contact is one h-card entry of the directory.
type Contact struct {
	ID           string   `json:"id"`
	LookupKey    string   `json:"lookupKey,omitempty"`
	Name         string   `json:"name,omitempty"`
	Phones       []string `json:"phones,omitempty"`
	Thumbnail    string   `json:"thumbnail,omitempty"`
	DisplayPhoto string   `json:"displayPhoto,omitempty"`
}

// Directory is an immutable, in-memory contact directory. It implements
// fetch.IdentityProvider and fetch.ResourceProvider for the contacts
// authority.
type Directory struct {
	baseDir  string
	byID     map[string]*Contact
	byLookup map[string]*Contact
	byPhone  map[string]*Contact
	order    []string
}

// Empty returns a directory without contacts.
func Empty() *Directory {
	return &Directory{
		byID:     make(map[string]*Contact),
		byLookup: make(map[string]*Contact),
		byPhone:  make(map[string]*Contact),
	}
}

// Load reads and parses the directory document at path.
func Load(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("contacts: failed to open directory: %w", err)
	}
	defer f.Close()

	return Parse(f, filepath.Dir(path))
}

// Parse reads a directory document from r. Relative photo paths are
// resolved against baseDir.
func Parse(r io.Reader, baseDir string) (*Directory, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("contacts: failed to parse HTML: %w", err)
	}

	d := Empty()
	d.baseDir = baseDir

	var parseErr error
	doc.Find(".h-card").EachWithBreak(func(i int, s *goquery.Selection) bool {
		c, err := parseCard(s)
		if err != nil {
			parseErr = fmt.Errorf("contacts: h-card #%d: %w", i+1, err)
			return false
		}
		if _, dup := d.byID[c.ID]; dup {
			parseErr = fmt.Errorf("contacts: duplicate contact id %s", c.ID)
			return false
		}
		d.byID[c.ID] = c
		d.order = append(d.order, c.ID)
		if c.LookupKey != "" {
			d.byLookup[c.LookupKey] = c
		}
		for _, p := range c.Phones {
			if _, taken := d.byPhone[p]; !taken {
				d.byPhone[p] = c
			}
		}
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return d, nil
}

func parseCard(s *goquery.Selection) (*Contact, error) {
	id := strings.TrimSpace(s.AttrOr("data-id", ""))
	if !isDigits(id) {
		return nil, fmt.Errorf("data-id %q is not numeric", id)
	}

	c := &Contact{
		ID:        id,
		LookupKey: strings.TrimSpace(s.AttrOr("data-lookup", "")),
		Name:      strings.TrimSpace(s.Find(".p-name").First().Text()),
	}

	s.Find(".p-tel").Each(func(_ int, tel *goquery.Selection) {
		raw := tel.AttrOr("href", "")
		if strings.HasPrefix(raw, "tel:") {
			raw = strings.TrimPrefix(raw, "tel:")
		} else {
			raw = tel.Text()
		}
		if n := NormalizePhone(raw); n != "" {
			c.Phones = append(c.Phones, n)
		}
	})

	s.Find("img.u-photo").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			return
		}
		if img.HasClass("u-featured") {
			if c.DisplayPhoto == "" {
				c.DisplayPhoto = src
			}
			return
		}
		if c.Thumbnail == "" {
			c.Thumbnail = src
		}
	})

	return c, nil
}

// NormalizePhone strips everything but digits and a leading plus sign.
func NormalizePhone(raw string) string {
	var sb strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '+' && i == 0:
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 || sb.String() == "+" {
		return ""
	}
	return sb.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Authority returns the locator authority served by the directory.
func (d *Directory) Authority() string {
	return locator.ContactsAuthority
}

// Contacts returns the directory entries in document order.
func (d *Directory) Contacts() []Contact {
	out := make([]Contact, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, *d.byID[id])
	}
	return out
}

// Get returns the contact with the given id.
func (d *Directory) Get(id string) (Contact, bool) {
	c, ok := d.byID[id]
	if !ok {
		return Contact{}, false
	}
	return *c, true
}

// ResolveLookup maps a lookup-key or phone-number locator to the direct
// record locator of the matching contact, keeping the scheme and
// authority of loc. It returns nil when no contact matches.
func (d *Directory) ResolveLookup(ctx context.Context, loc locator.Locator) (*locator.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var c *Contact
	switch locator.Classify(loc) {
	case locator.KindContactLookupKey:
		c = d.byLookup[loc.Segment(2)]
		if c == nil && loc.Len() == 4 {
			// The id suffix is only a hint; it resolves a contact that carries no
			// lookup key of its own.
			if hinted, ok := d.byID[loc.Segment(3)]; ok && hinted.LookupKey == "" {
				c = hinted
			}
		}
	case locator.KindPhoneNumberLookup:
		c = d.byPhone[NormalizePhone(loc.Segment(1))]
	default:
		return nil, fmt.Errorf("contacts: %s is not a lookup locator", loc)
	}

	if c == nil {
		return nil, nil
	}
	resolved := loc.WithPath("contacts", c.ID)
	return &resolved, nil
}

// OpenContactPhoto opens the photo of a direct contact locator. With
// preferHighRes the display photo is used when present, falling back to
// the thumbnail. It returns nil, nil when the contact or photo is missing.
func (d *Directory) OpenContactPhoto(ctx context.Context, contact locator.Locator, preferHighRes bool) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, ok := locator.ContactID(contact)
	if !ok {
		return nil, fmt.Errorf("contacts: %s is not a contact locator", contact)
	}
	c, ok := d.byID[id]
	if !ok {
		return nil, nil
	}

	src := c.Thumbnail
	if preferHighRes && c.DisplayPhoto != "" {
		src = c.DisplayPhoto
	}
	return d.openPhoto(src)
}

// OpenStream serves contact locators through the generic open primitive:
// thumbnails, display photos, and direct records (thumbnail only).
func (d *Directory) OpenStream(ctx context.Context, loc locator.Locator) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind := locator.Classify(loc)
	id, ok := locator.ContactID(loc)
	if !ok {
		return nil, fmt.Errorf("contacts: cannot open %s (%s)", loc, kind)
	}
	c, ok := d.byID[id]
	if !ok {
		return nil, nil
	}

	switch kind {
	case locator.KindContactDisplayPhoto:
		return d.openPhoto(c.DisplayPhoto)
	default:
		return d.openPhoto(c.Thumbnail)
	}
}

func (d *Directory) openPhoto(src string) (io.ReadCloser, error) {
	if src == "" {
		return nil, nil
	}

	if strings.HasPrefix(src, "data:") {
		data, err := decodeDataURI(src)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	path := src
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.baseDir, filepath.FromSlash(src))
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

func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("contacts: malformed data URI")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("contacts: failed to decode data URI: %w", err)
	}
	return data, nil
}
