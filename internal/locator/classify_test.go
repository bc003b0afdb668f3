package locator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		locator string
		want    Kind
	}{
		{"content://contacts/contacts/lookup/3570i61d948d30808e537", KindContactLookupKey},
		{"content://contacts/contacts/lookup/abc123/38", KindContactLookupKey},
		{"contacts/lookup/abc123/38", KindContactLookupKey},
		{"content://contacts/contacts/38/photo", KindContactThumbnail},
		{"contacts/99/photo", KindContactThumbnail},
		{"content://contacts/contacts/38", KindDirectContactRecord},
		{"contacts/38", KindDirectContactRecord},
		{"content://contacts/contacts/5/display_photo", KindContactDisplayPhoto},
		{"content://contacts/phone_lookup/232323232", KindPhoneNumberLookup},
		{"phone_lookup/+15551234", KindPhoneNumberLookup},

		// Shapes that must fall through to the generic kind.
		{"randomscheme/foo", KindGenericAddressable},
		{"content://contacts/contacts/abc", KindGenericAddressable},
		{"content://contacts/contacts/38/photo/extra", KindGenericAddressable},
		{"content://contacts/contacts/lookup/abc/notanumber", KindGenericAddressable},
		{"content://contacts/contacts/lookup", KindGenericAddressable},
		{"content://contacts/contacts", KindGenericAddressable},
		{"content://contacts/phone_lookup", KindGenericAddressable},
		{"content://media/external/images/media/12", KindGenericAddressable},
		{"content://media/contacts/38", KindGenericAddressable},
		{"https://example.com/contacts/38", KindGenericAddressable},
		{"s3://bucket/contacts/38/photo", KindGenericAddressable},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.locator, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Classify(MustParse(tc.locator)))
		})
	}
}

func TestClassify_SuffixNotMistakenForContact(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"0", "38", "99", "1234567890"} {
		base := Contact(id)
		require.Equal(t, KindDirectContactRecord, Classify(base))
		require.Equal(t, KindContactThumbnail, Classify(base.Append("photo")))
		require.Equal(t, KindContactDisplayPhoto, Classify(base.Append("display_photo")))
	}
}

func TestClassify_Idempotent(t *testing.T) {
	t.Parallel()

	locators := []string{
		"contacts/lookup/abc123/38",
		"contacts/38",
		"contacts/38/photo",
		"randomscheme/foo",
	}

	for _, raw := range locators {
		loc := MustParse(raw)
		first := Classify(loc)

		results := make([]Kind, 8)
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = Classify(loc)
			}(i)
		}
		wg.Wait()

		for _, got := range results {
			require.Equal(t, first, got, raw)
		}
	}
}

func TestContactID(t *testing.T) {
	t.Parallel()

	id, ok := ContactID(MustParse("content://contacts/contacts/38/display_photo"))
	require.True(t, ok)
	require.Equal(t, "38", id)

	_, ok = ContactID(MustParse("content://contacts/contacts/lookup/abc"))
	require.False(t, ok)
}

func TestMatcher_FirstMatchWins(t *testing.T) {
	t.Parallel()

	m := NewMatcher().
		Add("a", "x/*", KindPhoneNumberLookup).
		Add("a", "x/#", KindDirectContactRecord)

	require.Equal(t, KindPhoneNumberLookup, m.Match(MustParse("content://a/x/12")))
	require.Equal(t, KindGenericAddressable, m.Match(MustParse("content://b/x/12")))
	require.Equal(t, KindPhoneNumberLookup, m.Match(MustParse("x/12")))
}

func TestKind_StringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds() {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, parsed)
	}
	_, err := ParseKind("nope")
	require.Error(t, err)
	require.Equal(t, "kind(42)", Kind(42).String())
}
