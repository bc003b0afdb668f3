package locator

import (
	"fmt"
	"strings"
)

// Kind tags the structural shape of a Locator. It selects the retrieval
// strategy used to open a stream for it.
type Kind int

const (
	// KindGenericAddressable is the catch-all for locators no rule recognizes.
	KindGenericAddressable Kind = iota
	// KindDirectContactRecord addresses a contact by numeric id (contacts/38).
	KindDirectContactRecord
	// KindContactLookupKey addresses a contact by lookup key (contacts/lookup/<key>[/<id>]).
	KindContactLookupKey
	// KindPhoneNumberLookup addresses a contact by phone number (phone_lookup/<number>).
	KindPhoneNumberLookup
	// KindContactThumbnail addresses a contact's thumbnail (contacts/38/photo).
	KindContactThumbnail
	// KindContactDisplayPhoto addresses a contact's high resolution photo (contacts/38/display_photo).
	KindContactDisplayPhoto
)

var kindNames = map[Kind]string{
	KindGenericAddressable:  "generic",
	KindDirectContactRecord: "contact",
	KindContactLookupKey:    "contact_lookup",
	KindPhoneNumberLookup:   "phone_lookup",
	KindContactThumbnail:    "contact_thumbnail",
	KindContactDisplayPhoto: "contact_display_photo",
}

// Kinds lists every Kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindGenericAddressable,
		KindDirectContactRecord,
		KindContactLookupKey,
		KindPhoneNumberLookup,
		KindContactThumbnail,
		KindContactDisplayPhoto,
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsContact reports whether k is resolved through the identity provider.
func (k Kind) IsContact() bool {
	switch k {
	case KindDirectContactRecord, KindContactLookupKey, KindPhoneNumberLookup:
		return true
	default:
		return false
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindGenericAddressable, fmt.Errorf("unknown locator kind %q", s)
}

// MarshalText implements encoding.TextMarshaler so kinds render by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
