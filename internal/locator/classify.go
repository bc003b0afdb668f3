package locator

// ContactsAuthority is the authority of the identity (contacts) provider.
const ContactsAuthority = "contacts"

// classifier is built once at package initialization and never mutated.
var classifier = NewMatcher().
	Add(ContactsAuthority, "contacts/lookup/*/#", KindContactLookupKey).
	Add(ContactsAuthority, "contacts/lookup/*", KindContactLookupKey).
	Add(ContactsAuthority, "contacts/#/photo", KindContactThumbnail).
	Add(ContactsAuthority, "contacts/#", KindDirectContactRecord).
	Add(ContactsAuthority, "contacts/#/display_photo", KindContactDisplayPhoto).
	Add(ContactsAuthority, "phone_lookup/*", KindPhoneNumberLookup)

// Classify returns the Kind of loc. It performs no I/O and always returns
// a kind, falling back to KindGenericAddressable.
func Classify(loc Locator) Kind {
	return classifier.Match(loc)
}

// ContactID returns the numeric contact id of a direct contact, thumbnail
// or display photo locator.
func ContactID(loc Locator) (string, bool) {
	switch Classify(loc) {
	case KindDirectContactRecord, KindContactThumbnail, KindContactDisplayPhoto:
		return loc.Segment(1), true
	default:
		return "", false
	}
}

// Contact returns the direct record locator for a contact id.
func Contact(id string) Locator {
	return New(DefaultScheme, ContactsAuthority, "contacts", id)
}
