package sessiongate

import (
	"strings"
	"time"
)

// RecordKind discriminates the three logical record types the engine stores.
type RecordKind string

const (
	KindUser         RecordKind = "user"
	KindEmail        RecordKind = "user-email"
	KindRefreshToken RecordKind = "refresh-token"
)

// AuthType tags how an email record authenticates. Password accounts use
// AuthTypePassword; delegated accounts carry the provider name ("github",
// "google", ...).
type AuthType = string

const AuthTypePassword AuthType = "password"

const (
	emailKeySuffix   = "-email"
	refreshKeySuffix = "-refresh"
)

// Record is the document shape shared by all three kinds. Only the fields
// relevant to a record's kind are populated; store adapters persist them
// as-is. Rev belongs to the adapter: revision-aware backends (memstore,
// bunstore) stamp it on write, others (redistore) persist it verbatim;
// callers carry it back unchanged on read-modify-write.
type Record struct {
	Key  string
	Kind RecordKind
	Rev  string

	// user
	DisplayName string

	// user-email
	UserID        string
	AuthType      AuthType
	Algorithm     HashAlgorithm
	PasswordHash  string
	FailedLogins  int
	AccountLocked *time.Time

	// refresh-token; Created is seconds since epoch
	Created int64
}

// EmailKey derives the store key for an email record. Addresses are
// case-folded so one mailbox maps to one record.
func EmailKey(email string) string {
	return NormalizeEmail(email) + emailKeySuffix
}

// RefreshKey derives the store key for a refresh-token record from the hex
// digest of the refresh secret. The store never holds the raw secret.
func RefreshKey(digest string) string {
	return digest + refreshKeySuffix
}

// NormalizeEmail lower-cases and trims an email address for use as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUserRecord builds the user document created during provisioning or
// registration.
func NewUserRecord(userID, displayName string) *Record {
	return &Record{
		Key:         userID,
		Kind:        KindUser,
		DisplayName: displayName,
	}
}

// NewEmailRecord builds the email document linking an address to its owning
// user under the given authentication type.
func NewEmailRecord(email, userID string, authType AuthType) *Record {
	return &Record{
		Key:      EmailKey(email),
		Kind:     KindEmail,
		UserID:   userID,
		AuthType: authType,
	}
}
