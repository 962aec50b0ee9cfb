package sessiongate

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeAccountLocked      = "ACCOUNT_LOCKED"
	TextCodeWrongAuthType      = "WRONG_AUTH_TYPE"
	TextCodeRecordNotFound     = "RECORD_NOT_FOUND"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeRefreshRejected    = "REFRESH_REJECTED"
)

// ErrInvalidCredentials covers wrong passwords and signature failures alike;
// callers never learn which factor failed.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrAccountLocked is returned while a lockout window is still open.
var ErrAccountLocked = errors.New("account locked", errors.CategoryAuth).
	WithTextCode(TextCodeAccountLocked).
	WithCode(errors.CodeUnauthorized)

// ErrWrongAuthType is returned when the email exists under a different
// authentication method than the one attempted.
var ErrWrongAuthType = errors.New("authentication type mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeWrongAuthType).
	WithCode(errors.CodeUnauthorized)

// ErrRecordNotFound signals absence from the record store. Store adapters
// return it (or any CategoryNotFound error) from Get.
var ErrRecordNotFound = errors.New("record not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRecordNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenExpired is returned for structurally valid access tokens past their
// expiry.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or signature
// verification.
var ErrTokenMalformed = errors.New("token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshRejected collapses expired and unknown refresh secrets into one
// unauthorized outcome, so "never had a session" and "session expired" are
// indistinguishable to a caller.
var ErrRefreshRejected = errors.New("refresh token rejected", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshRejected).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToFindSession means no session was stored under the given key.
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode("SESSION_NOT_FOUND").
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession means the stored value was not a Session.
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode("SESSION_DECODE").
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// IsRecordNotFound reports whether err represents store-level absence, which
// the engine treats as domain information rather than a failure.
func IsRecordNotFound(err error) bool {
	return errors.IsNotFound(err)
}

// IsAccountLocked reports whether err carries the ACCOUNT_LOCKED text code.
func IsAccountLocked(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeAccountLocked
}
