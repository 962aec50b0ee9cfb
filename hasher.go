package sessiongate

import (
	"crypto/sha1"
	"encoding/hex"
	stderrors "errors"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// HashAlgorithm tags how an email record's password hash was produced.
type HashAlgorithm string

const (
	// AlgorithmBcrypt is the current scheme: bcrypt over the raw plaintext.
	AlgorithmBcrypt HashAlgorithm = "bcrypt"
	// AlgorithmSHA1Bcrypt is the legacy scheme: bcrypt over the hex-encoded
	// SHA-1 digest of the plaintext. Historical hashes keep validating
	// without a rehash; the engine never persists a downgraded hash.
	AlgorithmSHA1Bcrypt HashAlgorithm = "sha1-bcrypt"
)

// HashPassword generates a password hash under the current scheme.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(h), err
}

// VerifyPassword validates cleartext against a stored hash under the tagged
// algorithm. Timing resistance is delegated to bcrypt's comparison.
func VerifyPassword(password, hash string, algorithm HashAlgorithm) error {
	switch algorithm {
	case AlgorithmBcrypt, "":
		return comparePasswordAndHash(password, hash)
	case AlgorithmSHA1Bcrypt:
		return comparePasswordAndHash(sha1Hex(password), hash)
	default:
		return errors.New("unknown password hash algorithm", errors.CategoryInternal).
			WithMetadata(map[string]any{"algorithm": string(algorithm)})
	}
}

func comparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if stderrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
