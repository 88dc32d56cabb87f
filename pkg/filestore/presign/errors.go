package presign

import (
	"errors"

	"github.com/datadives/project-roodha/pkg/filestore"
)

// Signature validation errors. Expiry and signature failures use the
// filestore sentinels so callers branch on one taxonomy.
var (
	// ErrNoSecretKey is returned when attempting to sign URLs without a configured secret key
	ErrNoSecretKey = errors.New("presign: no secret key configured")

	// ErrMissingSignature is returned when the signature query parameter is missing
	ErrMissingSignature = errors.New("presign: missing signature parameter")

	// ErrMissingExpiration is returned when the expires query parameter is missing
	ErrMissingExpiration = errors.New("presign: missing expires parameter")

	// ErrMissingNonce is returned when the nonce query parameter is missing
	ErrMissingNonce = errors.New("presign: missing nonce parameter")

	// ErrInvalidExpiration is returned when the expires parameter cannot be parsed
	ErrInvalidExpiration = errors.New("presign: invalid expires parameter")
)

// IsAuthError returns true if the error is a signature validation error
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrMissingExpiration) ||
		errors.Is(err, ErrMissingNonce) ||
		errors.Is(err, ErrInvalidExpiration) ||
		errors.Is(err, filestore.ErrUploadExpired) ||
		errors.Is(err, filestore.ErrSignatureMismatch)
}
