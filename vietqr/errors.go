package vietqr

import "errors"

var (
	ErrMissingBankBin       = errors.New("bankBin is required")
	ErrMissingAccountNumber = errors.New("accountNumber is required")
	ErrFieldTooLong         = errors.New("field value exceeds 99 characters")
	ErrInvalidTag           = errors.New("tag must be two decimal digits")
	ErrMalformedPayload     = errors.New("malformed EMV-QR payload")
	ErrChecksumMismatch     = errors.New("EMV-QR checksum mismatch")
)

// ValidationErrors are caused by caller input rather than by the encoder.
var ValidationErrors = []error{
	ErrMissingBankBin,
	ErrMissingAccountNumber,
	ErrFieldTooLong,
	ErrInvalidTag,
	ErrMalformedPayload,
	ErrChecksumMismatch,
}

// IsValidationError reports whether err wraps one of ValidationErrors.
func IsValidationError(err error) bool {
	for _, item := range ValidationErrors {
		if errors.Is(err, item) {
			return true
		}
	}
	return false
}
