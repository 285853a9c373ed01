package service

import (
	"errors"

	"github.com/Rheinmir/qr-generator-module/batch"
	"github.com/Rheinmir/qr-generator-module/compose"
	"github.com/Rheinmir/qr-generator-module/render"
	"github.com/Rheinmir/qr-generator-module/sheet"
	"github.com/Rheinmir/qr-generator-module/vietqr"
)

var (
	ErrInvalidAmount = errors.New("amount must be a positive whole number of VND with at most 13 digits")
	ErrInvalidBody   = errors.New("invalid request body")
)

// ClientErrors are reported to the caller as 400 Bad Request.
var ClientErrors = []error{
	ErrInvalidAmount,
	ErrInvalidBody,
	batch.ErrNoItems,
	batch.ErrTooMany,
	batch.ErrNoOutput,
	compose.ErrMissingField,
	compose.ErrInvalidField,
	compose.ErrUnknownKind,
	sheet.ErrEmptyWorkbook,
	sheet.ErrInvalidFile,
}

// IsClientError reports whether err was caused by the request.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	if vietqr.IsValidationError(err) || render.IsInputError(err) {
		return true
	}
	for _, item := range ClientErrors {
		if errors.Is(err, item) {
			return true
		}
	}
	return false
}
