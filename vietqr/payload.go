// Package vietqr encodes VietQR (EMV-QR) bank transfer payloads.
package vietqr

import (
	"fmt"
	"strings"
)

// Top level tags in the order they are emitted.
const (
	TagFormatIndicator = "00"
	TagInitiation      = "01"
	TagMerchantAccount = "38"
	TagCurrency        = "53"
	TagAmount          = "54"
	TagCountry         = "58"
	TagAdditionalData  = "62"
	TagCRC             = "63"
)

const (
	formatIndicator = "000201"
	staticQR        = "010211"
	dynamicQR       = "010212"
	currencyVND     = "5303704"
	countryVN       = "5802VN"
	crcPrefix       = TagCRC + "04"

	// napasGUID is tag 00, length 10, value A000000727.
	napasGUID = "0010A000000727"

	serviceInstantToAccount = "QRIBFTTA"
	tagPurpose              = "08"
)

// Profile selects how the merchant account field 38 is laid out.
type Profile string

const (
	// ProfileMinimal: GUID followed by the beneficiary block under tag 01.
	ProfileMinimal Profile = "minimal"
	// ProfileNapas: GUID, service code QRIBFTTA under tag 01, beneficiary block under tag 02.
	ProfileNapas Profile = "napas"
)

// ParseProfile maps a configuration value to a Profile. Unknown values fall
// back to ProfileMinimal.
func ParseProfile(s string) Profile {
	if strings.EqualFold(strings.TrimSpace(s), string(ProfileNapas)) {
		return ProfileNapas
	}
	return ProfileMinimal
}

// PaymentRequest is the encoder input. Empty Amount or Content means absent.
type PaymentRequest struct {
	BankBin       string
	AccountNumber string
	Amount        string
	Content       string
}

// Generate builds the payload with ProfileMinimal.
func Generate(req PaymentRequest) (string, error) {
	return GenerateWithProfile(req, ProfileMinimal)
}

// GenerateWithProfile builds the full payload including the trailing CRC.
// Nothing is returned unless every field could be encoded.
func GenerateWithProfile(req PaymentRequest, profile Profile) (string, error) {
	if strings.TrimSpace(req.BankBin) == "" {
		return "", ErrMissingBankBin
	}
	if strings.TrimSpace(req.AccountNumber) == "" {
		return "", ErrMissingAccountNumber
	}

	var sb strings.Builder
	sb.WriteString(formatIndicator)
	if req.Amount != "" {
		sb.WriteString(dynamicQR)
	} else {
		sb.WriteString(staticQR)
	}

	merchant, err := merchantAccount(req.BankBin, req.AccountNumber, profile)
	if err != nil {
		return "", err
	}
	sb.WriteString(merchant)
	sb.WriteString(currencyVND)

	if req.Amount != "" {
		amount, err := BuildField(TagAmount, req.Amount)
		if err != nil {
			return "", err
		}
		sb.WriteString(amount)
	}

	sb.WriteString(countryVN)

	if req.Content != "" {
		additional, err := BuildComposite(TagAdditionalData, Field{Tag: tagPurpose, Value: req.Content})
		if err != nil {
			return "", err
		}
		sb.WriteString(additional)
	}

	sb.WriteString(crcPrefix)
	raw := sb.String()
	return raw + CRC16(raw), nil
}

func merchantAccount(bin, account string, profile Profile) (string, error) {
	beneficiary := []Field{
		{Tag: "00", Value: bin},
		{Tag: "01", Value: account},
	}

	var (
		value   string
		block   string
		service string
		err     error
	)
	switch profile {
	case ProfileNapas:
		service, err = BuildField("01", serviceInstantToAccount)
		if err != nil {
			return "", err
		}
		block, err = BuildComposite("02", beneficiary...)
		if err != nil {
			return "", err
		}
		value = napasGUID + service + block
	case ProfileMinimal, "":
		block, err = BuildComposite("01", beneficiary...)
		if err != nil {
			return "", err
		}
		value = napasGUID + block
	default:
		return "", fmt.Errorf("unknown VietQR profile %q", profile)
	}
	return BuildField(TagMerchantAccount, value)
}
