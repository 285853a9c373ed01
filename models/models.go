package models

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/cast"

	"github.com/Rheinmir/qr-generator-module/banks"
	"github.com/Rheinmir/qr-generator-module/batch"
	"github.com/Rheinmir/qr-generator-module/render"
	"github.com/Rheinmir/qr-generator-module/vietqr"
)

// PlainRequest renders a single piece of text
type PlainRequest struct {
	Text    string         `json:"text"`
	Mode    string         `json:"mode"`
	Caption string         `json:"caption"`
	Options render.Options `json:"options"`
}

// ImageResponse carries a rendered image as a data URL
type ImageResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
	Format  string `json:"format"`
}

// BatchRequest renders many items into one zip archive
type BatchRequest struct {
	Items   []batch.Item   `json:"items"`
	Mode    string         `json:"mode"`
	Options render.Options `json:"options"`
}

// SheetOptions is the JSON "options" form field of a spreadsheet upload
type SheetOptions struct {
	render.Options
	Mode   string `json:"mode"`
	Output string `json:"output"`
}

// PaymentRequest is the VietQR endpoint body. Amount may be a JSON number or
// string; BankBin also accepts a bank code such as "MB".
type PaymentRequest struct {
	BankBin       string         `json:"bankBin"`
	AccountNumber string         `json:"accountNumber"`
	Amount        interface{}    `json:"amount"`
	Content       string         `json:"content"`
	Upload        bool           `json:"upload"`
	Options       render.Options `json:"options"`
}

// UnmarshalJSON decodes numbers as json.Number so long amounts keep every
// digit instead of passing through float64.
func (r *PaymentRequest) UnmarshalJSON(data []byte) error {
	type plain PaymentRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode((*plain)(r))
}

// AmountString returns the amount as sent, without formatting. Absent, null
// and empty values yield "".
func (r *PaymentRequest) AmountString() (string, error) {
	if r.Amount == nil {
		return "", nil
	}
	if n, ok := r.Amount.(json.Number); ok {
		return n.String(), nil
	}
	return cast.ToStringE(r.Amount)
}

// PaymentResponse returns the rendered code and the raw payload
type PaymentResponse struct {
	Success bool           `json:"success"`
	Data    string         `json:"data"`
	Format  string         `json:"format"`
	Payload string         `json:"payload"`
	Fields  []vietqr.Field `json:"fields"`
	Bank    *banks.Bank    `json:"bank,omitempty"`
	Amount  string         `json:"amountDisplay,omitempty"`
	URL     string         `json:"url,omitempty"`
}

// ComposeResponse returns the composed text and its rendering
type ComposeResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Text    string `json:"text"`
	Data    string `json:"data"`
	Format  string `json:"format"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
