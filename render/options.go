// Package render turns payload text into PNG images.
package render

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultColorDark  = "#000000"
	DefaultColorLight = "#ffffff"
	DefaultWidth      = 500
	DefaultMargin     = 2
	BatchMargin       = 1
	MaxWidth          = 4000
)

var (
	ErrEmptyText    = errors.New("text to encode is empty")
	ErrInvalidColor = errors.New("invalid color")
	ErrInvalidSize  = errors.New("invalid image size")
)

// Mode selects the symbology.
type Mode string

const (
	ModeQR      Mode = "qr"
	ModeBarcode Mode = "barcode"
)

// ParseMode maps "barcode" to ModeBarcode and anything else to ModeQR.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeBarcode)) {
		return ModeBarcode
	}
	return ModeQR
}

// Options mirrors the options object accepted by the HTTP API.
type Options struct {
	ColorDark  string `json:"colorDark"`
	ColorLight string `json:"colorLight"`
	Width      int    `json:"width"`
	Margin     *int   `json:"margin"`
	Level      string `json:"errorCorrectionLevel"`
	Header     *bool  `json:"header"`
}

// WithDefaults fills unset values. margin is used when Margin is nil.
func (o Options) WithDefaults(margin int) Options {
	if o.ColorDark == "" {
		o.ColorDark = DefaultColorDark
	}
	if o.ColorLight == "" {
		o.ColorLight = DefaultColorLight
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Margin == nil {
		m := margin
		o.Margin = &m
	}
	if o.Level == "" {
		o.Level = "M"
	}
	return o
}

// IncludeHeader reports whether record keys should be part of the content.
func (o Options) IncludeHeader() bool {
	return o.Header == nil || *o.Header
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Width > MaxWidth {
		return fmt.Errorf("%w: width %d", ErrInvalidSize, o.Width)
	}
	if o.Margin != nil && (*o.Margin < 0 || *o.Margin > 40) {
		return fmt.Errorf("%w: margin %d", ErrInvalidSize, *o.Margin)
	}
	return nil
}

func (o Options) recoveryLevel() qrcode.RecoveryLevel {
	switch strings.ToUpper(o.Level) {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// ParseColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// DataURL wraps PNG bytes as a data URL.
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// IsInputError reports whether err was caused by caller supplied text or options.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyText) || errors.Is(err, ErrInvalidColor) || errors.Is(err, ErrInvalidSize)
}
