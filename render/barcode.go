package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	barcodeHeight     = 100
	barcodeMargin     = 10
	captionLineHeight = 16
	maxCaptionRunes   = 120
	// quiet zone modules per unit of Options.Margin; the default margin of 2
	// gives the usual 10-module Code128 quiet zone.
	quietModulesPerMargin = 5
)

// Barcode renders text as a Code128 PNG. caption is printed under the bars;
// when empty the encoded text is printed instead. Bars are scaled by the
// largest whole module width that fits Width, quiet zone included.
func Barcode(text, caption string, opts Options) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	opts = opts.WithDefaults(DefaultMargin)
	if err := opts.validate(); err != nil {
		return nil, err
	}
	dark, err := ParseColor(opts.ColorDark)
	if err != nil {
		return nil, err
	}
	light, err := ParseColor(opts.ColorLight)
	if err != nil {
		return nil, err
	}

	code, err := code128.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("encode code128: %w", err)
	}
	quiet := *opts.Margin * quietModulesPerMargin
	moduleWidth := opts.Width / (code.Bounds().Dx() + 2*quiet)
	if moduleWidth < 1 {
		moduleWidth = 1
	}
	barsWidth := code.Bounds().Dx() * moduleWidth
	scaled, err := barcode.Scale(code, barsWidth, barcodeHeight)
	if err != nil {
		return nil, fmt.Errorf("scale barcode: %w", err)
	}

	if caption == "" {
		caption = text
	}
	if r := []rune(caption); len(r) > maxCaptionRunes {
		caption = string(r[:maxCaptionRunes-3]) + "..."
	}
	face := basicfont.Face7x13
	captionWidth := font.MeasureString(face, caption).Ceil()

	width := max(barsWidth+2*quiet*moduleWidth, captionWidth+2*barcodeMargin)
	height := barcodeHeight + captionLineHeight + 2*barcodeMargin

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(light), image.Point{}, draw.Src)

	offsetX := (width - barsWidth) / 2
	b := scaled.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if isDark(scaled.At(x, y)) {
				img.Set(offsetX+x-b.Min.X, barcodeMargin+y-b.Min.Y, dark)
			}
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(dark),
		Face: face,
		Dot:  fixed.P((width-captionWidth)/2, barcodeMargin+barcodeHeight+captionLineHeight-2),
	}
	d.DrawString(caption)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r+g+b < 3*0x8000
}

// Render dispatches on mode. caption is only used for barcodes.
func Render(mode Mode, text, caption string, opts Options) ([]byte, error) {
	if mode == ModeBarcode {
		return Barcode(text, caption, opts)
	}
	return QR(text, opts)
}
