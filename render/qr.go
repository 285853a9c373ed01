package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QR encodes text as a square PNG of roughly opts.Width pixels with a quiet
// zone of opts.Margin modules.
func QR(text string, opts Options) ([]byte, error) {
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

	q, err := qrcode.New(text, opts.recoveryLevel())
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	q.DisableBorder = true
	img := drawModules(q.Bitmap(), *opts.Margin, opts.Width, dark, light)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawModules scales the module matrix by an integer factor so every module
// keeps crisp edges. The image is never smaller than one pixel per module.
func drawModules(bitmap [][]bool, margin, width int, dark, light color.Color) image.Image {
	modules := len(bitmap) + 2*margin
	scale := width / modules
	if scale < 1 {
		scale = 1
	}
	size := modules * scale

	img := image.NewPaletted(image.Rect(0, 0, size, size), color.Palette{light, dark})
	for y, row := range bitmap {
		for x, on := range row {
			if !on {
				continue
			}
			x0, y0 := (x+margin)*scale, (y+margin)*scale
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetColorIndex(x0+dx, y0+dy, 1)
				}
			}
		}
	}
	return img
}
