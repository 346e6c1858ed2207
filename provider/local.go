package provider

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"

	"github.com/skip2/go-qrcode"
)

// LocalProvider draws the QR code in-process with go-qrcode. The library's
// own quiet zone is disabled and replaced by marginRows blank modules on
// each side.
type LocalProvider struct {
	level      ErrorCorrectionLevel
	marginRows int
	log        *slog.Logger
}

// NewLocal validates opts the same way NewGoogleCharts does. Transport
// options are ignored.
func NewLocal(opts ...Option) (*LocalProvider, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &LocalProvider{
		level:      o.level,
		marginRows: o.marginRows,
		log:        o.log,
	}, nil
}

// GetImage encodes text as a PNG of size pixels. As with go-qrcode, a size
// too small for the symbol yields a larger image, and a negative size is
// taken as pixels per module.
func (p *LocalProvider) GetImage(ctx context.Context, text string, size int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q, err := qrcode.New(text, recoveryLevel(p.level))
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true

	p.log.Debug("rendering local qr image", "size", size, "level", p.level.Letter(), "margin", p.marginRows)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, drawBitmap(q.Bitmap(), p.marginRows, size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *LocalProvider) GetMimeType() string {
	return MimeTypePNG
}

// drawBitmap scales the module matrix, padded by margin modules, into a
// size x size image centred the way go-qrcode centres its own output.
func drawBitmap(bitmap [][]bool, margin, size int) image.Image {
	modules := len(bitmap) + 2*margin

	var scale int
	if size < 0 {
		scale = -size
		size = modules * scale
	} else {
		if size < modules {
			size = modules
		}
		scale = size / modules
	}
	offset := (size - modules*scale) / 2

	palette := color.Palette{color.White, color.Black}
	img := image.NewPaletted(image.Rect(0, 0, size, size), palette)

	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			startX := offset + (x+margin)*scale
			startY := offset + (y+margin)*scale
			for i := startX; i < startX+scale; i++ {
				for j := startY; j < startY+scale; j++ {
					img.SetColorIndex(i, j, 1)
				}
			}
		}
	}
	return img
}

func recoveryLevel(l ErrorCorrectionLevel) qrcode.RecoveryLevel {
	switch l {
	case Medium:
		return qrcode.Medium
	case Quartile:
		return qrcode.High
	case High:
		return qrcode.Highest
	}
	return qrcode.Low
}
