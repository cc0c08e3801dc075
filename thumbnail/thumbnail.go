package thumbnail

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// DefaultQuality is the JPEG quality used when none is configured.
	DefaultQuality = 85
	// DefaultMaxPixels bounds the decoded size of a source image.
	DefaultMaxPixels = 64 << 20
)

// ErrTooLarge is returned when a source image exceeds the pixel limit.
var ErrTooLarge = stderrors.New("thumbnail: source image too large")

// Options tune thumbnail generation.
type Options struct {
	// Quality is the JPEG quality, 1 to 100.
	Quality int
	// MaxPixels rejects sources whose width×height exceeds it before they
	// are decoded.
	MaxPixels int
	// Scaler resamples the image. Defaults to Catmull-Rom.
	Scaler draw.Scaler
	// Background fills transparent areas.
	Background color.Color
}

func (o *Options) applyDefaults() {
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	if o.Scaler == nil {
		o.Scaler = draw.CatmullRom
	}
	if o.Background == nil {
		o.Background = color.White
	}
}

// Thumbnail is an encoded preview.
type Thumbnail struct {
	// Data is the JPEG encoding.
	Data []byte
	// Width and Height are the thumbnail dimensions.
	Width  int
	Height int
	// Source describes the decoded input.
	Source SourceInfo
}

// SourceInfo describes a decoded source image.
type SourceInfo struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Make decodes data, fits it inside box and encodes the result as JPEG.
func Make(data []byte, box Size, opts Options) (*Thumbnail, error) {
	opts.applyDefaults()
	if box.Width <= 0 || box.Height <= 0 {
		return nil, invalidSize(box.String())
	}

	img, src, err := decode(data, opts.MaxPixels)
	if err != nil {
		return nil, err
	}

	out := Render(img, box, opts)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("thumbnail: encode: %w", err)
	}
	b := out.Bounds()
	return &Thumbnail{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy(), Source: src}, nil
}

// Render scales img to fit inside box over an opaque background. It does
// not encode.
func Render(img image.Image, box Size, opts Options) *image.RGBA {
	opts.applyDefaults()
	sb := img.Bounds()
	w, h := Fit(sb.Dx(), sb.Dy(), box)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), img, sb.Min, draw.Over)
		return dst
	}
	opts.Scaler.Scale(dst, dst.Bounds(), img, sb, draw.Over, nil)
	return dst
}

// DecodeConfig reports the format and dimensions without decoding pixels.
func DecodeConfig(data []byte) (SourceInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return SourceInfo{}, fmt.Errorf("thumbnail: decode config: %w", err)
	}
	return SourceInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

func decode(data []byte, maxPixels int) (image.Image, SourceInfo, error) {
	src, err := DecodeConfig(data)
	if err != nil {
		return nil, SourceInfo{}, err
	}
	if src.Width <= 0 || src.Height <= 0 {
		return nil, src, fmt.Errorf("thumbnail: empty %s image", src.Format)
	}
	if src.Width*src.Height > maxPixels {
		return nil, src, fmt.Errorf("%w: %dx%d", ErrTooLarge, src.Width, src.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, src, fmt.Errorf("thumbnail: decode %s: %w", src.Format, err)
	}
	return img, src, nil
}
