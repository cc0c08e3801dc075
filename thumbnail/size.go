package thumbnail

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kbukum/previewkit/errors"
)

// SizeFormatMessage is shown when a size string cannot be parsed.
const SizeFormatMessage = `Size must be in format "<width>x<height>".`

// Size is a bounding box in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String returns the "WxH" form.
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ParseSize parses "WxH" where both sides are positive integers.
func ParseSize(s string) (Size, error) {
	w, h, ok := strings.Cut(strings.TrimSpace(s), "x")
	if !ok {
		return Size{}, invalidSize(s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return Size{}, invalidSize(s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return Size{}, invalidSize(s)
	}
	return Size{Width: width, Height: height}, nil
}

// MustParseSize is like ParseSize but panics on error.
func MustParseSize(s string) Size {
	size, err := ParseSize(s)
	if err != nil {
		panic(err)
	}
	return size
}

func invalidSize(s string) *errors.AppError {
	return errors.InvalidInput("size", SizeFormatMessage).WithDetail("value", s)
}

// Fit returns the dimensions of a srcW×srcH image scaled to fit inside box.
// The aspect ratio is kept, the result is never larger than the source and
// neither side drops below one pixel.
func Fit(srcW, srcH int, box Size) (int, int) {
	if srcW <= box.Width && srcH <= box.Height {
		return srcW, srcH
	}
	scale := math.Min(float64(box.Width)/float64(srcW), float64(box.Height)/float64(srcH))
	w := max(1, int(math.Round(float64(srcW)*scale)))
	h := max(1, int(math.Round(float64(srcH)*scale)))
	return min(w, box.Width), min(h, box.Height)
}
