package scene

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-awaydays/internal/logging"
)

// ErrTextureUnavailable is returned when the globe image cannot be loaded.
var ErrTextureUnavailable = errors.New("texture unavailable")

// FallbackColor is the solid ocean colour used when no texture is available.
const FallbackColor = "#1A4D7C"

// Texture gives the surface colour of the globe at a latitude/longitude.
type Texture interface {
	Sample(latDeg, lonDeg float64) colorful.Color
}

// SolidTexture paints the whole globe one colour.
type SolidTexture struct {
	Color colorful.Color
}

// NewSolidTexture parses a #RRGGBB colour. Invalid input yields the fallback colour.
func NewSolidTexture(hex string) SolidTexture {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(FallbackColor)
	}
	return SolidTexture{Color: c}
}

func (s SolidTexture) Sample(_, _ float64) colorful.Color { return s.Color }

// ImageTexture samples an equirectangular image (longitude -180..180 left to right,
// latitude 90..-90 top to bottom).
type ImageTexture struct {
	img    image.Image
	bounds image.Rectangle
}

// LoadImageTexture decodes a PNG or JPEG file.
func LoadImageTexture(path string) (*ImageTexture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, ErrTextureUnavailable)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", path, err, ErrTextureUnavailable)
	}
	return NewImageTexture(img)
}

// NewImageTexture wraps an already decoded image.
func NewImageTexture(img image.Image) (*ImageTexture, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty image: %w", ErrTextureUnavailable)
	}
	return &ImageTexture{img: img, bounds: b}, nil
}

func (t *ImageTexture) Sample(latDeg, lonDeg float64) colorful.Color {
	w, h := t.bounds.Dx(), t.bounds.Dy()
	x := int((lonDeg + 180) / 360 * float64(w))
	y := int((90 - latDeg) / 180 * float64(h))
	x = clampInt(x, 0, w-1)
	y = clampInt(y, 0, h-1)

	c, _ := colorful.MakeColor(t.img.At(t.bounds.Min.X+x, t.bounds.Min.Y+y))
	return c
}

// LoadTexture loads the globe image at path, falling back to a solid colour with a
// warning when it cannot be read. An empty path selects the solid colour silently.
func LoadTexture(path string, log *logging.Logger) Texture {
	if path == "" {
		return NewSolidTexture(FallbackColor)
	}
	tex, err := LoadImageTexture(path)
	if err != nil {
		log.Warn("globe texture: %v; using solid colour %s", err, FallbackColor)
		return NewSolidTexture(FallbackColor)
	}
	return tex
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
