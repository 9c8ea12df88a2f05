package favorites

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var ErrInvalidColor = errors.New("invalid color")

// Color is an opaque RGB color stored as "#rrggbb".
type Color struct {
	R, G, B uint8
}

var (
	DefaultBackground = Color{R: 75, G: 0, B: 130}
	DefaultText       = Color{R: 255, G: 255, B: 255}
)

// DefaultBackgroundAlpha is applied to the floating widget background.
const DefaultBackgroundAlpha = 0.8

// ParseColor accepts "#rrggbb", "#rgb" and the same forms without '#'.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// NRGBA returns c with the given opacity in [0, 1].
func (c Color) NRGBA(opacity float64) color.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(opacity*255 + 0.5)}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
