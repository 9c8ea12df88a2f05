// Package icon renders the coin status icon. A favorite's icon is the coin
// silhouette filled with the favorite color at the threshold opacity.
package icon

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/temidaradev/coinwatch/internal/favorites"
	"github.com/temidaradev/coinwatch/internal/tracker"
)

var (
	gold     = color.NRGBA{R: 242, G: 169, B: 0, A: 255}
	darkGold = color.NRGBA{R: 176, G: 112, B: 0, A: 255}
)

// Coin draws the default gold coin: a filled disc with a darker rim and an
// inner ring.
func Coin(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	c := float64(size) / 2
	outer := c - 0.5
	rim := outer * 0.86
	ringOuter := outer * 0.62
	ringInner := outer * 0.52

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)+0.5-c, float64(y)+0.5-c)
			switch {
			case d > outer:
				continue
			case d > rim:
				img.SetNRGBA(x, y, darkGold)
			case d <= ringOuter && d > ringInner:
				img.SetNRGBA(x, y, darkGold)
			default:
				img.SetNRGBA(x, y, gold)
			}
		}
	}
	return img
}

// Tinted keeps the coin's shape and replaces its colors with tint at the
// given opacity.
func Tinted(size int, tint color.NRGBA, opacity float64) *image.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	shape := Coin(size)
	tint.A = uint8(opacity*255 + 0.5)

	out := image.NewNRGBA(shape.Bounds())
	draw.DrawMask(out, out.Bounds(), image.NewUniform(tint), image.Point{}, shape, image.Point{}, draw.Src)
	return out
}

// ForResult picks the icon for a poll result. Failed polls return false so
// the caller keeps its current icon.
func ForResult(size int, tint favorites.Color, res tracker.Result) (*image.NRGBA, bool) {
	if !res.OK() {
		return nil, false
	}
	if res.State == tracker.NoFavorite {
		return Coin(size), true
	}
	return Tinted(size, tint.NRGBA(1), res.State.Opacity()), true
}
