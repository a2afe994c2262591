// Package palette maps species hues to display colours
package palette

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBA returns the hue colour with the given alpha in [0,1], premultiplied
// as image/color expects
func RGBA(hue, alpha float64) color.RGBA {
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	c := colorful.Hsv(hue, 1, 1).Clamped()
	return color.RGBA{
		R: uint8(c.R*alpha*255 + 0.5),
		G: uint8(c.G*alpha*255 + 0.5),
		B: uint8(c.B*alpha*255 + 0.5),
		A: uint8(alpha*255 + 0.5),
	}
}

// Bucket returns the colour of bucket i out of n, spaced evenly round the hue circle
func Bucket(i, n int) color.RGBA {
	if n < 1 {
		n = 1
	}
	return RGBA(float64(i)*360/float64(n), 1)
}
