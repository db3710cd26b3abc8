package framegen

import (
	"image"
	"image/color"
	"image/draw"
)

// Solid fills the whole panel with one color.
func Solid(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// Checkerboard draws cells of cellSize pixels alternating between on and
// off. Increasing offset shifts the pattern by one cell every 8 steps, which
// makes a cheap animation.
func Checkerboard(width, height, cellSize, offset int, on, off color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if cellSize < 1 {
		cellSize = 1
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (y/cellSize+x/cellSize+offset/8)%2 == 0 {
				img.Set(x, y, on)
			} else {
				img.Set(x, y, off)
			}
		}
	}
	return img
}

// Gradient ramps each of the red, green and blue channels from 0 to 255
// across the width, in three horizontal bands. It shows every level a
// frame depth can produce.
func Gradient(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		v := uint8(0)
		if width > 1 {
			v = uint8(x * 255 / (width - 1))
		}
		for y := 0; y < height; y++ {
			var c color.RGBA
			switch y * 3 / height {
			case 0:
				c = color.RGBA{R: v, A: 0xff}
			case 1:
				c = color.RGBA{G: v, A: 0xff}
			default:
				c = color.RGBA{B: v, A: 0xff}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Pattern returns a built-in pattern by name: "red", "green", "blue",
// "white", "checkerboard" or "gradient".
func Pattern(name string, width, height, step int) (image.Image, bool) {
	switch name {
	case "red":
		return Solid(width, height, color.RGBA{R: 0xff, A: 0xff}), true
	case "green":
		return Solid(width, height, color.RGBA{G: 0xff, A: 0xff}), true
	case "blue":
		return Solid(width, height, color.RGBA{B: 0xff, A: 0xff}), true
	case "white":
		return Solid(width, height, color.White), true
	case "checkerboard":
		return Checkerboard(width, height, 4, step, color.RGBA{R: 0xff, G: 0xff, A: 0xff}, color.Black), true
	case "gradient":
		return Gradient(width, height), true
	}
	return nil, false
}
