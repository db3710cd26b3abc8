// Package framegen builds packed hub75 frames from images.
//
// Each 8-bit channel is split into bitplanes, most significant first: plane
// i of a depth-D frame holds bit 7-i of every channel. Values are used as
// they are; any gamma correction belongs to whoever produced the image.
package framegen

import (
	"fmt"
	"image"

	"github.com/fcurrie/hub75-golang/pkg/hub75"
)

// MaxDepth is the number of bitplanes an 8-bit channel provides.
const MaxDepth = 8

// FromImage packs img into a frame of the given depth. The image height
// must be twice the multiplex row count: row r shares its bytes with row
// r+height/2.
func FromImage(img image.Image, depth int) (*hub75.Frame, error) {
	if depth < 1 || depth > MaxDepth {
		return nil, fmt.Errorf("framegen: depth %d, want 1..%d", depth, MaxDepth)
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if height%2 != 0 {
		return nil, fmt.Errorf("framegen: image height %d is odd", height)
	}
	rows := height / 2

	pix := make([]byte, hub75.FrameSize(depth, rows, width))
	for y := 0; y < rows; y++ {
		for x := 0; x < width; x++ {
			ur, ug, ub := rgb8(img, b.Min.X+x, b.Min.Y+y)
			lr, lg, lb := rgb8(img, b.Min.X+x, b.Min.Y+y+rows)
			for i := 0; i < depth; i++ {
				mask := uint8(1) << uint(7-i)
				upper := hub75.Triplet{R: ur&mask != 0, G: ug&mask != 0, B: ub&mask != 0}
				lower := hub75.Triplet{R: lr&mask != 0, G: lg&mask != 0, B: lb&mask != 0}
				pix[(i*rows+y)*width+x] = hub75.Encode(upper, lower)
			}
		}
	}

	return hub75.NewFrame(depth, rows, width, pix)
}

func rgb8(img image.Image, x, y int) (r, g, b uint8) {
	cr, cg, cb, _ := img.At(x, y).RGBA()
	return uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8)
}

// ToImage unpacks a frame back into an image, for previews. Channels not
// covered by the frame's depth are zero.
func ToImage(f *hub75.Frame) *image.RGBA {
	rows, width := f.Rows(), f.Columns()
	img := image.NewRGBA(image.Rect(0, 0, width, 2*rows))
	for i := 0; i < f.Depth(); i++ {
		mask := uint8(1) << uint(7-i)
		for y := 0; y < rows; y++ {
			for x, v := range f.Row(i, y) {
				upper, lower := hub75.Decode(v)
				orBits(img, x, y, upper, mask)
				orBits(img, x, y+rows, lower, mask)
			}
		}
	}
	for a := 3; a < len(img.Pix); a += 4 {
		img.Pix[a] = 0xff
	}
	return img
}

func orBits(img *image.RGBA, x, y int, t hub75.Triplet, mask uint8) {
	off := img.PixOffset(x, y)
	if t.R {
		img.Pix[off] |= mask
	}
	if t.G {
		img.Pix[off+1] |= mask
	}
	if t.B {
		img.Pix[off+2] |= mask
	}
}
