package raster

import (
	"image"
	"image/color"
	"math/bits"
)

// Bitmap is a packed binary image. See the package documentation for the
// memory layout.
type Bitmap struct {
	width  int
	height int
	wpl    int
	data   []uint32
}

// New creates an all-background bitmap of the given size.
// Negative dimensions are treated as zero.
func New(width, height int) *Bitmap {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	wpl := (width + 31) / 32
	return &Bitmap{
		width:  width,
		height: height,
		wpl:    wpl,
		data:   make([]uint32, wpl*height),
	}
}

// FromRects creates a bitmap of the given size with every pixel covered by
// one of rects set to foreground. Rectangles are clipped to the bitmap.
func FromRects(width, height int, rects ...image.Rectangle) *Bitmap {
	b := New(width, height)
	for _, r := range rects {
		b.Fill(r, true)
	}
	return b
}

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int { return b.width }

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int { return b.height }

// WordsPerLine returns the number of uint32 words backing each row.
func (b *Bitmap) WordsPerLine() int { return b.wpl }

// Bounds returns the rectangle (0,0)-(Width,Height).
func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// Row returns the packed words of row y. The slice aliases the bitmap's
// storage and must not be modified by callers.
func (b *Bitmap) Row(y int) []uint32 {
	off := y * b.wpl
	return b.data[off : off+b.wpl : off+b.wpl]
}

// At reports whether the pixel at (x, y) is foreground.
// Pixels outside the bitmap are background.
func (b *Bitmap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return false
	}
	w := b.data[y*b.wpl+x>>5]
	return (w>>(31-uint(x&31)))&1 != 0
}

// Set marks the pixel at (x, y) as foreground or background.
// Coordinates outside the bitmap are ignored.
func (b *Bitmap) Set(x, y int, foreground bool) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return
	}
	idx := y*b.wpl + x>>5
	mask := uint32(1) << (31 - uint(x&31))
	if foreground {
		b.data[idx] |= mask
	} else {
		b.data[idx] &^= mask
	}
}

// Fill sets every pixel of r (clipped to the bitmap) to the given value.
func (b *Bitmap) Fill(r image.Rectangle, foreground bool) {
	r = r.Intersect(b.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			b.Set(x, y, foreground)
		}
	}
}

// CountForeground returns the total number of foreground pixels.
func (b *Bitmap) CountForeground() int {
	n := 0
	for _, w := range b.data {
		n += bits.OnesCount32(w)
	}
	return n
}

// ToGray renders the bitmap as a grayscale image with foreground pixels
// black and background pixels white.
func (b *Bitmap) ToGray() *image.Gray {
	img := image.NewGray(b.Bounds())
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			c := color.Gray{Y: 255}
			if b.At(x, y) {
				c.Y = 0
			}
			img.SetGray(x, y, c)
		}
	}
	return img
}
