package whitespace

import "image"

// Raster is a read-only two-level image addressed by row.
//
// Row returns the pixels of row y packed 32 per word, most significant bit
// first; a set bit is a foreground pixel. The slice must hold at least
// (Width()+31)/32 words. *raster.Bitmap satisfies this interface.
type Raster interface {
	Width() int
	Height() int
	Row(y int) []uint32
}

// IntegralImage is a summed-area table of foreground pixel counts.
//
// After an O(width*height) build, the number of foreground pixels inside any
// rectangle is available in constant time.
type IntegralImage struct {
	width  int
	height int
	stride int

	// sums[(y)*stride + x] holds the count of foreground pixels in
	// (0,0)-(x,y). Row 0 and column 0 are all zero.
	sums []uint32
}

// NewIntegralImage builds the summed-area table for r.
func NewIntegralImage(r Raster) *IntegralImage {
	w, h := r.Width(), r.Height()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	stride := w + 1
	ii := &IntegralImage{
		width:  w,
		height: h,
		stride: stride,
		sums:   make([]uint32, stride*(h+1)),
	}

	for y := 0; y < h; y++ {
		line := r.Row(y)
		above := ii.sums[y*stride : (y+1)*stride]
		cur := ii.sums[(y+1)*stride : (y+2)*stride]
		var rowSum uint32
		for x := 0; x < w; x++ {
			rowSum += (line[x>>5] >> (31 - uint(x&31))) & 1
			cur[x+1] = above[x+1] + rowSum
		}
	}
	return ii
}

// Bounds returns the rectangle covered by the table.
func (ii *IntegralImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, ii.width, ii.height)
}

// Sum returns the number of foreground pixels in r. Parts of r outside the
// table bounds contribute nothing.
func (ii *IntegralImage) Sum(r image.Rectangle) uint32 {
	r = r.Intersect(ii.Bounds())
	if r.Empty() {
		return 0
	}
	top := r.Min.Y * ii.stride
	bottom := r.Max.Y * ii.stride
	return ii.sums[bottom+r.Max.X] - ii.sums[bottom+r.Min.X] -
		ii.sums[top+r.Max.X] + ii.sums[top+r.Min.X]
}

// IsEmpty reports whether r holds no foreground pixels.
func (ii *IntegralImage) IsEmpty(r image.Rectangle) bool {
	return ii.Sum(r) == 0
}

// IsSolid reports whether every pixel of r is foreground. An empty r is
// not solid.
func (ii *IntegralImage) IsSolid(r image.Rectangle) bool {
	if r.Empty() || !r.In(ii.Bounds()) {
		return false
	}
	return ii.Sum(r) == uint32(r.Dx()*r.Dy())
}
