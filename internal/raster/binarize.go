package raster

import (
	"image"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// Binarize converts img to a Bitmap. Pixels whose luminance is below level
// become foreground. A level of 0 selects the level with OtsuThreshold.
//
// Returns the bitmap and the level actually applied. The bitmap is always
// anchored at (0,0) regardless of img.Bounds().Min.
func Binarize(img image.Image, level uint8) (*Bitmap, uint8) {
	gray := imaging.Grayscale(img)
	if level == 0 {
		level = otsuLevel(gray)
	}

	// segment.Threshold maps luminance >= level to white and the rest to black.
	bw := segment.Threshold(gray, level)

	bounds := bw.Bounds()
	b := New(bounds.Dx(), bounds.Dy())
	for y := 0; y < b.height; y++ {
		row := bw.Pix[y*bw.Stride : y*bw.Stride+b.width]
		for x, v := range row {
			if v == 0 {
				b.Set(x, y, true)
			}
		}
	}
	return b, level
}

// OtsuThreshold returns the binarization level for img chosen by Otsu's
// method: the split of the luminance histogram that maximizes between-class
// variance. Pixels with luminance below the returned level are foreground.
//
// A page with a single luminance value has no split. Dark uniform pages
// return 255 (everything is foreground), light ones return 0 (nothing is).
func OtsuThreshold(img image.Image) uint8 {
	return otsuLevel(imaging.Grayscale(img))
}

func otsuLevel(gray image.Image) uint8 {
	// Grayscale output has R == G == B, so one channel is the luminance.
	bins := histogram.NewRGBAHistogram(gray).R.Bins

	var total, sum float64
	occupied, only := 0, 0
	for i, n := range bins {
		if n == 0 {
			continue
		}
		occupied++
		only = i
		total += float64(n)
		sum += float64(i) * float64(n)
	}
	if occupied == 0 {
		return 0
	}
	if occupied == 1 {
		if only < 128 {
			return 255
		}
		return 0
	}

	var wB, sumB, best float64
	split := 0
	for t, n := range bins {
		wB += float64(n)
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(n)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			split = t
		}
	}

	// Luminance values up to and including split form the dark class.
	if split >= 255 {
		return 255
	}
	return uint8(split + 1)
}
