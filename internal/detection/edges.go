package detection

import (
	"image"

	"github.com/ironsheep/whitespace-mcp/internal/raster"
)

// edgeThreshold is the grayscale step between neighbours that counts as an edge.
const edgeThreshold = 30

// detectEdges performs simple gradient-based edge detection.
//
// A pixel is an edge when its grayscale value differs by more than
// edgeThreshold from its right or lower neighbour. Border pixels are never
// edges. The result is in 0-based coordinates regardless of img's bounds.
func detectEdges(img image.Image) *raster.Bitmap {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	edges := raster.New(width, height)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			c := int(grayValue(img, x+bounds.Min.X, y+bounds.Min.Y))
			cx := int(grayValue(img, x+1+bounds.Min.X, y+bounds.Min.Y))
			cy := int(grayValue(img, x+bounds.Min.X, y+1+bounds.Min.Y))

			if abs(c-cx) > edgeThreshold || abs(c-cy) > edgeThreshold {
				edges.Set(x, y, true)
			}
		}
	}

	return edges
}

// grayValue converts a pixel to grayscale using ITU-R BT.601 luminance weights.
// Formula: Y = 0.299*R + 0.587*G + 0.114*B
func grayValue(img image.Image, x, y int) uint8 {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8((float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
