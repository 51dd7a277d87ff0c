package imaging

import (
	"image"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorFrequency represents a color and its share of the pixels counted.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#rrggbb" (quantized)
	Percentage float64  `json:"percentage"` // Share of counted pixels (0-100)
	RGB        RGBColor `json:"rgb"`
	HSL        HSLColor `json:"hsl"`
}

// DominantColors returns up to count of the most common colors in img,
// most common first. Only pixels for which include returns true are
// counted; a nil include counts every pixel.
//
// # Color Quantization
//
// Similar colors are grouped by dropping the low four bits of each 8-bit
// component, so #F0F0F0 and #FAFAFA both count as #F0F0F0. Scanned paper is
// never perfectly uniform and this keeps its shades in one bucket.
func DominantColors(img image.Image, count int, include func(x, y int) bool) []ColorFrequency {
	bounds := img.Bounds()
	counts := make(map[RGBColor]int)
	total := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if include != nil && !include(x, y) {
				continue
			}
			r, g, b, _ := img.At(x, y).RGBA()
			key := RGBColor{
				R: uint8(r>>8) &^ 0x0F,
				G: uint8(g>>8) &^ 0x0F,
				B: uint8(b>>8) &^ 0x0F,
			}
			counts[key]++
			total++
		}
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for rgb, n := range counts {
		c := colorful.Color{R: float64(rgb.R) / 255, G: float64(rgb.G) / 255, B: float64(rgb.B) / 255}
		h, s, l := c.Hsl()
		if math.IsNaN(h) {
			h = 0
		}
		colors = append(colors, ColorFrequency{
			Hex:        c.Hex(),
			Percentage: float64(n) / float64(total) * 100,
			RGB:        rgb,
			HSL: HSLColor{
				H: int(math.Round(h)) % 360,
				S: int(math.Round(s * 100)),
				L: int(math.Round(l * 100)),
			},
		})
	}

	// Ties are broken by hex so the order does not depend on map iteration.
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if count >= 0 && len(colors) > count {
		colors = colors[:count]
	}
	return colors
}
