package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/whitespace-mcp/internal/raster"
	"github.com/ironsheep/whitespace-mcp/internal/whitespace"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
// (X1, Y1) is inclusive and (X2, Y2) is exclusive.
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// Rect converts b to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

func boundsOf(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// TextRegion represents a detected text region
type TextRegion struct {
	Bounds     Bounds  `json:"bounds"`
	Confidence float64 `json:"confidence"`
	Area       int     `json:"area"`
}

// TextRegionsResult contains detected text regions
type TextRegionsResult struct {
	Regions []TextRegion `json:"regions"`
	Count   int          `json:"count"`
}

// windowSizes are the sliding windows tried, roughly one per text size.
var windowSizes = []struct{ w, h int }{
	{100, 30}, // Small text
	{150, 40}, // Medium text
	{200, 50}, // Large text
	{80, 25},  // Very small text
}

// DetectTextRegions finds regions likely to contain text.
//
// This is a heuristic that looks for windows with medium edge density and a
// mostly horizontal edge structure. Edge counts per window come from an
// integral image of the edge map, so the density test costs four lookups
// whatever the window size.
func DetectTextRegions(img image.Image, minConfidence float64) (*TextRegionsResult, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	edges := detectEdges(img)
	integral := whitespace.NewIntegralImage(edges)

	candidates := make([]TextRegion, 0)

	for _, ws := range windowSizes {
		stepX := ws.w / 2
		stepY := ws.h / 2

		for y := 0; y <= height-ws.h; y += stepY {
			for x := 0; x <= width-ws.w; x += stepX {
				window := image.Rect(x, y, x+ws.w, y+ws.h)
				area := ws.w * ws.h
				density := float64(integral.Sum(window)) / float64(area)

				// Text typically has medium edge density (not too sparse, not too dense)
				if density < 0.05 || density > 0.4 {
					continue
				}

				horizontalScore := calculateHorizontalScore(edges, window)
				confidence := horizontalScore * (1.0 - math.Abs(density-0.2)/0.2)

				if confidence >= minConfidence {
					candidates = append(candidates, TextRegion{
						Bounds:     boundsOf(window.Add(bounds.Min)),
						Confidence: math.Round(confidence*1000) / 1000,
						Area:       area,
					})
				}
			}
		}
	}

	merged := mergeOverlappingRegions(candidates)

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})

	return &TextRegionsResult{
		Regions: merged,
		Count:   len(merged),
	}, nil
}

// Obstacles converts detected regions into rectangles for a whitespace
// search, each grown by pad pixels on every side.
func Obstacles(result *TextRegionsResult, pad int) []image.Rectangle {
	if result == nil {
		return nil
	}
	out := make([]image.Rectangle, 0, len(result.Regions))
	for _, r := range result.Regions {
		out = append(out, r.Bounds.Rect().Inset(-pad))
	}
	return out
}

// calculateHorizontalScore calculates how "horizontal" the edge distribution
// of window is, as the share of horizontal runs among all runs.
func calculateHorizontalScore(edges *raster.Bitmap, window image.Rectangle) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := window.Min.Y; row < window.Max.Y; row++ {
		inRun := false
		for col := window.Min.X; col < window.Max.X; col++ {
			if edges.At(col, row) {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := window.Min.X; col < window.Max.X; col++ {
		inRun := false
		for row := window.Min.Y; row < window.Max.Y; row++ {
			if edges.At(col, row) {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	// Text typically has more horizontal structure
	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

// mergeOverlappingRegions combines overlapping text regions
func mergeOverlappingRegions(regions []TextRegion) []TextRegion {
	if len(regions) == 0 {
		return regions
	}

	merged := make([]TextRegion, 0)

	for _, r := range regions {
		foundMerge := false
		for i := range merged {
			a, b := r.Bounds.Rect(), merged[i].Bounds.Rect()
			if a.Overlaps(b) {
				u := a.Union(b)
				merged[i].Bounds = boundsOf(u)
				merged[i].Confidence = math.Max(r.Confidence, merged[i].Confidence)
				merged[i].Area = u.Dx() * u.Dy()
				foundMerge = true
				break
			}
		}
		if !foundMerge {
			merged = append(merged, r)
		}
	}

	return merged
}
