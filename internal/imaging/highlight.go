package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// HighlightResult contains the page with whitespace rectangles drawn on it
type HighlightResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Regions     int    `json:"regions"`
}

// Highlight draws every rectangle onto a copy of img as a translucent fill
// with a solid one pixel outline, numbered in list order starting at 1.
//
// colorHex is "#RRGGBB" or "#RGB"; opacity (0..1) applies to the fill only.
func Highlight(img image.Image, rects []image.Rectangle, colorHex string, opacity float64) (*HighlightResult, error) {
	c, err := colorful.Hex(colorHex)
	if err != nil {
		return nil, fmt.Errorf("invalid highlight color %q: %w", colorHex, err)
	}
	if opacity < 0 || opacity > 1 {
		return nil, fmt.Errorf("opacity must be within 0..1, got %.3f", opacity)
	}

	result := HighlightImage(img, rects, c, opacity)

	encoded, err := EncodePNGBase64(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &HighlightResult{
		Width:       result.Bounds().Dx(),
		Height:      result.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
		Regions:     len(rects),
	}, nil
}

// HighlightImage is Highlight without the encoding step. Rectangles are in
// the image's own coordinates and are clipped to it.
func HighlightImage(img image.Image, rects []image.Rectangle, c colorful.Color, opacity float64) *image.NRGBA {
	bounds := img.Bounds()
	r, g, b := c.RGB255()
	solid := color.NRGBA{R: r, G: g, B: b, A: 255}

	// All fills go on one layer so the page is blended once.
	layer := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for _, rect := range rects {
		rect = rect.Intersect(bounds).Sub(bounds.Min)
		draw.Draw(layer, rect, image.NewUniform(solid), image.Point{}, draw.Src)
	}
	result := imaging.Overlay(img, layer, bounds.Min, opacity)

	labelColor := color.NRGBA{255, 255, 255, 255}
	for i, rect := range rects {
		rect = rect.Intersect(bounds).Sub(bounds.Min)
		if rect.Empty() {
			continue
		}
		drawOutline(result, rect, solid)
		drawLabel(result, rect.Min.X+2, rect.Min.Y+2, strconv.Itoa(i+1), labelColor, solid)
	}
	return result
}

func drawOutline(img *image.NRGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// drawLabel draws a number at the given position in a 3x5 pixel font.
// Only digits are drawn; anything else leaves a gap.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.Color) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if p := image.Pt(x+dx, y+dy); p.In(bounds) {
				img.Set(p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				if p := image.Pt(cx+col, y+row); p.In(bounds) {
					img.Set(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
