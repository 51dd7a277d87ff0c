package raster

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createPage returns a white RGBA page with the given rectangles painted c.
func createPage(width, height int, c color.Color, marks ...image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for _, m := range marks {
		draw.Draw(img, m, image.NewUniform(c), image.Point{}, draw.Src)
	}
	return img
}

func TestBinarize_FixedLevel(t *testing.T) {
	mark := image.Rect(10, 5, 20, 15)
	img := createPage(40, 30, color.Black, mark)

	b, level := Binarize(img, 128)

	require.Equal(t, uint8(128), level)
	assert.Equal(t, 40, b.Width())
	assert.Equal(t, 30, b.Height())
	assert.Equal(t, mark.Dx()*mark.Dy(), b.CountForeground())
	assert.True(t, b.At(10, 5))
	assert.True(t, b.At(19, 14))
	assert.False(t, b.At(20, 15))
	assert.False(t, b.At(0, 0))
}

func TestBinarize_AutoLevel(t *testing.T) {
	mark := image.Rect(0, 0, 8, 8)
	img := createPage(32, 32, color.RGBA{40, 40, 40, 255}, mark)

	b, level := Binarize(img, 0)

	assert.Greater(t, level, uint8(40))
	assert.LessOrEqual(t, level, uint8(255))
	assert.Equal(t, 64, b.CountForeground())
}

func TestBinarize_LightGrayIsBackground(t *testing.T) {
	mark := image.Rect(0, 0, 8, 8)
	img := createPage(16, 16, color.RGBA{220, 220, 220, 255}, mark)

	b, _ := Binarize(img, 128)
	assert.Zero(t, b.CountForeground())
}

func TestBinarize_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(100, 100, 110, 105))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	img.Set(100, 100, color.Black)

	b, _ := Binarize(img, 128)

	assert.Equal(t, image.Rect(0, 0, 10, 5), b.Bounds())
	assert.True(t, b.At(0, 0))
	assert.Equal(t, 1, b.CountForeground())
}

func TestOtsuThreshold(t *testing.T) {
	tests := []struct {
		name    string
		img     image.Image
		wantMin uint8
		wantMax uint8
	}{
		{"uniform white", createPage(10, 10, color.White), 0, 0},
		{"uniform black", createPage(10, 10, color.Black, image.Rect(0, 0, 10, 10)), 255, 255},
		{"black on white", createPage(10, 10, color.Black, image.Rect(0, 0, 5, 10)), 1, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OtsuThreshold(tt.img)
			assert.GreaterOrEqual(t, got, tt.wantMin)
			assert.LessOrEqual(t, got, tt.wantMax)
		})
	}
}
