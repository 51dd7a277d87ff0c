package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
)

// ErrNoSpace is returned by PlaceQRCode when no candidate rectangle can hold
// the code and its margin.
var ErrNoSpace = errors.New("no whitespace large enough")

// PlacementResult describes a QR code stamped into whitespace
type PlacementResult struct {
	// Region is the whitespace rectangle that was chosen.
	Region image.Rectangle `json:"region"`

	// Bounds is where the code was drawn, centred in Region.
	Bounds image.Rectangle `json:"bounds"`

	// Size is the side of the square code in pixels, without margin.
	Size int `json:"size"`

	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// NewQRCode renders content with every module module pixels wide and no
// quiet zone. The margin passed to PlaceQRCode takes its place.
func NewQRCode(content string, module int) (image.Image, error) {
	if module < 1 {
		return nil, fmt.Errorf("module size must be at least 1, got %d", module)
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	q.DisableBorder = true
	// A negative size selects pixels per module instead of a total size.
	return q.Image(-module), nil
}

// QRFootprint returns the side of the square a QR code for content needs,
// margin included on every side. Use it as the minimum size of the
// whitespace search that feeds PlaceQRCode.
func QRFootprint(content string, module, margin int) (int, error) {
	code, err := NewQRCode(content, module)
	if err != nil {
		return 0, err
	}
	return code.Bounds().Dx() + 2*margin, nil
}

// PlaceQRCode stamps a QR code for content into the first candidate that
// can hold it with margin pixels of clearance on every side. Candidates are
// tried in order, so pass them largest first, the order a whitespace
// search returns them in.
func PlaceQRCode(img image.Image, candidates []image.Rectangle, content string, module, margin int) (*PlacementResult, error) {
	if margin < 0 {
		return nil, fmt.Errorf("margin must not be negative, got %d", margin)
	}
	code, err := NewQRCode(content, module)
	if err != nil {
		return nil, err
	}
	size := code.Bounds().Dx()
	need := size + 2*margin

	bounds := img.Bounds()
	for _, region := range candidates {
		region = region.Intersect(bounds)
		if region.Dx() < need || region.Dy() < need {
			continue
		}

		offset := image.Pt((region.Dx()-size)/2, (region.Dy()-size)/2)
		at := image.Rectangle{Min: region.Min.Add(offset)}
		at.Max = at.Min.Add(image.Pt(size, size))

		stamped := imaging.Paste(img, code, at.Min)
		encoded, err := EncodePNGBase64(stamped)
		if err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		return &PlacementResult{
			Region:      region,
			Bounds:      at,
			Size:        size,
			Width:       stamped.Bounds().Dx(),
			Height:      stamped.Bounds().Dy(),
			ImageBase64: encoded,
			MimeType:    "image/png",
		}, nil
	}
	return nil, fmt.Errorf("%w: QR code needs %dx%d pixels", ErrNoSpace, need, need)
}
