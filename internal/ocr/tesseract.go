package ocr

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
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

// Word is a recognized word with its location and OCR confidence.
type Word struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this word in the image.
	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the words Tesseract found on a page.
type OCRResult struct {
	// FullText is all recognized text with original spacing and newlines.
	FullText string `json:"full_text"`

	// Words contains individual words with their bounding boxes.
	// May be empty if bounding box extraction fails (text will still be in FullText).
	Words []Word `json:"words"`

	// Count is the number of words.
	Count int `json:"count"`
}

// ExtractWords runs Tesseract over img and returns its word boxes.
//
// The image is handed to Tesseract as in-memory PNG bytes, so pages that
// only exist in the image cache need no temporary file. Word bounds are in
// img's own coordinates.
//
// language is a Tesseract language code such as "eng"; its training data
// must be installed.
func ExtractWords(img image.Image, language string) (*OCRResult, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Return just text if boxes fail
		return &OCRResult{FullText: text, Words: []Word{}}, nil
	}

	offset := img.Bounds().Min
	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		r := box.Box.Add(offset)
		words = append(words, Word{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds:     Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y},
		})
	}

	return &OCRResult{
		FullText: text,
		Words:    words,
		Count:    len(words),
	}, nil
}

// WordObstacles returns the boxes of words recognized with at least
// minConfidence, each grown by pad pixels on every side, for use as
// whitespace search obstacles.
func WordObstacles(result *OCRResult, minConfidence float64, pad int) []image.Rectangle {
	if result == nil {
		return nil
	}
	out := make([]image.Rectangle, 0, len(result.Words))
	for _, w := range result.Words {
		if w.Confidence < minConfidence {
			continue
		}
		r := w.Bounds.Rect().Inset(-pad)
		if r.Empty() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Version returns the version of the linked Tesseract library.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}
