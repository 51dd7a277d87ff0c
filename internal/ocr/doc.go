// Package ocr wraps the Tesseract OCR engine (via gosseract/v2) to locate
// words on a page.
//
// Its main use is as an obstacle source for whitespace searches: words
// recognized with enough confidence become padded rectangles the search
// must avoid. The recognized text itself is returned too.
//
// # Prerequisites
//
// Tesseract and its development headers must be installed, along with the
// training data for each language used:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Languages are Tesseract codes such as "eng", "deu" or "fra".
package ocr
