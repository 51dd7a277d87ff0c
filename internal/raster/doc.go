// Package raster provides a packed two-level image and the conversions
// needed to produce one from a decoded page scan.
//
// A Bitmap stores one bit per pixel, 32 pixels per uint32 word, most
// significant bit first. A set bit marks a foreground ("black") pixel: ink,
// stray marks, creases, anything that must not be treated as whitespace.
// Rows are padded to a whole number of words, so the padding bits of the
// last word in each row are always zero.
//
// # Coordinate System
//
// Pixels are addressed with (0,0) at the top-left corner. Rectangles use the
// standard image.Rectangle convention: Min is inclusive, Max is exclusive.
//
// # Binarization
//
// Binarize converts any image.Image to a Bitmap. The image is reduced to
// luminance and every pixel darker than the threshold becomes foreground.
// A threshold of zero selects one automatically using Otsu's method over the
// luminance histogram, which separates ink from paper well on typical scans.
//
// # Thread Safety
//
// A Bitmap is not synchronized. Once built it is only read by the
// whitespace engine, so sharing a finished Bitmap between goroutines is safe
// as long as nobody calls Set or Fill.
package raster
