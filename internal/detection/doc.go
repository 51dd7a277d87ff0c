// Package detection finds page content that a whitespace search should
// treat as occupied.
//
// DetectTextRegions is a heuristic text detector: it builds a gradient edge
// map of the page, then slides windows of several sizes across it looking
// for medium edge density with a mostly horizontal structure. Overlapping
// hits are merged. Obstacles turns the result into padded rectangles that
// can be passed straight to a whitespace.Finder.
//
// The detector needs no OCR engine, so it is the default obstacle source.
// For exact word boxes see package ocr.
//
// # Coordinate System
//
// Bounding boxes use the image's own coordinates with an inclusive top-left
// and exclusive bottom-right corner.
//
// # Confidence Scores
//
// Each region carries a score from 0.0 to 1.0: the share of horizontal edge
// runs in the window, scaled down as the edge density moves away from 0.2.
package detection
