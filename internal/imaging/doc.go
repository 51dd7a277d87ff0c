// Package imaging provides the page-level image operations of the MCP server.
//
// It loads and caches page images, crops regions out of them, summarizes
// their paper and ink colors, renders whitespace rectangles as a
// translucent overlay, and stamps QR codes into whitespace that is large
// enough to hold them. Analysis of the page content
// itself lives in the raster and whitespace packages.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with the origin at the
// top-left corner. Regions are image.Rectangle values: Min is inclusive and
// Max is exclusive, matching the rectangles a whitespace search returns.
//
// # Formats
//
// PNG, JPEG and GIF are decoded by the standard library; TIFF and BMP, the
// usual output of document scanners, by golang.org/x/image. Every image a
// tool returns is encoded as a base64 PNG.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// never modify their input and can be called concurrently.
package imaging
