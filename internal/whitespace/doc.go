// Package whitespace finds large empty rectangles on a binary page image.
//
// Given a two-level raster (foreground pixels are ink, marks, creases) and a
// growing set of caller-supplied obstacles, a Finder enumerates maximal
// axis-aligned rectangles that contain neither foreground pixels nor
// obstacles. Results come one at a time, largest area first, and are never
// smaller than the configured minimum size on either axis. The typical use is
// locating space on a scanned page where new content can be placed.
//
// # Algorithm
//
// The Finder keeps a frontier of candidate regions ordered by area. Each call
// to Next pops the largest region and resolves it:
//
//  1. Obstacles added since the region was created are clipped to it.
//  2. If any obstacle intersects the region, the one nearest the region
//     centre becomes the pivot and the region is split around it.
//  3. Otherwise an integral image answers "is there ink in here?" in O(1).
//     An empty region is a result. A region with ink is split around the
//     largest solid block of ink found near its centre by binary search.
//
// Splitting produces up to four children: the strips above, below, left of
// and right of the pivot. A strip thinner than the minimum size on its
// constrained axis is dropped for good.
//
// Obstacles are stored once in an append-only list. Each region remembers how
// much of that list it has already merged, so a new obstacle costs nothing
// until a region it might affect is popped.
//
// # Coordinate System
//
// All rectangles are image.Rectangle values: Min is inclusive, Max is
// exclusive, and the raster occupies (0,0)-(Width,Height).
//
// # Thread Safety
//
// A Finder is not safe for concurrent use. Callers that share one between
// goroutines must serialize AddObstacle and Next. The IntegralImage is
// immutable after construction and may be shared freely.
package whitespace
