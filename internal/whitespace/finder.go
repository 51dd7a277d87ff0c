package whitespace

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
)

// ErrInvalidMinSize is returned by New when the minimum result size is not
// at least one pixel on both axes.
var ErrInvalidMinSize = errors.New("whitespace: minimum size must be at least 1x1")

// Mode controls what happens to a rectangle once Next returns it.
type Mode int

const (
	// AutoObstacles registers every returned rectangle as an obstacle, so
	// results never overlap and the same space is never returned twice.
	AutoObstacles Mode = iota

	// ManualObstacles leaves returned rectangles alone. The caller decides
	// which of them to claim with AddObstacle.
	ManualObstacles
)

func (m Mode) String() string {
	switch m {
	case AutoObstacles:
		return "auto"
	case ManualObstacles:
		return "manual"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "auto" or "manual" to a Mode. An empty string is auto.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return AutoObstacles, nil
	case "manual":
		return ManualObstacles, nil
	default:
		return 0, fmt.Errorf("unknown obstacle mode %q (want auto or manual)", s)
	}
}

// Option configures a Finder.
type Option func(*Finder)

// WithOrdering replaces the default largest-area-first ordering of the
// candidate frontier.
func WithOrdering(o Ordering) Option {
	return func(f *Finder) {
		if o != nil {
			f.ordering = o
		}
	}
}

// Finder enumerates maximal empty rectangles of a raster.
type Finder struct {
	integral  *IntegralImage
	frontier  *frontier
	ordering  Ordering
	obstacles []image.Rectangle
	minSize   image.Point
}

// New builds a Finder over r. The raster is read once to build the integral
// image and is not retained.
//
// minSize is the smallest width (X) and height (Y) a result may have. Both
// must be at least 1. A raster smaller than minSize never yields a result.
func New(r Raster, minSize image.Point, opts ...Option) (*Finder, error) {
	if minSize.X < 1 || minSize.Y < 1 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidMinSize, minSize.X, minSize.Y)
	}

	f := &Finder{
		integral: NewIntegralImage(r),
		ordering: ByArea,
		minSize:  minSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.frontier = newFrontier(f.ordering)

	bounds := f.integral.Bounds()
	if bounds.Dx() >= minSize.X && bounds.Dy() >= minSize.Y {
		f.frontier.push(newRegion(0, bounds))
	}
	return f, nil
}

// AddObstacle excludes r from all results produced after this call.
// Parts of r outside the raster are ignored.
//
// Obstacles are applied lazily: pending regions pick them up when they are
// next popped. While the frontier holds a single region the obstacle goes
// straight into it.
func (f *Finder) AddObstacle(r image.Rectangle) {
	if r.Empty() {
		return
	}
	if f.frontier.Len() == 1 {
		f.frontier.top().add(r)
		return
	}
	f.obstacles = append(f.obstacles, r)
}

// Next returns the next empty rectangle, largest first.
//
// maxIterations bounds the number of candidate regions examined by this call.
// The second result is false when the frontier is exhausted or the budget ran
// out first; Exhausted tells the two apart. Running out of budget leaves the
// search intact for a later call.
func (f *Finder) Next(mode Mode, maxIterations int) (image.Rectangle, bool) {
	var cur region
	for ; maxIterations > 0 && f.frontier.Len() > 0; maxIterations-- {
		f.frontier.pop(&cur)
		cur.mergeNew(f.obstacles)

		if len(cur.obstacles) > 0 {
			f.subdivide(&cur, pivotObstacle(&cur))
			continue
		}

		if !f.integral.IsEmpty(cur.bounds) {
			pixel := f.findForegroundNear(cur.bounds)
			f.subdivide(&cur, f.extendToForegroundBox(pixel, cur.bounds))
			continue
		}

		if mode == AutoObstacles {
			f.obstacles = append(f.obstacles, cur.bounds)
		}
		return cur.bounds, true
	}
	return image.Rectangle{}, false
}

// Collect calls Next in AutoObstacles mode until the search is exhausted,
// a call runs out of budget, or limit results have been gathered.
// A limit of zero or less means no limit.
func (f *Finder) Collect(limit, maxIterations int) []image.Rectangle {
	var found []image.Rectangle
	for limit <= 0 || len(found) < limit {
		r, ok := f.Next(AutoObstacles, maxIterations)
		if !ok {
			break
		}
		found = append(found, r)
	}
	return found
}

// Exhausted reports whether no candidate regions remain.
func (f *Finder) Exhausted() bool {
	return f.frontier.Len() == 0
}

// Pending returns the number of unresolved candidate regions.
func (f *Finder) Pending() int {
	return f.frontier.Len()
}

// Obstacles returns the length of the global obstacle list, including
// rectangles registered by AutoObstacles mode.
func (f *Finder) Obstacles() int {
	return len(f.obstacles)
}

// MinSize returns the minimum result size.
func (f *Finder) MinSize() image.Point {
	return f.minSize
}

// Integral exposes the summed-area table built from the raster.
func (f *Finder) Integral() *IntegralImage {
	return f.integral
}

// subdivide queues the parts of parent above, below, left and right of
// pivot. Parts thinner than the minimum size on their constrained axis are
// discarded.
func (f *Finder) subdivide(parent *region, pivot image.Rectangle) {
	b := parent.bounds
	known := len(f.obstacles)

	if pivot.Min.Y-b.Min.Y >= f.minSize.Y {
		f.spawn(parent, known, image.Rect(b.Min.X, b.Min.Y, b.Max.X, pivot.Min.Y))
	}
	if b.Max.Y-pivot.Max.Y >= f.minSize.Y {
		f.spawn(parent, known, image.Rect(b.Min.X, pivot.Max.Y, b.Max.X, b.Max.Y))
	}
	if pivot.Min.X-b.Min.X >= f.minSize.X {
		f.spawn(parent, known, image.Rect(b.Min.X, b.Min.Y, pivot.Min.X, b.Max.Y))
	}
	if b.Max.X-pivot.Max.X >= f.minSize.X {
		f.spawn(parent, known, image.Rect(pivot.Max.X, b.Min.Y, b.Max.X, b.Max.Y))
	}
}

func (f *Finder) spawn(parent *region, known int, bounds image.Rectangle) {
	child := newRegion(known, bounds)
	child.inherit(parent)
	f.frontier.push(child)
}

// pivotObstacle picks the obstacle whose centre is closest to the centre of
// the region. On a tie the later obstacle wins.
func pivotObstacle(r *region) image.Rectangle {
	c := center(r.bounds)
	best := r.obstacles[0]
	bestDist := math.MaxInt
	for _, o := range r.obstacles {
		oc := center(o)
		dx, dy := c.X-oc.X, c.Y-oc.Y
		if d := dx*dx + dy*dy; d <= bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

// center returns the middle pixel of a non-empty rectangle, rounding toward
// the top-left.
func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X-1)/2, (r.Min.Y+r.Max.Y-1)/2)
}
