package whitespace

import "image"

// region is a candidate search area awaiting resolution.
type region struct {
	bounds image.Rectangle

	// known is how many entries of the finder's global obstacle list have
	// already been merged into obstacles.
	known int

	// obstacles are clipped to bounds and never empty.
	obstacles []image.Rectangle
}

func newRegion(known int, bounds image.Rectangle) *region {
	return &region{bounds: bounds, known: known}
}

// add clips obstacle to the region and keeps it if anything is left.
func (r *region) add(obstacle image.Rectangle) {
	clipped := obstacle.Intersect(r.bounds)
	if !clipped.Empty() {
		r.obstacles = append(r.obstacles, clipped)
	}
}

// inherit copies the parent's obstacles that intersect this region.
func (r *region) inherit(parent *region) {
	for _, o := range parent.obstacles {
		r.add(o)
	}
}

// mergeNew applies global obstacles added since this region last looked.
func (r *region) mergeNew(global []image.Rectangle) {
	for i := r.known; i < len(global); i++ {
		r.add(global[i])
	}
	if len(global) > r.known {
		r.known = len(global)
	}
}

// swap exchanges the full contents of two regions without copying the
// obstacle lists.
func (r *region) swap(other *region) {
	*r, *other = *other, *r
}

// area is the pixel count of the bounds.
func (r *region) area() int {
	return r.bounds.Dx() * r.bounds.Dy()
}
