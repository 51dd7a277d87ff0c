package whitespace

import "image"

// Both searches below keep two nested rectangles and move their edges
// toward each other by bisection until no edge pair is more than one pixel
// apart. The predicate holds for inner and fails for outer throughout.

// bisect returns the rectangle halfway between outer and inner on every
// edge. Given inner within outer it lies between the two, and it differs
// from both whenever the two differ by more than one pixel on some axis.
func bisect(outer, inner image.Rectangle) image.Rectangle {
	return image.Rectangle{
		Min: image.Pt(
			outer.Min.X+((inner.Min.X-outer.Min.X+1)>>1),
			outer.Min.Y+((inner.Min.Y-outer.Min.Y+1)>>1),
		),
		Max: image.Pt(
			outer.Max.X-((outer.Max.X-inner.Max.X)>>1),
			outer.Max.Y-((outer.Max.Y-inner.Max.Y)>>1),
		),
	}
}

func converged(outer, inner image.Rectangle) bool {
	return outer.Dx()-inner.Dx() <= 1 && outer.Dy()-inner.Dy() <= 1
}

// findForegroundNear returns a foreground pixel inside area, preferring one
// near its centre. area must contain at least one foreground pixel.
func (f *Finder) findForegroundNear(area image.Rectangle) image.Point {
	for {
		c := center(area)
		inner := image.Rect(c.X, c.Y, c.X+1, c.Y+1)
		if !f.integral.IsEmpty(inner) {
			return c
		}

		// outer always holds foreground, inner never does.
		outer := area
		for !converged(outer, inner) {
			mid := bisect(outer, inner)
			if f.integral.IsEmpty(mid) {
				inner = mid
			} else {
				outer = mid
			}
		}

		// The foreground lies in the one-pixel margin between the two.
		strip := f.foregroundStrip(outer, inner)
		if strip.Empty() {
			return outer.Min
		}
		if strip.Dx() == 1 && strip.Dy() == 1 {
			return strip.Min
		}
		area = strip
	}
}

// foregroundStrip checks the edge lines of outer not shared with inner, in
// left, right, top, bottom order, and returns the first that holds
// foreground.
func (f *Finder) foregroundStrip(outer, inner image.Rectangle) image.Rectangle {
	var strips []image.Rectangle
	if outer.Min.X != inner.Min.X {
		strips = append(strips, image.Rect(outer.Min.X, outer.Min.Y, outer.Min.X+1, outer.Max.Y))
	}
	if outer.Max.X != inner.Max.X {
		strips = append(strips, image.Rect(outer.Max.X-1, outer.Min.Y, outer.Max.X, outer.Max.Y))
	}
	if outer.Min.Y != inner.Min.Y {
		strips = append(strips, image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, outer.Min.Y+1))
	}
	if outer.Max.Y != inner.Max.Y {
		strips = append(strips, image.Rect(outer.Min.X, outer.Max.Y-1, outer.Max.X, outer.Max.Y))
	}
	for _, s := range strips {
		if !f.integral.IsEmpty(s) {
			return s
		}
	}
	return image.Rectangle{}
}

// extendToForegroundBox grows the foreground pixel p into a large
// rectangle, within bounds, made entirely of foreground.
func (f *Finder) extendToForegroundBox(p image.Point, bounds image.Rectangle) image.Rectangle {
	outer := bounds
	if f.integral.IsSolid(outer) {
		return outer
	}

	// inner is always solid, outer never is.
	inner := image.Rect(p.X, p.Y, p.X+1, p.Y+1)
	for !converged(outer, inner) {
		mid := bisect(outer, inner)
		if f.integral.IsSolid(mid) {
			inner = mid
		} else {
			outer = mid
		}
	}
	return inner
}
