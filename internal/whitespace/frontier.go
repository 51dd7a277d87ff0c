package whitespace

import (
	"container/heap"
	"fmt"
	"image"
	"strings"
)

// Ordering decides which candidate region the Finder resolves first.
// It reports whether a has strictly lower priority than b.
type Ordering func(a, b image.Rectangle) bool

// ByArea ranks larger rectangles first. It is the default Ordering and makes
// Next return results in non-increasing area order.
func ByArea(a, b image.Rectangle) bool {
	return a.Dx()*a.Dy() < b.Dx()*b.Dy()
}

// ByReadingOrder ranks rectangles by their top edge, then by their left
// edge, the way a page is read.
func ByReadingOrder(a, b image.Rectangle) bool {
	if a.Min.Y != b.Min.Y {
		return a.Min.Y > b.Min.Y
	}
	return a.Min.X > b.Min.X
}

// ParseOrdering converts "area" or "reading" to an Ordering. An empty
// string is area.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "area":
		return ByArea, nil
	case "reading":
		return ByReadingOrder, nil
	default:
		return nil, fmt.Errorf("unknown ordering %q (want area or reading)", s)
	}
}

type queued struct {
	region
	seq uint64
}

// frontier is a max-priority queue of regions. Equal-priority regions come
// out in insertion order.
type frontier struct {
	items []*queued
	lower Ordering
	seq   uint64
}

func newFrontier(lower Ordering) *frontier {
	if lower == nil {
		lower = ByArea
	}
	return &frontier{lower: lower}
}

// heap.Interface

func (q *frontier) Len() int { return len(q.items) }

func (q *frontier) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if q.lower(b.bounds, a.bounds) {
		return true
	}
	if q.lower(a.bounds, b.bounds) {
		return false
	}
	return a.seq < b.seq
}

func (q *frontier) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *frontier) Push(x interface{}) {
	q.items = append(q.items, x.(*queued))
}

func (q *frontier) Pop() interface{} {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return item
}

// push enqueues r. The frontier takes ownership of r's obstacle list.
func (q *frontier) push(r *region) {
	item := &queued{seq: q.seq}
	q.seq++
	item.region.swap(r)
	heap.Push(q, item)
}

// top returns the highest-priority region without removing it, or nil.
func (q *frontier) top() *region {
	if len(q.items) == 0 {
		return nil
	}
	return &q.items[0].region
}

// pop moves the highest-priority region into dst.
func (q *frontier) pop(dst *region) {
	item := heap.Pop(q).(*queued)
	dst.swap(&item.region)
}
