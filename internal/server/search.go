package server

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/whitespace-mcp/internal/detection"
	"github.com/ironsheep/whitespace-mcp/internal/ocr"
	"github.com/ironsheep/whitespace-mcp/internal/raster"
	"github.com/ironsheep/whitespace-mcp/internal/whitespace"
)

// rectJSON is a rectangle as tools receive it. (x1, y1) is inclusive and
// (x2, y2) is exclusive.
type rectJSON struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r rectJSON) rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// regionJSON is a rectangle as tools report it.
type regionJSON struct {
	X1     int `json:"x1"`
	Y1     int `json:"y1"`
	X2     int `json:"x2"`
	Y2     int `json:"y2"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Area   int `json:"area"`
}

func toRegionJSON(r image.Rectangle) regionJSON {
	return regionJSON{
		X1:     r.Min.X,
		Y1:     r.Min.Y,
		X2:     r.Max.X,
		Y2:     r.Max.Y,
		Width:  r.Dx(),
		Height: r.Dy(),
		Area:   r.Dx() * r.Dy(),
	}
}

func toRegionsJSON(rects []image.Rectangle) []regionJSON {
	out := make([]regionJSON, len(rects))
	for i, r := range rects {
		out[i] = toRegionJSON(r)
	}
	return out
}

// searchOptions are the arguments shared by every tool that runs a
// whitespace search. Zero values fall back to the server configuration.
type searchOptions struct {
	MinWidth      int `json:"min_width"`
	MinHeight     int `json:"min_height"`
	MaxResults    int `json:"max_results"`
	MaxIterations int `json:"max_iterations"`

	// Threshold is a pointer so that an explicit 0 can ask for Otsu's
	// method even when the configuration fixes a level.
	Threshold *int `json:"threshold"`

	Order           string     `json:"order"`
	Obstacles       []rectJSON `json:"obstacles"`
	ObstacleSources []string   `json:"obstacle_sources"`
	Padding         int        `json:"padding"`
}

// applyDefaults fills unset fields from cfg and rejects values no search
// can use.
func (s *Server) applyDefaults(o *searchOptions) error {
	if o.MinWidth == 0 {
		o.MinWidth = s.cfg.Search.MinWidth
	}
	if o.MinHeight == 0 {
		o.MinHeight = s.cfg.Search.MinHeight
	}
	if o.MaxResults == 0 {
		o.MaxResults = s.cfg.Search.MaxResults
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = s.cfg.Search.MaxIterations
	}
	if o.Threshold == nil {
		t := s.cfg.Search.Threshold
		o.Threshold = &t
	}

	if o.MinWidth < 1 || o.MinHeight < 1 {
		return fmt.Errorf("min_width and min_height must be at least 1, got %dx%d", o.MinWidth, o.MinHeight)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", o.MaxIterations)
	}
	if *o.Threshold < 0 || *o.Threshold > 255 {
		return fmt.Errorf("threshold must be between 0 and 255, got %d", *o.Threshold)
	}
	if o.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %d", o.Padding)
	}
	for _, src := range o.ObstacleSources {
		switch strings.ToLower(src) {
		case "text", "ocr":
		default:
			return fmt.Errorf("unknown obstacle source %q (want text or ocr)", src)
		}
	}
	return nil
}

// SearchResult is the outcome of a whitespace search over one image.
type SearchResult struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	// Threshold is the binarization level applied.
	Threshold int `json:"threshold"`

	Regions []regionJSON `json:"regions"`
	Count   int          `json:"count"`

	// Exhausted is true when no whitespace of the minimum size is left
	// to find. False means max_results or max_iterations stopped the
	// search first.
	Exhausted bool `json:"exhausted"`

	// Obstacles is the number of rectangles excluded before the search.
	Obstacles int `json:"obstacles"`

	// Coverage is the share of the page covered by the returned regions.
	Coverage float64 `json:"coverage"`
}

// searchRun keeps the loaded image and raw rectangles next to the report
// for tools that draw on the page.
type searchRun struct {
	img    image.Image
	rects  []image.Rectangle
	result *SearchResult
}

// prepared is a Finder ready to be queried, plus what was needed to build it.
type prepared struct {
	img       image.Image
	finder    *whitespace.Finder
	threshold uint8
	obstacles int
}

// prepareSearch loads path, binarizes it and registers every obstacle
// requested by o. o must already have its defaults applied.
func (s *Server) prepareSearch(ctx context.Context, path string, o *searchOptions) (*prepared, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}

	order, err := whitespace.ParseOrdering(o.Order)
	if err != nil {
		return nil, err
	}

	bitmap, level := raster.Binarize(img, uint8(*o.Threshold))
	finder, err := whitespace.New(bitmap, image.Pt(o.MinWidth, o.MinHeight), whitespace.WithOrdering(order))
	if err != nil {
		return nil, err
	}

	obstacles, err := s.obstacles(ctx, img, o)
	if err != nil {
		return nil, err
	}
	// The bitmap is anchored at (0,0); detectors report image coordinates.
	origin := img.Bounds().Min
	for _, r := range obstacles {
		finder.AddObstacle(r.Sub(origin))
	}

	return &prepared{
		img:       img,
		finder:    finder,
		threshold: level,
		obstacles: len(obstacles),
	}, nil
}

// obstacles gathers explicit obstacles and those produced by the requested
// detectors, each grown by o.Padding.
func (s *Server) obstacles(ctx context.Context, img image.Image, o *searchOptions) ([]image.Rectangle, error) {
	var out []image.Rectangle
	for _, r := range o.Obstacles {
		out = append(out, r.rect().Inset(-o.Padding))
	}

	for _, src := range o.ObstacleSources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch strings.ToLower(src) {
		case "text":
			regions, err := detection.DetectTextRegions(img, s.cfg.OCR.MinConfidence)
			if err != nil {
				return nil, fmt.Errorf("text detection failed: %w", err)
			}
			out = append(out, detection.Obstacles(regions, o.Padding)...)
		case "ocr":
			words, err := ocr.ExtractWords(img, s.cfg.OCR.Language)
			if err != nil {
				return nil, err
			}
			out = append(out, ocr.WordObstacles(words, s.cfg.OCR.MinConfidence, o.Padding)...)
		}
	}
	return out, nil
}

// runSearch runs a complete search over path. A negative MaxResults means
// no limit.
func (s *Server) runSearch(ctx context.Context, path string, o searchOptions) (*searchRun, error) {
	if err := s.applyDefaults(&o); err != nil {
		return nil, err
	}
	p, err := s.prepareSearch(ctx, path, &o)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rects := p.finder.Collect(o.MaxResults, o.MaxIterations)

	bounds := p.img.Bounds()
	area := 0
	for i, r := range rects {
		rects[i] = r.Add(bounds.Min)
		area += r.Dx() * r.Dy()
	}
	coverage := 0.0
	if total := bounds.Dx() * bounds.Dy(); total > 0 {
		coverage = float64(area) / float64(total)
	}

	return &searchRun{
		img:   p.img,
		rects: rects,
		result: &SearchResult{
			Path:      path,
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
			Threshold: int(p.threshold),
			Regions:   toRegionsJSON(rects),
			Count:     len(rects),
			Exhausted: p.finder.Exhausted(),
			Obstacles: p.obstacles,
			Coverage:  coverage,
		},
	}, nil
}
