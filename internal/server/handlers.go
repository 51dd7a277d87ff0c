package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/whitespace-mcp/internal/detection"
	"github.com/ironsheep/whitespace-mcp/internal/imaging"
	"github.com/ironsheep/whitespace-mcp/internal/ocr"
	"github.com/ironsheep/whitespace-mcp/internal/raster"
	"github.com/ironsheep/whitespace-mcp/internal/whitespace"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "whitespace_find", "image_crop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if s.cfg.Debug() {
		log.Printf("tool %s took %v", params.Name, time.Since(start))
	}
	if err != nil {
		log.Printf("tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies defaults from the server configuration
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging/whitespace/detection/ocr function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_crop":
		return s.handleImageCrop(args)
	case "image_binarize":
		return s.handleImageBinarize(args)

	// Obstacle Detection
	case "image_detect_text_regions":
		return s.handleImageDetectTextRegions(args)
	case "image_ocr_words":
		return s.handleImageOCRWords(args)

	// Whitespace Search
	case "whitespace_find":
		return s.handleWhitespaceFind(ctx, args)
	case "whitespace_highlight":
		return s.handleWhitespaceHighlight(ctx, args)
	case "whitespace_place_qr":
		return s.handleWhitespacePlaceQR(ctx, args)
	case "whitespace_find_batch":
		return s.handleWhitespaceFindBatch(ctx, args)

	// Incremental Sessions
	case "whitespace_session_open":
		return s.handleSessionOpen(ctx, args)
	case "whitespace_session_add_obstacle":
		return s.handleSessionAddObstacle(args)
	case "whitespace_session_next":
		return s.handleSessionNext(args)
	case "whitespace_session_close":
		return s.handleSessionClose(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageCropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, image.Rect(a.X1, a.Y1, a.X2, a.Y2), a.Scale)
}

type imageBinarizeArgs struct {
	Path      string `json:"path"`
	Threshold *int   `json:"threshold"`
}

type binarizeResult struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	Threshold int `json:"threshold"`

	// ForegroundRatio is the share of pixels classed as ink.
	ForegroundRatio float64 `json:"foreground_ratio"`

	// PaperColor and InkColor are the most common colors on each side of
	// the threshold. Either is nil when no pixel falls on that side.
	PaperColor *imaging.ColorFrequency `json:"paper_color,omitempty"`
	InkColor   *imaging.ColorFrequency `json:"ink_color,omitempty"`

	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handleImageBinarize(args json.RawMessage) (interface{}, error) {
	var a imageBinarizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	threshold := s.cfg.Search.Threshold
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("threshold must be between 0 and 255, got %d", threshold)
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	bitmap, level := raster.Binarize(img, uint8(threshold))
	encoded, err := imaging.EncodePNGBase64(bitmap.ToGray())
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	ratio := 0.0
	if total := bitmap.Width() * bitmap.Height(); total > 0 {
		ratio = float64(bitmap.CountForeground()) / float64(total)
	}
	result := &binarizeResult{
		Width:           bitmap.Width(),
		Height:          bitmap.Height(),
		Threshold:       int(level),
		ForegroundRatio: ratio,
		ImageBase64:     encoded,
		MimeType:        "image/png",
	}

	origin := img.Bounds().Min
	isInk := func(x, y int) bool { return bitmap.At(x-origin.X, y-origin.Y) }
	if paper := imaging.DominantColors(img, 1, func(x, y int) bool { return !isInk(x, y) }); len(paper) > 0 {
		result.PaperColor = &paper[0]
	}
	if ink := imaging.DominantColors(img, 1, isInk); len(ink) > 0 {
		result.InkColor = &ink[0]
	}
	return result, nil
}

// === Obstacle Detection Handlers ===

type imageDetectTextRegionsArgs struct {
	Path          string   `json:"path"`
	MinConfidence *float64 `json:"min_confidence"`
}

func (s *Server) handleImageDetectTextRegions(args json.RawMessage) (interface{}, error) {
	var a imageDetectTextRegionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	minConfidence := s.cfg.OCR.MinConfidence
	if a.MinConfidence != nil {
		minConfidence = *a.MinConfidence
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return detection.DetectTextRegions(img, minConfidence)
}

type imageOCRWordsArgs struct {
	Path     string `json:"path"`
	Language string `json:"language"`
}

func (s *Server) handleImageOCRWords(args json.RawMessage) (interface{}, error) {
	var a imageOCRWordsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.cfg.OCR.Language
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return ocr.ExtractWords(img, a.Language)
}

// === Whitespace Search Handlers ===

type whitespaceFindArgs struct {
	Path string `json:"path"`
	searchOptions
}

func (s *Server) handleWhitespaceFind(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a whitespaceFindArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	run, err := s.runSearch(ctx, a.Path, a.searchOptions)
	if err != nil {
		return nil, err
	}
	return run.result, nil
}

type whitespaceHighlightArgs struct {
	Path    string   `json:"path"`
	Color   string   `json:"color"`
	Opacity *float64 `json:"opacity"`
	searchOptions
}

type highlightResult struct {
	*imaging.HighlightResult
	Search *SearchResult `json:"search"`
}

func (s *Server) handleWhitespaceHighlight(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a whitespaceHighlightArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = s.cfg.Highlight.Color
	}
	opacity := s.cfg.Highlight.Opacity
	if a.Opacity != nil {
		opacity = *a.Opacity
	}

	run, err := s.runSearch(ctx, a.Path, a.searchOptions)
	if err != nil {
		return nil, err
	}
	hl, err := imaging.Highlight(run.img, run.rects, a.Color, opacity)
	if err != nil {
		return nil, err
	}
	return &highlightResult{HighlightResult: hl, Search: run.result}, nil
}

type whitespacePlaceQRArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Module  int    `json:"module"`
	Margin  *int   `json:"margin"`
	searchOptions
}

type placeQRResult struct {
	Region      regionJSON `json:"region"`
	Bounds      regionJSON `json:"bounds"`
	Size        int        `json:"size"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Threshold   int        `json:"threshold"`
	ImageBase64 string     `json:"image_base64"`
	MimeType    string     `json:"mime_type"`
}

// handleWhitespacePlaceQR searches for whitespace at least as large as the
// QR code plus its margin and stamps the code into the first region found.
func (s *Server) handleWhitespacePlaceQR(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a whitespacePlaceQRArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Content == "" {
		return nil, fmt.Errorf("content is required")
	}
	if a.Module == 0 {
		a.Module = s.cfg.Placement.QRModule
	}
	margin := s.cfg.Placement.Margin
	if a.Margin != nil {
		margin = *a.Margin
	}
	if margin < 0 {
		return nil, fmt.Errorf("margin must not be negative, got %d", margin)
	}

	need, err := imaging.QRFootprint(a.Content, a.Module, margin)
	if err != nil {
		return nil, err
	}
	opts := a.searchOptions
	opts.MinWidth, opts.MinHeight = need, need
	opts.MaxResults = 1

	run, err := s.runSearch(ctx, a.Path, opts)
	if err != nil {
		return nil, err
	}
	placed, err := imaging.PlaceQRCode(run.img, run.rects, a.Content, a.Module, margin)
	if err != nil {
		return nil, err
	}
	return &placeQRResult{
		Region:      toRegionJSON(placed.Region),
		Bounds:      toRegionJSON(placed.Bounds),
		Size:        placed.Size,
		Width:       placed.Width,
		Height:      placed.Height,
		Threshold:   run.result.Threshold,
		ImageBase64: placed.ImageBase64,
		MimeType:    placed.MimeType,
	}, nil
}

type whitespaceFindBatchArgs struct {
	Paths []string `json:"paths"`
	searchOptions
}

type batchItem struct {
	Path   string        `json:"path"`
	Result *SearchResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type batchResult struct {
	Results []batchItem `json:"results"`
	Count   int         `json:"count"`
	Failed  int         `json:"failed"`
}

// handleWhitespaceFindBatch runs whitespace_find over every path with at
// most batch.workers searches in flight. A page that fails is reported in
// its slot and does not stop the others.
func (s *Server) handleWhitespaceFindBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a whitespaceFindBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths must not be empty")
	}
	// Validate once so a bad argument fails the call instead of every page.
	check := a.searchOptions
	if err := s.applyDefaults(&check); err != nil {
		return nil, err
	}

	items := make([]batchItem, len(a.Paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Batch.Workers)

	for i, path := range a.Paths {
		g.Go(func() error {
			items[i].Path = path
			run, err := s.runSearch(gctx, path, a.searchOptions)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = run.result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, it := range items {
		if it.Error != "" {
			failed++
		}
	}
	return &batchResult{Results: items, Count: len(items), Failed: failed}, nil
}

// === Session Handlers ===

type sessionOpenArgs struct {
	Path string `json:"path"`
	searchOptions
}

type sessionInfo struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	MinWidth  int    `json:"min_width"`
	MinHeight int    `json:"min_height"`
	Threshold int    `json:"threshold"`
	Obstacles int    `json:"obstacles"`
}

func (s *Server) handleSessionOpen(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionOpenArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := s.applyDefaults(&a.searchOptions); err != nil {
		return nil, err
	}
	p, err := s.prepareSearch(ctx, a.Path, &a.searchOptions)
	if err != nil {
		return nil, err
	}

	sess := s.sessions.open(a.Path, p.finder, p.img.Bounds().Min)
	if s.cfg.Debug() {
		log.Printf("opened session %s for %s", sess.id, a.Path)
	}
	bounds := p.img.Bounds()
	return &sessionInfo{
		SessionID: sess.id,
		Path:      a.Path,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		MinWidth:  a.MinWidth,
		MinHeight: a.MinHeight,
		Threshold: int(p.threshold),
		Obstacles: p.obstacles,
	}, nil
}

type sessionAddObstacleArgs struct {
	SessionID string     `json:"session_id"`
	Obstacles []rectJSON `json:"obstacles"`
	Padding   int        `json:"padding"`
}

type sessionObstaclesResult struct {
	SessionID string `json:"session_id"`
	Added     int    `json:"added"`
}

func (s *Server) handleSessionAddObstacle(args json.RawMessage) (interface{}, error) {
	var a sessionAddObstacleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Padding < 0 {
		return nil, fmt.Errorf("padding must not be negative, got %d", a.Padding)
	}
	sess, err := s.sessions.get(a.SessionID)
	if err != nil {
		return nil, err
	}

	rects := make([]image.Rectangle, len(a.Obstacles))
	for i, r := range a.Obstacles {
		rects[i] = r.rect().Inset(-a.Padding)
	}
	sess.addObstacles(rects)
	return &sessionObstaclesResult{SessionID: sess.id, Added: len(rects)}, nil
}

type sessionNextArgs struct {
	SessionID     string `json:"session_id"`
	Mode          string `json:"mode"`
	Count         int    `json:"count"`
	MaxIterations int    `json:"max_iterations"`
}

type sessionNextResult struct {
	SessionID string       `json:"session_id"`
	Regions   []regionJSON `json:"regions"`
	Count     int          `json:"count"`

	// Found is false when the call produced nothing, either because the
	// search is exhausted or because max_iterations ran out first.
	Found     bool `json:"found"`
	Exhausted bool `json:"exhausted"`
	Pending   int  `json:"pending"`

	// Total is the number of regions this session has produced so far.
	Total int `json:"total"`
}

func (s *Server) handleSessionNext(args json.RawMessage) (interface{}, error) {
	var a sessionNextArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mode, err := whitespace.ParseMode(a.Mode)
	if err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 1
	}
	if a.Count < 0 {
		return nil, fmt.Errorf("count must be positive, got %d", a.Count)
	}
	if a.MaxIterations == 0 {
		a.MaxIterations = s.cfg.Search.MaxIterations
	}
	if a.MaxIterations < 0 {
		return nil, fmt.Errorf("max_iterations must be positive, got %d", a.MaxIterations)
	}
	sess, err := s.sessions.get(a.SessionID)
	if err != nil {
		return nil, err
	}

	rects := sess.next(mode, a.Count, a.MaxIterations)
	exhausted, pending, total := sess.status()
	return &sessionNextResult{
		SessionID: sess.id,
		Regions:   toRegionsJSON(rects),
		Count:     len(rects),
		Found:     len(rects) > 0,
		Exhausted: exhausted,
		Pending:   pending,
		Total:     total,
	}, nil
}

type sessionCloseArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleSessionClose(args json.RawMessage) (interface{}, error) {
	var a sessionCloseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, err := s.sessions.close(a.SessionID)
	if err != nil {
		return nil, err
	}
	if s.cfg.Debug() {
		_, _, found := sess.status()
		log.Printf("closed session %s for %s after %d regions", sess.id, sess.path, found)
	}
	return map[string]interface{}{
		"session_id": a.SessionID,
		"closed":     true,
	}, nil
}
