package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/tiff"
)

// createScanFile writes a white grayscale TIFF with black ink in every
// mark, the way a document scanner delivers a page.
func createScanFile(t *testing.T, width, height int, marks ...image.Rectangle) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for _, m := range marks {
		draw.Draw(img, m, image.Black, image.Point{}, draw.Src)
	}

	path := filepath.Join(t.TempDir(), "scan.tiff")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create scan: %v", err)
	}
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatalf("failed to encode scan: %v", err)
	}
	return path
}

// createPageFile writes a white page with black ink in every mark and
// returns its path. The file is removed when the test ends.
func createPageFile(t *testing.T, width, height int, marks ...image.Rectangle) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for _, m := range marks {
		draw.Draw(img, m, image.Black, image.Point{}, draw.Src)
	}

	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode page: %v", err)
	}
	return path
}

// callTool sends a tools/call request and decodes the tool result into out.
// It fails the test on a JSON-RPC error.
func callTool(t *testing.T, s *Server, name string, args interface{}, out interface{}) {
	t.Helper()

	resp := callToolRaw(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s failed: %v (%v)", name, resp.Error.Message, resp.Error.Data)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("failed to decode %s result: %v", name, err)
	}
}

func callToolRaw(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}

	resp := s.handleRequest(context.Background(), req)
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

func decodePNG(t *testing.T, encoded string) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	return img
}

func rects(regions []regionJSON) []image.Rectangle {
	out := make([]image.Rectangle, len(regions))
	for i, r := range regions {
		out[i] = image.Rect(r.X1, r.Y1, r.X2, r.Y2)
	}
	return out
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		format    string
		grayscale bool
	}{
		{"png page", createPageFile(t, 100, 80, image.Rect(10, 10, 90, 12)), "png", false},
		{"tiff scan", createScanFile(t, 100, 80, image.Rect(10, 10, 90, 12)), "tiff", true},
	}

	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var info struct {
				Width     int    `json:"width"`
				Height    int    `json:"height"`
				Format    string `json:"format"`
				Grayscale bool   `json:"grayscale"`
			}
			callTool(t, s, "image_load", map[string]interface{}{"path": tt.path}, &info)

			if info.Width != 100 || info.Height != 80 {
				t.Errorf("dimensions: got %dx%d, want 100x80", info.Width, info.Height)
			}
			if info.Format != tt.format {
				t.Errorf("Format: got %s, want %s", info.Format, tt.format)
			}
			if info.Grayscale != tt.grayscale {
				t.Errorf("Grayscale: got %v, want %v", info.Grayscale, tt.grayscale)
			}
		})
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New()
	path := createScanFile(t, 200, 150)

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	callTool(t, s, "image_dimensions", map[string]interface{}{"path": path}, &dims)

	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := New()

	resp := callToolRaw(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"})

	if resp.Error == nil {
		t.Fatal("expected an error for a missing file")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := New()

	resp := callToolRaw(t, s, "nonexistent_tool", map[string]interface{}{})

	if resp.Error == nil {
		t.Fatal("expected an error for an unknown tool")
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "unknown tool") {
		t.Errorf("Error data: got %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{invalid`),
	}

	resp := s.handleToolsCall(context.Background(), req)

	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_Crop(t *testing.T) {
	s := New()
	// A signature line at y 30..32 inside the crop.
	path := createScanFile(t, 100, 100, image.Rect(0, 30, 100, 32))

	var crop struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ImageBase64 string `json:"image_base64"`
	}
	callTool(t, s, "image_crop", map[string]interface{}{
		"path": path, "x1": 10, "y1": 20, "x2": 60, "y2": 40, "scale": 2.0,
	}, &crop)

	if crop.Width != 100 || crop.Height != 40 {
		t.Errorf("dimensions: got %dx%d, want 100x40", crop.Width, crop.Height)
	}
	img := decodePNG(t, crop.ImageBase64)
	if got := img.Bounds(); got.Dx() != 100 || got.Dy() != 40 {
		t.Fatalf("decoded bounds: got %v", got)
	}
	if r, _, _, _ := img.At(50, 2).RGBA(); r>>8 < 200 {
		t.Errorf("paper above the line should stay light, got %d", r>>8)
	}
	if r, _, _, _ := img.At(50, 22).RGBA(); r>>8 > 60 {
		t.Errorf("scaled line should stay dark, got %d", r>>8)
	}
}

func TestHandleToolsCall_Binarize(t *testing.T) {
	s := New()
	path := createPageFile(t, 100, 80, image.Rect(10, 10, 30, 30))

	tests := []struct {
		name          string
		threshold     interface{}
		wantThreshold int
	}{
		{"fixed", 128, 128},
		{"otsu", 0, -1},
		{"config default", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{"path": path}
			if tt.threshold != nil {
				args["threshold"] = tt.threshold
			}

			var got binarizeResult
			callTool(t, s, "image_binarize", args, &got)

			if got.Width != 100 || got.Height != 80 {
				t.Errorf("dimensions: got %dx%d, want 100x80", got.Width, got.Height)
			}
			if got.ForegroundRatio != 0.05 {
				t.Errorf("ForegroundRatio: got %v, want 0.05", got.ForegroundRatio)
			}
			if tt.wantThreshold >= 0 && got.Threshold != tt.wantThreshold {
				t.Errorf("Threshold: got %d, want %d", got.Threshold, tt.wantThreshold)
			}

			if got.PaperColor == nil || got.PaperColor.Hex != "#f0f0f0" {
				t.Errorf("PaperColor: got %+v, want quantized white", got.PaperColor)
			}
			if got.InkColor == nil || got.InkColor.Hex != "#000000" || got.InkColor.Percentage != 100 {
				t.Errorf("InkColor: got %+v, want black", got.InkColor)
			}

			bw := decodePNG(t, got.ImageBase64)
			if r, _, _, _ := bw.At(20, 20).RGBA(); r != 0 {
				t.Errorf("ink pixel should be black")
			}
			if r, _, _, _ := bw.At(50, 50).RGBA(); r != 0xffff {
				t.Errorf("paper pixel should be white")
			}
		})
	}
}

func TestHandleToolsCall_BinarizeBlankPage(t *testing.T) {
	s := New()
	path := createPageFile(t, 10, 10)

	var got binarizeResult
	callTool(t, s, "image_binarize", map[string]interface{}{"path": path}, &got)

	if got.ForegroundRatio != 0 || got.InkColor != nil {
		t.Errorf("blank page: ratio %v, ink %+v", got.ForegroundRatio, got.InkColor)
	}
}

func TestHandleToolsCall_BinarizeRejectsThreshold(t *testing.T) {
	s := New()
	path := createPageFile(t, 10, 10)

	resp := callToolRaw(t, s, "image_binarize", map[string]interface{}{"path": path, "threshold": 256})
	if resp.Error == nil {
		t.Error("expected an error for threshold 256")
	}
}

func TestHandleToolsCall_DetectTextRegions_BlankPage(t *testing.T) {
	s := New()
	path := createPageFile(t, 300, 200)

	var got struct {
		Count int `json:"count"`
	}
	callTool(t, s, "image_detect_text_regions", map[string]interface{}{"path": path, "min_confidence": 0.3}, &got)

	if got.Count != 0 {
		t.Errorf("Count: got %d, want 0 on a blank page", got.Count)
	}
}

func TestHandleToolsCall_OCRWords(t *testing.T) {
	s := New()
	path := createPageFile(t, 200, 100)

	resp := callToolRaw(t, s, "image_ocr_words", map[string]interface{}{"path": path})
	if resp.Error != nil {
		t.Skipf("Tesseract not available: %v", resp.Error.Data)
	}
}

func TestWhitespaceFind_BlankPage(t *testing.T) {
	s := New()
	path := createPageFile(t, 100, 80)

	var got SearchResult
	callTool(t, s, "whitespace_find", map[string]interface{}{
		"path": path, "min_width": 10, "min_height": 10,
	}, &got)

	if got.Count != 1 {
		t.Fatalf("Count: got %d, want 1", got.Count)
	}
	if r := got.Regions[0]; r.X1 != 0 || r.Y1 != 0 || r.X2 != 100 || r.Y2 != 80 || r.Area != 8000 {
		t.Errorf("region: got %+v, want the whole page", r)
	}
	if !got.Exhausted {
		t.Error("search should be exhausted")
	}
	if got.Coverage != 1 {
		t.Errorf("Coverage: got %v, want 1", got.Coverage)
	}
}

func TestWhitespaceFind_ExplicitObstacle(t *testing.T) {
	s := New()
	path := createPageFile(t, 100, 80)

	var got SearchResult
	callTool(t, s, "whitespace_find", map[string]interface{}{
		"path":        path,
		"min_width":   1,
		"min_height":  1,
		"max_results": -1,
		"obstacles":   []map[string]int{{"x1": 40, "y1": 30, "x2": 60, "y2": 50}},
	}, &got)

	want := []image.Rectangle{
		image.Rect(0, 0, 40, 80),
		image.Rect(60, 0, 100, 80),
		image.Rect(40, 0, 60, 30),
		image.Rect(40, 50, 60, 80),
	}
	gotRects := rects(got.Regions)
	if len(gotRects) != len(want) {
		t.Fatalf("regions: got %v, want %v", gotRects, want)
	}
	for i := range want {
		if gotRects[i] != want[i] {
			t.Errorf("region %d: got %v, want %v", i, gotRects[i], want[i])
		}
	}
	if got.Obstacles != 1 {
		t.Errorf("Obstacles: got %d, want 1", got.Obstacles)
	}
	if got.Coverage != 0.95 {
		t.Errorf("Coverage: got %v, want 0.95", got.Coverage)
	}
}

func TestWhitespaceFind_InkBlock(t *testing.T) {
	s := New()
	block := image.Rect(40, 30, 60, 50)
	path := createPageFile(t, 100, 80, block)

	var got SearchResult
	callTool(t, s, "whitespace_find", map[string]interface{}{
		"path": path, "min_width": 1, "min_height": 1, "max_results": -1,
	}, &got)

	if !got.Exhausted {
		t.Error("search should be exhausted")
	}

	found := rects(got.Regions)
	area := 0
	for i, r := range found {
		if r.Overlaps(block) {
			t.Errorf("%v overlaps the ink", r)
		}
		for _, other := range found[:i] {
			if r.Overlaps(other) {
				t.Errorf("%v overlaps earlier result %v", r, other)
			}
		}
		if i > 0 && got.Regions[i].Area > got.Regions[i-1].Area {
			t.Errorf("region %d is larger than region %d", i, i-1)
		}
		area += r.Dx() * r.Dy()
	}
	if area != 8000-400 {
		t.Errorf("results cover %d pixels, want %d", area, 8000-400)
	}
}

func TestWhitespaceFind_MaxResults(t *testing.T) {
	s := New()
	path := createPageFile(t, 100, 80)

	var got SearchResult
	callTool(t, s, "whitespace_find", map[string]interface{}{
		"path":        path,
		"min_width":   1,
		"min_height":  1,
		"max_results": 2,
		"obstacles":   []map[string]int{{"x1": 40, "y1": 30, "x2": 60, "y2": 50}},
	}, &got)

	if got.Count != 2 {
		t.Errorf("Count: got %d, want 2", got.Count)
	}
	if got.Exhausted {
		t.Error("search stopped by max_results should not be exhausted")
	}
}

func TestWhitespaceFind_Padding(t *testing.T) {
	s := New()
	path := createPageFile(t, 100, 80)

	var got SearchResult
	callTool(t, s, "whitespace_find", map[string]interface{}{
		"path":        path,
		"min_width":   1,
		"min_height":  1,
		"max_results": -1,
		"padding":     5,
		"obstacles":   []map[string]int{{"x1": 40, "y1": 30, "x2": 60, "y2": 50}},
	}, &got)

	padded := image.Rect(35, 25, 65, 55)
	for _, r := range rects(got.Regions) {
		if r.Overlaps(padded) {
			t.Errorf("%v overlaps the padded obstacle", r)
		}
	}
	if want := float64(8000-30*30) / 8000; got.Coverage != want {
		t.Errorf("Coverage: got %v, want %v", got.Coverage, want)
	}
}

func TestWhitespaceFind_ConfigDefaults(t *testing.T) {
	s := New()
	s.cfg.Search.MinWidth = 50
	s.cfg.Search.MinHeight = 50
	path := createPageFile(t, 100, 80)

	var got SearchResult
	callTool(t, s, "whitespace_find", map[string]interface{}{
		"path":      path,
		"obstacles": []map[string]int{{"x1": 0, "y1": 0, "x2": 100, "y2": 40}},
	}, &got)

	// The 100x40 strip left over is too short for the 50x50 minimum.
	if got.Count != 0 || !got.Exhausted {
		t.Errorf("got %d regions (exhausted=%v), want none", got.Count, got.Exhausted)
	}
}

func TestWhitespaceFind_InvalidArguments(t *testing.T) {
	s := New()
	path := createPageFile(t, 20, 20)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"negative min width", map[string]interface{}{"path": path, "min_width": -1}},
		{"threshold too high", map[string]interface{}{"path": path, "threshold": 300}},
		{"negative padding", map[string]interface{}{"path": path, "padding": -2}},
		{"unknown order", map[string]interface{}{"path": path, "order": "spiral"}},
		{"unknown source", map[string]interface{}{"path": path, "obstacle_sources": []string{"magic"}}},
		{"missing file", map[string]interface{}{"path": "/nonexistent/page.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := callToolRaw(t, s, "whitespace_find", tt.args); resp.Error == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestWhitespaceFind_TextObstacles(t *testing.T) {
	s := New()
	path := createPageFile(t, 300, 200)

	var got SearchResult
	callTool(t, s, "whitespace_find", map[string]interface{}{
		"path":             path,
		"obstacle_sources": []string{"text"},
	}, &got)

	// Nothing on the page looks like text, so the whole page is free.
	if got.Obstacles != 0 || got.Count != 1 {
		t.Errorf("got %d obstacles and %d regions, want 0 and 1", got.Obstacles, got.Count)
	}
}

func TestWhitespaceHighlight(t *testing.T) {
	s := New()
	path := createPageFile(t, 100, 80)

	var got struct {
		Width       int           `json:"width"`
		Height      int           `json:"height"`
		Regions     int           `json:"regions"`
		ImageBase64 string        `json:"image_base64"`
		Search      *SearchResult `json:"search"`
	}
	callTool(t, s, "whitespace_highlight", map[string]interface{}{
		"path":       path,
		"min_width":  1,
		"min_height": 1,
		"color":      "#FF0000",
		"opacity":    1.0,
		"obstacles":  []map[string]int{{"x1": 40, "y1": 30, "x2": 60, "y2": 50}},
	}, &got)

	if got.Width != 100 || got.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", got.Width, got.Height)
	}
	if got.Search == nil || got.Search.Count != got.Regions || got.Regions != 4 {
		t.Fatalf("regions: got %d, search %+v", got.Regions, got.Search)
	}

	img := decodePNG(t, got.ImageBase64)
	// The obstacle is not whitespace and stays white.
	if r, g, b, _ := img.At(50, 40).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("obstacle pixel should stay white")
	}
	// Whitespace is painted red at full opacity.
	if r, g, b, _ := img.At(20, 60).RGBA(); r != 0xffff || g != 0 || b != 0 {
		t.Errorf("whitespace pixel should be red")
	}
}

func TestWhitespaceHighlight_BadColor(t *testing.T) {
	s := New()
	path := createPageFile(t, 20, 20)

	resp := callToolRaw(t, s, "whitespace_highlight", map[string]interface{}{"path": path, "color": "teal"})
	if resp.Error == nil {
		t.Error("expected an error for a non-hex colour")
	}
}

func TestWhitespacePlaceQR(t *testing.T) {
	s := New()
	path := createPageFile(t, 300, 200, image.Rect(0, 0, 150, 200))

	var got placeQRResult
	callTool(t, s, "whitespace_place_qr", map[string]interface{}{
		"path":    path,
		"content": "hello",
		"module":  2,
		"margin":  4,
	}, &got)

	region := image.Rect(got.Region.X1, got.Region.Y1, got.Region.X2, got.Region.Y2)
	bounds := image.Rect(got.Bounds.X1, got.Bounds.Y1, got.Bounds.X2, got.Bounds.Y2)
	if region != image.Rect(150, 0, 300, 200) {
		t.Errorf("Region: got %v, want the blank right half", region)
	}
	if !bounds.In(region.Inset(4)) {
		t.Errorf("code %v does not keep the margin inside %v", bounds, region)
	}
	if bounds.Dx() != got.Size || bounds.Dy() != got.Size {
		t.Errorf("bounds %v do not match size %d", bounds, got.Size)
	}

	img := decodePNG(t, got.ImageBase64)
	if r, _, _, _ := img.At(bounds.Min.X, bounds.Min.Y).RGBA(); r != 0 {
		t.Error("finder pattern corner should be dark")
	}
}

func TestWhitespacePlaceQR_NoSpace(t *testing.T) {
	s := New()
	path := createPageFile(t, 40, 40)

	resp := callToolRaw(t, s, "whitespace_place_qr", map[string]interface{}{
		"path":    path,
		"content": "this will not fit on a forty pixel page",
		"module":  4,
	})
	if resp.Error == nil {
		t.Fatal("expected an error")
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "no whitespace") {
		t.Errorf("Error data: got %v", resp.Error.Data)
	}
}

func TestWhitespacePlaceQR_MissingContent(t *testing.T) {
	s := New()
	path := createPageFile(t, 40, 40)

	if resp := callToolRaw(t, s, "whitespace_place_qr", map[string]interface{}{"path": path}); resp.Error == nil {
		t.Error("expected an error without content")
	}
}

func TestWhitespaceFindBatch(t *testing.T) {
	s := New()
	s.cfg.Batch.Workers = 2
	blank := createPageFile(t, 100, 80)
	inked := createPageFile(t, 60, 60, image.Rect(0, 0, 60, 30))

	var got batchResult
	callTool(t, s, "whitespace_find_batch", map[string]interface{}{
		"paths":      []string{blank, "/nonexistent/page.png", inked},
		"min_width":  10,
		"min_height": 10,
	}, &got)

	if got.Count != 3 || got.Failed != 1 {
		t.Fatalf("Count/Failed: got %d/%d, want 3/1", got.Count, got.Failed)
	}
	if got.Results[0].Path != blank || got.Results[0].Result == nil || got.Results[0].Result.Count != 1 {
		t.Errorf("blank page: got %+v", got.Results[0])
	}
	if got.Results[1].Error == "" || got.Results[1].Result != nil {
		t.Errorf("missing page should report an error: got %+v", got.Results[1])
	}
	r := got.Results[2].Result
	if r == nil || r.Count != 1 || r.Regions[0] != toRegionJSON(image.Rect(0, 30, 60, 60)) {
		t.Errorf("inked page: got %+v", r)
	}
}

func TestWhitespaceFindBatch_InvalidArguments(t *testing.T) {
	s := New()

	if resp := callToolRaw(t, s, "whitespace_find_batch", map[string]interface{}{}); resp.Error == nil {
		t.Error("expected an error without paths")
	}
	resp := callToolRaw(t, s, "whitespace_find_batch", map[string]interface{}{
		"paths":     []string{"/a.png"},
		"threshold": -1,
	})
	if resp.Error == nil {
		t.Error("expected an error for a negative threshold")
	}
}

func TestWhitespaceFindBatch_Cancelled(t *testing.T) {
	s := New()
	path := createPageFile(t, 20, 20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	args, _ := json.Marshal(map[string]interface{}{"paths": []string{path, path}})
	if _, err := s.executeTool(ctx, "whitespace_find_batch", args); err == nil {
		t.Error("expected an error from a cancelled batch")
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := New()

	_, err := s.executeTool(context.Background(), "unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("executeTool should fail for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := New()

	_, err := s.executeTool(context.Background(), "image_load", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("executeTool should fail for invalid JSON")
	}
}
