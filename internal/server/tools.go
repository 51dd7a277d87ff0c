package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

var rectItems = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"x1": map[string]interface{}{"type": "integer", "description": "Left edge (inclusive)"},
		"y1": map[string]interface{}{"type": "integer", "description": "Top edge (inclusive)"},
		"x2": map[string]interface{}{"type": "integer", "description": "Right edge (exclusive)"},
		"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge (exclusive)"},
	},
	"required": []string{"x1", "y1", "x2", "y2"},
}

// searchProperties returns the schema of the arguments every whitespace
// search accepts, merged with extra.
func searchProperties(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"min_width": map[string]interface{}{
			"type":        "integer",
			"description": "Minimum width of a whitespace region in pixels. Default from config (20)",
		},
		"min_height": map[string]interface{}{
			"type":        "integer",
			"description": "Minimum height of a whitespace region in pixels. Default from config (20)",
		},
		"max_results": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum number of regions to return. Negative means no limit. Default from config (10)",
		},
		"max_iterations": map[string]interface{}{
			"type":        "integer",
			"description": "Search budget for each region, in candidate regions examined. Default from config (100000)",
		},
		"threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Binarization level 1-255; darker pixels are ink. 0 selects Otsu's method",
			"minimum":     0,
			"maximum":     255,
		},
		"order": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"area", "reading"},
			"description": "Which whitespace comes first: largest area, or top-to-bottom left-to-right",
			"default":     "area",
		},
		"obstacles": map[string]interface{}{
			"type":        "array",
			"items":       rectItems,
			"description": "Rectangles that must not be reported as whitespace, e.g. areas already used",
		},
		"obstacle_sources": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "string",
				"enum": []string{"text", "ocr"},
			},
			"description": "Detectors whose boxes are added as obstacles: 'text' (edge heuristic) or 'ocr' (Tesseract words)",
		},
		"padding": map[string]interface{}{
			"type":        "integer",
			"description": "Pixels added around every obstacle. Default 0",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file (PNG, JPEG, GIF, TIFF, BMP) and return its dimensions and format. The image is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG. Use this to inspect a whitespace region.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "image_binarize",
			Description: "Convert an image to black ink on white background, the way whitespace searches see it. Returns the binarized PNG, the threshold used and the share of ink pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Binarization level 1-255. 0 selects Otsu's method. Default from config",
						"minimum":     0,
						"maximum":     255,
					},
				},
				"required": []string{"path"},
			},
		},

		// Obstacle Detection
		{
			Name:        "image_detect_text_regions",
			Description: "Find regions likely to contain text using edge density. Fast, needs no OCR engine. Returns bounding boxes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Minimum confidence 0-1. Default from config (0.5)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_ocr_words",
			Description: "Extract words with bounding boxes and confidence using Tesseract OCR.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default from config (eng)",
					},
				},
				"required": []string{"path"},
			},
		},

		// Whitespace Search
		{
			Name:        "whitespace_find",
			Description: "Find maximal empty rectangles (whitespace) in a page image, largest first. Returned regions never overlap each other or any ink or obstacle.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": searchProperties(map[string]interface{}{
					"path": pathProperty,
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "whitespace_highlight",
			Description: "Find whitespace and return the page with every region shaded, outlined and numbered in result order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": searchProperties(map[string]interface{}{
					"path": pathProperty,
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Highlight colour as hex, e.g. '#1E90FF'. Default from config",
					},
					"opacity": map[string]interface{}{
						"type":        "number",
						"description": "Fill opacity 0-1. Default from config (0.35)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "whitespace_place_qr",
			Description: "Stamp a QR code into the largest whitespace that can hold it plus a margin. Returns the stamped page and where the code went.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": searchProperties(map[string]interface{}{
					"path": pathProperty,
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Text or URL to encode",
					},
					"module": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels per QR module. Default from config (4)",
					},
					"margin": map[string]interface{}{
						"type":        "integer",
						"description": "Clear pixels kept around the code. Default from config (4)",
					},
				}),
				"required": []string{"path", "content"},
			},
		},
		{
			Name:        "whitespace_find_batch",
			Description: "Run whitespace_find over several pages concurrently. A page that fails reports its error without stopping the others.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": searchProperties(map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the image files",
					},
				}),
				"required": []string{"paths"},
			},
		},

		// Incremental Sessions
		{
			Name:        "whitespace_session_open",
			Description: "Start an incremental whitespace search over a page. Returns a session_id for the other whitespace_session tools.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": searchProperties(map[string]interface{}{
					"path": pathProperty,
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "whitespace_session_add_obstacle",
			Description: "Exclude more rectangles from an open search, e.g. space just claimed for content. Takes effect on the next call to whitespace_session_next.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": map[string]interface{}{
						"type":        "string",
						"description": "Session returned by whitespace_session_open",
					},
					"obstacles": map[string]interface{}{
						"type":        "array",
						"items":       rectItems,
						"description": "Rectangles to exclude",
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around every obstacle. Default 0",
					},
				},
				"required": []string{"session_id", "obstacles"},
			},
		},
		{
			Name:        "whitespace_session_next",
			Description: "Get the next whitespace regions from an open search. In 'auto' mode each region becomes an obstacle so results never overlap; in 'manual' mode later regions may overlap earlier ones unless you add them as obstacles.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": map[string]interface{}{
						"type":        "string",
						"description": "Session returned by whitespace_session_open",
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"auto", "manual"},
						"description": "Obstacle mode. Default auto",
						"default":     "auto",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of regions to return. Default 1",
						"default":     1,
					},
					"max_iterations": map[string]interface{}{
						"type":        "integer",
						"description": "Search budget for each region. Default from config (100000)",
					},
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "whitespace_session_close",
			Description: "Close an incremental search and free its memory.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": map[string]interface{}{
						"type":        "string",
						"description": "Session returned by whitespace_session_open",
					},
				},
				"required": []string{"session_id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
