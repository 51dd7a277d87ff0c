// Package server implements the MCP (Model Context Protocol) server for
// whitespace search over page images.
//
// This package provides a JSON-RPC 2.0 server that exposes the whitespace
// engine and its supporting image tools through the MCP protocol, so that
// MCP clients can find empty space on a page before placing content in it.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_crop: Extract rectangular region
//   - image_binarize: Show the page as the search sees it
//
// Obstacle Detection:
//   - image_detect_text_regions: Heuristic text bounding boxes
//   - image_ocr_words: Tesseract word boxes
//
// Whitespace Search:
//   - whitespace_find: Maximal empty rectangles, largest first
//   - whitespace_highlight: Search and shade the results on the page
//   - whitespace_place_qr: Search and stamp a QR code into the space
//   - whitespace_find_batch: Search many pages concurrently
//
// Incremental Sessions:
//   - whitespace_session_open: Start a search kept between calls
//   - whitespace_session_add_obstacle: Exclude more space
//   - whitespace_session_next: Pull the next regions
//   - whitespace_session_close: Drop the search
//
// Tool defaults come from the server configuration (see package config);
// every default can be overridden per call.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O.
// The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.NewWithConfig(cfg)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
