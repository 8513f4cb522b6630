// Package server exposes the shape classifier as an MCP (Model Context
// Protocol) server.
//
// # Protocol
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line:
//   - initialize: protocol handshake
//   - tools/list: enumerate available tools
//   - tools/call: execute a tool with arguments
//   - ping: health check
//
// # Tools
//
//   - image_load: load an image into the cache and report its metadata
//   - shape_detect: classify the largest shape and return its geometry
//   - shape_contours: list every external contour with its own label
//   - shape_mask: return the binary mask as PNG
//   - shape_annotate: draw contour, polygon, centroid and label onto the image
//   - shape_crop: crop around the detected shape
//   - shape_history: list or fetch recorded classifications
//
// The shape tools accept the same mask overrides (mode, threshold,
// light_foreground, blur, max_dimension). Omitted values fall back to the
// server configuration. Coordinates in results refer to the working image;
// results carry the scale that maps them back to the source.
//
// An image with no shape is not an error: shape_detect answers with the
// Unknown label and the diagnostic message in properties.
//
// # Error Handling
//
// Tool failures (unreadable image, bad argument) are JSON-RPC errors with
// code -32000 and the Go error string in data. Malformed tools/call params
// get -32602, unknown methods -32601 and unparseable lines -32700.
//
// # Usage
//
//	srv, err := server.New(config.Default(), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
