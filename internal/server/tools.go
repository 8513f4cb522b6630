package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// maskProperties are the binarisation overrides shared by the shape tools.
// Omitted or zero values fall back to the server configuration.
func maskProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"mode": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"threshold", "canny"},
			"description": "Mask mode: threshold (dark filled shapes on light background) or canny (edge outlines). Default threshold",
		},
		"threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Gray level (1-255) at or below which a pixel is foreground in threshold mode (default 60)",
		},
		"light_foreground": map[string]interface{}{
			"type":        "boolean",
			"description": "Treat pixels brighter than threshold as foreground (light shapes on dark background)",
		},
		"blur": map[string]interface{}{
			"type":        "number",
			"description": "Gaussian blur radius applied before binarising (default 2; negative disables)",
		},
		"max_dimension": map[string]interface{}{
			"type":        "integer",
			"description": "Downscale so the longest side fits this many pixels (default 1024)",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for the shape tools.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Classification
		{
			Name: "shape_detect",
			Description: "Classify the largest shape in an image as Triangle, Square, Rectangle, Pentagon, Hexagon, Circle or Unknown. " +
				"Returns the label, its description, the simplified polygon, circularity, aspect ratio and geometry summary. " +
				"Coordinates refer to the working image; multiply by scale for source pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(maskProperties(), map[string]interface{}{
					"reference": map[string]interface{}{
						"type":        "boolean",
						"description": "Use the OpenCV reference engine (only in builds with the opencv tag)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "shape_contours",
			Description: "List every external contour in an image, largest first, each with its own classification.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(maskProperties(), map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of contours to return (default 20)",
						"default":     20,
					},
				}),
				"required": []string{"path"},
			},
		},

		// Visual output
		{
			Name:        "shape_mask",
			Description: "Return the binary mask used for contour tracing as base64-encoded PNG (foreground white).",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": maskProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "shape_annotate",
			Description: "Draw the detected contour (green), simplified polygon (blue), centroid (red) and label onto the image and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(maskProperties(), map[string]interface{}{
					"contour_color": map[string]interface{}{
						"type":        "string",
						"description": "Contour color as #RRGGBB (default #00FF00)",
					},
					"polygon_color": map[string]interface{}{
						"type":        "string",
						"description": "Polygon color as #RRGGBB (default #0000FF)",
					},
					"centroid_color": map[string]interface{}{
						"type":        "string",
						"description": "Centroid marker color as #RRGGBB (default #FF0000)",
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Line thickness in pixels (default 2)",
						"default":     2,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "shape_crop",
			Description: "Crop the image around the detected shape and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(maskProperties(), map[string]interface{}{
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around the shape's bounding box (default 10)",
						"default":     10,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				}),
				"required": []string{"path"},
			},
		},

		// History
		{
			Name:        "shape_history",
			Description: "List recent classifications recorded by this server, with per-label counts, or fetch one by id.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Return only the analysis with this id",
					},
					"label": map[string]interface{}{
						"type":        "string",
						"description": "Only list analyses with this label",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of analyses to list (default 20)",
						"default":     20,
					},
				},
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
