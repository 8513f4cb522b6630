package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
	"github.com/ironsheep/shape-finder-mcp/internal/history"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
	"github.com/ironsheep/shape-finder-mcp/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "shape_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errHistoryDisabled is returned by shape_history when no store is configured.
var errHistoryDisabled = errors.New("history is disabled (set SHAPEFINDER_DB)")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
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
//  2. Overlays the arguments on the server's default mask options
//  3. Loads images from cache as needed
//  4. Runs the pipeline and shapes the result
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	case "shape_detect":
		return s.handleShapeDetect(args)
	case "shape_contours":
		return s.handleShapeContours(args)

	case "shape_mask":
		return s.handleShapeMask(args)
	case "shape_annotate":
		return s.handleShapeAnnotate(args)
	case "shape_crop":
		return s.handleShapeCrop(args)

	case "shape_history":
		return s.handleShapeHistory(args)

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

// === Shared argument handling ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

// maskArgs are the per-call mask overrides. Zero values keep the server
// defaults; a negative blur disables blurring.
type maskArgs struct {
	Path            string  `json:"path"`
	Mode            string  `json:"mode"`
	Threshold       int     `json:"threshold"`
	LightForeground bool    `json:"light_foreground"`
	Blur            float64 `json:"blur"`
	MaxDimension    int     `json:"max_dimension"`
}

func (a maskArgs) options(defaults imaging.MaskOptions) (imaging.MaskOptions, error) {
	opts := defaults
	if a.Path == "" {
		return opts, errors.New("path is required")
	}
	if a.Mode != "" {
		mode, err := imaging.ParseMode(a.Mode)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	if a.Threshold != 0 {
		if a.Threshold < 0 || a.Threshold > 255 {
			return opts, fmt.Errorf("threshold %d out of range 1-255", a.Threshold)
		}
		opts.Threshold = uint8(a.Threshold)
	}
	if a.LightForeground {
		opts.LightForeground = true
	}
	switch {
	case a.Blur < 0:
		opts.BlurRadius = 0
	case a.Blur > 0:
		opts.BlurRadius = a.Blur
	}
	if a.MaxDimension > 0 {
		opts.MaxDimension = a.MaxDimension
	}
	return opts, nil
}

func (s *Server) analyze(a maskArgs, reference bool) (*pipeline.Run, error) {
	opts, err := a.options(s.pipeline.MaskOptions())
	if err != nil {
		return nil, err
	}
	p := s.pipeline
	if reference {
		p = p.WithReference()
	}
	return p.AnalyzeFile(a.Path, opts)
}

// === Basic Image Information Handlers ===

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Classification Handlers ===

type shapeDetectArgs struct {
	maskArgs
	Reference bool `json:"reference"`
}

// detectResult extends the {"shape", "properties"} form with the geometry
// behind the decision.
type detectResult struct {
	ID          string               `json:"id,omitempty"`
	Shape       string               `json:"shape"`
	Properties  string               `json:"properties"`
	Outcome     detection.Outcome    `json:"outcome"`
	Message     string               `json:"message"`
	Mode        imaging.Mode         `json:"mode"`
	Candidates  int                  `json:"candidates"`
	Vertices    int                  `json:"vertices,omitempty"`
	Circularity float64              `json:"circularity,omitempty"`
	AspectRatio float64              `json:"aspect_ratio,omitempty"`
	Summary     *geometry.Summary    `json:"summary,omitempty"`
	Polygon     geometry.Polygon     `json:"polygon,omitempty"`
	FillColor   *imaging.ColorResult `json:"fill_color,omitempty"`
	LargestArea float64              `json:"largest_area,omitempty"`
	Scale       float64              `json:"scale"`
}

func (s *Server) handleShapeDetect(args json.RawMessage) (interface{}, error) {
	var a shapeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	run, err := s.analyze(a.maskArgs, a.Reference)
	if err != nil {
		return nil, err
	}

	an := run.Analysis
	res := detectResult{
		Shape:       an.Label().String(),
		Properties:  an.Result.Description,
		Outcome:     an.Outcome,
		Message:     an.Message,
		Mode:        run.Mode,
		Candidates:  an.Candidates,
		Vertices:    an.VertexCount,
		Circularity: an.Circularity,
		AspectRatio: an.AspectRatio,
		Summary:     an.Summary,
		Polygon:     an.Polygon,
		FillColor:   run.Fill,
		LargestArea: an.LargestArea,
		Scale:       run.Prepared.Scale,
	}
	if an.Outcome != detection.Classified {
		res.Properties = an.Message
	}

	if s.history != nil {
		rec, err := s.history.Record(a.Path, string(run.Mode), an)
		if err != nil {
			// the classification itself succeeded
			log.Printf("Failed to record analysis: %v", err)
		} else {
			res.ID = rec.ID
		}
	}
	return res, nil
}

type shapeContoursArgs struct {
	maskArgs
	Limit int `json:"limit"`
}

func (s *Server) handleShapeContours(args json.RawMessage) (interface{}, error) {
	var a shapeContoursArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = 20
	}
	opts, err := a.options(s.pipeline.MaskOptions())
	if err != nil {
		return nil, err
	}
	list, prep, err := s.pipeline.Contours(a.Path, opts)
	if err != nil {
		return nil, err
	}

	total := len(list)
	if len(list) > a.Limit {
		list = list[:a.Limit]
	}
	if list == nil {
		list = []detection.Inspection{}
	}
	return map[string]interface{}{
		"total":    total,
		"contours": list,
		"scale":    prep.Scale,
	}, nil
}

// === Visual Output Handlers ===

type maskResult struct {
	*imaging.EncodedImage
	Mode             imaging.Mode `json:"mode"`
	ForegroundPixels int          `json:"foreground_pixels"`
	Scale            float64      `json:"scale"`
}

func (s *Server) handleShapeMask(args json.RawMessage) (interface{}, error) {
	var a maskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts, err := a.options(s.pipeline.MaskOptions())
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	prep, err := imaging.Prepare(img, opts)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodeMask(prep.Mask)
	if err != nil {
		return nil, err
	}
	return maskResult{
		EncodedImage:     enc,
		Mode:             opts.Mode,
		ForegroundPixels: prep.Mask.Count(),
		Scale:            prep.Scale,
	}, nil
}

type shapeAnnotateArgs struct {
	maskArgs
	ContourColor  string `json:"contour_color"`
	PolygonColor  string `json:"polygon_color"`
	CentroidColor string `json:"centroid_color"`
	Thickness     int    `json:"thickness"`
}

type annotateResult struct {
	*imaging.EncodedImage
	Shape string `json:"shape"`
}

func (s *Server) handleShapeAnnotate(args json.RawMessage) (interface{}, error) {
	var a shapeAnnotateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	run, err := s.analyze(a.maskArgs, false)
	if err != nil {
		return nil, err
	}
	ov, err := run.Overlay()
	if err != nil {
		return nil, err
	}
	out, err := imaging.Annotate(run.Prepared.Working, ov, imaging.AnnotateOptions{
		ContourColor:  a.ContourColor,
		PolygonColor:  a.PolygonColor,
		CentroidColor: a.CentroidColor,
		Thickness:     a.Thickness,
	})
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodePNG(out)
	if err != nil {
		return nil, err
	}
	return annotateResult{EncodedImage: enc, Shape: ov.Label}, nil
}

type shapeCropArgs struct {
	maskArgs
	Padding *int    `json:"padding"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleShapeCrop(args json.RawMessage) (interface{}, error) {
	var a shapeCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	padding := 10
	if a.Padding != nil {
		padding = *a.Padding
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	run, err := s.analyze(a.maskArgs, false)
	if err != nil {
		return nil, err
	}
	box, err := run.RegionBox()
	if err != nil {
		return nil, err
	}
	enc, err := imaging.CropAround(run.Prepared.Working, box, padding, a.Scale)
	if err != nil {
		return nil, err
	}
	return annotateResult{EncodedImage: enc, Shape: run.Analysis.Label().String()}, nil
}

// === History Handlers ===

type shapeHistoryArgs struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Limit int    `json:"limit"`
}

func (s *Server) handleShapeHistory(args json.RawMessage) (interface{}, error) {
	var a shapeHistoryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, errHistoryDisabled
	}
	if a.ID != "" {
		return s.history.Get(a.ID)
	}
	if a.Label != "" {
		label, err := detection.ParseShapeLabel(a.Label)
		if err != nil {
			return nil, err
		}
		a.Label = label.String()
	}

	recent, err := s.history.Recent(a.Limit, a.Label)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []history.Record{}
	}
	counts, err := s.history.CountByLabel()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"recent": recent,
		"counts": counts,
	}, nil
}
