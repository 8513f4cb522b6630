// Package report renders analyses for the command line: a JSON line in the
// {"shape", "properties"} form consumed by the web API, or styled text for
// terminals.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
)

// Format selects the output rendering.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat parses "json" or "text" (case-insensitive). Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatJSON):
		return FormatJSON, nil
	case string(FormatText):
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json or text)", s)
}

// Result is the wire form of one classification. Exactly one of Error or
// Shape is set.
type Result struct {
	Shape      string `json:"shape,omitempty"`
	Properties string `json:"properties,omitempty"`
	Error      string `json:"error,omitempty"`
}

// FromAnalysis converts a. Properties holds the label description when a
// shape was classified, otherwise the diagnostic message.
func FromAnalysis(a *detection.Analysis) Result {
	if a.Outcome != detection.Classified {
		return Result{Shape: detection.Unknown.String(), Properties: sentence(a.Message)}
	}
	return Result{Shape: a.Result.Label.String(), Properties: a.Result.Description}
}

// FromError reports an image that could not be read or analysed.
func FromError(path string, err error) Result {
	return Result{Error: fmt.Sprintf("Could not read image at %s: %v", path, err)}
}

// sentence capitalises msg and ends it with a period.
func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	msg = strings.ToUpper(msg[:1]) + msg[1:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}

// WriteJSON writes r as a single JSON line.
func WriteJSON(w io.Writer, r Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Entry pairs a source path with its outcome for Write.
type Entry struct {
	Path     string
	Analysis *detection.Analysis
	Err      error
}

// Result converts the entry to its wire form.
func (e Entry) Result() Result {
	if e.Err != nil {
		return FromError(e.Path, e.Err)
	}
	return FromAnalysis(e.Analysis)
}

// Write renders entries in order.
func Write(w io.Writer, f Format, entries []Entry) error {
	for _, e := range entries {
		var err error
		switch f {
		case FormatText:
			_, err = io.WriteString(w, Text(e)+"\n")
		default:
			err = WriteJSON(w, e.Result())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
