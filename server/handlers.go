package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/geoknoesis/shacl-go/format"
	"github.com/geoknoesis/shacl-go/namespace"
	"github.com/geoknoesis/shacl-go/rdf"
	"github.com/geoknoesis/shacl-go/report"
	"github.com/geoknoesis/shacl-go/transform"
)

// ConvertRequest is the body of POST /v1/convert.
type ConvertRequest struct {
	Input        string `json:"input"`
	Format       string `json:"format"`
	Namespace    string `json:"namespace,omitempty"`
	UseAI        bool   `json:"use_ai,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
}

// ApplyRequest is the body of POST /v1/apply.
type ApplyRequest struct {
	Input        string `json:"input"`
	Format       string `json:"format"`
	Shapes       string `json:"shapes,omitempty"`
	ShapesFormat string `json:"shapes_format,omitempty"`
	UseAI        bool   `json:"use_ai,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
}

// ValidateRequest is the body of POST /v1/validate.
type ValidateRequest struct {
	Data         string `json:"data"`
	DataFormat   string `json:"data_format,omitempty"`
	Shapes       string `json:"shapes"`
	ShapesFormat string `json:"shapes_format,omitempty"`
	Inference    string `json:"inference,omitempty"`
}

// GraphResponse carries a serialized graph.
type GraphResponse struct {
	RequestID string `json:"request_id"`
	Format    string `json:"format"`
	Triples   int    `json:"triples"`
	Output    string `json:"output"`
}

// ValidateResponse wraps a validation report.
type ValidateResponse struct {
	RequestID string         `json:"request_id"`
	Report    *report.Report `json:"report"`
}

var errBadRequest = errors.New("bad request body")

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: %w: %w", transform.ErrMissingRequiredInput, errBadRequest, err)
	}
	return nil
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", transform.ErrMissingRequiredInput, name)
	}
	return nil
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := required("input", req.Input); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := s.engine.Decode(r.Context(), []byte(req.Input), format.Resolve(req.Format))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.engine.ConvertSchema(r.Context(), in, transform.ConvertOptions{
		UseAI:     req.UseAI,
		Namespace: namespace.Namespace(req.Namespace),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeGraph(w, r, g, req.OutputFormat)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := required("input", req.Input); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := s.engine.Decode(r.Context(), []byte(req.Input), format.Resolve(req.Format))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var target *rdf.Graph
	if req.Shapes != "" {
		if target, err = s.shapes(r.Context(), req.Shapes, req.ShapesFormat); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	g, err := s.engine.ApplySchema(r.Context(), in, target, req.UseAI)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeGraph(w, r, g, req.OutputFormat)
}

// handleValidate answers with JSON, or with the markdown report when the
// query has format=markdown.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	for name, value := range map[string]string{"data": req.Data, "shapes": req.Shapes} {
		if err := required(name, value); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	var mode report.InferenceMode
	if req.Inference != "" {
		m, err := report.ParseInferenceMode(req.Inference)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %w", transform.ErrMissingRequiredInput, err))
			return
		}
		mode = m
	}
	dataFormat := format.Turtle
	if req.DataFormat != "" {
		dataFormat = format.Resolve(req.DataFormat)
	}
	data, err := s.engine.Decode(r.Context(), []byte(req.Data), dataFormat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if data.Kind != transform.InputGraph {
		s.writeError(w, r, fmt.Errorf("%w: data must be RDF, got %s", format.ErrUnsupportedFormat, dataFormat))
		return
	}
	shapesGraph, err := s.shapes(r.Context(), req.Shapes, req.ShapesFormat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rep, err := s.engine.ValidateData(r.Context(), data.Graph, shapesGraph, mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(report.FormatMarkdown(*rep)))
		return
	}
	s.writeJSON(w, http.StatusOK, ValidateResponse{RequestID: RequestID(r.Context()), Report: rep})
}

func (s *Server) writeGraph(w http.ResponseWriter, r *http.Request, g *rdf.Graph, hint string) {
	out := format.Turtle
	if hint != "" {
		out = format.Resolve(hint)
	}
	text, err := s.engine.SaveString(r.Context(), g, out)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, GraphResponse{
		RequestID: RequestID(r.Context()),
		Format:    string(out),
		Triples:   g.Len(),
		Output:    text,
	})
}
