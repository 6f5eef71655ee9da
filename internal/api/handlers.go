package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docsplit/internal/atomizer"
	"github.com/dgallion1/docsplit/internal/diagram"
	"github.com/dgallion1/docsplit/internal/parser"
	"github.com/dgallion1/docsplit/internal/splitter"
	"golang.org/x/sync/errgroup"
)

// splitInput is a decoded request: the document to operate on plus
// split parameters.
type splitInput struct {
	source  *parser.Source
	n       int
	metric  splitter.Metric
	diagram diagramOptions
}

type diagramOptions struct {
	Direction    string `json:"direction"`
	IncludeAtoms bool   `json:"include_atoms"`
	IncludeStats bool   `json:"include_stats"`
	NoPseudo     bool   `json:"no_pseudo"`
}

type jsonRequest struct {
	Text      string `json:"text"`
	Filename  string `json:"filename"`
	N         int    `json:"n"`
	Objective string `json:"objective"`
	diagramOptions
}

// decodeInput accepts either a JSON body with inline text or a
// multipart upload of any supported file format.
func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (*splitInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	in := &splitInput{n: s.cfg.DefaultSections}
	metric, err := splitter.ParseMetric(s.cfg.Objective)
	if err != nil {
		return nil, err
	}
	in.metric = metric
	in.diagram.Direction = s.cfg.DiagramDirection

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, fmt.Errorf("invalid multipart form: %w", err)
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("file is required: %w", err)
		}
		defer file.Close()

		filename := filepath.Base(header.Filename)
		if !parser.IsSupportedExtension(filename) {
			return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
		}
		loader, err := parser.ForFile(filename)
		if err != nil {
			return nil, err
		}
		src, err := loader.Load(io.LimitReader(file, s.cfg.MaxUploadBytes+1), filename)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", filename, err)
		}
		if int64(len(src.Text)) > s.cfg.MaxUploadBytes {
			return nil, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
		}
		in.source = src

		if v := r.FormValue("n"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				in.n = n
			}
		}
		if v := r.FormValue("objective"); v != "" {
			if m, err := splitter.ParseMetric(v); err == nil {
				in.metric = m
			}
		}
		in.diagram.IncludeAtoms = r.FormValue("include_atoms") == "true"
		in.diagram.IncludeStats = r.FormValue("include_stats") == "true"
		in.diagram.NoPseudo = r.FormValue("no_pseudo") == "true"
		if v := r.FormValue("direction"); v != "" {
			in.diagram.Direction = v
		}
		return in, nil
	}

	var req jsonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid json body: %w", err)
	}
	in.source = &parser.Source{Text: req.Text}
	if req.Filename != "" {
		in.source.Title = strings.TrimSuffix(req.Filename, filepath.Ext(req.Filename))
	}
	if req.N != 0 {
		in.n = req.N
	}
	if req.Objective != "" {
		m, err := splitter.ParseMetric(req.Objective)
		if err != nil {
			return nil, err
		}
		in.metric = m
	}
	if req.Direction != "" {
		in.diagram.Direction = req.Direction
	}
	in.diagram.IncludeAtoms = req.IncludeAtoms
	in.diagram.IncludeStats = req.IncludeStats
	in.diagram.NoPseudo = req.NoPseudo
	return in, nil
}

func (s *Server) atomizerConfig() atomizer.Config {
	return atomizer.Config{
		BoldMaxLen:   s.cfg.PseudoBoldMaxLen,
		CapsMaxLen:   s.cfg.PseudoCapsMaxLen,
		CapsMinRatio: s.cfg.PseudoCapsRatio,
	}
}

func splitStatus(err error) int {
	switch {
	case errors.Is(err, splitter.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, splitter.ErrInsufficientCandidates):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// handleAtoms returns the atom table and section tree for a document.
func (s *Server) handleAtoms(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeInput(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := atomizer.AtomizeWith(in.source.Text, s.atomizerConfig())
	writeJSON(w, map[string]any{
		"title":        in.source.Title,
		"mode":         res.Mode,
		"num_atoms":    len(res.Atoms),
		"num_sections": res.Sections.Len(),
		"warnings":     res.Warnings,
		"atoms":        res.Atoms,
		"sections":     res.Sections.Nodes(),
	})
}

// handleSplit computes a split plan without materializing sections.
func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeInput(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := atomizer.AtomizeWith(in.source.Text, s.atomizerConfig())
	plan, err := splitter.SplitWith(res.Atoms, in.n, splitter.Options{Metric: in.metric})
	if err != nil {
		jsonError(w, err.Error(), splitStatus(err))
		return
	}
	writeJSON(w, map[string]any{
		"title":    in.source.Title,
		"mode":     res.Mode,
		"warnings": res.Warnings,
		"plan":     plan,
	})
}

// handleSections computes a split and returns the literal section
// texts, whose concatenation equals the input exactly.
func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeInput(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := atomizer.AtomizeWith(in.source.Text, s.atomizerConfig())
	plan, err := splitter.SplitWith(res.Atoms, in.n, splitter.Options{Metric: in.metric})
	if err != nil {
		jsonError(w, err.Error(), splitStatus(err))
		return
	}
	sections, err := splitter.Materialize(in.source.Text, res.Atoms, plan.Cuts)
	if err != nil {
		jsonError(w, err.Error(), splitStatus(err))
		return
	}
	writeJSON(w, map[string]any{
		"n":        plan.N,
		"cuts":     plan.Cuts,
		"sections": sections,
	})
}

// handleDiagram returns a Mermaid flowchart of the section hierarchy,
// optionally with atoms colored by segment.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeInput(w, r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := atomizer.AtomizeWith(in.source.Text, s.atomizerConfig())

	var segments []splitter.Segment
	if in.diagram.IncludeAtoms && in.n > 1 {
		plan, err := splitter.SplitWith(res.Atoms, in.n, splitter.Options{Metric: in.metric})
		if err != nil {
			jsonError(w, err.Error(), splitStatus(err))
			return
		}
		segments = plan.Segments
	}

	opts := diagram.DefaultOptions()
	opts.Direction = in.diagram.Direction
	opts.IncludeAtoms = in.diagram.IncludeAtoms
	opts.IncludeStats = in.diagram.IncludeStats
	opts.IncludePseudoHeadings = !in.diagram.NoPseudo

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, diagram.Mermaid(res.Atoms, res.Sections, segments, opts))
}

type batchRequest struct {
	N         int    `json:"n"`
	Objective string `json:"objective"`
	Documents []struct {
		Name string `json:"name"`
		Text string `json:"text"`
	} `json:"documents"`
}

type batchResult struct {
	Name  string         `json:"name"`
	Plan  *splitter.Plan `json:"plan,omitempty"`
	Error string         `json:"error,omitempty"`
}

// handleSplitBatch splits several documents concurrently. The
// pipeline is a pure function per document, so documents fan out
// across goroutines with no coordination beyond the result slots.
func (s *Server) handleSplitBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		jsonError(w, "documents is required", http.StatusBadRequest)
		return
	}
	n := req.N
	if n == 0 {
		n = s.cfg.DefaultSections
	}
	metric, err := splitter.ParseMetric(req.Objective)
	if err != nil {
		metric, _ = splitter.ParseMetric(s.cfg.Objective)
	}

	results := make([]batchResult, len(req.Documents))
	var g errgroup.Group
	g.SetLimit(8)
	for i, d := range req.Documents {
		i, d := i, d
		g.Go(func() error {
			results[i].Name = d.Name
			res := atomizer.AtomizeWith(d.Text, s.atomizerConfig())
			plan, err := splitter.SplitWith(res.Atoms, n, splitter.Options{Metric: metric})
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Plan = plan
			return nil
		})
	}
	g.Wait()

	writeJSON(w, map[string]any{"n": n, "results": results})
}
