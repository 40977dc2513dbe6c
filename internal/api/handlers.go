package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/user/ratatosk/internal/service"
	"github.com/user/ratatosk/pkg/descriptor"
	"github.com/user/ratatosk/pkg/loader"
	"github.com/user/ratatosk/pkg/nlu"
)

// resolveRequest is the wire form of a resolution call. Document carries the
// YAML text verbatim; Text carries the natural-language request.
type resolveRequest struct {
	Text      string `json:"text,omitempty"`
	Document  string `json:"document,omitempty"`
	ClusterID string `json:"cluster_id,omitempty"`
}

type resolveResponse struct {
	RequestID  string                    `json:"request_id"`
	State      service.State             `json:"state"`
	Descriptor *descriptor.JobDescriptor `json:"descriptor,omitempty"`
	Missing    map[string]string         `json:"missing,omitempty"`
	Warnings   []nlu.Ambiguity           `json:"warnings,omitempty"`
	Script     string                    `json:"script,omitempty"`
	ScriptPath string                    `json:"script_path,omitempty"`
	RunID      string                    `json:"run_id,omitempty"`
}

func (s *Server) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (service.Request, string, bool) {
	var body resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return service.Request{}, "", false
	}
	if body.Text == "" && body.Document == "" {
		s.jsonError(w, "Either text or document must be provided", http.StatusBadRequest)
		return service.Request{}, "", false
	}
	req := service.Request{NaturalLanguage: body.Text}
	if body.Document != "" {
		req.Document = []byte(body.Document)
	}
	return req, body.ClusterID, true
}

// writeError maps pipeline errors onto status codes. Malformed or reserved
// input is the caller's fault; everything else is ours.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var parseErr *loader.ParseError
	var validationErr *descriptor.ValidationError
	switch {
	case errors.As(err, &parseErr),
		errors.As(err, &validationErr),
		errors.Is(err, descriptor.ErrReservedKind):
		s.jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("request failed", "error", err)
		s.jsonError(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func toResponse(out *service.Outcome) resolveResponse {
	return resolveResponse{
		RequestID:  out.RequestID,
		State:      out.State,
		Descriptor: out.Descriptor,
		Missing:    out.Missing,
		Warnings:   out.Warnings,
		Script:     out.Script,
		ScriptPath: out.ScriptPath,
		RunID:      out.RunID,
	}
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	req, _, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	out, err := s.service.Resolve(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, toResponse(out))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	req, _, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	out, err := s.service.Plan(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, toResponse(out))
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	req, clusterID, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	out, err := s.service.Submit(r.Context(), req, clusterID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, toResponse(out))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}
