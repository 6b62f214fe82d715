package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kingrea/flowbench/internal/composite"
	"github.com/kingrea/flowbench/internal/engine"
	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/graph"
	"github.com/kingrea/flowbench/internal/processors"
)

type healthResponse struct {
	Status        string `json:"status"`
	Sessions      int    `json:"sessions"`
	Features      int    `json:"features"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type runRequest struct {
	Graph        graph.Graph `json:"graph"`
	Requirements []string    `json:"requirements,omitempty"`
}

type saveResponse struct {
	Status   string `json:"status"`
	ModuleID string `json:"module_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Sessions:      s.engine.Store().Len(),
		Features:      s.engine.Catalog().Len(),
		UptimeSeconds: s.uptimeSeconds(),
	})
}

func (s *Server) handleFeatures(w http.ResponseWriter, _ *http.Request) {
	list := s.engine.Catalog().List()
	if list == nil {
		list = []feature.Descriptor{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Sessions())
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		s.writeBodyError(w, err)
		return
	}
	var req runRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if len(req.Requirements) > 0 {
		s.logger.Printf("api: ignoring %d requirement(s) for workflow run", len(req.Requirements))
	}
	out, err := s.engine.Start(r.Context(), req.Graph)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.settings.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.settings.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.writeBodyError(w, err)
		return
	}
	sessionID := strings.TrimSpace(r.FormValue("session_id"))
	nodeID := strings.TrimSpace(r.FormValue("node_id"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if _, ok := s.engine.Store().Get(sessionID); !ok {
		writeError(w, http.StatusNotFound, "Session expired or not found")
		return
	}

	var data any
	file, header, err := r.FormFile("file_input")
	switch {
	case err == nil:
		defer file.Close()
		path, err := s.storage.SaveUpload(file, sessionID, filepath.Base(header.Filename))
		if err != nil {
			s.logger.Printf("api: save upload for %s: %v", sessionID, err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		data = path
	case errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart):
		if values, ok := r.Form["text_input"]; ok && len(values) > 0 {
			data = decodeTextInput(values[0])
		}
	default:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.engine.Resume(r.Context(), sessionID, nodeID, data)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	resp := map[string]string{"status": "cancelled"}
	s.engine.Cancel(id)
	if err := s.storage.Cleanup(id); err != nil {
		resp["note"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveModule(w http.ResponseWriter, r *http.Request) {
	if s.saver == nil {
		writeError(w, http.StatusNotImplemented, "module saving is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	if err := r.ParseMultipartForm(s.settings.MaxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.writeBodyError(w, err)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	g, err := graph.Parse([]byte(r.FormValue("graph_json")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var reqs []string
	if raw := strings.TrimSpace(r.FormValue("reqs_json")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
			writeError(w, http.StatusBadRequest, "reqs_json: "+err.Error())
			return
		}
	}
	id, err := s.saver.Save(composite.SaveRequest{Name: name, Graph: g, Requirements: reqs})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Status: "success", ModuleID: id})
}

// decodeTextInput turns a text field into a JSON value when it parses (or
// repairs) as one and keeps it as a plain string otherwise.
func decodeTextInput(text string) any {
	value, err := processors.DecodeValue(text)
	if err != nil {
		return text
	}
	return value
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, graph.ErrCycle), errors.Is(err, graph.ErrInvalidGraph), errors.Is(err, composite.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Printf("api: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeBodyError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload exceeds limit")
		return
	}
	writeError(w, http.StatusBadRequest, "unable to read body")
}
