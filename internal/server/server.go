// Package server exposes the search pipeline and the sourcing agent over
// HTTP. Handlers speak JSON; image-carrying requests use multipart forms.
package server

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/agent"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
)

// defaultMaxUploadBytes bounds multipart request memory.
const defaultMaxUploadBytes = 10 << 20

// Searcher runs a unified search across marketplaces.
type Searcher interface {
	Search(ctx context.Context, inputs []model.SearchInput, platforms []model.PlatformType, attachments map[string]model.ImageAttachment) (*model.AggregatedSearchResult, error)
}

// AgentRunner drives one conversational agent turn.
type AgentRunner interface {
	Run(ctx context.Context, message string, uploads []model.ImageAttachment) (*agent.RunResult, error)
}

// Server bundles the HTTP handlers. A nil agent disables /api/agent/search
// (deployments without an API key still serve plain searches).
type Server struct {
	searcher       Searcher
	agent          AgentRunner
	maxUploadBytes int64
}

// New builds a Server around the searcher and an optional agent.
func New(searcher Searcher, agentRunner AgentRunner) *Server {
	return &Server{
		searcher:       searcher,
		agent:          agentRunner,
		maxUploadBytes: defaultMaxUploadBytes,
	}
}

// Routes returns the route table.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/agent/search", s.handleAgentSearch)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// searchRequest is the /api/search payload. In the multipart variant the
// same JSON travels in the "payload" field and each image input's bytes in
// a file part named after the input's ID.
type searchRequest struct {
	Inputs    []model.SearchInput `json:"inputs"`
	Platforms []string            `json:"platforms"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	attachments := map[string]model.ImageAttachment{}

	if isMultipart(r) {
		if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("payload")), &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload field")
			return
		}
		for _, in := range req.Inputs {
			if in.Type != model.InputTypeImage {
				continue
			}
			att, err := formImage(r, in.ID)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			attachments[in.ID] = *att
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if len(req.Inputs) == 0 {
		writeError(w, http.StatusBadRequest, "inputs are required")
		return
	}

	platforms := make([]model.PlatformType, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		pt, err := model.ParsePlatform(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		platforms = append(platforms, pt)
	}

	zap.L().Info("search request",
		zap.Int("inputs", len(req.Inputs)),
		zap.Int("platforms", len(platforms)),
		zap.Int("attachments", len(attachments)),
	)

	result, err := s.searcher.Search(r.Context(), req.Inputs, platforms, attachments)
	if err != nil {
		// The orchestrator only errors on request validation; upstream
		// failures degrade to fewer results instead.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAgentSearch(w http.ResponseWriter, r *http.Request) {
	if s.agent == nil {
		writeError(w, http.StatusServiceUnavailable, "agent is not configured")
		return
	}

	var message string
	var uploads []model.ImageAttachment

	if isMultipart(r) {
		if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		message = r.FormValue("message")
		if r.MultipartForm != nil {
			for _, fh := range r.MultipartForm.File["images"] {
				att, err := readImagePart(fh)
				if err != nil {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				uploads = append(uploads, *att)
			}
		}
	} else {
		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		message = req.Message
	}

	if strings.TrimSpace(message) == "" && len(uploads) == 0 {
		writeError(w, http.StatusBadRequest, "message or images are required")
		return
	}

	zap.L().Info("agent request",
		zap.Int("message_len", len(message)),
		zap.Int("images", len(uploads)),
	)

	res, err := s.agent.Run(r.Context(), message, uploads)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reply":     res.Reply,
		"artifacts": res.Artifacts,
		"rounds":    res.Rounds,
	})
}

// formImage pulls the file part named after an image input's ID.
func formImage(r *http.Request, inputID string) (*model.ImageAttachment, error) {
	file, header, err := r.FormFile(inputID)
	if err != nil {
		return nil, eris.Errorf("missing image part for input %q", inputID)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, eris.Wrapf(err, "read image part for input %q", inputID)
	}
	return &model.ImageAttachment{
		InputID:  inputID,
		Filename: header.Filename,
		MIME:     partMIME(header),
		Data:     data,
	}, nil
}

func readImagePart(fh *multipart.FileHeader) (*model.ImageAttachment, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "open image part %q", fh.Filename)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, eris.Wrapf(err, "read image part %q", fh.Filename)
	}
	return &model.ImageAttachment{
		Filename: fh.Filename,
		MIME:     partMIME(fh),
		Data:     data,
	}, nil
}

func partMIME(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func isMultipart(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(ct, "multipart/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
