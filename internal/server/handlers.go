package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/omny/internal/coach"
	"github.com/hyperjump/omny/internal/models"
	"github.com/hyperjump/omny/internal/nutrition"
	"github.com/hyperjump/omny/internal/render"
	"github.com/hyperjump/omny/internal/storage"
)

const (
	// ModelUnavailableMessage is shown whenever the model call fails.
	ModelUnavailableMessage = "the coach is unavailable right now, please try again"
	maxJSONBody             = 1 << 20
	maxUpload               = 20 << 20
)

type messageRequest struct {
	Message string `json:"message"`
}

type exportRequest struct {
	Text string `json:"text"`
}

type metricsResponse struct {
	Profile models.Profile   `json:"profile"`
	Metrics nutrition.Report `json:"metrics"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.coach.Profile())
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if !s.decode(w, r, &p) {
		return
	}
	saved, err := s.coach.SaveProfile(p)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, metricsResponse{Profile: s.coach.Profile(), Metrics: s.coach.Metrics()})
}

func (s *Server) handleCoachMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !s.decode(w, r, &req) {
		return
	}
	reply, err := s.coach.Coach(r.Context(), req.Message)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !s.decode(w, r, &req) {
		return
	}
	reply, err := s.coach.Ask(r.Context(), req.Message)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"reply": reply.Text})
}

func (s *Server) handleGetTranscripts(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.coach.Transcripts())
}

func (s *Server) handleDeleteTranscripts(w http.ResponseWriter, r *http.Request) {
	if err := s.coach.Reset(); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.coach.Transcripts())
}

func (s *Server) handleVision(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	var att *coach.Attachment
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "could not read file")
			return
		}
		mime := header.Header.Get("Content-Type")
		if mime == "" || mime == "application/octet-stream" {
			mime = http.DetectContentType(data)
		}
		att = &coach.Attachment{Name: header.Filename, MimeType: mime, Data: data}
	case !errors.Is(err, http.ErrMissingFile):
		s.respondError(w, http.StatusBadRequest, "invalid file upload")
		return
	}
	reply, err := s.coach.Analyze(r.Context(), att, r.FormValue("text"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"reply": reply.Text})
}

// handleExportPlan renders the given text, or the latest coach plan when
// the body has none.
func (s *Server) handleExportPlan(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	text := req.Text
	if strings.TrimSpace(text) == "" {
		plan, ok := s.coach.LatestPlan()
		if !ok {
			s.respondError(w, http.StatusNotFound, "no plan to export")
			return
		}
		text = plan
	}
	pdf, err := s.coach.ExportPlan(text)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.PlanFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *Server) handleKnowledgeSearch(w http.ResponseWriter, r *http.Request) {
	if s.knowledge == nil || s.knowledge.Searcher == nil {
		s.respondError(w, http.StatusServiceUnavailable, "knowledge base not loaded")
		return
	}
	var q models.SearchQuery
	if !s.decode(w, r, &q) {
		return
	}
	if err := q.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.knowledge.Searcher.Query(r.Context(), &q)
	if err != nil {
		s.logger.Warn("knowledge search failed", zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, "knowledge search failed")
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"knowledge_loaded": s.knowledge != nil,
	}
	if s.knowledge == nil {
		s.respondJSON(w, http.StatusOK, resp)
		return
	}
	ctx := r.Context()
	if s.knowledge.Storage != nil {
		docCount, err := s.knowledge.Storage.CountDocuments(ctx)
		if err != nil {
			s.logger.Error("status: count documents failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "status unavailable")
			return
		}
		chunkCount, err := s.knowledge.Storage.CountChunks(ctx)
		if err != nil {
			s.logger.Error("status: count chunks failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "status unavailable")
			return
		}
		resp["documents"] = docCount
		resp["chunks"] = chunkCount
	}
	if s.knowledge.Vectors != nil {
		resp["vector_index_size"] = s.knowledge.Vectors.Size()
		resp["embedding_dimensions"] = s.knowledge.Vectors.Dimensions()
	}
	if bytes, err := storage.DiskUsage(s.knowledge.Paths...); err == nil {
		resp["disk_usage_bytes"] = bytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// decode reads a JSON body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// respondServiceError maps coach errors to status codes. Model failures are
// logged in full and reported with a generic message.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())
	switch {
	case errors.Is(err, coach.ErrEmptyRequest):
		s.respondError(w, http.StatusBadRequest, "message or file is required")
	case errors.Is(err, coach.ErrInvalidProfile):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coach.ErrModelUnavailable):
		s.logger.Error("model request failed", zap.String("request_id", reqID), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, ModelUnavailableMessage)
	default:
		s.logger.Error("request failed", zap.String("request_id", reqID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
