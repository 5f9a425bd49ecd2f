package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ivgo/docinsight/internal/core/domain"
	"github.com/ivgo/docinsight/internal/core/ports"
)

// Router exposes the batch lifecycle over HTTP. All operations are thin calls
// into the batch service; the transport carries no orchestration logic.
type Router struct {
	service ports.BatchService
	metrics http.Handler
}

func NewRouter(service ports.BatchService, metricsHandler http.Handler) *Router {
	return &Router{
		service: service,
		metrics: metricsHandler,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/batches", rt.createBatch)
	mux.HandleFunc("GET /v1/batches/{id}", rt.getBatch)
	mux.HandleFunc("POST /v1/batches/{id}/run", rt.runBatch)
	mux.HandleFunc("POST /v1/batches/{id}/run-stage", rt.runStage)
	mux.HandleFunc("POST /v1/batches/{id}/retry", rt.retryStage)
	mux.HandleFunc("POST /v1/batches/{id}/cancel", rt.cancelBatch)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics)
	}
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "multipart form is required")
		return
	}

	var uploads []domain.FileUpload
	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable multipart file "+header.Filename)
			return
		}
		defer file.Close()
		uploads = append(uploads, domain.FileUpload{
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Size:     header.Size,
			Body:     file,
		})
	}
	if len(uploads) == 0 {
		writeError(w, http.StatusBadRequest, "multipart field 'files' is required")
		return
	}

	snapshot, err := rt.service.CreateBatch(r.Context(), uploads)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

func (rt *Router) getBatch(w http.ResponseWriter, r *http.Request) {
	snapshot, err := rt.service.Snapshot(r.PathValue("id"))
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (rt *Router) runBatch(w http.ResponseWriter, r *http.Request) {
	if err := rt.service.StartRun(r.PathValue("id")); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "running"})
}

func (rt *Router) runStage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stage string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	stage, err := domain.ParseStageID(strings.TrimSpace(req.Stage))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := rt.service.StartStageRun(r.PathValue("id"), stage); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "running", "stage": string(stage)})
}

func (rt *Router) retryStage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileID string `json:"file_id"`
		Stage  string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	stage, err := domain.ParseStageID(strings.TrimSpace(req.Stage))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FileID) == "" {
		writeError(w, http.StatusBadRequest, "file_id is required")
		return
	}

	if err := rt.service.Retry(r.PathValue("id"), req.FileID, stage); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "stage": string(stage)})
}

func (rt *Router) cancelBatch(w http.ResponseWriter, r *http.Request) {
	if err := rt.service.Cancel(r.PathValue("id")); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
