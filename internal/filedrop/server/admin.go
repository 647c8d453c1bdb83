// Package server exposes the two HTTP surfaces: a read-only public file
// server and an authenticated admin API for uploads and file management.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"filedrop/internal/filedrop/core/upload"
	"filedrop/internal/filedrop/domain"
	"filedrop/internal/filedrop/files"
	"filedrop/pkg/config"
	"filedrop/pkg/logger"
)

// AdminAPI wires the upload coordinator and file service into HTTP
// handlers.
type AdminAPI struct {
	files       *files.Service
	coordinator *upload.Coordinator
	logHub      *LogHub
	cfg         config.AdminConfig
	logger      *logger.Logger
}

func NewAdminAPI(filesSvc *files.Service, coordinator *upload.Coordinator, logHub *LogHub, cfg config.AdminConfig) *AdminAPI {
	return &AdminAPI{
		files:       filesSvc,
		coordinator: coordinator,
		logHub:      logHub,
		cfg:         cfg,
		logger:      logger.WithField("component", "admin-api"),
	}
}

// Handler builds the admin route table with the full middleware stack.
func (a *AdminAPI) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /admin/upload", a.handleUpload)
	mux.HandleFunc("POST /admin/upload/chunk/init", a.handleChunkInit)
	mux.HandleFunc("POST /admin/upload/chunk/{id}/{num}", a.handleChunkUpload)
	mux.HandleFunc("POST /admin/upload/chunk/complete", a.handleChunkComplete)
	mux.HandleFunc("GET /admin/files", a.handleListFiles)
	mux.HandleFunc("DELETE /admin/files/{filename}", a.handleDeleteFile)
	mux.HandleFunc("POST /admin/batch-delete", a.handleBatchDelete)
	mux.HandleFunc("GET /admin/stats", a.handleStats)
	mux.HandleFunc("GET /admin/health", a.handleHealth)
	mux.Handle("GET /admin/logs/stream", a.logHub)

	return chain(mux,
		LoggingMiddleware(a.logger),
		CORSMiddleware(a.cfg.CORSOrigins),
		RateLimitMiddleware(a.cfg.RateLimitPerMinute, a.logger),
		MaxClientsMiddleware(a.cfg.MaxClients),
		APIKeyMiddleware(config.HashAPIKey(a.cfg.APIKey), a.logger),
	)
}

// handleUpload accepts one file as multipart form data and publishes it
// under its sanitized name.
func (a *AdminAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadSize)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	for {
		part, err := reader.NextPart()
		if err != nil {
			writeError(w, http.StatusBadRequest, "no file provided")
			return
		}
		if part.FileName() == "" {
			continue
		}

		name, size, err := a.files.Save(part.FileName(), part)
		if err != nil {
			a.writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, uploadResponse{
			Success:  true,
			Filename: name,
			Size:     size,
		})
		return
	}
}

func (a *AdminAPI) handleChunkInit(w http.ResponseWriter, r *http.Request) {
	var req chunkedUploadInitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := a.coordinator.Init(req.Filename, req.TotalSize, req.ChunkSize)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chunkedUploadInitResponse{
		UploadID:    result.UploadID,
		ChunkSize:   result.ChunkSize,
		TotalChunks: result.TotalChunks,
	})
}

// handleChunkUpload ingests one chunk; the request body is the raw chunk
// bytes.
func (a *AdminAPI) handleChunkUpload(w http.ResponseWriter, r *http.Request) {
	uploadID := r.PathValue("id")
	num, err := strconv.ParseUint(r.PathValue("num"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "chunk number must be a non-negative integer")
		return
	}

	body := http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadSize)
	progress, err := a.coordinator.Ingest(uploadID, num, body)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chunkUploadResponse{
		Success:        true,
		ChunkNumber:    progress.ChunkNumber,
		ReceivedChunks: progress.ReceivedChunks,
		TotalChunks:    progress.TotalChunks,
	})
}

func (a *AdminAPI) handleChunkComplete(w http.ResponseWriter, r *http.Request) {
	var req chunkedUploadCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UploadID == "" {
		writeError(w, http.StatusBadRequest, "upload_id is required")
		return
	}

	result, err := a.coordinator.Complete(req.UploadID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chunkedUploadCompleteResponse{
		Success:  true,
		Filename: result.Filename,
		Size:     result.Size,
	})
}

func (a *AdminAPI) handleListFiles(w http.ResponseWriter, r *http.Request) {
	infos, err := a.files.List()
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fileListResponse{Files: infos, Total: len(infos)})
}

func (a *AdminAPI) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	name, err := a.files.Delete(r.PathValue("filename"))
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, Filename: name})
}

func (a *AdminAPI) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	results := a.files.BatchDelete(req.Filenames)
	resp := batchDeleteResponse{Total: len(results), Results: results}
	for _, res := range results {
		if res.Success {
			resp.Successful++
		} else {
			resp.Failed++
		}
	}

	a.logger.Info("batch delete completed", "successful", resp.Successful, "total", resp.Total)
	writeJSON(w, http.StatusOK, resp)
}

func (a *AdminAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.files.Stats()
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *AdminAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Service:   "filedrop-admin",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeDomainError maps an error's kind to an HTTP status. Client-caused
// failures log at warn, everything else at error with the cause.
func (a *AdminAPI) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindInvalidRequest, domain.KindIncomplete:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "error", err)
	} else {
		a.logger.Warn("request rejected", "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
