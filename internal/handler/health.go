package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rentwise/api/internal/model"
)

// healthTimeout bounds the database ping
const healthTimeout = 2 * time.Second

// Pinger checks storage reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuditStatus reports on the background audit writer
type AuditStatus interface {
	IsRunning() bool
	Dropped() int64
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string       `json:"status"`
	Database string       `json:"database"`
	Version  string       `json:"version,omitempty"`
	Audit    *AuditHealth `json:"audit,omitempty"`
}

// AuditHealth is the audit writer section of HealthResponse
type AuditHealth struct {
	Running bool  `json:"running"`
	Dropped int64 `json:"dropped"`
}

// HealthHandler reports liveness, database reachability and audit writer state
type HealthHandler struct {
	db      Pinger
	version string
	audit   AuditStatus
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// WithAudit adds the audit writer state to the health output.
// A stopped writer reports status "degraded".
func (h *HealthHandler) WithAudit(a AuditStatus) *HealthHandler {
	h.audit = a
	return h
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Warn("health check failed", slog.String("error", err.Error()))
		WriteError(w, model.NewServiceUnavailableError("database unreachable"))
		return
	}

	resp := HealthResponse{Status: "ok", Database: "ok", Version: h.version}
	if h.audit != nil {
		resp.Audit = &AuditHealth{Running: h.audit.IsRunning(), Dropped: h.audit.Dropped()}
		if !resp.Audit.Running {
			resp.Status = "degraded"
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}
