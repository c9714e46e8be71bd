// Package plan exposes the plan service over HTTP.
package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kilianp07/fleetmaint/core/events"
	"github.com/kilianp07/fleetmaint/core/logger"
	"github.com/kilianp07/fleetmaint/core/model"
	coremon "github.com/kilianp07/fleetmaint/core/monitoring"
	coreplan "github.com/kilianp07/fleetmaint/core/plan"
	"github.com/kilianp07/fleetmaint/infra/audit"
	"github.com/kilianp07/fleetmaint/pkg/export"
	"github.com/kilianp07/fleetmaint/pkg/intent"
)

const maxBody = 1 << 20

// Handler serves the plan routes.
type Handler struct {
	svc     *coreplan.Service
	log     logger.Logger
	journal audit.Journal
}

// RouterOption adjusts the router built by NewRouter.
type RouterOption func(*Handler)

// WithJournal serves the audit journal under /api/audit.
func WithJournal(j audit.Journal) RouterOption {
	return func(h *Handler) { h.journal = j }
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *coreplan.Service, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: logger.OrNop(log)}
}

// NewRouter mounts the plan routes and the health check on a fresh router.
func NewRouter(svc *coreplan.Service, log logger.Logger, opts ...RouterOption) http.Handler {
	h := NewHandler(svc, log)
	for _, opt := range opts {
		opt(h)
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	r.Get("/healthz", h.handleHealth)
	if h.journal != nil {
		r.Get("/api/audit", h.handleAudit)
	}
	h.Routes(r)
	return r
}

// Routes registers the /api/plan endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/plan", func(r chi.Router) {
		r.Get("/", h.handleAccepted)
		r.Get("/previews", h.handlePreviews)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDiscard)
			r.Get("/clashes", h.handleClashes)
			r.Get("/export", h.handleExport)
			r.Get("/diff/{other}", h.handleDiff)
			r.Post("/propose", h.handlePropose)
			r.Post("/mutations", h.handleMutations)
			r.Post("/slot", h.handleSlot)
			r.Post("/accept", h.handleAccept)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	acc, err := h.svc.Accepted(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "plan_id": acc.ID, "version": acc.Version})
}

func (h *Handler) handleAccepted(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Accepted(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handlePreviews(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Previews(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClashes(w http.ResponseWriter, r *http.Request) {
	clashes, err := h.svc.Clashes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if clashes == nil {
		clashes = []model.Clash{}
	}
	writeJSON(w, http.StatusOK, clashes)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
		return
	}
	if err := export.Write(w, snap, format); err != nil {
		h.log.Errorf("export plan %s: %v", snap.ID, err)
	}
}

func (h *Handler) handleDiff(w http.ResponseWriter, r *http.Request) {
	changes, err := h.svc.Diff(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "other"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if changes == nil {
		changes = []coreplan.Change{}
	}
	writeJSON(w, http.StatusOK, changes)
}

func (h *Handler) handlePropose(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	policy, err := intent.DecodePolicy(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.svc.Propose(r.Context(), chi.URLParam(r, "id"), policy)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) handleMutations(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	batch, err := intent.DecodeBatch(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Apply(r.Context(), chi.URLParam(r, "id"), batch.Mutations, batch.Policy)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleSlot(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := intent.DecodeSlotRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slot, err := h.svc.Slot(r.Context(), chi.URLParam(r, "id"), req.VehicleID, req.Hours, req.BusinessHours)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Accept(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := audit.Query{PlanID: v.Get("plan"), VehicleID: v.Get("vehicle"), Kind: events.Kind(v.Get("kind"))}
	for key, dst := range map[string]*time.Time{"since": &q.Start, "until": &q.End} {
		raw := v.Get(key)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: %v", key, err))
			return
		}
		*dst = ts
	}
	recs, err := h.journal.Query(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf("plan request failed: %v", err)
		if status == http.StatusInternalServerError {
			coremon.CaptureException(err, map[string]string{"module": "api", "method": r.Method, "path": r.URL.Path})
		}
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, coreplan.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, coreplan.ErrNotPreview), errors.Is(err, coreplan.ErrStalePreview):
		return http.StatusConflict
	case errors.Is(err, coreplan.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, coreplan.ErrNotBootstrapped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	return body, true
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debugw("http request", map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
