package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/service"
	"github.com/yourorg/tastebook/internal/tenant"
)

// CatalogHandler serves one named catalog (place types, tags, foods, areas)
type CatalogHandler[T domain.Entity] struct {
	svc    *service.CatalogService[T]
	logger *slog.Logger
}

// NewCatalogHandler creates a catalog handler
func NewCatalogHandler[T domain.Entity](svc *service.CatalogService[T], logger *slog.Logger) *CatalogHandler[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler[T]{svc: svc, logger: logger}
}

// List handles GET /api/<catalog>?name=&is_active=&limit=&offset=
func (h *CatalogHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	q := newQueryParser(r)
	f := domain.CatalogFilter{Name: q.text("name"), IsActive: q.flag("is_active")}
	f.Limit, f.Offset = q.page()
	if err := q.err(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.svc.List(r.Context(), actor, f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/<catalog>/{id}
func (h *CatalogHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	row, err := h.svc.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// Create handles POST /api/<catalog>
func (h *CatalogHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req catalogRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	row, err := h.svc.Create(r.Context(), actor, req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

// Update handles PATCH /api/<catalog>/{id}
func (h *CatalogHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req catalogRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	row, err := h.svc.Update(r.Context(), actor, r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// Delete handles DELETE /api/<catalog>/{id}
func (h *CatalogHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.svc.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
