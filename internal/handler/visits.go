package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/service"
	"github.com/yourorg/tastebook/internal/tenant"
)

// VisitsHandler serves /api/visits
type VisitsHandler struct {
	visits *service.VisitService
	logger *slog.Logger
}

// NewVisitsHandler creates a visits handler
func NewVisitsHandler(visits *service.VisitService, logger *slog.Logger) *VisitsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisitsHandler{visits: visits, logger: logger}
}

// List handles GET /api/visits?place=&date_from=&date_to=&min_rating=
func (h *VisitsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	q := newQueryParser(r)
	f := domain.VisitFilter{
		PlaceID:   q.text("place"),
		DateFrom:  q.day("date_from"),
		DateTo:    q.day("date_to"),
		MinRating: q.number("min_rating"),
	}
	f.Limit, f.Offset = q.page()
	if err := q.err(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.visits.List(r.Context(), actor, f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/visits/{id}
func (h *VisitsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	visit, err := h.visits.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, visit)
}

// Create handles POST /api/visits. The author is always the caller.
func (h *VisitsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req visitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	visit, err := h.visits.Create(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, visit)
}

// Update handles PATCH /api/visits/{id}; "price_per_person": null clears the price
func (h *VisitsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req visitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	visit, err := h.visits.Update(r.Context(), actor, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, visit)
}

// Delete handles DELETE /api/visits/{id}
func (h *VisitsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.visits.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateWithFoods handles POST /api/visits/create-with-foods. The visit, any foods
// created by name and every visit food are written in one transaction.
func (h *VisitsHandler) CreateWithFoods(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req compositeVisitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id, err := h.visits.CreateWithFoods(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"visit_id": id})
}
