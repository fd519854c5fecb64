package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/service"
	"github.com/yourorg/tastebook/internal/tenant"
)

// VisitFoodsHandler serves /api/visit-foods and the latest-by-place report
type VisitFoodsHandler struct {
	visitFoods *service.VisitFoodService
	logger     *slog.Logger
}

// NewVisitFoodsHandler creates a visit foods handler
func NewVisitFoodsHandler(visitFoods *service.VisitFoodService, logger *slog.Logger) *VisitFoodsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisitFoodsHandler{visitFoods: visitFoods, logger: logger}
}

// List handles GET /api/visit-foods?food=&visit=&date_from=&date_to=&min_rating=&max_price_paid=&search=
func (h *VisitFoodsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	q := newQueryParser(r)
	f := domain.VisitFoodFilter{
		FoodID:       q.text("food"),
		VisitID:      q.text("visit"),
		DateFrom:     q.day("date_from"),
		DateTo:       q.day("date_to"),
		MinRating:    q.number("min_rating"),
		MaxPricePaid: q.number("max_price_paid"),
		Search:       q.text("search"),
	}
	f.Limit, f.Offset = q.page()
	if err := q.err(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.visitFoods.List(r.Context(), actor, f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/visit-foods/{id}
func (h *VisitFoodsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	vf, err := h.visitFoods.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, vf)
}

// Create handles POST /api/visit-foods
func (h *VisitFoodsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req visitFoodRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	vf, err := h.visitFoods.Create(r.Context(), actor, req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, vf)
}

// Update handles PATCH /api/visit-foods/{id}
func (h *VisitFoodsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req visitFoodRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	vf, err := h.visitFoods.Update(r.Context(), actor, r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, vf)
}

// Delete handles DELETE /api/visit-foods/{id}
func (h *VisitFoodsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.visitFoods.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LatestByPlace handles GET /api/foods/{id}/latest-by-place: the most recent review of
// the food at every place, filtered by area, place_type, price_range and min_rating
func (h *VisitFoodsHandler) LatestByPlace(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	q := newQueryParser(r)
	f := domain.LatestFilter{
		AreaID:      q.text("area"),
		PlaceTypeID: q.text("place_type"),
		PriceRange:  q.text("price_range"),
		MinRating:   q.number("min_rating"),
		Ordering:    q.text("ordering"),
	}
	if err := q.err(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rows, err := h.visitFoods.LatestByPlace(r.Context(), actor, r.PathValue("id"), f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if rows == nil {
		rows = []domain.LatestFoodReview{}
	}
	writeJSON(w, http.StatusOK, rows)
}
