package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/service"
	"github.com/yourorg/tastebook/internal/tenant"
)

// PlacesHandler serves /api/places
type PlacesHandler struct {
	places *service.PlaceService
	logger *slog.Logger
}

// NewPlacesHandler creates a places handler
func NewPlacesHandler(places *service.PlaceService, logger *slog.Logger) *PlacesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlacesHandler{places: places, logger: logger}
}

// List handles GET /api/places with the place_type, area, price_range, min_avg_rating,
// max_avg_price_pp, search and ordering filters
func (h *PlacesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	q := newQueryParser(r)
	f := domain.PlaceFilter{
		PlaceTypeID:   q.text("place_type"),
		AreaID:        q.text("area"),
		PriceRange:    q.text("price_range"),
		MinAvgRating:  q.number("min_avg_rating"),
		MaxAvgPricePP: q.number("max_avg_price_pp"),
		Search:        q.text("search"),
		Ordering:      q.text("ordering"),
	}
	f.Limit, f.Offset = q.page()
	if err := q.err(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.places.List(r.Context(), actor, f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/places/{id}
func (h *PlacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	place, err := h.places.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// Create handles POST /api/places. Aggregate fields are not accepted.
func (h *PlacesHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req placeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	place, err := h.places.Create(r.Context(), actor, req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, place)
}

// Update handles PATCH /api/places/{id}; "area": null clears the area
func (h *PlacesHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req placeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	place, err := h.places.Update(r.Context(), actor, r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// Delete handles DELETE /api/places/{id}
func (h *PlacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.places.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTags handles PUT /api/places/{id}/tags and replaces the place's tag set
func (h *PlacesHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	actor, err := tenant.Require(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req placeTagsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	place, err := h.places.SetTags(r.Context(), actor, r.PathValue("id"), req.Tags)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}
