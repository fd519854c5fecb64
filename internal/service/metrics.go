package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/observability/metrics"
	"github.com/yourorg/tastebook/internal/repository"
	"github.com/yourorg/tastebook/pkg/database"
)

// MetricsEngine rebuilds a place's aggregate block from its persisted visits
type MetricsEngine struct {
	logger *slog.Logger
}

// NewMetricsEngine creates a metrics engine
func NewMetricsEngine(logger *slog.Logger) *MetricsEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsEngine{logger: logger}
}

// Recompute reads every visit of placeID through q and writes visits_count, avg_rating,
// avg_price_pp and last_visit_at. It must run on the transaction that changed the visits.
func (e *MetricsEngine) Recompute(ctx context.Context, q database.Querier, placeID string) (domain.PlaceMetrics, error) {
	start := time.Now()

	visits, err := repository.VisitsOfPlace(ctx, q, placeID)
	if err != nil {
		metrics.ObserveRecompute("error", time.Since(start))
		return domain.PlaceMetrics{}, errors.Wrap(err, "recompute place metrics")
	}

	m := ComputeMetrics(visits)
	if err := repository.WritePlaceMetrics(ctx, q, placeID, m); err != nil {
		metrics.ObserveRecompute("error", time.Since(start))
		return domain.PlaceMetrics{}, errors.Wrap(err, "recompute place metrics")
	}

	metrics.ObserveRecompute("ok", time.Since(start))
	e.logger.DebugContext(ctx, "place metrics recomputed",
		slog.String("place_id", placeID),
		slog.Int("visits_count", m.VisitCount),
	)
	return m, nil
}

// ComputeMetrics derives the aggregate block of a place from all of its visits.
// Visits without a price do not count towards the price average.
func ComputeMetrics(visits []domain.Visit) domain.PlaceMetrics {
	m := domain.PlaceMetrics{VisitCount: len(visits)}
	if len(visits) == 0 {
		return m
	}

	ratingSum := decimal.Zero
	priceSum := decimal.Zero
	priced := 0
	var lastCreated, lastDate *time.Time

	for i := range visits {
		v := visits[i]
		ratingSum = ratingSum.Add(v.Rating)
		if v.PricePerPerson.Valid {
			priceSum = priceSum.Add(v.PricePerPerson.Decimal)
			priced++
		}
		if v.CreatedAt != nil && (lastCreated == nil || v.CreatedAt.After(*lastCreated)) {
			c := v.CreatedAt.UTC()
			lastCreated = &c
		}
		if lastDate == nil || v.Date.After(*lastDate) {
			d := v.Date
			lastDate = &d
		}
	}

	m.AvgRating = decimal.NewNullDecimal(ratingSum.DivRound(decimal.NewFromInt(int64(len(visits))), 1))
	if priced > 0 {
		m.AvgPricePerPerson = decimal.NewNullDecimal(priceSum.DivRound(decimal.NewFromInt(int64(priced)), 2))
	}

	switch {
	case lastCreated != nil:
		m.LastVisitAt = lastCreated
	case lastDate != nil:
		d := lastDate.UTC()
		midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		m.LastVisitAt = &midnight
	}
	return m
}
