// Package finder answers birding questions for a location by combining the
// eBird provider, the user's life list and the recommendation engine.
package finder

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/ebird-recommend/internal/ebird"
	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/logger"
	"github.com/tphakala/ebird-recommend/internal/observability/metrics"
	"github.com/tphakala/ebird-recommend/internal/recommend"
)

// Provider is the subset of the eBird client used here.
type Provider interface {
	NearbyHotspots(ctx context.Context, lat, lng float64, distKm int) ([]ebird.Hotspot, error)
	NearbyRecentObservations(ctx context.Context, lat, lng float64, distKm, backDays int) ([]ebird.Observation, error)
	NearbyNotableObservations(ctx context.Context, lat, lng float64, distKm, backDays int) ([]ebird.Observation, error)
	RecentObservationsAtLocation(ctx context.Context, locID string, backDays int) ([]ebird.Observation, error)
	NotableObservationsAtLocation(ctx context.Context, locID string, backDays int) ([]ebird.Observation, error)
	ChecklistsAtLocation(ctx context.Context, locID string, maxResults int) ([]ebird.Checklist, error)
}

// Finder is safe for concurrent use.
type Finder struct {
	provider Provider
	engine   *recommend.Engine
	metrics  *metrics.FinderMetrics
	log      logger.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithEngine replaces the default recommendation engine.
func WithEngine(e *recommend.Engine) Option {
	return func(f *Finder) {
		if e != nil {
			f.engine = e
		}
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.FinderMetrics) Option {
	return func(f *Finder) { f.metrics = m }
}

// WithLogger overrides the module logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Finder) {
		if l != nil {
			f.log = l
		}
	}
}

// New creates a Finder backed by provider.
func New(provider Provider, opts ...Option) *Finder {
	f := &Finder{
		provider: provider,
		log:      logger.Global().Module("finder"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.engine == nil {
		f.engine = recommend.NewEngine(recommend.WithLogger(f.log.Module("engine")))
	}
	return f
}

// Recommend fetches recent and notable observations around the query point,
// ranks them and applies the query filters.
func (f *Finder) Recommend(ctx context.Context, q Query) ([]recommend.Recommendation, error) {
	start := time.Now()
	recs, err := f.recommend(ctx, q)
	f.metrics.RecordDuration(metrics.OpRecommend, time.Since(start).Seconds())
	if err != nil {
		f.metrics.RecordOperation(metrics.OpRecommend, metrics.OutcomeError)
		f.metrics.RecordError(metrics.OpRecommend, string(errors.CategoryOf(err)))
		return nil, err
	}
	f.metrics.RecordOperation(metrics.OpRecommend, metrics.OutcomeSuccess)
	f.metrics.ObserveRecommendations(len(recs))
	return recs, nil
}

func (f *Finder) recommend(ctx context.Context, q Query) ([]recommend.Recommendation, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	distKm := providerDistance(q.RadiusKm)
	var recent, notable []ebird.Observation

	fetchStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recent, err = f.provider.NearbyRecentObservations(gctx, q.Lat, q.Lng, distKm, q.Days)
		return err
	})
	g.Go(func() error {
		var err error
		notable, err = f.provider.NearbyNotableObservations(gctx, q.Lat, q.Lng, distKm, q.Days)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	f.metrics.RecordDuration(metrics.OpFetch, time.Since(fetchStart).Seconds())

	rankStart := time.Now()
	recs, err := f.engine.Recommend(recommend.Request{
		Lat:      q.Lat,
		Lng:      q.Lng,
		RadiusKm: q.RadiusKm,
		Seen:     q.Seen,
		Recent:   ToSightings(recent),
		Notable:  ToSightings(notable),
	})
	if err != nil {
		return nil, err
	}
	f.metrics.RecordDuration(metrics.OpRank, time.Since(rankStart).Seconds())

	ranked := len(recs)
	recs = Filter(recs, q.Lifer, q.Notable)
	if q.Top > 0 && len(recs) > q.Top {
		recs = recs[:q.Top]
	}

	f.log.Debug("recommendations ready",
		logger.Int("recent", len(recent)),
		logger.Int("notable", len(notable)),
		logger.Int("ranked", ranked),
		logger.Int("returned", len(recs)),
		logger.String("lifer_filter", string(q.Lifer)),
		logger.String("notable_filter", string(q.Notable)))

	return recs, nil
}

// HotspotDetail is the recent activity at one hotspot.
type HotspotDetail struct {
	Notable    []ebird.Observation `json:"notable"`
	Recent     []ebird.Observation `json:"recent"`
	Checklists []ebird.Checklist   `json:"checklists"`
}

// HotspotDetail fetches notable observations, recent observations and the
// latest checklistLimit checklists for a hotspot concurrently.
func (f *Finder) HotspotDetail(ctx context.Context, locID string, days, checklistLimit int) (*HotspotDetail, error) {
	start := time.Now()
	detail := &HotspotDetail{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail.Notable, err = f.provider.NotableObservationsAtLocation(gctx, locID, days)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Recent, err = f.provider.RecentObservationsAtLocation(gctx, locID, days)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Checklists, err = f.provider.ChecklistsAtLocation(gctx, locID, checklistLimit)
		return err
	})

	err := g.Wait()
	f.metrics.RecordDuration(metrics.OpHotspotDetail, time.Since(start).Seconds())
	if err != nil {
		f.metrics.RecordOperation(metrics.OpHotspotDetail, metrics.OutcomeError)
		f.metrics.RecordError(metrics.OpHotspotDetail, string(errors.CategoryOf(err)))
		return nil, err
	}
	f.metrics.RecordOperation(metrics.OpHotspotDetail, metrics.OutcomeSuccess)
	return detail, nil
}

// Hotspots lists hotspots within radiusKm of a point.
func (f *Finder) Hotspots(ctx context.Context, lat, lng, radiusKm float64) ([]ebird.Hotspot, error) {
	return f.provider.NearbyHotspots(ctx, lat, lng, providerDistance(radiusKm))
}

// Notable lists recent notable observations within radiusKm of a point.
func (f *Finder) Notable(ctx context.Context, lat, lng, radiusKm float64, days int) ([]ebird.Observation, error) {
	return f.provider.NearbyNotableObservations(ctx, lat, lng, providerDistance(radiusKm), days)
}

// ToSightings converts provider observations into engine input.
func ToSightings(obs []ebird.Observation) []recommend.Sighting {
	out := make([]recommend.Sighting, len(obs))
	for i := range obs {
		o := &obs[i]
		out[i] = recommend.Sighting{
			SpeciesCode:    o.SpeciesCode,
			CommonName:     o.CommonName,
			ScientificName: o.ScientificName,
			LocID:          o.LocID,
			LocName:        o.LocName,
			Lat:            o.Lat,
			Lng:            o.Lng,
			ObsDate:        o.ObsDt,
			HowMany:        o.HowMany,
		}
	}
	return out
}

// providerDistance rounds a radius up to the whole kilometres the API accepts.
func providerDistance(radiusKm float64) int {
	return int(math.Ceil(radiusKm))
}
