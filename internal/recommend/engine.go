package recommend

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tphakala/ebird-recommend/internal/logger"
)

// Engine ranks observations for one request at a time. It holds no per-request
// state, so a single Engine may serve concurrent callers.
type Engine struct {
	clock  clockwork.Clock
	logger logger.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the clock that defines "today". Tests use a fake clock.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// NewEngine creates an Engine using the real clock unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		clock:  clockwork.NewRealClock(),
		logger: logger.Global().Module("recommend"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend returns every recommendation for req, best first, one per species.
// It fails only when req.RadiusKm is not positive.
func (e *Engine) Recommend(req Request) ([]Recommendation, error) {
	if err := ValidateRadius(req.RadiusKm); err != nil {
		return nil, err
	}

	today := e.today()
	facts := Aggregate(req.Recent, req.Notable)
	notable := NotableKeys(req.Notable)

	recs := make([]Recommendation, 0, len(facts))
	for _, f := range facts {
		rec, err := assemble(f, &req, notable, today)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	SortByScore(recs)
	kept, dropped := Deduplicate(recs)
	AnnotateRunnersUp(kept, dropped)

	e.logger.Debug("ranked recommendations",
		logger.Int("recent", len(req.Recent)),
		logger.Int("notable", len(req.Notable)),
		logger.Int("facts", len(facts)),
		logger.Int("recommendations", len(kept)),
		logger.Float64("radius_km", req.RadiusKm))

	return kept, nil
}

// today returns the current local calendar date as midnight UTC, matching
// the representation of parsed observation dates.
func (e *Engine) today() time.Time {
	y, m, d := e.clock.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
