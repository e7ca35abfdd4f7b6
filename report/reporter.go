package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// REPORTER - Fetches snapshots from the store and runs the aggregations
// =============================================================================

// Reporter is safe for concurrent use; it holds no per-report state.
type Reporter struct {
	Store    generic.Store
	Logger   *slog.Logger
	Location *time.Location

	// Now is the clock deciding which days count as "current".
	Now func() time.Time
}

func NewReporter(store generic.Store, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{Store: store, Logger: logger, Location: time.UTC, Now: time.Now}
}

func (r *Reporter) today() generic.TimePoint {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return generic.DayOf(now().In(loc))
}

func (r *Reporter) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Reporter) trace(kind string, p Params) func(error) {
	start := time.Now()
	log := r.logger().With("report", kind, "user", p.UserID, "start", p.Start, "end", p.End)
	log.Debug("report started")
	return func(err error) {
		if err != nil {
			log.Warn("report failed", "error", err, "status", generic.StatusOf(err))
			return
		}
		log.Debug("report finished", "duration", time.Since(start))
	}
}

// =============================================================================
// SNAPSHOT LOADERS - One bounded read per collection
// =============================================================================

func (r *Reporter) employments(ctx context.Context, p Params) ([]generic.Employment, error) {
	emps, err := r.Store.EmploymentIntersections(ctx, generic.EmploymentQuery{
		Period: generic.YearPeriod(p.Year()),
		UserID: p.UserID,
	})
	return emps, generic.Persistence(err)
}

func (r *Reporter) elements(ctx context.Context, p Params, typ generic.ElementType) ([]generic.Element, error) {
	els, err := r.Store.Elements(ctx, generic.ElementQuery{
		Period:         p.Period(),
		UserID:         p.UserID,
		Type:           typ,
		IncludeEntries: true,
	})
	return els, generic.Persistence(err)
}

// profile fails with a 400 data error when the profile does not exist.
func (r *Reporter) profile(ctx context.Context, p Params) (*generic.Profile, error) {
	prof, err := r.Store.Profile(ctx, p.UserID, p.Year())
	if err != nil {
		return nil, generic.Persistence(err)
	}
	if prof == nil {
		return nil, generic.ProfileMissing(p.UserID, p.Year())
	}
	return prof, nil
}

// checkPosition accepts indicator labels and the labels of dynamic elements
// active in p's range. Only element definitions are read.
func (r *Reporter) checkPosition(ctx context.Context, p Params) error {
	if p.Position == "" {
		return nil
	}
	if _, ok := IndicatorByLabel(p.Position); ok {
		return nil
	}
	els, err := r.Store.Elements(ctx, generic.ElementQuery{
		Period: p.Period(),
		Type:   generic.ElementDynamic,
		Label:  p.Position,
	})
	if err != nil {
		return generic.Persistence(err)
	}
	if len(els) == 0 {
		return generic.NewParameterError("position", fmt.Errorf("%w: %q", generic.ErrInvalidPosition, p.Position))
	}
	return nil
}

func (r *Reporter) loadIndicators(ctx context.Context, p Params) (IndicatorInput, error) {
	els, err := r.elements(ctx, p, generic.ElementStatic)
	if err != nil {
		return IndicatorInput{}, err
	}
	emps, err := r.employments(ctx, p)
	if err != nil {
		return IndicatorInput{}, err
	}
	return IndicatorInput{Elements: els, Employments: emps}, nil
}

func (r *Reporter) loadElements(ctx context.Context, p Params) (ElementInput, error) {
	els, err := r.elements(ctx, p, generic.ElementDynamic)
	if err != nil {
		return ElementInput{}, err
	}
	sps, err := r.Store.Setpoints(ctx, p.UserID, p.Year())
	if err != nil {
		return ElementInput{}, generic.Persistence(err)
	}
	return ElementInput{Elements: els, Setpoints: sps}, nil
}

func (r *Reporter) loadTimeseries(ctx context.Context, p Params) (TimeseriesInput, error) {
	els, err := r.elements(ctx, p, "")
	if err != nil {
		return TimeseriesInput{}, err
	}
	hols, err := r.Store.Holidays(ctx, p.DayPeriod())
	if err != nil {
		return TimeseriesInput{}, generic.Persistence(err)
	}
	emps, err := r.employments(ctx, p)
	if err != nil {
		return TimeseriesInput{}, err
	}
	return TimeseriesInput{Elements: els, Holidays: hols, Employments: emps}, nil
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// Indicators reports the six leave/absence indicators. The profile is required.
func (r *Reporter) Indicators(ctx context.Context, p Params) (rep IndicatorReport, err error) {
	if err := p.Validate(); err != nil {
		return IndicatorReport{}, err
	}
	done := r.trace("indicators", p)
	defer func() { done(err) }()

	if err := r.checkPosition(ctx, p); err != nil {
		return IndicatorReport{}, err
	}
	in, err := r.loadIndicators(ctx, p)
	if err != nil {
		return IndicatorReport{}, err
	}
	prof, err := r.profile(ctx, p)
	if err != nil {
		return IndicatorReport{}, err
	}
	in.Profile = *prof
	return filterIndicators(ComputeIndicators(p, in), p.Position), nil
}

// Elements reports every dynamic element against its setpoint.
func (r *Reporter) Elements(ctx context.Context, p Params) (rep ElementReport, err error) {
	if err := p.Validate(); err != nil {
		return ElementReport{}, err
	}
	done := r.trace("elements", p)
	defer func() { done(err) }()

	if err := r.checkPosition(ctx, p); err != nil {
		return ElementReport{}, err
	}
	in, err := r.loadElements(ctx, p)
	if err != nil {
		return ElementReport{}, err
	}
	return filterElements(ComputeElements(p, in), p.Position), nil
}

// Timeseries reports day records and running totals. Without a profile
// nothing is seeded into the current actual.
func (r *Reporter) Timeseries(ctx context.Context, p Params) (rep TimeseriesReport, err error) {
	if err := p.Validate(); err != nil {
		return TimeseriesReport{}, err
	}
	done := r.trace("timeseries", p)
	defer func() { done(err) }()

	if err := r.checkPosition(ctx, p); err != nil {
		return TimeseriesReport{}, err
	}
	in, err := r.loadTimeseries(ctx, p)
	if err != nil {
		return TimeseriesReport{}, err
	}
	prof, err := r.Store.Profile(ctx, p.UserID, p.Year())
	if err != nil {
		return TimeseriesReport{}, generic.Persistence(err)
	}
	in.Profile = prof
	return ComputeTimeseries(p, in, r.today()), nil
}
