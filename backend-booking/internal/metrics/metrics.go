package metrics

import (
	"context"
	"sync"

	"github.com/JideOgun/Pro-Dj-sub004/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// Lifecycle counters
	Transitions     *telemetry.Counter
	ForcedOverrides *telemetry.Counter
	Payments        *telemetry.Counter
	Recoveries      *telemetry.Counter

	// Sweep
	SweepRuns     *telemetry.Counter
	SweepExpired  *telemetry.Counter
	SweepFailed   *telemetry.Counter
	SweepDuration *telemetry.Histogram

	// Side effects that soft-failed
	SideEffectFailures *telemetry.Counter

	initOnce sync.Once
	initErr  error
)

// Init registers all lifecycle metrics. Until it is called every Record
// function is a no-op.
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	counters := []struct {
		dst  **telemetry.Counter
		opts telemetry.MetricOpts
	}{
		{&Transitions, telemetry.MetricOpts{Name: "booking_transitions_total", Description: "Applied booking status transitions", Unit: "1"}},
		{&ForcedOverrides, telemetry.MetricOpts{Name: "booking_forced_overrides_total", Description: "Admin status overrides", Unit: "1"}},
		{&Payments, telemetry.MetricOpts{Name: "booking_payments_total", Description: "Bookings marked paid", Unit: "1"}},
		{&Recoveries, telemetry.MetricOpts{Name: "booking_recoveries_total", Description: "Rejection recovery runs", Unit: "1"}},
		{&SweepRuns, telemetry.MetricOpts{Name: "booking_sweep_runs_total", Description: "Timeout sweep runs", Unit: "1"}},
		{&SweepExpired, telemetry.MetricOpts{Name: "booking_sweep_expired_total", Description: "Pending bookings cancelled by the sweep", Unit: "1"}},
		{&SweepFailed, telemetry.MetricOpts{Name: "booking_sweep_failed_total", Description: "Bookings the sweep failed to cancel", Unit: "1"}},
		{&SideEffectFailures, telemetry.MetricOpts{Name: "booking_side_effect_failures_total", Description: "Soft-failed emails, recoveries and publishes", Unit: "1"}},
	}
	for _, c := range counters {
		if *c.dst, err = telemetry.NewCounter(c.opts); err != nil {
			return err
		}
	}

	SweepDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "booking_sweep_duration_seconds",
		Description: "Duration of a timeout sweep",
		Unit:        "s",
	}, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60)
	return err
}

// RecordTransition records an applied status change
func RecordTransition(ctx context.Context, from, to string, forced bool) {
	Transitions.Inc(ctx,
		attribute.String("from", from),
		attribute.String("to", to),
		attribute.Bool("forced", forced),
	)
	if forced {
		ForcedOverrides.Inc(ctx, attribute.String("to", to))
	}
}

func RecordPayment(ctx context.Context, source string) {
	Payments.Inc(ctx, attribute.String("source", source))
}

func RecordRecovery(ctx context.Context, trigger string, ok bool) {
	Recoveries.Inc(ctx, attribute.String("trigger", trigger), attribute.Bool("ok", ok))
}

// RecordSweep records one completed sweep
func RecordSweep(ctx context.Context, trigger string, processed, failed int, seconds float64) {
	attrs := attribute.String("trigger", trigger)
	SweepRuns.Inc(ctx, attrs)
	SweepExpired.Add(ctx, int64(processed), attrs)
	SweepFailed.Add(ctx, int64(failed), attrs)
	SweepDuration.Record(ctx, seconds, attrs)
}

// RecordSideEffectFailure counts a logged-and-swallowed failure
func RecordSideEffectFailure(ctx context.Context, kind string) {
	SideEffectFailures.Inc(ctx, attribute.String("kind", kind))
}
