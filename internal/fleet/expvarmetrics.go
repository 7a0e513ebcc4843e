package fleet

import "expvar"

// Process-wide tick counters, published once at package init so /metrics
// is meaningful even before the first tick.
var (
	metricTicks            = expvar.NewInt("fleet_ticks_total")
	metricTickErrors       = expvar.NewInt("fleet_tick_errors_total")
	metricScaleUps         = expvar.NewInt("fleet_scale_up_total")
	metricScaleDowns       = expvar.NewInt("fleet_scale_down_total")
	metricPlaceholdersMade = expvar.NewInt("fleet_placeholders_created_total")
	metricPlaceholdersDel  = expvar.NewInt("fleet_placeholders_deleted_total")
	metricRunnersActive    = expvar.NewInt("fleet_runners_active")
	metricRunnersIdle      = expvar.NewInt("fleet_runners_idle")
	metricRunnersDeletable = expvar.NewInt("fleet_runners_deletable")
)
