package fleet

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
)

// Controller drives the periodic reconcile loop. A single goroutine runs
// the full pipeline serially; no lock is needed because no state survives
// a tick except Config and the injected collaborators.
type Controller struct {
	Collector   *Collector
	Placeholder *PlaceholderManager
	Config      Config
	Interval    time.Duration
}

// NewController wires a Controller from its collaborators with the default
// 30s tick interval.
func NewController(collector *Collector, placeholder *PlaceholderManager, cfg Config) *Controller {
	return &Controller{
		Collector:   collector,
		Placeholder: placeholder,
		Config:      cfg,
		Interval:    defaultCheckInterval,
	}
}

// Run blocks, ticking every c.Interval until ctx is cancelled. Each tick is
// fully synchronous: all of tick N's side effects (pod creations/deletions)
// complete before tick N+1 begins fetching, so each tick sees the pods the
// previous one created.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick runs one full reconcile pass: snapshot -> aggregate -> log -> decide
// -> act. A failure at any collection step aborts the tick; the next tick
// is the retry.
func (c *Controller) Tick(ctx context.Context) {
	log := Logger()
	metricTicks.Add(1)

	state, err := c.Collector.Snapshot(ctx)
	if err != nil {
		metricTickErrors.Add(1)
		log.Error().Err(err).Msg("snapshot failed, aborting tick")
		return
	}

	metrics := Aggregate(state)
	metricRunnersActive.Set(int64(len(state.ActiveRunners)))
	metricRunnersIdle.Set(int64(len(state.IdleRunners)))
	metricRunnersDeletable.Set(int64(len(state.DeletableRunners)))

	log.Info().
		Int("runners", len(state.Runners)).
		Int("active", len(state.ActiveRunners)).
		Int("idle", len(state.IdleRunners)).
		Int("deletable", len(state.DeletableRunners)).
		Int("nodes", len(state.Nodes)).
		Int("nascent_nodes", len(state.NascentNodes)).
		Int("pending_placeholders", len(state.PendingPlaceholders)).
		Int("scheduled_placeholders", len(state.ScheduledPlaceholders)).
		Float32("total_cpu_capacity", metrics.TotalCPUCapacity).
		Float32("total_mem_capacity", metrics.TotalMemoryCapacity).
		Float32("total_available_cpu", metrics.TotalAvailableCPU).
		Float32("total_available_mem", metrics.TotalAvailableMem).
		Msg("cluster snapshot aggregated")

	decision := EvaluateScaleUp(metrics, c.Config, len(state.IdleRunners), len(state.NascentNodes), len(state.PendingPlaceholders))

	if decision.ScaleUp {
		if c.scaleUp(ctx, decision) {
			return
		}
	}

	c.scaleDown(ctx, state, metrics, decision.ScaleUp)
}

// scaleUp creates decision.NodesToCreate placeholder pods. It returns true
// if a scale-up was triggered (NodesToCreate > 0 and creation attempted;
// individual create failures are logged and do not change the result); a
// triggered scale-up skips scale-down for the rest of the tick.
func (c *Controller) scaleUp(ctx context.Context, decision ScaleDecision) bool {
	log := Logger()
	log.Info().
		Bool("utilization_high", decision.UtilizationHigh).
		Bool("idle_buffer_low", decision.IdleBufferLow).
		Bool("cpu_idle_low", decision.CPUIdleLow).
		Bool("mem_idle_low", decision.MemIdleLow).
		Int("nodes_needed", decision.NodesNeeded).
		Int("nodes_to_create", decision.NodesToCreate).
		Msg("scale-up conditions evaluated")

	if decision.NodesToCreate <= 0 {
		log.Info().Msg("scale-up conditions met but no new pods to create; waiting for in-flight provisioning")
		return false
	}

	for i := 0; i < decision.NodesToCreate; i++ {
		pod, err := c.Placeholder.Create(ctx)
		if err != nil {
			log.Error().Err(err).Msg("create placeholder pod failed")
			continue
		}
		metricPlaceholdersMade.Add(1)
		log.Info().Str("pod", pod.Name).Msg("placeholder pod created")
	}
	metricScaleUps.Add(1)
	return true
}

// scaleDown deletes unjustified pending placeholders when scale-up didn't
// fire, then runs the scale-down safety filter over Deletable runners.
func (c *Controller) scaleDown(ctx context.Context, state *ClusterState, metrics Metrics, scaleUpFired bool) {
	log := Logger()

	if !scaleUpFired && len(state.PendingPlaceholders) > 0 {
		log.Info().Int("count", len(state.PendingPlaceholders)).
			Msg("scale-up not needed; deleting unjustified pending placeholders")
		for _, pod := range state.PendingPlaceholders {
			if err := c.Placeholder.Delete(ctx, pod.Name); err != nil {
				log.Error().Err(err).Str("pod", pod.Name).Msg("delete pending placeholder failed")
				continue
			}
			metricPlaceholdersDel.Add(1)
		}
	}

	if len(state.DeletableRunners) == 0 {
		return
	}

	candidates, skipped := PlanScaleDown(state, metrics, c.Config)
	for _, s := range skipped {
		log.Warn().Str("runner", s.Runner.ID).Str("reason", s.Reason).Msg("scale-down candidate skipped")
	}

	var toDelete []*corev1.Pod
	for _, cand := range candidates {
		toDelete = append(toDelete, cand.Placeholder)
	}

	for _, pod := range toDelete {
		if err := c.Placeholder.Delete(ctx, pod.Name); err != nil {
			log.Error().Err(err).Str("pod", pod.Name).Msg("delete scale-down placeholder failed")
			continue
		}
		metricPlaceholdersDel.Add(1)
		metricScaleDowns.Add(1)
		log.Info().Str("pod", pod.Name).Msg("placeholder deleted for scale-down")
	}
}
