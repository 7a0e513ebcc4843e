package fleet

import "math"

// EvaluateScaleUp runs the scale-up predicates against Metrics and derives
// the node deficit. pendingPlaceholders is subtracted
// from the raw deficit last: in-flight provisioning always absorbs need
// first, which is what makes the accounting self-correcting tick over
// tick.
func EvaluateScaleUp(m Metrics, cfg Config, idleRunners, nascentNodes, pendingPlaceholders int) ScaleDecision {
	max := float32(cfg.MaxResourceUtilizationPercent)

	cpuUtilHigh := m.TotalCPUCapacity > 0 && (100*m.TotalAllocatedCPU/m.TotalCPUCapacity) > max
	memUtilHigh := m.TotalMemoryCapacity > 0 && (100*m.TotalAllocatedMem/m.TotalMemoryCapacity) > max
	utilizationHigh := cpuUtilHigh || memUtilHigh

	idleBufferLow := (idleRunners + nascentNodes) < cfg.MinIdleRunners
	cpuIdleLow := m.TotalAvailableCPU < float32(cfg.MinIdleCPU)
	memIdleLow := m.TotalAvailableMem < float32(cfg.MinIdleMemory)

	scaleUp := utilizationHigh || idleBufferLow || cpuIdleLow || memIdleLow

	nodesNeeded := 0
	if cpuIdleLow && m.AvgCPUPerNode > 0 {
		needed := int(math.Ceil(float64(float32(cfg.MinIdleCPU)-m.TotalAvailableCPU) / float64(m.AvgCPUPerNode)))
		nodesNeeded = maxInt(nodesNeeded, needed)
	}
	if memIdleLow && m.AvgMemPerNode > 0 {
		needed := int(math.Ceil(float64(float32(cfg.MinIdleMemory)-m.TotalAvailableMem) / float64(m.AvgMemPerNode)))
		nodesNeeded = maxInt(nodesNeeded, needed)
	}
	if idleBufferLow {
		needed := cfg.MinIdleRunners - (idleRunners + nascentNodes)
		nodesNeeded = maxInt(nodesNeeded, needed)
	}
	if utilizationHigh && nodesNeeded == 0 {
		nodesNeeded = 1
	}

	nodesToCreate := nodesNeeded - pendingPlaceholders
	if nodesToCreate < 0 {
		nodesToCreate = 0
	}

	return ScaleDecision{
		UtilizationHigh: utilizationHigh,
		IdleBufferLow:   idleBufferLow,
		CPUIdleLow:      cpuIdleLow,
		MemIdleLow:      memIdleLow,
		ScaleUp:         scaleUp,
		NodesNeeded:     nodesNeeded,
		NodesToCreate:   nodesToCreate,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
