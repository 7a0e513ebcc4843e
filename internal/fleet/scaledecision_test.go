package fleet

import (
	"math/rand"
	"testing"
)

func baseMetrics() Metrics {
	return Metrics{
		TotalCPUCapacity:    32,
		TotalMemoryCapacity: 64,
		TotalAllocatedCPU:   8,
		TotalAllocatedMem:   16,
		TotalAvailableCPU:   24,
		TotalAvailableMem:   48,
		AvgCPUPerNode:       8,
		AvgMemPerNode:       16,
	}
}

// Increasing minIdleCpu by any positive delta, all else fixed, must never
// decrease nodesToCreate.
func TestScaleUpMonotonicity(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	for trial := 0; trial < 300; trial++ {
		m := Metrics{
			TotalCPUCapacity:    float32(1 + rnd.Intn(64)),
			TotalMemoryCapacity: float32(1 + rnd.Intn(128)),
			TotalAllocatedCPU:   float32(rnd.Intn(64)),
			TotalAllocatedMem:   float32(rnd.Intn(128)),
			AvgCPUPerNode:       float32(1 + rnd.Intn(16)),
			AvgMemPerNode:       float32(1 + rnd.Intn(32)),
		}
		m.TotalAvailableCPU = m.TotalCPUCapacity - m.TotalAllocatedCPU
		m.TotalAvailableMem = m.TotalMemoryCapacity - m.TotalAllocatedMem

		cfg := Config{
			MaxResourceUtilizationPercent: 50 + rnd.Intn(50),
			MinIdleRunners:                rnd.Intn(5),
			MinIdleCPU:                    rnd.Intn(20),
			MinIdleMemory:                 rnd.Intn(20),
		}
		idle := rnd.Intn(5)
		nascent := rnd.Intn(3)
		pending := rnd.Intn(3)

		before := EvaluateScaleUp(m, cfg, idle, nascent, pending)

		delta := 1 + rnd.Intn(10)
		cfg2 := cfg
		cfg2.MinIdleCPU += delta
		after := EvaluateScaleUp(m, cfg2, idle, nascent, pending)

		if after.NodesToCreate < before.NodesToCreate {
			t.Fatalf("trial %d: increasing minIdleCpu decreased nodesToCreate: before=%d after=%d cfg=%+v m=%+v",
				trial, before.NodesToCreate, after.NodesToCreate, cfg, m)
		}
	}
}

// Pending placeholders at or above the deficit always yield
// nodesToCreate=0.
func TestPlaceholderAccounting(t *testing.T) {
	m := baseMetrics()
	cfg := Config{MaxResourceUtilizationPercent: 80, MinIdleRunners: 0, MinIdleCPU: 30, MinIdleMemory: 0}

	// nodesNeeded from CPU deficit: ceil((30-24)/8) = 1
	decision := EvaluateScaleUp(m, cfg, 0, 0, 0)
	if decision.NodesNeeded != 1 {
		t.Fatalf("nodesNeeded = %d, want 1", decision.NodesNeeded)
	}
	if decision.NodesToCreate != 1 {
		t.Fatalf("nodesToCreate = %d, want 1 with no pending placeholders", decision.NodesToCreate)
	}

	withPending := EvaluateScaleUp(m, cfg, 0, 0, 1)
	if withPending.NodesToCreate != 0 {
		t.Fatalf("nodesToCreate = %d, want 0 when pending placeholders absorb the deficit", withPending.NodesToCreate)
	}
}

// No scale-up predicate fires, so ScaleUp is false regardless of how many
// placeholders are pending (the controller layer deletes them all; that
// behavior is tested at the controller level).
func TestNoScaleUpWithPendingPlaceholders(t *testing.T) {
	m := Metrics{
		TotalCPUCapacity:    16,
		TotalMemoryCapacity: 32,
		TotalAllocatedCPU:   4,
		TotalAllocatedMem:   8,
		TotalAvailableCPU:   12,
		TotalAvailableMem:   24,
		AvgCPUPerNode:       16,
		AvgMemPerNode:       32,
	}
	cfg := Config{MaxResourceUtilizationPercent: 100, MinIdleRunners: 0, MinIdleCPU: 0, MinIdleMemory: 0}

	decision := EvaluateScaleUp(m, cfg, 5, 0, 2)
	if decision.ScaleUp {
		t.Fatalf("expected no scale-up predicate to fire, got %+v", decision)
	}
	if decision.NodesToCreate != 0 {
		t.Fatalf("nodesToCreate = %d, want 0", decision.NodesToCreate)
	}
}

func TestUtilizationHighGuardsZeroCapacity(t *testing.T) {
	m := Metrics{} // all zero
	cfg := Config{MaxResourceUtilizationPercent: 50}
	decision := EvaluateScaleUp(m, cfg, 0, 0, 0)
	if decision.UtilizationHigh {
		t.Fatal("utilizationHigh must be false when capacity is zero, not a division error")
	}
}

func TestUtilizationHighForcesAtLeastOneNode(t *testing.T) {
	m := Metrics{
		TotalCPUCapacity:  10,
		TotalAllocatedCPU: 9, // 90% > 80% max
		TotalAvailableCPU: 1,
		AvgCPUPerNode:     10,
	}
	cfg := Config{MaxResourceUtilizationPercent: 80, MinIdleCPU: 0, MinIdleMemory: 0, MinIdleRunners: 0}
	decision := EvaluateScaleUp(m, cfg, 10, 0, 0)
	if !decision.UtilizationHigh {
		t.Fatal("expected utilizationHigh=true")
	}
	if decision.NodesNeeded != 1 {
		t.Fatalf("nodesNeeded = %d, want 1 (utilization-only deficit floors to 1)", decision.NodesNeeded)
	}
}
