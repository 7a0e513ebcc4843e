package fleet

import (
	corev1 "k8s.io/api/core/v1"
)

// Runner is a Daytona Admin API view of an agent registered against a
// worker node. It is read-only to the fleet package.
type Runner struct {
	ID               string
	Domain           string
	CPUCapacity      float32
	MemoryCapacity   float32
	AllocatedCPU     float32
	AllocatedMemory  float32
	AllocatedDisk    float32
	StartedSandboxes int
	SnapshotCount    int
	Unschedulable    bool
}

// Active reports whether the runner currently hosts any workload.
func (r Runner) Active() bool {
	return r.AllocatedCPU > 0 || r.AllocatedMemory > 0 || r.AllocatedDisk > 0 ||
		r.StartedSandboxes > 0 || r.SnapshotCount > 0
}

// Deletable reports whether the runner is a scale-down candidate: no
// workload, and marked unschedulable (cordoned ahead of removal).
func (r Runner) Deletable() bool {
	return !r.Active() && r.Unschedulable
}

// Idle reports whether the runner is empty and still schedulable.
func (r Runner) Idle() bool {
	return !r.Active() && !r.Unschedulable
}

// ClusterState is the immutable snapshot produced by one collector tick. It
// never survives past the tick that built it.
type ClusterState struct {
	Runners          []Runner
	ActiveRunners    []Runner
	DeletableRunners []Runner
	IdleRunners      []Runner
	RunnerByDomain   map[string]Runner

	Nodes    []corev1.Node
	NodeByIP map[string]*corev1.Node

	PendingPlaceholders   []*corev1.Pod
	ScheduledPlaceholders []*corev1.Pod

	NascentNodes []*corev1.Node
}

// Metrics is the aggregated, per-tick capacity/allocation view derived from
// a ClusterState.
type Metrics struct {
	TotalCPUCapacity    float32
	TotalMemoryCapacity float32
	TotalAllocatedCPU   float32
	TotalAllocatedMem   float32
	TotalAvailableCPU   float32
	TotalAvailableMem   float32
	AvgCPUPerNode       float32
	AvgMemPerNode       float32
}

// ScaleDecision is the outcome of the scale-up evaluation for one tick.
type ScaleDecision struct {
	UtilizationHigh bool
	IdleBufferLow   bool
	CPUIdleLow      bool
	MemIdleLow      bool
	ScaleUp         bool
	NodesNeeded     int
	NodesToCreate   int
}
