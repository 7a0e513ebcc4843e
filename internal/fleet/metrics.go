package fleet

import (
	corev1 "k8s.io/api/core/v1"
)

// Aggregate computes capacity, allocation, and availability totals from a
// ClusterState. Runner-reported capacity is preferred
// over node-allocatable capacity wherever a runner has registered; nodes
// without a matching runner (nascent or otherwise un-agented) fall back to
// their Kubernetes-reported allocatable resources so freshly provisioned
// capacity is counted before its runner agent registers.
func Aggregate(state *ClusterState) Metrics {
	var m Metrics
	nodesWithRunners := make(map[string]bool, len(state.Nodes))

	for _, r := range state.Runners {
		if r.Unschedulable {
			continue
		}
		m.TotalCPUCapacity += r.CPUCapacity
		m.TotalMemoryCapacity += r.MemoryCapacity
		if r.Domain == "" {
			continue
		}
		if node, ok := state.NodeByIP[r.Domain]; ok {
			nodesWithRunners[node.Name] = true
		}
	}

	schedulableNodes := 0
	for i := range state.Nodes {
		node := &state.Nodes[i]
		if node.Spec.Unschedulable {
			continue
		}
		schedulableNodes++
		if nodesWithRunners[node.Name] {
			continue
		}
		cpu, mem := nodeAllocatable(node)
		m.TotalCPUCapacity += cpu
		m.TotalMemoryCapacity += mem
	}

	for _, r := range state.ActiveRunners {
		m.TotalAllocatedCPU += r.AllocatedCPU
		m.TotalAllocatedMem += r.AllocatedMemory
	}

	m.TotalAvailableCPU = m.TotalCPUCapacity - m.TotalAllocatedCPU
	m.TotalAvailableMem = m.TotalMemoryCapacity - m.TotalAllocatedMem

	if schedulableNodes > 0 {
		m.AvgCPUPerNode = m.TotalCPUCapacity / float32(schedulableNodes)
		m.AvgMemPerNode = m.TotalMemoryCapacity / float32(schedulableNodes)
	}

	return m
}

// nodeAllocatable returns a node's allocatable CPU in fractional cores and
// memory in GiB.
func nodeAllocatable(node *corev1.Node) (cpuCores, memGiB float32) {
	cpu := node.Status.Allocatable[corev1.ResourceCPU]
	mem := node.Status.Allocatable[corev1.ResourceMemory]
	cpuCores = float32(cpu.MilliValue()) / 1000
	memGiB = float32(mem.Value()) / (1024 * 1024 * 1024)
	return cpuCores, memGiB
}
