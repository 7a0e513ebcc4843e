package fleet

import corev1 "k8s.io/api/core/v1"

// ScaleDownCandidate is a Deletable runner that passed the safety check,
// paired with the placeholder pod on its node that must be deleted to
// release it.
type ScaleDownCandidate struct {
	Runner      Runner
	Node        *corev1.Node
	Placeholder *corev1.Pod
}

// SkippedScaleDown records why a Deletable runner was not selected for
// removal, for logging (ConsistencyWarning / safety rejection).
type SkippedScaleDown struct {
	Runner Runner
	Reason string
}

// PlanScaleDown evaluates every Deletable runner against the pre-tick
// availability totals independently. Runners are processed in the order
// given (first-fit greedy); the totals used for the safety check never
// update across iterations, which may reject more candidates than strictly
// necessary but can never approve an unsafe removal.
func PlanScaleDown(state *ClusterState, m Metrics, cfg Config) ([]ScaleDownCandidate, []SkippedScaleDown) {
	var candidates []ScaleDownCandidate
	var skipped []SkippedScaleDown

	for _, r := range state.DeletableRunners {
		if r.Domain == "" {
			skipped = append(skipped, SkippedScaleDown{Runner: r, Reason: "runner has no domain"})
			continue
		}
		node, ok := state.NodeByIP[r.Domain]
		if !ok {
			skipped = append(skipped, SkippedScaleDown{Runner: r, Reason: "no matching node for runner domain"})
			continue
		}
		nodeCPU, nodeMem := nodeAllocatable(node)
		hypAvailCPU := m.TotalAvailableCPU - nodeCPU
		hypAvailMem := m.TotalAvailableMem - nodeMem

		if hypAvailCPU < float32(cfg.MinIdleCPU) || hypAvailMem < float32(cfg.MinIdleMemory) {
			skipped = append(skipped, SkippedScaleDown{Runner: r, Reason: "would violate minimum idle headroom"})
			continue
		}

		var placeholder *corev1.Pod
		for _, pod := range state.ScheduledPlaceholders {
			if pod.Spec.NodeName == node.Name {
				placeholder = pod
				break
			}
		}
		if placeholder == nil {
			skipped = append(skipped, SkippedScaleDown{Runner: r, Reason: "no scheduled placeholder found on node"})
			continue
		}

		candidates = append(candidates, ScaleDownCandidate{Runner: r, Node: node, Placeholder: placeholder})
	}

	return candidates, skipped
}
