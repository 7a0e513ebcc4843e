package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/daytonaio/runner-fleet/internal/fleet/adminclient"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const runnerFetchTimeout = 10 * time.Second

// RunnerLister is the collector's view of the Admin API.
type RunnerLister interface {
	ListRunners(ctx context.Context, regionID string) ([]adminclient.Runner, error)
}

// Collector builds a ClusterState snapshot each tick (C1).
type Collector struct {
	Runners           RunnerLister
	K8s               kubernetes.Interface
	RegionID          string
	ProviderNamespace string
	PlaceholderLabel  string
	NodeSelectorKey   string
}

// Snapshot fetches runners, placeholder pods, and nodes, then builds the
// join indexes and classifies everything it fetched. Any failed fetch
// aborts the tick: no partial state is ever returned.
func (c *Collector) Snapshot(ctx context.Context) (*ClusterState, error) {
	state := &ClusterState{
		RunnerByDomain: make(map[string]Runner),
		NodeByIP:       make(map[string]*corev1.Node),
	}

	runnerCtx, cancel := context.WithTimeout(ctx, runnerFetchTimeout)
	defer cancel()
	adminRunners, err := c.Runners.ListRunners(runnerCtx, c.RegionID)
	if err != nil {
		return nil, fmt.Errorf("list runners: %w", err)
	}
	state.Runners = make([]Runner, 0, len(adminRunners))
	for _, ar := range adminRunners {
		r := Runner{
			ID:               ar.ID,
			Domain:           ar.Domain,
			CPUCapacity:      ar.Cpu,
			MemoryCapacity:   ar.Memory,
			AllocatedCPU:     ar.CurrentAllocatedCpu,
			AllocatedMemory:  ar.CurrentAllocatedMemory,
			AllocatedDisk:    ar.CurrentAllocatedDisk,
			StartedSandboxes: ar.CurrentStartedSandboxes,
			SnapshotCount:    ar.CurrentSnapshotCount,
			Unschedulable:    ar.Unschedulable,
		}
		state.Runners = append(state.Runners, r)
		if r.Domain != "" {
			state.RunnerByDomain[r.Domain] = r
		}
		switch {
		case r.Active():
			state.ActiveRunners = append(state.ActiveRunners, r)
		case r.Deletable():
			state.DeletableRunners = append(state.DeletableRunners, r)
		default:
			state.IdleRunners = append(state.IdleRunners, r)
		}
	}

	pods, err := c.K8s.CoreV1().Pods(c.ProviderNamespace).List(ctx, metav1.ListOptions{
		LabelSelector: "app=" + c.PlaceholderLabel,
	})
	if err != nil {
		return nil, fmt.Errorf("list placeholder pods: %w", err)
	}
	for i := range pods.Items {
		pod := &pods.Items[i]
		if pod.Spec.NodeName == "" {
			state.PendingPlaceholders = append(state.PendingPlaceholders, pod)
		} else {
			state.ScheduledPlaceholders = append(state.ScheduledPlaceholders, pod)
		}
	}

	nodes, err := c.K8s.CoreV1().Nodes().List(ctx, metav1.ListOptions{
		LabelSelector: c.NodeSelectorKey + "=true",
	})
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	state.Nodes = nodes.Items
	for i := range state.Nodes {
		node := &state.Nodes[i]
		for _, addr := range node.Status.Addresses {
			state.NodeByIP[addr.Address] = node
		}
	}

	for i := range state.Nodes {
		node := &state.Nodes[i]
		if node.Spec.Unschedulable {
			continue
		}
		hasRunner := false
		for _, addr := range node.Status.Addresses {
			if _, found := state.RunnerByDomain[addr.Address]; found {
				hasRunner = true
				break
			}
		}
		if hasRunner {
			continue
		}
		for _, pod := range state.ScheduledPlaceholders {
			if pod.Spec.NodeName == node.Name {
				state.NascentNodes = append(state.NascentNodes, node)
				break
			}
		}
	}

	return state, nil
}
