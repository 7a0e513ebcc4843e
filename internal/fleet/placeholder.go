package fleet

import (
	"context"
	"crypto/rand"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const podNameSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// PlaceholderManager creates and deletes placeholder pods. Creation
// failures and deletion failures are both logged by the caller and never
// abort the batch.
type PlaceholderManager struct {
	K8s       kubernetes.Interface
	Namespace string
	Policy    Policy
}

// Create creates one placeholder pod: pause container, required
// anti-affinity against other placeholders by hostname, node selector, and
// the sandbox taint toleration. The pod's reservation is what drives the
// cluster autoscaler.
func (p *PlaceholderManager) Create(ctx context.Context) (*corev1.Pod, error) {
	suffix, err := randomSuffix(8)
	if err != nil {
		return nil, fmt.Errorf("generate pod name suffix: %w", err)
	}
	name := fmt.Sprintf("%s-%s", p.Policy.PlaceholderLabel, suffix)

	tolerations := []corev1.Toleration{
		{
			Key:      p.Policy.TaintKey,
			Operator: corev1.TolerationOpEqual,
			Value:    "true",
			Effect:   corev1.TaintEffectNoExecute,
		},
	}
	for _, t := range p.Policy.ExtraTolerations {
		tolerations = append(tolerations, corev1.Toleration{
			Key:      t.Key,
			Operator: corev1.TolerationOperator(t.Operator),
			Value:    t.Value,
			Effect:   corev1.TaintEffect(t.Effect),
		})
	}

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: p.Namespace,
			Labels:    map[string]string{"app": p.Policy.PlaceholderLabel},
		},
		Spec: corev1.PodSpec{
			Affinity: &corev1.Affinity{
				PodAntiAffinity: &corev1.PodAntiAffinity{
					RequiredDuringSchedulingIgnoredDuringExecution: []corev1.PodAffinityTerm{
						{
							LabelSelector: &metav1.LabelSelector{
								MatchExpressions: []metav1.LabelSelectorRequirement{
									{
										Key:      "app",
										Operator: metav1.LabelSelectorOpIn,
										Values:   []string{p.Policy.PlaceholderLabel},
									},
								},
							},
							TopologyKey: "kubernetes.io/hostname",
						},
					},
				},
			},
			NodeSelector: map[string]string{p.Policy.NodeSelectorKey: "true"},
			Tolerations:  tolerations,
			Containers: []corev1.Container{
				{
					Name:  "pause",
					Image: p.Policy.PlaceholderImage,
				},
			},
			RestartPolicy: corev1.RestartPolicyNever,
		},
	}

	created, err := p.K8s.CoreV1().Pods(p.Namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("create placeholder pod %s: %w", name, err)
	}
	return created, nil
}

// Delete removes a placeholder pod by name. NotFound is treated as
// success: deletion is idempotent.
func (p *PlaceholderManager) Delete(ctx context.Context, name string) error {
	err := p.K8s.CoreV1().Pods(p.Namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete placeholder pod %s: %w", name, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return apierrors.IsNotFound(err)
}

func randomSuffix(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, v := range b {
		out[i] = podNameSuffixAlphabet[int(v)%len(podNameSuffixAlphabet)]
	}
	return string(out), nil
}
