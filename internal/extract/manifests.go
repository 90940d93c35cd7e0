package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	autoscalingv2 "k8s.io/api/autoscaling/v2"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
)

// ErrYAMLSyntax wraps a document that could not be decoded.
var ErrYAMLSyntax = errors.New("invalid YAML")

// Manifests decodes every document of a multi-document YAML stream.
// Empty and null documents are skipped, as are documents that are not
// mappings. A file holding nothing but comments has no documents and is not
// an error; neither is a decode failure in such a file.
func Manifests(data []byte) ([]*unstructured.Unstructured, error) {
	if CommentOnly(data) {
		return nil, nil
	}

	dec := utilyaml.NewYAMLOrJSONDecoder(bytes.NewReader(data), 4096)

	var docs []*unstructured.Unstructured
	for {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrYAMLSyntax, err)
		}

		obj, ok := doc.(map[string]any)
		if !ok || len(obj) == 0 {
			continue
		}
		docs = append(docs, &unstructured.Unstructured{Object: obj})
	}
	return docs, nil
}

// CommentOnly reports whether data holds no YAML content beyond comments,
// blank lines and document separators.
func CommentOnly(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "---" || trimmed == "..." || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return false
	}
	return true
}

// PodSpecs returns every pod spec in obj: a bare Pod, a templated workload
// (Deployment, StatefulSet, DaemonSet, ReplicaSet, Job) and a CronJob's job
// template.
func PodSpecs(obj *unstructured.Unstructured) []map[string]any {
	var specs []map[string]any
	for _, path := range [][]string{
		{"spec"},
		{"spec", "template", "spec"},
		{"spec", "jobTemplate", "spec", "template", "spec"},
	} {
		if m := nestedMap(obj.Object, path...); m != nil {
			if _, ok := m["containers"]; ok {
				specs = append(specs, m)
			}
		}
	}
	return specs
}

// Containers is the union of containers across every pod spec in obj.
func Containers(obj *unstructured.Unstructured) []map[string]any {
	var out []map[string]any
	for _, spec := range PodSpecs(obj) {
		list, _ := spec["containers"].([]any)
		for _, c := range list {
			if m, ok := c.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// TemplatePodSpec returns the pod spec under spec.template, the place where
// scheduling constraints live for a workload.
func TemplatePodSpec(obj *unstructured.Unstructured) map[string]any {
	return nestedMap(obj.Object, "spec", "template", "spec")
}

// HPAReplicaBounds converts obj to a typed autoscaling/v2 object and returns
// its replica bounds. ok is false when obj is not a HorizontalPodAutoscaler.
func HPAReplicaBounds(obj *unstructured.Unstructured) (minReplicas, maxReplicas int32, ok bool) {
	if obj.GetKind() != "HorizontalPodAutoscaler" {
		return 0, 0, false
	}

	var hpa autoscalingv2.HorizontalPodAutoscaler
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &hpa); err != nil {
		return 0, 0, false
	}

	if hpa.Spec.MinReplicas != nil {
		minReplicas = *hpa.Spec.MinReplicas
	}
	return minReplicas, hpa.Spec.MaxReplicas, true
}

// RestrictsIngress reports whether obj is a NetworkPolicy whose policyTypes
// include Ingress.
func RestrictsIngress(obj *unstructured.Unstructured) bool {
	if obj.GetKind() != "NetworkPolicy" {
		return false
	}

	var np networkingv1.NetworkPolicy
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &np); err != nil {
		return false
	}

	for _, pt := range np.Spec.PolicyTypes {
		if pt == networkingv1.PolicyTypeIngress {
			return true
		}
	}
	return false
}

// Field reads a nested value without copying it.
func Field(obj map[string]any, path ...string) (any, bool) {
	v, found, err := unstructured.NestedFieldNoCopy(obj, path...)
	if err != nil || !found {
		return nil, false
	}
	return v, true
}

// Truthy mirrors the loose presence test the checks use: a field counts when
// it exists and is not empty, false or zero.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

func nestedMap(obj map[string]any, path ...string) map[string]any {
	v, ok := Field(obj, path...)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}
