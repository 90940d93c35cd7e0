package validators

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spboyer/hirebench/internal/extract"
	"github.com/spboyer/hirebench/internal/models"
	"github.com/spboyer/hirebench/internal/textnorm"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const (
	incidentCount          = 3
	incidentMaxPoints      = 4
	incidentMinResponseLen = 100
)

// kubernetesValidator grades submission/k8s: the manifests and the
// incident response write-ups.
type kubernetesValidator struct {
	deps Deps
}

// NewKubernetesValidator creates the Kubernetes validator.
func NewKubernetesValidator(deps Deps) Validator {
	return &kubernetesValidator{deps: deps.withDefaults()}
}

func (v *kubernetesValidator) Name() string { return string(TypeKubernetes) }

func (v *kubernetesValidator) Validate(ctx context.Context, root string, quick bool) []models.Check {
	dir := filepath.Join(root, "k8s")
	if !isDir(dir) {
		return []models.Check{models.NewCheck("K8s directory exists", 3, false, "submission/k8s/ not found")}
	}

	var (
		docs       []*unstructured.Unstructured
		withDocs   int
		parseFails []string
	)
	for _, p := range listFiles(dir, ".yaml", ".yml") {
		src := readText(p)
		fileDocs, err := extract.Manifests([]byte(src))
		if err != nil {
			v.deps.Logger.Debug("manifest parse failed", zap.String("file", p), zap.Error(err))
			parseFails = append(parseFails, filepath.Base(p))
			continue
		}
		if len(fileDocs) > 0 {
			withDocs++
		}
		docs = append(docs, fileDocs...)
	}

	var checks []models.Check
	switch {
	case len(parseFails) > 0:
		checks = append(checks, models.NewCheck("YAML parsing", 3, false, "Parse errors in: "+strings.Join(parseFails, ", ")))
	case withDocs == 0:
		checks = append(checks, models.NewCheck("YAML parsing", 3, false, "No YAML content found"))
	default:
		checks = append(checks, models.NewCheck("YAML parsing", 3, true, ""))
	}

	if quick {
		return checks
	}

	checks = append(checks,
		models.NewCheck("Resource requests and limits", 1, anyContainer(docs, hasRequestsAndLimits), ""),
		probesCheck(docs),
		hpaCheck(docs),
		models.NewCheck("Anti-affinity or topology spread", 1, anyPodSpec(docs, spreadsPods), ""),
		netpolCheck(docs),
		securityContextCheck(docs),
		imageTagCheck(docs),
		configMapCheck(docs),
	)

	incidentDir := filepath.Join(dir, "incident_responses")
	responses := make([]string, incidentCount)
	for i := range responses {
		raw := readText(filepath.Join(incidentDir, fmt.Sprintf("scenario_%d.md", i+1)))
		responses[i] = textnorm.Prose(raw)
	}

	for i, resp := range responses {
		checks = append(checks, v.incidentCheck(i+1, resp))
	}
	checks = append(checks, v.preventionCheck(responses))
	return checks
}

func anyContainer(docs []*unstructured.Unstructured, pred func(map[string]any) bool) bool {
	for _, d := range docs {
		for _, c := range extract.Containers(d) {
			if pred(c) {
				return true
			}
		}
	}
	return false
}

func anyPodSpec(docs []*unstructured.Unstructured, pred func(map[string]any) bool) bool {
	for _, d := range docs {
		for _, spec := range extract.PodSpecs(d) {
			if pred(spec) {
				return true
			}
		}
	}
	return false
}

func truthyField(obj map[string]any, path ...string) bool {
	v, ok := extract.Field(obj, path...)
	return ok && extract.Truthy(v)
}

func isTrue(obj map[string]any, path ...string) bool {
	v, ok := extract.Field(obj, path...)
	b, isBool := v.(bool)
	return ok && isBool && b
}

func hasRequestsAndLimits(c map[string]any) bool {
	return truthyField(c, "resources", "requests") && truthyField(c, "resources", "limits")
}

func spreadsPods(spec map[string]any) bool {
	return truthyField(spec, "affinity", "podAntiAffinity") || truthyField(spec, "topologySpreadConstraints")
}

func probesCheck(docs []*unstructured.Unstructured) models.Check {
	liveness := anyContainer(docs, func(c map[string]any) bool { return truthyField(c, "livenessProbe") })
	readiness := anyContainer(docs, func(c map[string]any) bool { return truthyField(c, "readinessProbe") })
	return models.NewCheck("Liveness and readiness probes", 1, liveness && readiness, "")
}

func hpaCheck(docs []*unstructured.Unstructured) models.Check {
	ok := false
	for _, d := range docs {
		if minR, maxR, isHPA := extract.HPAReplicaBounds(d); isHPA && minR > 0 && maxR > 0 {
			ok = true
			break
		}
	}
	return models.NewCheck("HPA with min/max replicas", 1, ok, "")
}

func netpolCheck(docs []*unstructured.Unstructured) models.Check {
	ok := false
	for _, d := range docs {
		if extract.RestrictsIngress(d) {
			ok = true
			break
		}
	}
	return models.NewCheck("NetworkPolicy restricts ingress", 1, ok, "")
}

func securityContextCheck(docs []*unstructured.Unstructured) models.Check {
	nonRoot, readOnly := false, false
	for _, d := range docs {
		for _, spec := range extract.PodSpecs(d) {
			if isTrue(spec, "securityContext", "runAsNonRoot") {
				nonRoot = true
			}
		}
		for _, c := range extract.Containers(d) {
			if isTrue(c, "securityContext", "runAsNonRoot") {
				nonRoot = true
			}
			if isTrue(c, "securityContext", "readOnlyRootFilesystem") {
				readOnly = true
			}
		}
	}

	return models.NewCheck("Security context (non-root, read-only fs)", 2, nonRoot && readOnly,
		fmt.Sprintf("non-root=%s, readOnlyRootFs=%s", yesNo(nonRoot), yesNo(readOnly)))
}

// pinnedImage reports whether an image reference carries an explicit tag
// other than latest, or a digest. A registry port is not a tag.
func pinnedImage(image string) bool {
	if strings.Contains(image, "@") {
		return true
	}
	last := path.Base(image)
	i := strings.LastIndex(last, ":")
	if i < 0 {
		return false
	}
	tag := last[i+1:]
	return tag != "" && tag != "latest"
}

func imageTagCheck(docs []*unstructured.Unstructured) models.Check {
	anyImage, unpinned := false, false
	for _, d := range docs {
		for _, c := range extract.Containers(d) {
			image, _ := c["image"].(string)
			if image == "" {
				continue
			}
			anyImage = true
			if !pinnedImage(image) {
				unpinned = true
			}
		}
	}

	details := ""
	switch {
	case unpinned:
		details = "Image uses :latest or has no tag"
	case !anyImage:
		details = "No container images found"
	}
	return models.NewCheck("Image tag not :latest", 1, anyImage && !unpinned, details)
}

func referencesConfigMap(spec map[string]any) bool {
	containers, _ := spec["containers"].([]any)
	for _, raw := range containers {
		c, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		envFrom, _ := c["envFrom"].([]any)
		for _, ef := range envFrom {
			if m, ok := ef.(map[string]any); ok && truthyField(m, "configMapRef") {
				return true
			}
		}
		env, _ := c["env"].([]any)
		for _, e := range env {
			if m, ok := e.(map[string]any); ok && truthyField(m, "valueFrom", "configMapKeyRef") {
				return true
			}
		}
	}

	volumes, _ := spec["volumes"].([]any)
	for _, vol := range volumes {
		if m, ok := vol.(map[string]any); ok && truthyField(m, "configMap") {
			return true
		}
	}
	return false
}

func configMapCheck(docs []*unstructured.Unstructured) models.Check {
	exists := false
	for _, d := range docs {
		if d.GetKind() == "ConfigMap" {
			exists = true
			break
		}
	}
	referenced := anyPodSpec(docs, referencesConfigMap)

	return models.NewCheck("ConfigMap referenced from deployment", 1, exists && referenced,
		fmt.Sprintf("configmap=%s, referenced=%s", yesNo(exists), yesNo(referenced)))
}

func (v *kubernetesValidator) incidentCheck(n int, response string) models.Check {
	name := fmt.Sprintf("Incident %d: root cause + remediation", n)
	if len(strings.TrimSpace(response)) < incidentMinResponseLen {
		return models.NewCheck(name, incidentMaxPoints, false, "Response is empty or too short")
	}

	group := fmt.Sprintf("incident_%d", n)
	rc := v.deps.Keywords.Count(response, group, "root_cause")
	rem := v.deps.Keywords.Count(response, group, "remediation")

	score := 0
	switch {
	case rc >= 2:
		score += 2
	case rc >= 1:
		score++
	}
	score += min(rem, 2)

	return models.PartialCheck(name, incidentMaxPoints, score, rc >= 2 && rem >= 1,
		fmt.Sprintf("root_cause_keywords=%d, remediation_keywords=%d", rc, rem))
}

func (v *kubernetesValidator) preventionCheck(responses []string) models.Check {
	covered := 0
	for i, resp := range responses {
		if v.deps.Keywords.Any(resp, fmt.Sprintf("incident_%d", i+1), "prevention") {
			covered++
		}
	}
	return models.NewCheck("Prevention measures in incident responses", 1, covered >= 2,
		fmt.Sprintf("scenarios with prevention measures: %d/%d", covered, incidentCount))
}
