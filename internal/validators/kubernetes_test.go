package validators

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const deploymentWithResources = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: api
spec:
  template:
    spec:
      containers:
        - name: api
          image: api:1.0.0
          resources:
            requests:
              cpu: 100m
            limits:
              cpu: 500m
`

func TestKubernetes_MissingDirectory(t *testing.T) {
	checks := NewKubernetesValidator(defaultDeps()).Validate(context.Background(), t.TempDir(), false)

	require.Len(t, checks, 1)
	require.Equal(t, "K8s directory exists", checks[0].Name)
	require.Equal(t, 3, checks[0].MaxPoints)
}

func TestKubernetes_RequestsAndLimits(t *testing.T) {
	v := NewKubernetesValidator(defaultDeps())

	root := writeTree(t, map[string]string{"k8s/deployment.yaml": deploymentWithResources})
	c := findCheck(t, v.Validate(context.Background(), root, false), "Resource requests and limits")
	require.True(t, c.Passed)
	require.Equal(t, 1, c.PointsAwarded)

	withoutLimits := strings.Replace(deploymentWithResources, "            limits:\n              cpu: 500m\n", "", 1)
	root = writeTree(t, map[string]string{"k8s/deployment.yaml": withoutLimits})
	c = findCheck(t, v.Validate(context.Background(), root, false), "Resource requests and limits")
	require.False(t, c.Passed)
	require.Equal(t, 0, c.PointsAwarded)
}

func TestKubernetes_YAMLParsing(t *testing.T) {
	v := NewKubernetesValidator(defaultDeps())

	t.Run("invalid yaml", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"k8s/deployment.yaml": deploymentWithResources,
			"k8s/bad.yaml":        "kind: Service\n  metadata: [unclosed\n",
		})

		c := findCheck(t, v.Validate(context.Background(), root, true), "YAML parsing")
		require.False(t, c.Passed)
		require.Equal(t, "Parse errors in: bad.yaml", c.Details)
	})

	t.Run("comment-only files have no content", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"k8s/deployment.yaml": "# TODO: write the Deployment\n---\n",
		})

		c := findCheck(t, v.Validate(context.Background(), root, true), "YAML parsing")
		require.False(t, c.Passed)
		require.Equal(t, "No YAML content found", c.Details)
	})
}

func TestKubernetes_PinnedImage(t *testing.T) {
	for image, pinned := range map[string]bool{
		"api:1.4.2":                   true,
		"api":                         false,
		"api:latest":                  false,
		"registry.local:5000/api":     false,
		"registry.local:5000/api:1.0": true,
		"api@sha256:0123abcd":         true,
	} {
		require.Equal(t, pinned, pinnedImage(image), image)
	}
}

func TestKubernetes_PodSpecChecks(t *testing.T) {
	cronjob := `apiVersion: batch/v1
kind: CronJob
metadata:
  name: report
spec:
  schedule: "0 * * * *"
  jobTemplate:
    spec:
      template:
        spec:
          securityContext:
            runAsNonRoot: true
          containers:
            - name: report
              image: report:latest
              securityContext:
                readOnlyRootFilesystem: true
              envFrom:
                - configMapRef:
                    name: report-config
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: report-config
data:
  MODE: hourly
`
	root := writeTree(t, map[string]string{"k8s/cronjob.yaml": cronjob})
	checks := NewKubernetesValidator(defaultDeps()).Validate(context.Background(), root, false)

	require.True(t, findCheck(t, checks, "Security context (non-root, read-only fs)").Passed)
	require.True(t, findCheck(t, checks, "ConfigMap referenced from deployment").Passed)

	image := findCheck(t, checks, "Image tag not :latest")
	require.False(t, image.Passed)
	require.Equal(t, "Image uses :latest or has no tag", image.Details)
}

func TestKubernetes_Incidents(t *testing.T) {
	v := &kubernetesValidator{deps: defaultDeps().withDefaults()}

	t.Run("short response", func(t *testing.T) {
		c := v.incidentCheck(1, "OOMKilled, raised the limit.")
		require.False(t, c.Passed)
		require.Equal(t, "Response is empty or too short", c.Details)
		require.Equal(t, 4, c.MaxPoints)
	})

	t.Run("root cause without remediation", func(t *testing.T) {
		resp := "The pods were OOMKilled with exit code 137 because the container kept hitting its memory " +
			"limit while the nightly import job was running against the full data set."

		c := v.incidentCheck(1, resp)
		require.False(t, c.Passed)
		require.Equal(t, 2, c.PointsAwarded)
		require.Equal(t, "root_cause_keywords=3, remediation_keywords=0", c.Details)
	})

	t.Run("prevention needs two scenarios", func(t *testing.T) {
		c := v.preventionCheck([]string{"we added an alert", "", ""})
		require.False(t, c.Passed)
		require.Equal(t, "scenarios with prevention measures: 1/3", c.Details)
	})
}
