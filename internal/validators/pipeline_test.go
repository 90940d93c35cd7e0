package validators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPipeline_Syntax(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		passed  bool
		details string
	}{
		{name: "empty", raw: "  \n", details: "pipeline.yaml is empty"},
		{name: "comments only", raw: "# TODO: build your pipeline\n# stages: build, test, deploy\n", details: "pipeline.yaml has no YAML content"},
		{name: "valid", raw: "stages:\n  - build\n", passed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := pipelineSyntaxCheck(tt.raw)
			require.Equal(t, tt.passed, c.Passed)
			require.Equal(t, tt.details, c.Details)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		c := pipelineSyntaxCheck("stages: [build\n")
		require.False(t, c.Passed)
		require.Contains(t, c.Details, "YAML error:")
	})
}

func TestPipeline_StageOrder(t *testing.T) {
	c := stageOrderCheck("deploy:\n  script: ./run\ntest:\n  script: pytest\nbuild:\n  script: make\n")
	require.False(t, c.Passed)
	require.Equal(t, 2, c.PointsAwarded)
	require.Equal(t, "build=yes, test=yes, deploy=yes, order=incorrect", c.Details)

	c = stageOrderCheck("build: make\ntest: pytest\ndeploy: ./run\n")
	require.True(t, c.Passed)
	require.Equal(t, 3, c.PointsAwarded)
}

func TestPipeline_CommentedStagesIgnored(t *testing.T) {
	raw := `# build:
#   script: docker build .
# test:
#   script: pytest
# deploy to staging, then manual approval for production
# on failure: rollback
jobs: {}
`
	root := writeTree(t, map[string]string{"cicd/pipeline.yaml": raw})
	checks := NewPipelineValidator(defaultDeps()).Validate(context.Background(), root, false)

	require.True(t, findCheck(t, checks, "Pipeline YAML syntax").Passed)

	stages := findCheck(t, checks, "Build + test + deploy stages in order")
	require.Equal(t, 0, stages.PointsAwarded)

	promotion := findCheck(t, checks, "ECR push, staging deploy, prod manual gate")
	require.Equal(t, 0, promotion.PointsAwarded)
	require.Equal(t, "Missing deployment stages", promotion.Details)

	require.False(t, findCheck(t, checks, "Rollback/failure handling in pipeline").Passed)
}

func TestPipeline_Monitoring(t *testing.T) {
	v := &pipelineValidator{deps: defaultDeps()}

	dir := writeTree(t, map[string]string{
		"monitoring_setup.md": "We track latency, error rate and CPU in Prometheus.\nSLO: 99.9% availability.\n",
	})
	c := v.monitoringCheck(dir)
	require.True(t, c.Passed)
	require.Equal(t, 2, c.PointsAwarded)
	require.Equal(t, "Found: metrics, SLOs", c.Details)
}
