package models

import (
	"encoding/json"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *EvaluationResult {
	return &EvaluationResult{
		TotalScore: 7,
		MaxScore:   100,
		Band:       BandNoHire,
		Modules: ModuleSet{
			{Name: "terraform", Score: 5, Max: 25, Checks: []Check{NewCheck("HCL parsing", 5, true, "")}},
			{Name: "k8s", Score: 2, Max: 25, Checks: []Check{PartialCheck("Probes", 4, 2, false, "no readinessProbe")}},
			{Name: "network", Max: 20, Checks: []Check{}},
		},
	}
}

func TestEvaluationResult_JSONShape(t *testing.T) {
	data, err := json.Marshal(sampleResult())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "No Hire", doc["band"])
	assert.NotContains(t, doc, "recommendation")
	assert.NotContains(t, doc, "timestamp")
	assert.EqualValues(t, 7, doc["total_score"])
	assert.EqualValues(t, 100, doc["max_score"])

	modules, ok := doc["modules"].(map[string]any)
	require.True(t, ok, "modules is an object keyed by name")
	require.Len(t, modules, 3)

	k8s, ok := modules["k8s"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"checks", "max", "score"}, slices.Sorted(maps.Keys(k8s)))
	assert.EqualValues(t, 2, k8s["score"])
	assert.EqualValues(t, 25, k8s["max"])

	checks := k8s["checks"].([]any)
	require.Len(t, checks, 1)
	assert.Equal(t, map[string]any{
		"name":           "Probes",
		"max_points":     float64(4),
		"points_awarded": float64(2),
		"passed":         false,
		"details":        "no readinessProbe",
	}, checks[0])

	network := modules["network"].(map[string]any)
	assert.Equal(t, []any{}, network["checks"])
}

func TestEvaluationResult_JSONKeepsModuleOrder(t *testing.T) {
	want := sampleResult()

	data, err := json.Marshal(want)
	require.NoError(t, err)
	assert.Regexp(t, `"modules":\{"terraform":.*"k8s":.*"network":`, string(data))

	var got EvaluationResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, want, &got)
	assert.Equal(t, "k8s", got.Module("k8s").Name)
}

func TestModuleSet_UnmarshalJSON(t *testing.T) {
	t.Run("null", func(t *testing.T) {
		var s ModuleSet
		require.NoError(t, json.Unmarshal([]byte(`null`), &s))
		assert.Nil(t, s)
	})

	t.Run("array rejected", func(t *testing.T) {
		var s ModuleSet
		require.Error(t, json.Unmarshal([]byte(`[{"score":1}]`), &s))
	})

	t.Run("empty object", func(t *testing.T) {
		var s ModuleSet
		require.NoError(t, json.Unmarshal([]byte(`{}`), &s))
		assert.Empty(t, s)
	})
}
