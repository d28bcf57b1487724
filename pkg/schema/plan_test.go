package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepKey(t *testing.T) {
	tests := []struct {
		name     string
		step     StepSpec
		position int
		want     string
	}{
		{"explicit id wins", StepSpec{ID: "fetch", Type: "HTTP Request"}, 1, "fetch"},
		{"synthesized from type and position", StepSpec{Type: "HTTP Request"}, 1, "HTTP Request_1"},
		{"position disambiguates same type", StepSpec{Type: "Set"}, 3, "Set_3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.step.Key(tt.position))
		})
	}
}

func TestGraphWireFormat(t *testing.T) {
	g := Graph{
		Nodes: []Node{
			{ID: "1", Name: "Manual Trigger", Type: "n8n-nodes-base.manualTrigger", TypeVersion: 1, Position: [2]int{280, 300}, Parameters: map[string]any{}},
		},
		Connections: map[string]NodePorts{
			"1": {Main: [][]Connection{{{Node: "2", Type: PortMain, Index: 0}}}},
		},
	}

	data, err := json.Marshal(g)
	require.NoError(t, err)

	// Field names are a wire-compatibility requirement with the engine.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "nodes")
	require.Contains(t, raw, "connections")

	node := raw["nodes"].([]any)[0].(map[string]any)
	for _, key := range []string{"id", "name", "type", "typeVersion", "position", "parameters"} {
		assert.Contains(t, node, key)
	}

	conns := raw["connections"].(map[string]any)["1"].(map[string]any)
	edge := conns["main"].([]any)[0].([]any)[0].(map[string]any)
	assert.Equal(t, "2", edge["node"])
	assert.Equal(t, "main", edge["type"])
	assert.Equal(t, float64(0), edge["index"])
}

func TestGraphEdges(t *testing.T) {
	g := Graph{
		Connections: map[string]NodePorts{
			"1": {Main: [][]Connection{{{Node: "2", Type: PortMain, Index: 0}, {Node: "3", Type: PortMain, Index: 0}}}},
		},
	}

	assert.Len(t, g.Edges("1"), 2)
	assert.Nil(t, g.Edges("2"))
}

func TestPlanloomError(t *testing.T) {
	cause := errors.New("boom")
	err := NewErrorf(ErrCodeUpstream, "engine returned %d", 502).
		WithCause(cause).
		WithDetails(map[string]any{"status": 502})

	assert.Equal(t, "[UPSTREAM_ERROR] engine returned 502", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 502, err.Details["status"])
}

func TestValidationResult(t *testing.T) {
	var r ValidationResult
	assert.True(t, r.Valid())
	require.NoError(t, r.ToError())

	r.AddWarning("steps[0].depends_on[0]", "DANGLING_DEPENDENCY", "unknown step reference")
	assert.True(t, r.Valid())

	r.AddError("name", ErrCodeValidation, "name is required")
	assert.False(t, r.Valid())

	var other ValidationResult
	other.AddError("trigger", ErrCodeValidation, "unknown trigger kind")
	r.Merge(&other)

	err := r.ToError()
	require.Error(t, err)

	var perr *PlanloomError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrCodeValidation, perr.Code)
	assert.Equal(t, 2, perr.Details["error_count"])
}
