package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskJSONFlattensPayload(t *testing.T) {
	task := Task{
		ID:       7,
		Type:     "move",
		Created:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Update:   12,
		State:    TaskStateComplete,
		Affinity: AffinitySerial,
		Result:   "arrived",
		Payload: map[string]any{
			"waypoints": []any{"dock", "charger"},
			"speed":     0.5,
		},
	}

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	assert.Equal(t, float64(7), wire["id"])
	assert.Equal(t, "move", wire["type"])
	assert.Equal(t, "complete", wire["state"])
	assert.Equal(t, "serial", wire["affinity"])
	assert.Equal(t, "arrived", wire["result"])
	assert.Equal(t, []any{"dock", "charger"}, wire["waypoints"])
	assert.Equal(t, 0.5, wire["speed"])
	// Errors omitted when empty.
	_, present := wire["errors"]
	assert.False(t, present)
}

func TestTaskJSONRoundTrip(t *testing.T) {
	original := Task{
		ID:       3,
		Type:     "plan",
		Created:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Update:   5,
		State:    TaskStateFailed,
		Affinity: AffinityParallel,
		Errors:   "planner timeout",
		Payload:  map[string]any{"target": "dock"},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Task
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.State, decoded.State)
	assert.Equal(t, original.Errors, decoded.Errors)
	assert.Equal(t, "dock", decoded.Payload["target"])
}

func TestPayloadCannotShadowEngineFields(t *testing.T) {
	task := Task{
		ID:      1,
		Type:    "move",
		State:   TaskStateNew,
		Payload: map[string]any{"state": "complete", "extra": true},
	}

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	assert.Equal(t, "new", wire["state"])
	assert.Equal(t, true, wire["extra"])
}

func TestCloneIsolation(t *testing.T) {
	task := &Task{ID: 1, Payload: map[string]any{"k": "v"}}
	clone := task.Clone()
	clone.Payload["k"] = "mutated"

	assert.Equal(t, "v", task.Payload["k"])

	var nilTask *Task
	assert.Nil(t, nilTask.Clone())
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, TaskStateNew.Terminal())
	assert.False(t, TaskStateProcessing.Terminal())
	assert.True(t, TaskStateComplete.Terminal())
	assert.True(t, TaskStateFailed.Terminal())
	assert.True(t, TaskStateCancelled.Terminal())
}

func TestAffinityValid(t *testing.T) {
	assert.True(t, AffinitySerial.Valid())
	assert.True(t, AffinityParallel.Valid())
	assert.True(t, AffinityHighPriority.Valid())
	assert.False(t, Affinity("sideways").Valid())
}
