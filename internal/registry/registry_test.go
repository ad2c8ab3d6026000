package registry

import (
	"context"
	"testing"

	"robotask/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(ctx context.Context, task *model.Task) (any, error) {
	return task.Payload, nil
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.Register("echo", echoHandler, model.AffinityParallel)

	handler, affinity, ok := r.Lookup("echo")
	require.True(t, ok)
	assert.NotNil(t, handler)
	assert.Equal(t, model.AffinityParallel, affinity)
}

func TestReRegistrationOverwritesSilently(t *testing.T) {
	r := New()
	r.Register("plan", echoHandler, model.AffinitySerial)
	r.Register("plan", func(ctx context.Context, task *model.Task) (any, error) {
		return "second", nil
	}, model.AffinityHighPriority)

	handler, affinity, ok := r.Lookup("plan")
	require.True(t, ok)
	assert.Equal(t, model.AffinityHighPriority, affinity)

	result, err := handler(context.Background(), &model.Task{})
	require.NoError(t, err)
	assert.Equal(t, "second", result)
}

func TestAffinityUnknownType(t *testing.T) {
	r := New()

	_, err := r.Affinity("ghost")
	assert.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestInvalidAffinityFallsBackToSerial(t *testing.T) {
	r := New()
	r.Register("weird", echoHandler, model.Affinity("sideways"))

	affinity, err := r.Affinity("weird")
	require.NoError(t, err)
	assert.Equal(t, model.AffinitySerial, affinity)
}

func TestTypes(t *testing.T) {
	r := New()
	r.Register("plan", echoHandler, model.AffinitySerial)
	r.Register("move", echoHandler, model.AffinitySerial)

	assert.ElementsMatch(t, []string{"plan", "move"}, r.Types())
}
