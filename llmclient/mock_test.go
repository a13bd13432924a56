package llmclient_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixlayer/ace/llmclient"
)

func TestMock_ReturnsScriptedRepliesInOrder(t *testing.T) {
	m := llmclient.NewMock("first", "second")

	r1, err := m.Complete(context.Background(), "sys", "a", llmclient.Options{})
	require.NoError(t, err)
	assert.Equal(t, "first", r1)

	r2, err := m.Complete(context.Background(), "sys", "b", llmclient.Options{})
	require.NoError(t, err)
	assert.Equal(t, "second", r2)

	// Exhausted: repeats the last scripted reply.
	r3, err := m.Complete(context.Background(), "sys", "c", llmclient.Options{})
	require.NoError(t, err)
	assert.Equal(t, "second", r3)

	assert.Len(t, m.Calls(), 3)
}

func TestMock_WithErrorReturnsErrorInstead(t *testing.T) {
	boom := errors.New("boom")
	m := llmclient.NewMock("unused").WithError(boom)

	_, err := m.Complete(context.Background(), "sys", "a", llmclient.Options{})
	require.ErrorIs(t, err, boom)
}

func TestMock_FiresOnUsageCallback(t *testing.T) {
	m := llmclient.NewMock("a reply of some length")
	var prompt, completion, total int
	_, err := m.Complete(context.Background(), "sys", "user message", llmclient.Options{
		OnUsage: func(p, c, t int) { prompt, completion, total = p, c, t },
	})
	require.NoError(t, err)
	assert.Positive(t, prompt)
	assert.Positive(t, completion)
	assert.Equal(t, prompt+completion, total)
}
