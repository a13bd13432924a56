package layer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sixlayer/ace/layer"
	"github.com/sixlayer/ace/vocab"
)

func TestDefaultContract_L6MayEmitTaskResult(t *testing.T) {
	c := layer.DefaultContract()
	assert.True(t, c.Allowed(vocab.L6, vocab.PacketTaskResult))
	assert.False(t, c.Allowed(vocab.L6, vocab.PacketDecision))
}

func TestDefaultContract_IntegrityOverridesAnyType(t *testing.T) {
	c := layer.DefaultContract()
	assert.True(t, c.Allowed(vocab.Integrity, vocab.PacketDecision))
	assert.True(t, c.Allowed(vocab.Integrity, vocab.PacketIntegrityAlert))
}

func TestDefaultContract_UnknownSourceRejected(t *testing.T) {
	c := layer.DefaultContract()
	assert.False(t, c.Allowed(vocab.LayerSource("7"), vocab.PacketBeliefUpdate))
}
