package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantlabs/dossier/ai"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(ai.NewConfig())
	require.NoError(t, err)
	defer provider.Close()

	assert.NotNil(t, provider.Embedder())
	assert.NotNil(t, provider.Completer())
}

func TestNewProviderInvalidConfig(t *testing.T) {
	_, err := NewProvider(&ai.Config{})
	assert.Error(t, err)
}

func TestStandaloneConstructors(t *testing.T) {
	cfg := ai.NewConfig()

	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)
	assert.NotNil(t, embedder)

	completer, err := NewCompleter(cfg)
	require.NoError(t, err)
	assert.NotNil(t, completer)
}
