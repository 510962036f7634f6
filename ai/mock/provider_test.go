package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderDefaults(t *testing.T) {
	provider := NewMockProvider()

	vector, err := provider.Embedder().EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vector, 384)

	assert.NoError(t, provider.Close())
}

func TestMockProviderWithServices(t *testing.T) {
	embedder := NewMockEmbedder()
	completer := NewMockCompleter("canned")

	provider := NewMockProviderWithServices(embedder, completer).(*MockProvider)
	assert.Same(t, embedder, provider.GetMockEmbedder())
	assert.Same(t, completer, provider.GetMockCompleter())

	out, err := provider.Completer().Complete(context.Background(), "sys", "hi")
	require.NoError(t, err)
	assert.Equal(t, "canned", out)
	assert.Equal(t, 1, completer.CallCount())
}
