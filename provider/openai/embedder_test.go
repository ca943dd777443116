package openai

import (
	"testing"

	"github.com/engramhq/engram/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderEmbeddings(t *testing.T) {
	t.Run("reorders by reported index", func(t *testing.T) {
		embeddings, err := orderEmbeddings([]openai.Embedding{
			{Index: 1, Embedding: []float32{2}},
			{Index: 0, Embedding: []float32{1}},
		}, 2)
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{1}, {2}}, embeddings)
	})

	t.Run("count mismatch is a provider error", func(t *testing.T) {
		_, err := orderEmbeddings([]openai.Embedding{{Index: 0}}, 2)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrProvider))
	})

	t.Run("out-of-range index is a provider error", func(t *testing.T) {
		_, err := orderEmbeddings([]openai.Embedding{
			{Index: 0, Embedding: []float32{1}},
			{Index: 2, Embedding: []float32{2}},
		}, 2)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrProvider))
	})

	t.Run("duplicate index is a provider error", func(t *testing.T) {
		_, err := orderEmbeddings([]openai.Embedding{
			{Index: 0, Embedding: []float32{1}},
			{Index: 0, Embedding: []float32{2}},
		}, 2)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrProvider))
	})
}
