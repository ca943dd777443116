package openai

import (
	"context"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/errors"
	"github.com/engramhq/engram/memory"
	"github.com/sashabaranov/go-openai"
)

// Embedder produces embeddings through the OpenAI embeddings endpoint (or any
// compatible server via BaseURL).
type Embedder struct {
	client *openai.Client
	config *config.OpenAIConfig
}

var (
	_ memory.Embedder = (*Embedder)(nil)
)

func newClient(conf *config.OpenAIConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(conf.APIKey)
	if conf.BaseURL != "" {
		clientConfig.BaseURL = conf.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

func NewEmbedder(conf *config.OpenAIConfig) *Embedder {
	if conf == nil {
		conf = config.NewOpenAIConfig()
	}
	return &Embedder{
		client: newClient(conf),
		config: conf,
	}
}

func (e *Embedder) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.config.EmbeddingModel),
		Dimensions: e.config.EmbeddingDimensions,
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProvider, "embedding request failed: %v", err)
	}
	return orderEmbeddings(resp.Data, len(texts))
}

// orderEmbeddings places each result at its reported input index. The index
// is provider-supplied, so out-of-range or duplicate values are rejected
// rather than trusted.
func orderEmbeddings(data []openai.Embedding, n int) ([][]float32, error) {
	if len(data) != n {
		return nil, errors.Wrapf(errors.ErrProvider, "expected %d embeddings, got %d", n, len(data))
	}

	embeddings := make([][]float32, n)
	for _, d := range data {
		if d.Index < 0 || d.Index >= n {
			return nil, errors.Wrapf(errors.ErrProvider, "embedding index %d out of range", d.Index)
		}
		if embeddings[d.Index] != nil {
			return nil, errors.Wrapf(errors.ErrProvider, "duplicate embedding index %d", d.Index)
		}
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}
