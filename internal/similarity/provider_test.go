package similarity

import (
	"context"
	"fmt"
	"testing"

	"talent-rank-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder 返回预设向量的Embedder
type stubEmbedder struct {
	vectors [][]float64
	err     error
}

func (s *stubEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors, nil
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 0}, []float64{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)

	// 异常输入不报错，返回0
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float64{1, 2}, []float64{1}))
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 1}))
}

func TestSimilarity(t *testing.T) {
	p := NewProvider(&stubEmbedder{vectors: [][]float64{{1, 1}, {1, 0}}})

	sim, err := p.Similarity(context.Background(), "后端工程师", "服务端开发")
	require.NoError(t, err)
	assert.InDelta(t, 0.7071, sim, 1e-3)
}

func TestSimilarityNegativeClamped(t *testing.T) {
	p := NewProvider(&stubEmbedder{vectors: [][]float64{{1, 0}, {-1, 0}}})

	sim, err := p.Similarity(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Zero(t, sim)
}

func TestSimilarityUpstreamError(t *testing.T) {
	p := NewProvider(&stubEmbedder{err: fmt.Errorf("连接超时")})

	_, err := p.Similarity(context.Background(), "a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUpstreamUnavailable)
}
