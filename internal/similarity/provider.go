package similarity

import (
	"context"
	"fmt"
	"math"

	"talent-rank-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
)

// Provider 基于文本向量余弦相似度的相似度协作方
type Provider struct {
	embedder embedding.Embedder
}

// NewProvider 创建相似度协作方
func NewProvider(embedder embedding.Embedder) *Provider {
	return &Provider{embedder: embedder}
}

// Similarity 计算两段文本的语义相似度，返回[0,1]区间值。
// 上游失败时错误包装types.ErrUpstreamUnavailable，由调用方决定回退策略。
func (p *Provider) Similarity(ctx context.Context, textA, textB string) (float64, error) {
	vectors, err := p.embedder.EmbedStrings(ctx, []string{textA, textB})
	if err != nil {
		return 0, fmt.Errorf("获取文本向量失败: %w: %v", types.ErrUpstreamUnavailable, err)
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("向量数量异常: %w", types.ErrMalformedResponse)
	}

	sim := Cosine(vectors[0], vectors[1])
	// 余弦值可能为负，压到[0,1]
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim, nil
}

// Cosine 计算两个向量的余弦相似度，维度不一致或零向量返回0
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
