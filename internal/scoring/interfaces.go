package scoring

import (
	"context"

	"talent-rank-go/internal/types"
)

// ScoreStore 评分子系统依赖的存储能力
type ScoreStore interface {
	// GetJob 获取岗位与技能要求，不存在时返回包装了types.ErrNotFound的错误
	GetJob(ctx context.Context, jobID string) (*types.Job, error)

	// GetCandidate 获取候选人信息，不存在时返回包装了types.ErrNotFound的错误
	GetCandidate(ctx context.Context, candidateID string) (*types.Candidate, error)

	// GetScore 读取已持久化的评分结果
	GetScore(ctx context.Context, jobID, candidateID string) (*types.ScoreBreakdown, error)

	// SaveScore 持久化评分结果，upsert语义
	SaveScore(ctx context.Context, score *types.ScoreBreakdown, contentHash string) error
}

// SimilarityProvider 外部文本相似度协作方，返回[0,1]区间的相似度
type SimilarityProvider interface {
	Similarity(ctx context.Context, textA, textB string) (float64, error)
}
