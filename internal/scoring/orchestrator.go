package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"talent-rank-go/internal/constants"
	"talent-rank-go/internal/logger"
	"talent-rank-go/internal/tracing"
	"talent-rank-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var orchestratorTracer = otel.Tracer("talent-rank-go/scoring/orchestrator")

// Orchestrator 批量评分编排器：岗位数据取一次，按批并发拉取并评分候选人，
// 结果写穿缓存与存储
type Orchestrator struct {
	store     ScoreStore
	engine    *Engine
	cache     *ScoreCache
	batchSize int
	clock     func() time.Time
}

// NewOrchestrator 创建批量评分编排器，clock为nil时使用系统时钟
func NewOrchestrator(store ScoreStore, engine *Engine, cache *ScoreCache, batchSize int, clock func() time.Time) *Orchestrator {
	if batchSize <= 0 {
		batchSize = constants.DefaultBatchSize
	}
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		store:     store,
		engine:    engine,
		cache:     cache,
		batchSize: batchSize,
		clock:     clock,
	}
}

// ScoreCandidate 对单个候选人评分，缓存命中时直接返回缓存结果
func (o *Orchestrator) ScoreCandidate(ctx context.Context, candidateID, jobID string, weights types.ScoreWeights) (*types.ScoreBreakdown, error) {
	ctx, span := orchestratorTracer.Start(ctx, "ScoreCandidate")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.id", jobID),
		attribute.String("candidate.id", candidateID),
	)

	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}
	return o.scoreOne(ctx, job, candidateID, weights)
}

// BatchScore 对一批候选人评分。无法解析的候选人被静默跳过，
// 返回的map只包含成功评分的候选人；存储故障等其他错误会中止整批并返回。
func (o *Orchestrator) BatchScore(ctx context.Context, candidateIDs []string, jobID string, weights types.ScoreWeights) (map[string]*types.ScoreBreakdown, error) {
	ctx, span := orchestratorTracer.Start(ctx, "BatchScore")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.id", jobID),
		attribute.Int("candidate.count", len(candidateIDs)),
	)

	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}

	results := make(map[string]*types.ScoreBreakdown, len(candidateIDs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error
	sem := make(chan struct{}, o.batchSize)

	for _, candidateID := range candidateIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()

			breakdown, err := o.scoreOne(ctx, job, id, weights)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					// 候选人已不可用，按设计静默跳过
					logger.Ctx(ctx).Debug().Str("candidate_id", id).Msg("候选人不存在，跳过评分")
					return
				}
				// 存储或评分故障不能当作候选人消失处理，必须让调用方感知
				logger.Ctx(ctx).Error().Err(err).Str("candidate_id", id).Msg("候选人评分失败")
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			mu.Lock()
			results[id] = breakdown
			mu.Unlock()
		}(candidateID)
	}
	wg.Wait()

	if firstErr != nil {
		tracing.RecordError(span, firstErr, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("批量评分中止: %w", firstErr)
	}

	span.SetAttributes(attribute.Int("result.count", len(results)))
	return results, nil
}

// ClearCache 清除指定岗位（或全部）的进程内评分缓存
func (o *Orchestrator) ClearCache(jobID string) {
	o.cache.Clear(jobID)
}

// scoreOne 缓存优先的单候选人评分，未命中时重算并写穿缓存与存储
func (o *Orchestrator) scoreOne(ctx context.Context, job *types.Job, candidateID string, weights types.ScoreWeights) (*types.ScoreBreakdown, error) {
	key := CacheKey(candidateID, job.JobID, weights)
	hash := ContentHash(candidateID, job)

	if cached, ok := o.cache.Get(key, hash); ok {
		return cached, nil
	}

	candidate, err := o.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	breakdown := o.engine.Score(ctx, job, candidate, weights, o.clock())

	if err := o.store.SaveScore(ctx, breakdown, hash); err != nil {
		return nil, fmt.Errorf("保存评分结果失败: %w", err)
	}
	o.cache.Put(key, job.JobID, hash, breakdown)

	return breakdown, nil
}
