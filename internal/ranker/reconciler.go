package ranker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talent-rank-go/internal/constants"
	"talent-rank-go/internal/logger"
	"talent-rank-go/internal/tracing"
	"talent-rank-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var reconcilerTracer = otel.Tracer("talent-rank-go/ranker/reconciler")

// RankStore 排名协调器依赖的存储能力
type RankStore interface {
	GetJob(ctx context.Context, jobID string) (*types.Job, error)
	ListJobCandidates(ctx context.Context, jobID string) ([]string, error)
	GetCandidate(ctx context.Context, candidateID string) (*types.Candidate, error)
	GetScore(ctx context.Context, jobID, candidateID string) (*types.ScoreBreakdown, error)
	SaveScore(ctx context.Context, score *types.ScoreBreakdown, contentHash string) error
	UpdateAIRanking(ctx context.Context, jobID string, ranked []types.RankedCandidate) error
}

// RankProvider 外部排名协作方，返回的三元组可能不完整、重复或越界
type RankProvider interface {
	Rank(ctx context.Context, job types.JobSummary, candidates []types.CandidateSummary) ([]types.RankItem, error)
}

// RankCache 跨进程的排名结果缓存与重入保护，可为nil（单机部署时）
type RankCache interface {
	GetCachedRankResult(ctx context.Context, jobID string) ([]types.RankedCandidate, error)
	CacheRankResult(ctx context.Context, jobID string, ranked []types.RankedCandidate, ttl time.Duration) error
	InvalidateRankResult(ctx context.Context, jobID string) error
	AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error)
	ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error)
}

// Reconciler AI排名协调器：准备摘要、调度外部排名、修复序列、落库。
// 对外保证无论协作方返回什么，结果都是完整的1..N排名。
type Reconciler struct {
	store          RankStore
	provider       RankProvider
	cache          RankCache
	defaultWeights types.ScoreWeights
	cacheTTL       time.Duration
	lockTTL        time.Duration
}

// NewReconciler 创建排名协调器，cache可为nil
func NewReconciler(store RankStore, provider RankProvider, cache RankCache, defaultWeights types.ScoreWeights) *Reconciler {
	return &Reconciler{
		store:          store,
		provider:       provider,
		cache:          cache,
		defaultWeights: defaultWeights,
		cacheTTL:       constants.RankResultCacheDuration,
		lockTTL:        constants.RankLockDuration,
	}
}

// RankCandidatesForJob 对岗位候选池生成完整排名。
// AI协作方失败时静默降级为按确定性总分排序，调用方永远收到完整结果；
// 只有岗位不存在或存储故障才作为错误返回。
func (r *Reconciler) RankCandidatesForJob(ctx context.Context, jobID string) ([]types.RankedCandidate, error) {
	ctx, span := reconcilerTracer.Start(ctx, "RankCandidatesForJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	if r.cache != nil {
		if cached, err := r.cache.GetCachedRankResult(ctx, jobID); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	// 重入保护：拿不到锁也继续执行，锁只用于减少重复的协作方调用
	var lockValue string
	lockKey := fmt.Sprintf(constants.KeyRankLock, jobID)
	if r.cache != nil {
		if v, err := r.cache.AcquireLock(ctx, lockKey, r.lockTTL); err == nil && v != "" {
			lockValue = v
			defer func() {
				if _, err := r.cache.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockValue); err != nil {
					logger.Ctx(ctx).Warn().Err(err).Str("job_id", jobID).Msg("释放排名锁失败")
				}
			}()
		} else if cached, cacheErr := r.cache.GetCachedRankResult(ctx, jobID); cacheErr == nil {
			// 其他进程正在排名或刚完成，复用其结果
			return cached, nil
		}
	}

	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	allIDs, err := r.store.ListJobCandidates(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(allIDs) == 0 {
		return []types.RankedCandidate{}, nil
	}

	candidateIDs, summaries, scores, err := r.prepare(ctx, jobID, allIDs)
	if err != nil {
		return nil, err
	}
	if len(candidateIDs) == 0 {
		return []types.RankedCandidate{}, nil
	}

	var ranked []types.RankedCandidate
	items, err := r.provider.Rank(ctx, BuildJobSummary(job), summaries)
	if err != nil {
		// AI不可用不是硬失败，降级为算法得分排序
		logger.Ctx(ctx).Warn().Err(err).Str("job_id", jobID).Msg("排名协作方失败，降级为算法得分排序")
		tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeLLM, attribute.Bool("rank.fallback", true))
		ranked = FallbackRanking(candidateIDs, scores)
	} else {
		ranked = RepairRanking(items, candidateIDs)
	}

	if err := r.persist(ctx, jobID, ranked, scores); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.CacheRankResult(ctx, jobID, ranked, r.cacheTTL); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("job_id", jobID).Msg("写入排名缓存失败")
		}
	}
	return ranked, nil
}

// InvalidateJob 清除岗位的跨进程排名缓存，岗位要求变更后调用
func (r *Reconciler) InvalidateJob(ctx context.Context, jobID string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.InvalidateRankResult(ctx, jobID)
}

// prepare 构建候选人摘要。已失效的候选人被跳过，存储故障则中止。
func (r *Reconciler) prepare(ctx context.Context, jobID string, allIDs []string) ([]string, []types.CandidateSummary, map[string]*types.ScoreBreakdown, error) {
	candidateIDs := make([]string, 0, len(allIDs))
	summaries := make([]types.CandidateSummary, 0, len(allIDs))
	scores := make(map[string]*types.ScoreBreakdown, len(allIDs))

	for _, id := range allIDs {
		candidate, err := r.store.GetCandidate(ctx, id)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				continue
			}
			return nil, nil, nil, err
		}

		score, err := r.store.GetScore(ctx, jobID, id)
		if err != nil {
			if !errors.Is(err, types.ErrNotFound) {
				return nil, nil, nil, err
			}
			score = nil // 尚未评分，摘要中总分为0
		}

		candidateIDs = append(candidateIDs, id)
		summaries = append(summaries, BuildCandidateSummary(candidate, score))
		scores[id] = score
	}
	return candidateIDs, summaries, scores, nil
}

// persist 确保每个被排名的候选人都有评分记录，再整批写入AI排名字段。
// 占位记录零分值并带默认权重，不影响后续的确定性重评。
func (r *Reconciler) persist(ctx context.Context, jobID string, ranked []types.RankedCandidate, scores map[string]*types.ScoreBreakdown) error {
	now := time.Now()
	for _, rc := range ranked {
		if scores[rc.CandidateID] != nil {
			continue
		}
		placeholder := &types.ScoreBreakdown{
			CandidateID: rc.CandidateID,
			JobID:       jobID,
			Weights:     r.defaultWeights,
			ScoredAt:    now,
		}
		if err := r.store.SaveScore(ctx, placeholder, ""); err != nil {
			return fmt.Errorf("创建占位评分记录失败: %w", err)
		}
	}
	return r.store.UpdateAIRanking(ctx, jobID, ranked)
}
