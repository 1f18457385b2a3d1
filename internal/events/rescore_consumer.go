package events

import (
	"context"
	"encoding/json"
	"time"

	"talent-rank-go/internal/logger"
	"talent-rank-go/internal/types"
)

// rescoreTimeout 单个岗位全量重评的处理上限
const rescoreTimeout = 5 * time.Minute

// RescoreStore 重评消费者依赖的存储能力
type RescoreStore interface {
	ListJobCandidates(ctx context.Context, jobID string) ([]string, error)
}

// Rescorer 批量评分能力，由评分编排器实现
type Rescorer interface {
	ClearCache(jobID string)
	BatchScore(ctx context.Context, candidateIDs []string, jobID string, weights types.ScoreWeights) (map[string]*types.ScoreBreakdown, error)
}

// RankInvalidator 排名缓存失效能力，由排名协调器实现
type RankInvalidator interface {
	InvalidateJob(ctx context.Context, jobID string) error
}

// QueueConsumer 消息队列消费能力
type QueueConsumer interface {
	StartConsumer(queueName string, prefetchCount int, handler func([]byte) bool) (chan<- struct{}, error)
}

// RescoreConsumer 订阅岗位要求变更事件，失效缓存并对候选池全量重评。
// 重评是幂等操作，事件重复投递不会产生副作用。
type RescoreConsumer struct {
	mq       QueueConsumer
	store    RescoreStore
	scorer   Rescorer
	ranks    RankInvalidator
	weights  types.ScoreWeights
	queue    string
	prefetch int
}

// NewRescoreConsumer 创建岗位重评消费者
func NewRescoreConsumer(mq QueueConsumer, store RescoreStore, scorer Rescorer, ranks RankInvalidator, weights types.ScoreWeights, queue string, prefetch int) *RescoreConsumer {
	if prefetch <= 0 {
		prefetch = 10
	}
	return &RescoreConsumer{
		mq:       mq,
		store:    store,
		scorer:   scorer,
		ranks:    ranks,
		weights:  weights,
		queue:    queue,
		prefetch: prefetch,
	}
}

// Start 启动消费循环，返回的通道关闭后消费者停止
func (c *RescoreConsumer) Start() (chan<- struct{}, error) {
	return c.mq.StartConsumer(c.queue, c.prefetch, c.handleMessage)
}

// handleMessage 处理一条岗位变更事件。返回true确认消息，false则重新入队。
// 畸形消息直接确认丢弃，避免毒消息无限重投。
func (c *RescoreConsumer) handleMessage(body []byte) bool {
	var event types.JobUpdatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Warn().Err(err).Str("body", string(body)).Msg("岗位变更事件格式错误，丢弃")
		return true
	}
	if event.JobID == "" {
		logger.Warn().Str("event_id", event.EventID).Msg("岗位变更事件缺少job_id，丢弃")
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), rescoreTimeout)
	defer cancel()
	return c.process(ctx, event)
}

func (c *RescoreConsumer) process(ctx context.Context, event types.JobUpdatedEvent) bool {
	log := logger.Logger.With().
		Str("event_id", event.EventID).
		Str("job_id", event.JobID).
		Logger()

	// 先失效缓存，保证后续读取拿不到旧岗位要求下的结果
	c.scorer.ClearCache(event.JobID)
	if err := c.ranks.InvalidateJob(ctx, event.JobID); err != nil {
		log.Warn().Err(err).Msg("失效排名缓存失败，继续重评")
	}

	candidateIDs, err := c.store.ListJobCandidates(ctx, event.JobID)
	if err != nil {
		log.Error().Err(err).Msg("获取候选池失败，消息重新入队")
		return false
	}
	if len(candidateIDs) == 0 {
		log.Info().Msg("岗位候选池为空，无需重评")
		return true
	}

	results, err := c.scorer.BatchScore(ctx, candidateIDs, event.JobID, c.weights)
	if err != nil {
		log.Error().Err(err).Msg("岗位全量重评失败，消息重新入队")
		return false
	}

	log.Info().
		Int("pool_size", len(candidateIDs)).
		Int("scored", len(results)).
		Msg("岗位全量重评完成")
	return true
}
