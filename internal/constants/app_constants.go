package constants

import "time"

const (
	// DefaultScoreCacheTTL 评分缓存默认有效期（30-60分钟区间内的调优值，非契约）
	DefaultScoreCacheTTL = 45 * time.Minute

	// DefaultBatchSize 批量评分时每批并发处理的候选人数量
	DefaultBatchSize = 8

	// RankResultCacheDuration 岗位排名结果在Redis中的缓存时长
	RankResultCacheDuration = 30 * time.Minute

	// RankLockDuration 排名请求的分布式锁持有上限
	RankLockDuration = 5 * time.Minute

	// FallbackRankReason AI排名不可用时回退排序使用的统一理由
	FallbackRankReason = "按算法综合得分排序"

	// RepairedRankReason 排名修复阶段补齐缺失候选人时使用的理由
	RepairedRankReason = "排名协作方未覆盖该候选人，按原始顺序补齐"
)
