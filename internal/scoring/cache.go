package scoring

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"talent-rank-go/internal/constants"
	"talent-rank-go/internal/types"
)

// ScoreCache 进程内评分缓存，TTL与内容哈希双重校验。
// 丢失整个缓存只影响性能不影响正确性，不提供跨进程一致性。
type ScoreCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	clock   func() time.Time // 可注入，测试时替换为假时钟
}

type cacheEntry struct {
	breakdown   types.ScoreBreakdown
	contentHash string
	jobID       string
	storedAt    time.Time
}

// NewScoreCache 创建评分缓存，ttl非正时取默认值，clock为nil时使用系统时钟
func NewScoreCache(ttl time.Duration, clock func() time.Time) *ScoreCache {
	if ttl <= 0 {
		ttl = constants.DefaultScoreCacheTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &ScoreCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

// CacheKey 生成稳定的缓存键，权重参与键值使不同权重的评分互不干扰
func CacheKey(candidateID, jobID string, weights types.ScoreWeights) string {
	w, _ := json.Marshal(weights)
	return fmt.Sprintf("%s|%s|%s", candidateID, jobID, w)
}

// ContentHash 计算影响评分的输入指纹：候选人ID、岗位ID与岗位技能要求。
// 岗位技能变化后旧缓存条目即失效，与TTL无关。
func ContentHash(candidateID string, job *types.Job) string {
	var b strings.Builder
	b.WriteString(candidateID)
	b.WriteByte('|')
	b.WriteString(job.JobID)
	b.WriteString("|must:")
	b.WriteString(strings.Join(job.MustHave, ","))
	b.WriteString("|nice:")
	b.WriteString(strings.Join(job.NiceToHave, ","))
	return fmt.Sprintf("%x", md5.Sum([]byte(b.String())))
}

// Get 读取缓存，仅当未过期且内容哈希一致时命中
func (c *ScoreCache) Get(key, contentHash string) (*types.ScoreBreakdown, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.clock().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	if entry.contentHash != contentHash {
		return nil, false
	}

	// 返回副本，避免调用方修改影响缓存
	breakdown := copyBreakdown(entry.breakdown)
	return &breakdown, true
}

// Put 写入缓存，同键覆盖
func (c *ScoreCache) Put(key, jobID, contentHash string, breakdown *types.ScoreBreakdown) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		breakdown:   copyBreakdown(*breakdown),
		contentHash: contentHash,
		jobID:       jobID,
		storedAt:    c.clock(),
	}
}

// copyBreakdown 深拷贝切片字段，缓存条目与调用方互不共享底层数组
func copyBreakdown(b types.ScoreBreakdown) types.ScoreBreakdown {
	if b.MissingMustHave != nil {
		b.MissingMustHave = append([]string(nil), b.MissingMustHave...)
	}
	return b
}

// Clear 清除指定岗位的全部缓存条目，jobID为空串时清空整个缓存
func (c *ScoreCache) Clear(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if jobID == "" {
		c.entries = make(map[string]cacheEntry)
		return
	}
	for key, entry := range c.entries {
		if entry.jobID == jobID {
			delete(c.entries, key)
		}
	}
}

// Len 当前缓存条目数，仅用于观测
func (c *ScoreCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
