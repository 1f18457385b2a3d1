package scoring

import (
	"testing"
	"time"

	"talent-rank-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock 可手动推进的假时钟
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestJob() *types.Job {
	return &types.Job{
		JobID:      "j1",
		Title:      "Backend Engineer",
		MustHave:   []string{"Go"},
		NiceToHave: []string{"Docker"},
	}
}

func TestCacheHitAndTTLExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewScoreCache(45*time.Minute, clock.Now)

	job := newTestJob()
	key := CacheKey("c1", job.JobID, defaultWeights())
	hash := ContentHash("c1", job)
	breakdown := &types.ScoreBreakdown{CandidateID: "c1", JobID: "j1", TotalScore: 88}

	cache.Put(key, job.JobID, hash, breakdown)

	got, ok := cache.Get(key, hash)
	require.True(t, ok)
	assert.Equal(t, breakdown, got)

	// TTL内命中，过期后视为不存在
	clock.Advance(44 * time.Minute)
	_, ok = cache.Get(key, hash)
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = cache.Get(key, hash)
	assert.False(t, ok)
}

func TestCacheContentHashMismatch(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	cache := NewScoreCache(45*time.Minute, clock.Now)

	job := newTestJob()
	key := CacheKey("c1", job.JobID, defaultWeights())
	cache.Put(key, job.JobID, ContentHash("c1", job), &types.ScoreBreakdown{TotalScore: 88})

	// 岗位技能变化后哈希不同，TTL内也不应命中
	changed := *job
	changed.MustHave = []string{"Go", "Rust"}
	_, ok := cache.Get(key, ContentHash("c1", &changed))
	assert.False(t, ok)
}

func TestCacheKeyIncludesWeights(t *testing.T) {
	w1 := defaultWeights()
	w2 := defaultWeights()
	w2.Skills = 0.9

	assert.NotEqual(t, CacheKey("c1", "j1", w1), CacheKey("c1", "j1", w2))
	assert.Equal(t, CacheKey("c1", "j1", w1), CacheKey("c1", "j1", defaultWeights()))
}

func TestCacheClear(t *testing.T) {
	cache := NewScoreCache(45*time.Minute, nil)
	jobA := newTestJob()
	jobB := &types.Job{JobID: "j2", MustHave: []string{"Python"}}

	cache.Put(CacheKey("c1", "j1", defaultWeights()), "j1", ContentHash("c1", jobA), &types.ScoreBreakdown{})
	cache.Put(CacheKey("c2", "j1", defaultWeights()), "j1", ContentHash("c2", jobA), &types.ScoreBreakdown{})
	cache.Put(CacheKey("c1", "j2", defaultWeights()), "j2", ContentHash("c1", jobB), &types.ScoreBreakdown{})
	require.Equal(t, 3, cache.Len())

	// 按岗位清除
	cache.Clear("j1")
	assert.Equal(t, 1, cache.Len())

	// 全量清除
	cache.Clear("")
	assert.Zero(t, cache.Len())
}

func TestCacheReturnsCopy(t *testing.T) {
	cache := NewScoreCache(45*time.Minute, nil)
	job := newTestJob()
	key := CacheKey("c1", job.JobID, defaultWeights())
	hash := ContentHash("c1", job)

	stored := &types.ScoreBreakdown{
		TotalScore:      88,
		MissingMustHave: []string{"kubernetes"},
	}
	cache.Put(key, job.JobID, hash, stored)
	stored.MissingMustHave[0] = "写入后修改原值" // 写入方后续修改不应影响缓存

	first, ok := cache.Get(key, hash)
	require.True(t, ok)
	first.TotalScore = 1 // 调用方修改不应污染缓存
	first.MissingMustHave[0] = "读取后修改副本"

	second, ok := cache.Get(key, hash)
	require.True(t, ok)
	assert.Equal(t, 88, second.TotalScore)
	assert.Equal(t, []string{"kubernetes"}, second.MissingMustHave)
}
