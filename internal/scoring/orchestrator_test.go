package scoring

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"talent-rank-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore 内存存储，记录各方法调用次数
type mockStore struct {
	mu         sync.Mutex
	jobs       map[string]*types.Job
	candidates map[string]*types.Candidate
	scores     map[string]*types.ScoreBreakdown // key: jobID|candidateID

	getCandidateCalls int
	saveScoreCalls    int
	saveErr           error
}

func newMockStore() *mockStore {
	return &mockStore{
		jobs:       make(map[string]*types.Job),
		candidates: make(map[string]*types.Candidate),
		scores:     make(map[string]*types.ScoreBreakdown),
	}
}

func (m *mockStore) GetJob(ctx context.Context, jobID string) (*types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("岗位 %s: %w", jobID, types.ErrNotFound)
	}
	return job, nil
}

func (m *mockStore) GetCandidate(ctx context.Context, candidateID string) (*types.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCandidateCalls++
	c, ok := m.candidates[candidateID]
	if !ok {
		return nil, fmt.Errorf("候选人 %s: %w", candidateID, types.ErrNotFound)
	}
	return c, nil
}

func (m *mockStore) GetScore(ctx context.Context, jobID, candidateID string) (*types.ScoreBreakdown, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scores[jobID+"|"+candidateID]
	if !ok {
		return nil, fmt.Errorf("评分记录 %s/%s: %w", jobID, candidateID, types.ErrNotFound)
	}
	return s, nil
}

func (m *mockStore) SaveScore(ctx context.Context, score *types.ScoreBreakdown, contentHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveScoreCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *score
	m.scores[score.JobID+"|"+score.CandidateID] = &copied
	return nil
}

func newTestOrchestrator(store ScoreStore, clock func() time.Time) *Orchestrator {
	engine := NewEngine(NewNormalizer(), nil, 0)
	cache := NewScoreCache(45*time.Minute, clock)
	return NewOrchestrator(store, engine, cache, 4, clock)
}

func seedStore(store *mockStore) {
	store.jobs["j1"] = &types.Job{
		JobID:    "j1",
		Title:    "Backend Engineer",
		MustHave: []string{"Go", "MySQL"},
	}
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("c%d", i)
		store.candidates[id] = &types.Candidate{
			CandidateID:     id,
			Name:            fmt.Sprintf("候选人%d", i),
			YearsExperience: floatPtr(float64(i * 2)),
			LastRoleTitle:   "Backend Developer",
			Skills:          []string{"golang", "mysql"},
		}
	}
}

func TestScoreCandidate(t *testing.T) {
	store := newMockStore()
	seedStore(store)
	orch := newTestOrchestrator(store, nil)

	breakdown, err := orch.ScoreCandidate(context.Background(), "c1", "j1", defaultWeights())
	require.NoError(t, err)
	assert.Equal(t, "c1", breakdown.CandidateID)
	assert.Equal(t, "j1", breakdown.JobID)
	assert.InDelta(t, 100.0, breakdown.SkillMatchScore, 1e-9)

	// 评分应已写穿到存储
	assert.Equal(t, 1, store.saveScoreCalls)
	saved, err := store.GetScore(context.Background(), "j1", "c1")
	require.NoError(t, err)
	assert.Equal(t, breakdown.TotalScore, saved.TotalScore)
}

func TestScoreCandidateJobNotFound(t *testing.T) {
	store := newMockStore()
	orch := newTestOrchestrator(store, nil)

	_, err := orch.ScoreCandidate(context.Background(), "c1", "missing", defaultWeights())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBatchScoreOmitsMissingCandidates(t *testing.T) {
	store := newMockStore()
	seedStore(store)
	orch := newTestOrchestrator(store, nil)

	ids := []string{"c1", "ghost", "c2"}
	results, err := orch.BatchScore(context.Background(), ids, "j1", defaultWeights())
	require.NoError(t, err)

	// 不存在的候选人被静默跳过，不算错误
	assert.Len(t, results, 2)
	assert.Contains(t, results, "c1")
	assert.Contains(t, results, "c2")
	assert.NotContains(t, results, "ghost")
}

func TestBatchScoreCacheHit(t *testing.T) {
	store := newMockStore()
	seedStore(store)
	clock := &fakeClock{now: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	orch := newTestOrchestrator(store, clock.Now)

	ids := []string{"c1", "c2", "c3"}
	first, err := orch.BatchScore(context.Background(), ids, "j1", defaultWeights())
	require.NoError(t, err)
	require.Len(t, first, 3)
	fetchesAfterFirst := store.getCandidateCalls

	// TTL内二次调用：结果逐位一致且不触发任何重算
	second, err := orch.BatchScore(context.Background(), ids, "j1", defaultWeights())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, fetchesAfterFirst, store.getCandidateCalls)
	assert.Equal(t, 3, store.saveScoreCalls)
}

func TestBatchScoreWeightsChangeBypassesCache(t *testing.T) {
	store := newMockStore()
	seedStore(store)
	orch := newTestOrchestrator(store, nil)

	ids := []string{"c1"}
	_, err := orch.BatchScore(context.Background(), ids, "j1", defaultWeights())
	require.NoError(t, err)

	// 权重变化后缓存键不同，必须重算
	changed := defaultWeights()
	changed.Skills = 0.9
	changed.Title = 0.1
	changed.Seniority = 0
	changed.Recency = 0
	changed.Gaps = 0
	_, err = orch.BatchScore(context.Background(), ids, "j1", changed)
	require.NoError(t, err)
	assert.Equal(t, 2, store.getCandidateCalls)
}

func TestClearCacheForcesRecompute(t *testing.T) {
	store := newMockStore()
	seedStore(store)
	orch := newTestOrchestrator(store, nil)

	_, err := orch.ScoreCandidate(context.Background(), "c1", "j1", defaultWeights())
	require.NoError(t, err)
	require.Equal(t, 1, store.getCandidateCalls)

	orch.ClearCache("j1")

	_, err = orch.ScoreCandidate(context.Background(), "c1", "j1", defaultWeights())
	require.NoError(t, err)
	assert.Equal(t, 2, store.getCandidateCalls)
}

func TestBatchScorePersistenceFailureSurfaced(t *testing.T) {
	store := newMockStore()
	seedStore(store)
	store.saveErr = fmt.Errorf("写入评分记录失败: %w", types.ErrPersistence)
	orch := newTestOrchestrator(store, nil)

	// 写穿失败不是候选人消失，整批必须以错误中止而非返回空结果
	results, err := orch.BatchScore(context.Background(), []string{"c1", "c2", "c3"}, "j1", defaultWeights())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPersistence)
	assert.Nil(t, results)
}

func TestScoreCandidatePersistenceFailure(t *testing.T) {
	store := newMockStore()
	seedStore(store)
	store.saveErr = fmt.Errorf("写入评分记录失败: %w", types.ErrPersistence)
	orch := newTestOrchestrator(store, nil)

	_, err := orch.ScoreCandidate(context.Background(), "c1", "j1", defaultWeights())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPersistence)
}
