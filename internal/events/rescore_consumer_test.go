package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"talent-rank-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	queue    string
	prefetch int
	handler  func([]byte) bool
}

func (f *fakeQueue) StartConsumer(queueName string, prefetchCount int, handler func([]byte) bool) (chan<- struct{}, error) {
	f.queue = queueName
	f.prefetch = prefetchCount
	f.handler = handler
	return make(chan struct{}), nil
}

type fakeRescoreStore struct {
	candidates map[string][]string
	listErr    error
}

func (f *fakeRescoreStore) ListJobCandidates(ctx context.Context, jobID string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.candidates[jobID], nil
}

type fakeRescorer struct {
	clearedJobs []string
	scoredJobs  []string
	scoredIDs   []string
	batchErr    error
}

func (f *fakeRescorer) ClearCache(jobID string) {
	f.clearedJobs = append(f.clearedJobs, jobID)
}

func (f *fakeRescorer) BatchScore(ctx context.Context, candidateIDs []string, jobID string, weights types.ScoreWeights) (map[string]*types.ScoreBreakdown, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	f.scoredJobs = append(f.scoredJobs, jobID)
	f.scoredIDs = candidateIDs
	results := make(map[string]*types.ScoreBreakdown, len(candidateIDs))
	for _, id := range candidateIDs {
		results[id] = &types.ScoreBreakdown{CandidateID: id, JobID: jobID}
	}
	return results, nil
}

type fakeInvalidator struct {
	invalidated []string
	err         error
}

func (f *fakeInvalidator) InvalidateJob(ctx context.Context, jobID string) error {
	f.invalidated = append(f.invalidated, jobID)
	return f.err
}

func startTestConsumer(t *testing.T, store *fakeRescoreStore, scorer *fakeRescorer, ranks *fakeInvalidator) *fakeQueue {
	t.Helper()
	mq := &fakeQueue{}
	c := NewRescoreConsumer(mq, store, scorer, ranks, types.ScoreWeights{Skills: 1}, "q.job_rescore", 10)
	_, err := c.Start()
	require.NoError(t, err)
	require.NotNil(t, mq.handler)
	assert.Equal(t, "q.job_rescore", mq.queue)
	return mq
}

func eventBody(t *testing.T, jobID string) []byte {
	t.Helper()
	body, err := json.Marshal(types.JobUpdatedEvent{
		EventID:   "evt-1",
		JobID:     jobID,
		UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	return body
}

func TestRescoreOnJobUpdated(t *testing.T) {
	store := &fakeRescoreStore{candidates: map[string][]string{"j1": {"a", "b"}}}
	scorer := &fakeRescorer{}
	ranks := &fakeInvalidator{}
	mq := startTestConsumer(t, store, scorer, ranks)

	acked := mq.handler(eventBody(t, "j1"))
	assert.True(t, acked)
	assert.Equal(t, []string{"j1"}, scorer.clearedJobs)
	assert.Equal(t, []string{"j1"}, ranks.invalidated)
	assert.Equal(t, []string{"a", "b"}, scorer.scoredIDs)
}

func TestRescoreMalformedEventDiscarded(t *testing.T) {
	store := &fakeRescoreStore{}
	scorer := &fakeRescorer{}
	ranks := &fakeInvalidator{}
	mq := startTestConsumer(t, store, scorer, ranks)

	// 畸形消息必须确认丢弃而不是重新入队
	assert.True(t, mq.handler([]byte("not json")))
	assert.True(t, mq.handler(eventBody(t, "")))
	assert.Empty(t, scorer.clearedJobs)
}

func TestRescoreEmptyPoolAcked(t *testing.T) {
	store := &fakeRescoreStore{candidates: map[string][]string{}}
	scorer := &fakeRescorer{}
	ranks := &fakeInvalidator{}
	mq := startTestConsumer(t, store, scorer, ranks)

	acked := mq.handler(eventBody(t, "j1"))
	assert.True(t, acked)
	assert.Empty(t, scorer.scoredJobs)
	// 缓存失效仍需执行
	assert.Equal(t, []string{"j1"}, scorer.clearedJobs)
}

func TestRescoreStoreFailureRequeued(t *testing.T) {
	store := &fakeRescoreStore{listErr: fmt.Errorf("连接中断")}
	scorer := &fakeRescorer{}
	ranks := &fakeInvalidator{}
	mq := startTestConsumer(t, store, scorer, ranks)

	assert.False(t, mq.handler(eventBody(t, "j1")))
}

func TestRescoreBatchFailureRequeued(t *testing.T) {
	store := &fakeRescoreStore{candidates: map[string][]string{"j1": {"a"}}}
	scorer := &fakeRescorer{batchErr: fmt.Errorf("存储故障")}
	ranks := &fakeInvalidator{}
	mq := startTestConsumer(t, store, scorer, ranks)

	assert.False(t, mq.handler(eventBody(t, "j1")))
}

func TestRescoreInvalidatorFailureStillScores(t *testing.T) {
	store := &fakeRescoreStore{candidates: map[string][]string{"j1": {"a"}}}
	scorer := &fakeRescorer{}
	ranks := &fakeInvalidator{err: fmt.Errorf("redis不可用")}
	mq := startTestConsumer(t, store, scorer, ranks)

	// 排名缓存失效失败只告警，不阻断重评
	acked := mq.handler(eventBody(t, "j1"))
	assert.True(t, acked)
	assert.Equal(t, []string{"j1"}, scorer.scoredJobs)
}
