package ranker

import (
	"context"
	"fmt"
	"testing"

	"talent-rank-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockChatModel 固定应答的聊天模型
type mockChatModel struct {
	content string
	err     error
	calls   int
}

func (m *mockChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.content}, nil
}

func (m *mockChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, messages, options...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *mockChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func testSummaries() (types.JobSummary, []types.CandidateSummary) {
	job := types.JobSummary{JobID: "j1", Title: "Backend Engineer", MustHave: []string{"Go"}}
	candidates := []types.CandidateSummary{
		{CandidateID: "a", Name: "甲", TotalScore: 80},
		{CandidateID: "b", Name: "乙", TotalScore: 90},
	}
	return job, candidates
}

func TestRankSuccess(t *testing.T) {
	m := &mockChatModel{content: `根据分析，排名如下：
{"rankings": [{"candidate_id": "b", "rank": 1, "reason": "技能全面"}, {"candidate_id": "a", "rank": 2, "reason": "经验稍弱"}]}`}
	r, err := NewLLMRanker([]NamedModel{{Name: "qwen-max", Model: m}}, 0)
	require.NoError(t, err)

	job, candidates := testSummaries()
	items, err := r.Rank(context.Background(), job, candidates)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].CandidateID)
	assert.Equal(t, 1, items[0].Rank)
}

func TestRankFallbackToSecondModel(t *testing.T) {
	primary := &mockChatModel{err: fmt.Errorf("503 服务器繁忙")}
	backup := &mockChatModel{content: `{"rankings": [{"candidate_id": "a", "rank": 1, "reason": "ok"}]}`}
	r, err := NewLLMRanker([]NamedModel{
		{Name: "qwen-max", Model: primary},
		{Name: "qwen-plus", Model: backup},
	}, 0)
	require.NoError(t, err)

	job, candidates := testSummaries()
	items, err := r.Rank(context.Background(), job, candidates)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, backup.calls)
}

func TestRankAllModelsFail(t *testing.T) {
	m := &mockChatModel{err: fmt.Errorf("连接超时")}
	r, err := NewLLMRanker([]NamedModel{{Name: "qwen-max", Model: m}}, 0)
	require.NoError(t, err)

	job, candidates := testSummaries()
	_, err = r.Rank(context.Background(), job, candidates)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUpstreamUnavailable)
}

func TestRankMalformedResponse(t *testing.T) {
	m := &mockChatModel{content: "抱歉，我无法完成排名任务。"}
	r, err := NewLLMRanker([]NamedModel{{Name: "qwen-max", Model: m}}, 0)
	require.NoError(t, err)

	job, candidates := testSummaries()
	_, err = r.Rank(context.Background(), job, candidates)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMalformedResponse)
}

func TestParseRankResponse(t *testing.T) {
	// 前后有杂质文本
	items, err := parseRankResponse(`说明文字 {"rankings": [{"candidate_id": "x", "rank": 1, "reason": "好"}]} 结尾`)
	require.NoError(t, err)
	assert.Equal(t, "x", items[0].CandidateID)

	// 空rankings
	_, err = parseRankResponse(`{"rankings": []}`)
	assert.ErrorIs(t, err, types.ErrMalformedResponse)

	// 缺少candidate_id
	_, err = parseRankResponse(`{"rankings": [{"rank": 1, "reason": "好"}]}`)
	assert.ErrorIs(t, err, types.ErrMalformedResponse)

	// 完全不是JSON
	_, err = parseRankResponse(`无法排名`)
	assert.ErrorIs(t, err, types.ErrMalformedResponse)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, extractJSON(`前缀 {"a": 1} 后缀`))
	assert.Equal(t, `{"a": {"b": 2}}`, extractJSON(`{"a": {"b": 2}}`))
	// 字符串内的花括号不影响配对
	assert.Equal(t, `{"a": "}{"}`, extractJSON(`{"a": "}{"}`))
	assert.Empty(t, extractJSON("没有JSON"))
	assert.Empty(t, extractJSON(`{"未闭合": 1`))
}

func TestSanitizeJSON(t *testing.T) {
	// 字符串内部未转义的引号被改写
	fixed := sanitizeJSON(`{"reason": "他说"很好"的评价"}`)
	assert.JSONEq(t, `{"reason": "他说\"很好\"的评价"}`, fixed)

	// 合法JSON保持不变
	legal := `{"a": "b", "c": [1, 2]}`
	assert.Equal(t, legal, sanitizeJSON(legal))
}
