package ranker

import (
	"testing"

	"talent-rank-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertCompleteRanking 校验结果恰好是候选人集合上的1..N排列
func assertCompleteRanking(t *testing.T, ranked []types.RankedCandidate, candidateIDs []string) {
	t.Helper()
	require.Len(t, ranked, len(candidateIDs))

	seenRanks := make(map[int]bool)
	seenIDs := make(map[string]bool)
	for i, rc := range ranked {
		assert.Equal(t, i+1, rc.Rank, "排名必须从1开始连续")
		assert.False(t, seenRanks[rc.Rank])
		assert.False(t, seenIDs[rc.CandidateID])
		seenRanks[rc.Rank] = true
		seenIDs[rc.CandidateID] = true
	}
	for _, id := range candidateIDs {
		assert.True(t, seenIDs[id], "候选人 %s 必须出现在结果中", id)
	}
}

func TestRepairWellFormed(t *testing.T) {
	ids := []string{"a", "b", "c"}
	items := []types.RankItem{
		{CandidateID: "b", Rank: 1, Reason: "最佳"},
		{CandidateID: "a", Rank: 2, Reason: "次之"},
		{CandidateID: "c", Rank: 3, Reason: "第三"},
	}

	ranked := RepairRanking(items, ids)
	assertCompleteRanking(t, ranked, ids)
	assert.Equal(t, "b", ranked[0].CandidateID)
	assert.Equal(t, "a", ranked[1].CandidateID)
	assert.Equal(t, "c", ranked[2].CandidateID)
}

func TestRepairDuplicateRanks(t *testing.T) {
	ids := []string{"a", "b", "c"}
	// b和c争夺rank 1，先到先得，c被丢弃后按原始顺序补齐
	items := []types.RankItem{
		{CandidateID: "b", Rank: 1},
		{CandidateID: "c", Rank: 1},
		{CandidateID: "a", Rank: 2},
	}

	ranked := RepairRanking(items, ids)
	assertCompleteRanking(t, ranked, ids)
	assert.Equal(t, "b", ranked[0].CandidateID)
	assert.Equal(t, "a", ranked[1].CandidateID)
	assert.Equal(t, "c", ranked[2].CandidateID)
	assert.Equal(t, "排名协作方未覆盖该候选人，按原始顺序补齐", ranked[2].Reason)
}

func TestRepairUnknownCandidatesDropped(t *testing.T) {
	ids := []string{"a", "b"}
	// 未知候选人不占用名额
	items := []types.RankItem{
		{CandidateID: "ghost", Rank: 1},
		{CandidateID: "a", Rank: 2},
		{CandidateID: "b", Rank: 3},
	}

	ranked := RepairRanking(items, ids)
	assertCompleteRanking(t, ranked, ids)
	assert.Equal(t, "a", ranked[0].CandidateID)
	assert.Equal(t, "b", ranked[1].CandidateID)
}

func TestRepairMissingCandidatesAppended(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	items := []types.RankItem{
		{CandidateID: "c", Rank: 1},
	}

	ranked := RepairRanking(items, ids)
	assertCompleteRanking(t, ranked, ids)
	// 未覆盖者按原始顺序追加在已接受的最大rank之后
	assert.Equal(t, "c", ranked[0].CandidateID)
	assert.Equal(t, "a", ranked[1].CandidateID)
	assert.Equal(t, "b", ranked[2].CandidateID)
	assert.Equal(t, "d", ranked[3].CandidateID)
}

func TestRepairOutOfRangeAndDuplicateIDs(t *testing.T) {
	ids := []string{"a", "b", "c"}
	items := []types.RankItem{
		{CandidateID: "a", Rank: 0},   // rank<1视为未认领
		{CandidateID: "b", Rank: -5},  // 同上
		{CandidateID: "c", Rank: 100}, // 越界rank允许，重新编号会压缩
		{CandidateID: "c", Rank: 1},   // 重复候选人丢弃
	}

	ranked := RepairRanking(items, ids)
	assertCompleteRanking(t, ranked, ids)
	// c占据rank 100，a、b追加到101、102，重新编号后c仍在首位
	assert.Equal(t, "c", ranked[0].CandidateID)
	assert.Equal(t, "a", ranked[1].CandidateID)
	assert.Equal(t, "b", ranked[2].CandidateID)
}

func TestRepairEmptyInput(t *testing.T) {
	ids := []string{"a", "b"}
	ranked := RepairRanking(nil, ids)
	assertCompleteRanking(t, ranked, ids)
	assert.Equal(t, "a", ranked[0].CandidateID)
	assert.Equal(t, "b", ranked[1].CandidateID)
}

func TestFallbackRanking(t *testing.T) {
	ids := []string{"a", "b", "c"}
	scores := map[string]*types.ScoreBreakdown{
		"a": {TotalScore: 60},
		"b": {TotalScore: 90},
		// c无评分记录，按0分处理
	}

	ranked := FallbackRanking(ids, scores)
	assertCompleteRanking(t, ranked, ids)
	assert.Equal(t, "b", ranked[0].CandidateID)
	assert.Equal(t, "a", ranked[1].CandidateID)
	assert.Equal(t, "c", ranked[2].CandidateID)
	for _, rc := range ranked {
		assert.Equal(t, "按算法综合得分排序", rc.Reason)
	}
}
