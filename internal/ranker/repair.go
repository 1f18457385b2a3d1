package ranker

import (
	"sort"

	"talent-rank-go/internal/constants"
	"talent-rank-go/internal/types"
)

// RepairRanking 将排名协作方返回的原始三元组修复为完整的1..N序列。
// 输入可能不完整、重复、越界或包含未知候选人；candidateIDs是岗位候选池的
// 权威名单，决定最终序列的成员与补齐顺序。
//
// 规则：
//  1. 按到达顺序接受rank未被占用的条目；重复rank、rank<1、未知或重复的
//     候选人ID一律丢弃，不占用名额
//  2. 未被覆盖的候选人按原始顺序追加到已接受的最大rank之后
//  3. 按rank排序后从1重新连续编号——即使输入已经良构也无条件执行，
//     保证输出永远是{1..N}
func RepairRanking(items []types.RankItem, candidateIDs []string) []types.RankedCandidate {
	known := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		known[id] = true
	}

	claimedRanks := make(map[int]bool)
	covered := make(map[string]bool)
	accepted := make([]types.RankedCandidate, 0, len(candidateIDs))
	maxRank := 0

	for _, item := range items {
		if !known[item.CandidateID] || covered[item.CandidateID] {
			continue
		}
		if item.Rank < 1 || claimedRanks[item.Rank] {
			continue
		}
		claimedRanks[item.Rank] = true
		covered[item.CandidateID] = true
		accepted = append(accepted, types.RankedCandidate{
			CandidateID: item.CandidateID,
			Rank:        item.Rank,
			Reason:      item.Reason,
		})
		if item.Rank > maxRank {
			maxRank = item.Rank
		}
	}

	for _, id := range candidateIDs {
		if covered[id] {
			continue
		}
		maxRank++
		accepted = append(accepted, types.RankedCandidate{
			CandidateID: id,
			Rank:        maxRank,
			Reason:      constants.RepairedRankReason,
		})
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Rank < accepted[j].Rank
	})
	for i := range accepted {
		accepted[i].Rank = i + 1
	}
	return accepted
}

// FallbackRanking 按确定性总分降序的兜底排名，分数相同时保持原始顺序
func FallbackRanking(candidateIDs []string, scores map[string]*types.ScoreBreakdown) []types.RankedCandidate {
	ranked := make([]types.RankedCandidate, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		ranked = append(ranked, types.RankedCandidate{
			CandidateID: id,
			Reason:      constants.FallbackRankReason,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return scoreOf(scores, ranked[i].CandidateID) > scoreOf(scores, ranked[j].CandidateID)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

func scoreOf(scores map[string]*types.ScoreBreakdown, candidateID string) int {
	if s, ok := scores[candidateID]; ok && s != nil {
		return s.TotalScore
	}
	return 0
}
