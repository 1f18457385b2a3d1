package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"talent-rank-go/internal/logger"
	"talent-rank-go/internal/types"
)

// seniorityLevels 职级关键词，顺序即职级阶梯
var seniorityLevels = []string{"junior", "mid", "senior", "lead", "principal", "staff"}

// Engine 确定性评分引擎，对单个候选人-岗位对产出多因子评分。
// 相似度协作方可为nil，此时职位名称仅用传统启发式打分。
type Engine struct {
	normalizer *Normalizer
	similarity SimilarityProvider
	simTimeout time.Duration
}

// NewEngine 创建评分引擎
func NewEngine(normalizer *Normalizer, similarity SimilarityProvider, simTimeout time.Duration) *Engine {
	if simTimeout <= 0 {
		simTimeout = 5 * time.Second
	}
	return &Engine{
		normalizer: normalizer,
		similarity: similarity,
		simTimeout: simTimeout,
	}
}

// Score 计算一个候选人对一个岗位的完整评分。
// 除职位相似度外全部为纯计算，相同输入必然产出相同结果。
func (e *Engine) Score(ctx context.Context, job *types.Job, candidate *types.Candidate, weights types.ScoreWeights, now time.Time) *types.ScoreBreakdown {
	skillScore, missing := e.skillMatch(job, candidate)
	titleScore := e.titleScore(ctx, job.Title, candidate.LastRoleTitle)
	seniority := seniorityScore(candidate.YearsExperience)
	recency := recencyScore(candidate.LastActivityAt, now)
	penalty := gapPenalty(candidate.Gaps)

	raw := skillScore*weights.Skills +
		titleScore*weights.Title +
		seniority*weights.Seniority +
		recency*weights.Recency +
		(100-penalty)*weights.Gaps // 空窗以(100-扣分)参与，权重越高越奖励无空窗

	total := int(math.Round(raw))
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	return &types.ScoreBreakdown{
		CandidateID:     candidate.CandidateID,
		JobID:           job.JobID,
		TotalScore:      total,
		SkillMatchScore: skillScore,
		TitleScore:      titleScore,
		SeniorityScore:  seniority,
		RecencyScore:    recency,
		GapPenalty:      penalty,
		MissingMustHave: missing,
		Explanation:     buildExplanation(skillScore, titleScore, seniority, penalty, missing),
		Weights:         weights,
		ScoredAt:        now,
	}
}

// skillMatch 技能匹配得分：必备80分+加分20分；仅一类技能时该类独占100分；
// 岗位未定义任何技能时得0分。未匹配的必备技能按原文记入missing。
func (e *Engine) skillMatch(job *types.Job, candidate *types.Candidate) (float64, []string) {
	missing := make([]string, 0)
	if len(job.MustHave) == 0 && len(job.NiceToHave) == 0 {
		return 0, missing
	}

	matchedRequired := 0
	for _, required := range job.MustHave {
		if e.hasSkill(candidate.Skills, required) {
			matchedRequired++
		} else {
			missing = append(missing, required)
		}
	}

	matchedPreferred := 0
	for _, preferred := range job.NiceToHave {
		if e.hasSkill(candidate.Skills, preferred) {
			matchedPreferred++
		}
	}

	switch {
	case len(job.NiceToHave) == 0:
		return float64(matchedRequired) / float64(len(job.MustHave)) * 100, missing
	case len(job.MustHave) == 0:
		return float64(matchedPreferred) / float64(len(job.NiceToHave)) * 100, missing
	default:
		score := float64(matchedRequired)/float64(len(job.MustHave))*80 +
			float64(matchedPreferred)/float64(len(job.NiceToHave))*20
		return score, missing
	}
}

func (e *Engine) hasSkill(candidateSkills []string, jobSkill string) bool {
	for _, s := range candidateSkills {
		if e.normalizer.Matches(s, jobSkill) {
			return true
		}
	}
	return false
}

// titleScore 职位名称得分：完全一致100分；否则取AI相似度与传统启发式的较大值；
// 任一方缺失职位名称时给中性的50分。
func (e *Engine) titleScore(ctx context.Context, jobTitle, candidateTitle string) float64 {
	jobTitle = strings.TrimSpace(jobTitle)
	candidateTitle = strings.TrimSpace(candidateTitle)
	if jobTitle == "" || candidateTitle == "" {
		return 50
	}
	if strings.EqualFold(jobTitle, candidateTitle) {
		return 100
	}

	score := traditionalTitleScore(jobTitle, candidateTitle)

	if e.similarity != nil {
		simCtx, cancel := context.WithTimeout(ctx, e.simTimeout)
		defer cancel()

		sim, err := e.similarity.Similarity(simCtx, jobTitle, candidateTitle)
		if err != nil {
			// 相似度协作方失败时退回传统启发式，不中断评分
			logger.Ctx(ctx).Debug().Err(err).Msg("职位相似度调用失败，使用传统启发式")
		} else if aiScore := sim * 100; aiScore > score {
			score = aiScore
		}
	}
	return score
}

// traditionalTitleScore 传统职位名称启发式：双方都含职级关键词时按职级差打分，
// 否则按共享词数量打分
func traditionalTitleScore(jobTitle, candidateTitle string) float64 {
	jobLevel := seniorityLevelIndex(jobTitle)
	candidateLevel := seniorityLevelIndex(candidateTitle)
	if jobLevel >= 0 && candidateLevel >= 0 {
		diff := jobLevel - candidateLevel
		if diff < 0 {
			diff = -diff
		}
		return math.Max(50, 100-15*float64(diff))
	}

	jobWords := titleWordSet(jobTitle)
	matched := 0
	for _, w := range strings.Fields(strings.ToLower(candidateTitle)) {
		if _, ok := jobWords[w]; ok {
			matched++
			delete(jobWords, w) // 每个词只计一次
		}
	}
	return math.Min(90, float64(matched)*20+30)
}

func seniorityLevelIndex(title string) int {
	lower := strings.ToLower(title)
	for i, level := range seniorityLevels {
		if strings.Contains(lower, level) {
			return i
		}
	}
	return -1
}

func titleWordSet(title string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(title)) {
		set[w] = struct{}{}
	}
	return set
}

// seniorityScore 按工作年限的阶梯得分，缺失年限给中性的50分
func seniorityScore(years *float64) float64 {
	if years == nil {
		return 50
	}
	switch {
	case *years >= 8:
		return 100
	case *years >= 5:
		return 85
	case *years >= 3:
		return 70
	case *years >= 1:
		return 55
	default:
		return 30
	}
}

// recencyScore 按距最近活动的月数阶梯得分，无活动记录给中性的50分
func recencyScore(lastActivity *time.Time, now time.Time) float64 {
	if lastActivity == nil {
		return 50
	}
	months := monthsBetween(*lastActivity, now)
	switch {
	case months <= 1:
		return 100
	case months <= 3:
		return 90
	case months <= 6:
		return 80
	case months <= 12:
		return 70
	default:
		return 50
	}
}

func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	return months
}

// gapPenalty 按累计空窗月数的阶梯扣分，0-40分
func gapPenalty(gaps []types.EmploymentGap) float64 {
	totalMonths := 0
	for _, g := range gaps {
		totalMonths += g.Months
	}
	switch {
	case totalMonths == 0:
		return 0
	case totalMonths <= 3:
		return 5
	case totalMonths <= 6:
		return 15
	case totalMonths <= 12:
		return 25
	default:
		return 40
	}
}

// buildExplanation 从各因子得分生成解释文本，仅依赖评分结果自身，可随时重放
func buildExplanation(skillScore, titleScore, seniority, penalty float64, missing []string) string {
	var parts []string

	combined := skillScore + titleScore
	switch {
	case combined >= 160:
		parts = append(parts, "候选人与该岗位高度匹配")
	case combined >= 140:
		parts = append(parts, "候选人与该岗位匹配度很高")
	case combined >= 120:
		parts = append(parts, "候选人与该岗位匹配度良好")
	case combined >= 100:
		parts = append(parts, "候选人与该岗位基本匹配")
	default:
		parts = append(parts, "候选人与该岗位匹配度较低")
	}

	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("缺少必备技能: %s", strings.Join(missing, "、")))
	}

	switch {
	case seniority >= 85:
		parts = append(parts, "工作经验丰富")
	case seniority >= 55:
		parts = append(parts, "具备一定工作经验")
	case seniority == 50:
		parts = append(parts, "工作年限信息缺失")
	default:
		parts = append(parts, "工作经验较少")
	}

	switch {
	case titleScore >= 90:
		parts = append(parts, "职位背景高度相关")
	case titleScore >= 60:
		parts = append(parts, "职位背景相关性中等")
	default:
		parts = append(parts, "职位背景相关性较弱")
	}

	switch {
	case penalty == 0:
		parts = append(parts, "履历连续无明显空窗")
	case penalty <= 15:
		parts = append(parts, "存在少量履历空窗")
	default:
		parts = append(parts, "存在较长履历空窗期")
	}

	return strings.Join(parts, "；") + "。"
}
