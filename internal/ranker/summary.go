package ranker

import (
	"strings"

	"talent-rank-go/internal/types"
)

// roleHints 技能关键词到推测职位标签的映射，按检查顺序排列
var roleHints = []struct {
	keywords []string
	label    string
}{
	{[]string{"react", "vue", "angular", "css", "html", "前端"}, "前端工程师"},
	{[]string{"go", "golang", "java", "spring", "mysql", "后端"}, "后端工程师"},
	{[]string{"python", "pytorch", "tensorflow", "机器学习", "算法"}, "算法工程师"},
	{[]string{"k8s", "kubernetes", "docker", "devops", "运维"}, "运维工程师"},
	{[]string{"qa", "testing", "测试"}, "测试工程师"},
	{[]string{"product", "产品"}, "产品经理"},
}

// InferRoleTitle 从技能关键词推测候选人的职位标签。
// 这是明确劣于解析数据的兜底启发式，返回值的inferred标记必须随摘要传递，
// 绝不回写覆盖候选人的原始数据。
func InferRoleTitle(candidate *types.Candidate) (title string, inferred bool) {
	if t := strings.TrimSpace(candidate.LastRoleTitle); t != "" {
		return t, false
	}

	for _, hint := range roleHints {
		for _, skill := range candidate.Skills {
			lower := strings.ToLower(skill)
			for _, kw := range hint.keywords {
				if strings.Contains(lower, kw) {
					return hint.label, true
				}
			}
		}
	}
	return "软件工程师", true
}

// BuildCandidateSummary 构建发送给排名协作方的候选人摘要。
// score可为nil，表示该候选人尚无确定性评分。
func BuildCandidateSummary(candidate *types.Candidate, score *types.ScoreBreakdown) types.CandidateSummary {
	title, inferred := InferRoleTitle(candidate)

	summary := types.CandidateSummary{
		CandidateID:     candidate.CandidateID,
		Name:            candidate.Name,
		YearsExperience: candidate.YearsExperience,
		RoleTitle:       title,
		TitleInferred:   inferred,
		Skills:          candidate.Skills,
		GapCount:        len(candidate.Gaps),
	}
	if score != nil {
		summary.TotalScore = score.TotalScore
		summary.MissingMustHave = score.MissingMustHave
	}
	return summary
}

// BuildJobSummary 构建发送给排名协作方的岗位摘要
func BuildJobSummary(job *types.Job) types.JobSummary {
	return types.JobSummary{
		JobID:      job.JobID,
		Title:      job.Title,
		MustHave:   job.MustHave,
		NiceToHave: job.NiceToHave,
	}
}
