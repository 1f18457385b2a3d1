package types

import (
	"time"
)

// Job 岗位信息（评分子系统视角的只读快照）
type Job struct {
	JobID       string   `json:"job_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	MustHave    []string `json:"must_have"` // 必备技能名称列表
	NiceToHave  []string `json:"nice_to_have"`
}

// JobSkill 岗位技能要求条目
type JobSkill struct {
	Skill    string `json:"skill"`
	Required bool   `json:"required"` // true=必备, false=加分
}

// EmploymentGap 候选人的一段就业空窗期
type EmploymentGap struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Months int       `json:"months"`
}

// Candidate 候选人信息（上传时解析生成，对评分子系统只读）
type Candidate struct {
	CandidateID     string          `json:"candidate_id"`
	Name            string          `json:"name"`
	YearsExperience *float64        `json:"years_experience,omitempty"` // 可能缺失
	LastRoleTitle   string          `json:"last_role_title,omitempty"`  // 可能缺失，可被推断
	Skills          []string        `json:"skills"`
	Gaps            []EmploymentGap `json:"gaps"`
	LastActivityAt  *time.Time      `json:"last_activity_at,omitempty"` // 最近一段经历的结束时间
}

// ScoreWeights 五因子评分权重，按惯例合计1.0但不强制
type ScoreWeights struct {
	Skills    float64 `json:"skills" yaml:"skills"`
	Title     float64 `json:"title" yaml:"title"`
	Seniority float64 `json:"seniority" yaml:"seniority"`
	Recency   float64 `json:"recency" yaml:"recency"`
	Gaps      float64 `json:"gaps" yaml:"gaps"`
}

// ScoreBreakdown 单个候选人对单个岗位的多因子评分结果
type ScoreBreakdown struct {
	CandidateID     string       `json:"candidate_id"`
	JobID           string       `json:"job_id"`
	TotalScore      int          `json:"total_score"` // 0-100
	SkillMatchScore float64      `json:"skill_match_score"`
	TitleScore      float64      `json:"title_score"`
	SeniorityScore  float64      `json:"seniority_score"`
	RecencyScore    float64      `json:"recency_score"`
	GapPenalty      float64      `json:"gap_penalty"` // 0-40, 扣分项
	MissingMustHave []string     `json:"missing_must_have"`
	Explanation     string       `json:"explanation"`
	Weights         ScoreWeights `json:"weights"`

	// AI排名字段由排名协调器独立写入，不参与确定性评分
	AIRank       *int      `json:"ai_rank,omitempty"` // 1..N
	AIRankReason string    `json:"ai_rank_reason,omitempty"`
	ScoredAt     time.Time `json:"scored_at"`
}

// RankedCandidate 排名结果条目，排名序列保证为完整的1..N
type RankedCandidate struct {
	CandidateID string `json:"candidate_id"`
	Rank        int    `json:"rank"`
	Reason      string `json:"reason"`
}

// RankItem 外部排名协作方返回的原始三元组，可能不完整、重复或越界
type RankItem struct {
	CandidateID string `json:"candidate_id"`
	Rank        int    `json:"rank"`
	Reason      string `json:"reason"`
}

// CandidateSummary 发送给排名协作方的候选人摘要
type CandidateSummary struct {
	CandidateID     string   `json:"candidate_id"`
	Name            string   `json:"name"`
	YearsExperience *float64 `json:"years_experience,omitempty"`
	RoleTitle       string   `json:"role_title"`
	TitleInferred   bool     `json:"title_inferred"` // RoleTitle是否为启发式推断值
	Skills          []string `json:"skills"`
	TotalScore      int      `json:"total_score"` // 当前确定性得分，未评分为0
	MissingMustHave []string `json:"missing_must_have"`
	GapCount        int      `json:"gap_count"`
}

// JobSummary 发送给排名协作方的岗位摘要
type JobSummary struct {
	JobID      string   `json:"job_id"`
	Title      string   `json:"title"`
	MustHave   []string `json:"must_have"`
	NiceToHave []string `json:"nice_to_have"`
}

// JobUpdatedEvent 岗位要求变更事件，触发缓存失效与全量重评
type JobUpdatedEvent struct {
	EventID   string    `json:"event_id"`
	JobID     string    `json:"job_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
