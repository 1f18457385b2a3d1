package models

import (
	"time"

	"gorm.io/datatypes"
)

// Job 岗位信息表
type Job struct {
	JobID              string    `gorm:"type:char(36);primaryKey"`
	JobTitle           string    `gorm:"type:varchar(255);not null"`
	JobDescriptionText string    `gorm:"type:text"`
	Status             string    `gorm:"type:varchar(50);default:'ACTIVE';index:idx_jobs_status"`
	CreatedAt          time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}

// JobSkill 岗位技能要求表，required区分必备与加分技能
type JobSkill struct {
	SkillDBID uint64    `gorm:"column:skill_db_id;primaryKey;autoIncrement"`
	JobID     string    `gorm:"type:char(36);not null;index:idx_js_job_id;uniqueIndex:idx_js_job_skill_unique,priority:1"`
	SkillName string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_js_job_skill_unique,priority:2"`
	Required  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Job *Job `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (JobSkill) TableName() string {
	return "job_skills"
}

// Candidate 候选人主表
type Candidate struct {
	CandidateID     string         `gorm:"type:char(36);primaryKey"`
	PrimaryName     string         `gorm:"type:varchar(255)"`
	LastRoleTitle   string         `gorm:"type:varchar(255)"`
	YearsExperience *float64       `gorm:"type:float"` // 允许NULL表示履历中未给出年限
	SkillsJSON      datatypes.JSON `gorm:"type:json"`
	LastActivityAt  *time.Time     `gorm:"type:datetime(6);index:idx_candidates_last_activity"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// CandidateGap 候选人履历空窗期表
type CandidateGap struct {
	GapDBID     uint64     `gorm:"column:gap_db_id;primaryKey;autoIncrement"`
	CandidateID string     `gorm:"type:char(36);not null;index:idx_cg_candidate_id"`
	GapStart    *time.Time `gorm:"type:date"`
	GapEnd      *time.Time `gorm:"type:date"`
	GapMonths   int        `gorm:"not null"`
	CreatedAt   time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (CandidateGap) TableName() string {
	return "candidate_gaps"
}

// JobCandidate 岗位-候选人关联表，记录进入某岗位候选池的候选人
type JobCandidate struct {
	LinkID      uint64    `gorm:"primaryKey;autoIncrement"`
	JobID       string    `gorm:"type:char(36);not null;index:idx_jc_job_id;uniqueIndex:idx_jc_job_candidate_unique,priority:1"`
	CandidateID string    `gorm:"type:char(36);not null;index:idx_jc_candidate_id;uniqueIndex:idx_jc_job_candidate_unique,priority:2"`
	CreatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Job       *Job       `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (JobCandidate) TableName() string {
	return "job_candidates"
}

// CandidateScore 岗位-候选人评分结果表
type CandidateScore struct {
	ScoreID         uint64         `gorm:"primaryKey;autoIncrement"`
	JobID           string         `gorm:"type:char(36);not null;index:idx_cs_job_id_total,priority:1;uniqueIndex:idx_cs_job_candidate_unique,priority:1"`
	CandidateID     string         `gorm:"type:char(36);not null;uniqueIndex:idx_cs_job_candidate_unique,priority:2"`
	TotalScore      int            `gorm:"not null;index:idx_cs_job_id_total,priority:2"`
	SkillMatchScore float64        `gorm:"type:float;not null"`
	TitleScore      float64        `gorm:"type:float;not null"`
	SeniorityScore  float64        `gorm:"type:float;not null"`
	RecencyScore    float64        `gorm:"type:float;not null"`
	GapPenalty      float64        `gorm:"type:float;not null"`
	MissingMustHave datatypes.JSON `gorm:"type:json"`
	Explanation     string         `gorm:"type:text"`
	WeightsJSON     datatypes.JSON `gorm:"type:json"`
	ContentHash     string         `gorm:"type:char(32);index:idx_cs_content_hash"`
	AIRank          *int           `gorm:"column:ai_rank;type:int"`
	AIRankReason    string         `gorm:"column:ai_rank_reason;type:text"`
	ScoredAt        time.Time      `gorm:"type:datetime(6);not null"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Job       *Job       `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (CandidateScore) TableName() string {
	return "candidate_scores"
}
