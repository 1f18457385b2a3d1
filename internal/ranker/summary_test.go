package ranker

import (
	"testing"

	"talent-rank-go/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestInferRoleTitlePrefersParsedData(t *testing.T) {
	c := &types.Candidate{LastRoleTitle: "资深后端工程师", Skills: []string{"react"}}
	title, inferred := InferRoleTitle(c)
	assert.Equal(t, "资深后端工程师", title)
	assert.False(t, inferred)
}

func TestInferRoleTitleFromSkills(t *testing.T) {
	tests := []struct {
		name   string
		skills []string
		want   string
	}{
		{"前端", []string{"React", "CSS"}, "前端工程师"},
		{"后端", []string{"Golang", "MySQL"}, "后端工程师"},
		{"运维", []string{"Kubernetes", "Docker"}, "运维工程师"},
		{"无线索", []string{"excel"}, "软件工程师"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, inferred := InferRoleTitle(&types.Candidate{Skills: tt.skills})
			assert.Equal(t, tt.want, title)
			assert.True(t, inferred, "推断结果必须带inferred标记")
		})
	}
}

func TestBuildCandidateSummaryWithoutScore(t *testing.T) {
	c := &types.Candidate{
		CandidateID: "c1",
		Name:        "甲",
		Skills:      []string{"go"},
		Gaps:        []types.EmploymentGap{{Months: 4}},
	}

	summary := BuildCandidateSummary(c, nil)
	assert.Equal(t, "c1", summary.CandidateID)
	assert.Zero(t, summary.TotalScore)
	assert.Empty(t, summary.MissingMustHave)
	assert.Equal(t, 1, summary.GapCount)
	assert.True(t, summary.TitleInferred)
}

func TestBuildCandidateSummaryWithScore(t *testing.T) {
	c := &types.Candidate{CandidateID: "c1", Name: "甲", LastRoleTitle: "后端工程师"}
	score := &types.ScoreBreakdown{TotalScore: 87, MissingMustHave: []string{"Kafka"}}

	summary := BuildCandidateSummary(c, score)
	assert.Equal(t, 87, summary.TotalScore)
	assert.Equal(t, []string{"Kafka"}, summary.MissingMustHave)
	assert.False(t, summary.TitleInferred)
}
