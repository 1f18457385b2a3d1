package handler

import (
	"context"
	"strings"

	"talent-rank-go/internal/config"
	"talent-rank-go/internal/storage"
	"talent-rank-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// CatalogHandler 处理岗位、候选人与候选池的维护请求
type CatalogHandler struct {
	cfg     *config.Config
	storage *storage.Storage
}

// NewCatalogHandler 创建岗位候选人维护处理器
func NewCatalogHandler(cfg *config.Config, storage *storage.Storage) *CatalogHandler {
	return &CatalogHandler{cfg: cfg, storage: storage}
}

// HandleCreateJob 创建岗位及其技能要求。
// POST /api/v1/jobs
func (h *CatalogHandler) HandleCreateJob(ctx context.Context, c *app.RequestContext) {
	var job types.Job
	if err := c.BindAndValidate(&job); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误: " + err.Error()})
		return
	}
	if strings.TrimSpace(job.Title) == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "岗位标题不能为空"})
		return
	}

	if err := h.storage.MySQL.CreateJob(ctx, &job); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "创建岗位失败"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"job_id": job.JobID})
}

// HandleGetJob 查询岗位详情。
// GET /api/v1/jobs/:job_id
func (h *CatalogHandler) HandleGetJob(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	if jobID == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_id不能为空"})
		return
	}

	job, err := h.storage.MySQL.GetJob(ctx, jobID)
	if err != nil {
		writeStoreError(c, err, "查询岗位失败")
		return
	}
	c.JSON(consts.StatusOK, job)
}

// HandleCreateCandidate 创建候选人档案。
// POST /api/v1/candidates
func (h *CatalogHandler) HandleCreateCandidate(ctx context.Context, c *app.RequestContext) {
	var candidate types.Candidate
	if err := c.BindAndValidate(&candidate); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误: " + err.Error()})
		return
	}
	if strings.TrimSpace(candidate.Name) == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "候选人姓名不能为空"})
		return
	}

	if err := h.storage.MySQL.CreateCandidate(ctx, &candidate); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "创建候选人失败"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"candidate_id": candidate.CandidateID})
}

// HandleAddCandidateToJob 将候选人加入岗位候选池，重复加入是幂等操作。
// PUT /api/v1/jobs/:job_id/candidates/:candidate_id
func (h *CatalogHandler) HandleAddCandidateToJob(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	candidateID := c.Param("candidate_id")
	if jobID == "" || candidateID == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_id和candidate_id不能为空"})
		return
	}

	// 两侧都必须已存在
	if _, err := h.storage.MySQL.GetJob(ctx, jobID); err != nil {
		writeStoreError(c, err, "查询岗位失败")
		return
	}
	if _, err := h.storage.MySQL.GetCandidate(ctx, candidateID); err != nil {
		writeStoreError(c, err, "查询候选人失败")
		return
	}

	if err := h.storage.MySQL.AddCandidateToJob(ctx, jobID, candidateID); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "加入候选池失败"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"job_id": jobID, "candidate_id": candidateID})
}
