package handler

import (
	"context"
	"errors"
	"time"

	"talent-rank-go/internal/config"
	"talent-rank-go/internal/logger"
	"talent-rank-go/internal/ranker"
	"talent-rank-go/internal/scoring"
	"talent-rank-go/internal/storage"
	"talent-rank-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
)

// RankingHandler 处理评分与排名相关的HTTP请求
type RankingHandler struct {
	cfg          *config.Config
	storage      *storage.Storage
	orchestrator *scoring.Orchestrator
	reconciler   *ranker.Reconciler
}

// NewRankingHandler 创建评分排名处理器
func NewRankingHandler(cfg *config.Config, storage *storage.Storage, orchestrator *scoring.Orchestrator, reconciler *ranker.Reconciler) *RankingHandler {
	return &RankingHandler{
		cfg:          cfg,
		storage:      storage,
		orchestrator: orchestrator,
		reconciler:   reconciler,
	}
}

// scoreRequest 评分请求体，weights缺省时使用配置的默认权重
type scoreRequest struct {
	Weights *types.ScoreWeights `json:"weights,omitempty"`
}

// batchScoreRequest 批量评分请求体，candidate_ids缺省时对整个候选池评分
type batchScoreRequest struct {
	CandidateIDs []string            `json:"candidate_ids,omitempty"`
	Weights      *types.ScoreWeights `json:"weights,omitempty"`
}

// HandleScoreCandidate 对单个候选人评分。
// POST /api/v1/jobs/:job_id/candidates/:candidate_id/score
func (h *RankingHandler) HandleScoreCandidate(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	candidateID := c.Param("candidate_id")
	if jobID == "" || candidateID == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_id和candidate_id不能为空"})
		return
	}

	var req scoreRequest
	if len(c.Request.Body()) > 0 {
		if err := c.BindAndValidate(&req); err != nil {
			c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误: " + err.Error()})
			return
		}
	}

	breakdown, err := h.orchestrator.ScoreCandidate(ctx, candidateID, jobID, h.resolveWeights(req.Weights))
	if err != nil {
		h.writeError(c, jobID, err, "候选人评分失败")
		return
	}
	c.JSON(consts.StatusOK, breakdown)
}

// HandleBatchScore 批量评分。candidate_ids缺省时取岗位候选池全量。
// POST /api/v1/jobs/:job_id/scores
func (h *RankingHandler) HandleBatchScore(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	if jobID == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_id不能为空"})
		return
	}

	var req batchScoreRequest
	if len(c.Request.Body()) > 0 {
		if err := c.BindAndValidate(&req); err != nil {
			c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误: " + err.Error()})
			return
		}
	}

	candidateIDs := req.CandidateIDs
	if len(candidateIDs) == 0 {
		var err error
		candidateIDs, err = h.storage.MySQL.ListJobCandidates(ctx, jobID)
		if err != nil {
			h.writeError(c, jobID, err, "获取候选池失败")
			return
		}
	}

	results, err := h.orchestrator.BatchScore(ctx, candidateIDs, jobID, h.resolveWeights(req.Weights))
	if err != nil {
		h.writeError(c, jobID, err, "批量评分失败")
		return
	}

	c.JSON(consts.StatusOK, utils.H{
		"job_id":    jobID,
		"requested": len(candidateIDs),
		"scored":    len(results),
		"results":   results,
	})
}

// HandleListScores 按总分降序返回岗位的全部评分记录。
// GET /api/v1/jobs/:job_id/scores
func (h *RankingHandler) HandleListScores(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	if jobID == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_id不能为空"})
		return
	}

	scores, err := h.storage.MySQL.ListJobScores(ctx, jobID)
	if err != nil {
		h.writeError(c, jobID, err, "查询评分记录失败")
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"job_id": jobID,
		"count":  len(scores),
		"scores": scores,
	})
}

// HandleRankJob 对岗位候选池生成完整AI排名，AI不可用时自动降级。
// POST /api/v1/jobs/:job_id/ranking
func (h *RankingHandler) HandleRankJob(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	if jobID == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_id不能为空"})
		return
	}

	ranked, err := h.reconciler.RankCandidatesForJob(ctx, jobID)
	if err != nil {
		h.writeError(c, jobID, err, "生成排名失败")
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"job_id":  jobID,
		"count":   len(ranked),
		"ranking": ranked,
	})
}

// HandleClearCache 清除岗位的评分缓存与排名缓存。
// DELETE /api/v1/jobs/:job_id/cache
func (h *RankingHandler) HandleClearCache(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	if jobID == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_id不能为空"})
		return
	}

	h.orchestrator.ClearCache(jobID)
	if err := h.reconciler.InvalidateJob(ctx, jobID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("job_id", jobID).Msg("失效排名缓存失败")
	}
	c.JSON(consts.StatusOK, utils.H{"job_id": jobID, "status": "cache_cleared"})
}

// HandleTriggerRescore 发布岗位要求变更事件，由消费者异步执行全量重评。
// POST /api/v1/jobs/:job_id/rescore
func (h *RankingHandler) HandleTriggerRescore(ctx context.Context, c *app.RequestContext) {
	jobID := c.Param("job_id")
	if jobID == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_id不能为空"})
		return
	}

	// 先确认岗位存在，避免为无效岗位发布事件
	if _, err := h.storage.MySQL.GetJob(ctx, jobID); err != nil {
		h.writeError(c, jobID, err, "查询岗位失败")
		return
	}

	if h.storage.RabbitMQ == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "消息队列不可用，无法触发异步重评"})
		return
	}

	eventID, err := uuid.NewV7()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "生成事件ID失败"})
		return
	}
	event := types.JobUpdatedEvent{
		EventID:   eventID.String(),
		JobID:     jobID,
		UpdatedAt: time.Now(),
	}
	if err := h.storage.RabbitMQ.PublishJobUpdated(ctx, event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("job_id", jobID).Msg("发布岗位变更事件失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "发布重评事件失败"})
		return
	}

	c.JSON(consts.StatusAccepted, utils.H{
		"job_id":   jobID,
		"event_id": event.EventID,
		"status":   "rescore_queued",
	})
}

// resolveWeights 请求未携带权重时回退到配置的默认权重
func (h *RankingHandler) resolveWeights(w *types.ScoreWeights) types.ScoreWeights {
	if w != nil {
		return *w
	}
	return h.cfg.Scoring.DefaultWeights
}

// writeError 按错误类型映射HTTP状态码
func (h *RankingHandler) writeError(c *app.RequestContext, jobID string, err error, msg string) {
	if errors.Is(err, types.ErrNotFound) {
		c.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
		return
	}
	logger.Error().Err(err).Str("job_id", jobID).Msg(msg)
	c.JSON(consts.StatusInternalServerError, utils.H{"error": msg})
}
