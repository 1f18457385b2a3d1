package router

import (
	"context"
	"crypto/subtle"

	"talent-rank-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册API路由。apiKey非空时对业务路由启用鉴权，健康检查始终开放。
func RegisterRoutes(h *server.Hertz, apiKey string, rankingHandler *handler.RankingHandler, catalogHandler *handler.CatalogHandler) {
	h.GET("/api/v1/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := h.Group("/api/v1")
	if apiKey != "" {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
			}),
		))
	}

	// 岗位与候选人维护
	api.POST("/jobs", catalogHandler.HandleCreateJob)
	api.GET("/jobs/:job_id", catalogHandler.HandleGetJob)
	api.POST("/candidates", catalogHandler.HandleCreateCandidate)
	api.PUT("/jobs/:job_id/candidates/:candidate_id", catalogHandler.HandleAddCandidateToJob)

	// 评分
	api.POST("/jobs/:job_id/candidates/:candidate_id/score", rankingHandler.HandleScoreCandidate)
	api.POST("/jobs/:job_id/scores", rankingHandler.HandleBatchScore)
	api.GET("/jobs/:job_id/scores", rankingHandler.HandleListScores)

	// AI排名
	api.POST("/jobs/:job_id/ranking", rankingHandler.HandleRankJob)

	// 缓存与异步重评
	api.DELETE("/jobs/:job_id/cache", rankingHandler.HandleClearCache)
	api.POST("/jobs/:job_id/rescore", rankingHandler.HandleTriggerRescore)
}
