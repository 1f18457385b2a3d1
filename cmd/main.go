package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talent-rank-go/internal/api/handler"
	"talent-rank-go/internal/api/router"
	"talent-rank-go/internal/config"
	"talent-rank-go/internal/events"
	"talent-rank-go/internal/llm"
	applogger "talent-rank-go/internal/logger"
	"talent-rank-go/internal/ranker"
	"talent-rank-go/internal/scoring"
	"talent-rank-go/internal/similarity"
	"talent-rank-go/internal/storage"
	"talent-rank-go/internal/tracing"
	"talent-rank-go/pkg/ratelimit"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

const serviceName = "talent-rank-go"

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	applogger.Init(applogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	glog.SetLogger(hertzadapter.From(applogger.Logger))
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(applogger.WithContext(context.Background()))
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdownTracer, err := tracing.InitTracerProvider(ctx, serviceName, cfg.Tracing.OTLPEndpoint)
		if err != nil {
			glog.Fatalf("初始化链路追踪失败: %v", err)
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := shutdownTracer(shutdownCtx); err != nil {
				glog.Warnf("关闭链路追踪失败: %v", err)
			}
		}()
		glog.Info("链路追踪初始化成功")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	if storageManager.MySQL == nil {
		glog.Fatalf("MySQL不可用，评分服务无法启动")
	}
	glog.Info("存储服务初始化成功")

	// 职位名称语义相似度（可选，未配置API密钥时退回传统启发式）
	var simProvider scoring.SimilarityProvider
	if cfg.Aliyun.APIKey != "" {
		embedder, err := similarity.NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding)
		if err != nil {
			glog.Fatalf("初始化阿里云Embedder失败: %v", err)
		}
		simProvider = similarity.NewProvider(embedder)
		glog.Info("职位相似度协作方初始化成功")
	} else {
		glog.Warn("未配置阿里云API密钥，职位名称仅使用传统启发式打分")
	}

	engine := scoring.NewEngine(
		scoring.NewNormalizer(),
		simProvider,
		config.GetDuration(cfg.Scoring.TitleSimTimeout, 3*time.Second),
	)
	scoreCache := scoring.NewScoreCache(time.Duration(cfg.Scoring.CacheTTLMinutes)*time.Minute, nil)
	orchestrator := scoring.NewOrchestrator(storageManager.MySQL, engine, scoreCache, cfg.Scoring.BatchSize, nil)
	glog.Info("评分编排器初始化成功")

	llmRanker, err := buildRanker(cfg)
	if err != nil {
		glog.Fatalf("初始化AI排名器失败: %v", err)
	}
	glog.Infof("AI排名器初始化成功，模型优先级: %v", cfg.RankModelPriority())

	// Redis缺席时排名仍可用，只是失去跨进程缓存与重入保护
	var rankCache ranker.RankCache
	if storageManager.Redis != nil {
		rankCache = storageManager.Redis
	}
	reconciler := ranker.NewReconciler(storageManager.MySQL, llmRanker, rankCache, cfg.Scoring.DefaultWeights)
	glog.Info("排名协调器初始化成功")

	// 岗位变更事件消费者
	var stopConsumer chan<- struct{}
	if storageManager.RabbitMQ != nil {
		consumer := events.NewRescoreConsumer(
			storageManager.RabbitMQ,
			storageManager.MySQL,
			orchestrator,
			reconciler,
			cfg.Scoring.DefaultWeights,
			cfg.RabbitMQ.RescoreQueue,
			cfg.RabbitMQ.PrefetchCount,
		)
		stopConsumer, err = consumer.Start()
		if err != nil {
			glog.Fatalf("启动岗位重评消费者失败: %v", err)
		}
		glog.Infof("岗位重评消费者已启动，队列: %s", cfg.RabbitMQ.RescoreQueue)
	} else {
		glog.Warn("RabbitMQ不可用，异步重评功能停用")
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	rankingHandler := handler.NewRankingHandler(cfg, storageManager, orchestrator, reconciler)
	catalogHandler := handler.NewCatalogHandler(cfg, storageManager)
	router.RegisterRoutes(h, cfg.Server.APIKey, rankingHandler, catalogHandler)
	glog.Info("HTTP路由注册成功")

	go func() {
		glog.Infof("HTTP服务器启动中，监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if stopConsumer != nil {
		close(stopConsumer)
		glog.Info("岗位重评消费者已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// buildRanker 按配置的模型优先级构建带限流的AI排名器
func buildRanker(cfg *config.Config) (*ranker.LLMRanker, error) {
	models := make([]ranker.NamedModel, 0, len(cfg.RankModelPriority()))
	for _, name := range cfg.RankModelPriority() {
		base, err := llm.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, name, cfg.Aliyun.APIURL)
		if err != nil {
			return nil, err
		}
		limited := ratelimit.NewRateLimitedLLMModel(base, cfg.Ranker.QPM).
			WithRetryPolicy(time.Duration(cfg.Ranker.RetryWaitSeconds)*time.Second, cfg.Ranker.MaxRetries)
		models = append(models, ranker.NamedModel{Name: name, Model: limited})
	}
	return ranker.NewLLMRanker(models, config.GetDuration(cfg.Ranker.RankTimeout, 60*time.Second))
}
