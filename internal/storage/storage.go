package storage

import (
	"context"
	"fmt"
	"strings"

	"talent-rank-go/internal/config"
	"talent-rank-go/internal/logger"
)

// Storage 存储管理器，聚合全部存储相关依赖
type Storage struct {
	// 关系型数据库
	MySQL *MySQL

	// 键值存储
	Redis *Redis

	// 消息队列
	RabbitMQ *RabbitMQ
}

// NewStorage 创建存储管理器，单个组件失败仅告警，全部失败才返回错误
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}
	var err error
	var initErrors []string

	if cfg.MySQL.Host != "" {
		storage.MySQL, err = NewMySQL(&cfg.MySQL)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化MySQL失败")
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		}
	}

	if cfg.Redis.Address != "" {
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化Redis失败")
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	} else {
		logger.Info().Msg("Redis未配置, 跳过初始化")
	}

	if cfg.RabbitMQ.URL != "" {
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化RabbitMQ失败")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		} else if err := storage.RabbitMQ.SetupJobEventsTopology(); err != nil {
			logger.Warn().Err(err).Msg("声明RabbitMQ拓扑失败")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ topology: %v", err))
		}
	}

	if storage.MySQL == nil && storage.Redis == nil && storage.RabbitMQ == nil {
		return nil, fmt.Errorf("所有存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}

	if len(initErrors) > 0 {
		logger.Warn().Strs("errors", initErrors).Msg("部分存储组件初始化失败")
	}

	return storage, nil
}

// Close 关闭全部存储连接
func (s *Storage) Close() error {
	var errs []string

	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("Redis: %v", err))
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("MySQL: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("关闭存储组件失败: %s", strings.Join(errs, "; "))
	}
	return nil
}
