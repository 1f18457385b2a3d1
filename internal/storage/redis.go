package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"talent-rank-go/internal/config"
	"talent-rank-go/internal/constants"
	"talent-rank-go/internal/types"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// Redis 提供排名结果缓存与分布式锁
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端并启用OpenTelemetry追踪钩子
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("为Redis注册OpenTelemetry钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis %s 失败: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查Redis连接是否可用
func (r *Redis) Ping(ctx context.Context) error {
	_, err := r.Client.Ping(ctx).Result()
	return err
}

// CacheRankResult 缓存一个岗位的完整排名结果
func (r *Redis) CacheRankResult(ctx context.Context, jobID string, ranked []types.RankedCandidate, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	if len(ranked) == 0 {
		return nil // 空结果不缓存
	}

	payload, err := json.Marshal(ranked)
	if err != nil {
		return fmt.Errorf("序列化排名结果失败: %w", err)
	}

	key := fmt.Sprintf(constants.KeyRankResult, jobID)
	if err := r.Client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("写入排名缓存失败: %w", err)
	}
	return nil
}

// GetCachedRankResult 读取缓存的排名结果，缓存未命中返回ErrNotFound
func (r *Redis) GetCachedRankResult(ctx context.Context, jobID string) ([]types.RankedCandidate, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis客户端未初始化")
	}

	key := fmt.Sprintf(constants.KeyRankResult, jobID)
	raw, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("排名缓存 %s: %w", jobID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("读取排名缓存失败: %w", err)
	}

	var ranked []types.RankedCandidate
	if err := json.Unmarshal([]byte(raw), &ranked); err != nil {
		return nil, fmt.Errorf("解析排名缓存失败: %w", err)
	}
	return ranked, nil
}

// InvalidateRankResult 删除岗位的排名缓存，岗位要求变更时调用
func (r *Redis) InvalidateRankResult(ctx context.Context, jobID string) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	key := fmt.Sprintf(constants.KeyRankResult, jobID)
	if err := r.Client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("删除排名缓存失败: %w", err)
	}
	return nil
}

// AcquireLock 尝试获取一个分布式锁，返回持有者标识；未获取到时返回空串
func (r *Redis) AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis客户端未初始化")
	}
	lockValue := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, lockKey, lockValue, expiration).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return lockValue, nil
	}
	return "", nil
}

// ReleaseLock 释放分布式锁，Lua脚本保证只有持有者能释放
func (r *Redis) ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis客户端未初始化")
	}
	script := `
        if redis.call("get", KEYS[1]) == ARGV[1] then
            return redis.call("del", KEYS[1])
        else
            return 0
        end
    `
	res, err := r.Client.Eval(ctx, script, []string{lockKey}, lockValue).Result()
	if err != nil {
		return false, err
	}
	if released, ok := res.(int64); ok && released == 1 {
		return true, nil
	}
	return false, nil
}
