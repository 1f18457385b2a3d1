package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	content := `
aliyun:
  api_key: "file_key"
  model: "qwen-max"
  fallback_models: ["qwen-plus", "qwen-turbo"]
server:
  address: ":9090"
scoring:
  cache_ttl_minutes: 30
  batch_size: 4
  default_weights:
    skills: 0.4
    title: 0.3
    seniority: 0.1
    recency: 0.1
    gaps: 0.1
ranker:
  rank_timeout: "30s"
  qpm: 120
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// 避免环境变量干扰断言
	t.Setenv("ALIYUN_API_KEY", "")
	t.Setenv("ALIYUN_MODEL", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "file_key", cfg.Aliyun.APIKey)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 30, cfg.Scoring.CacheTTLMinutes)
	assert.Equal(t, 4, cfg.Scoring.BatchSize)
	assert.InDelta(t, 0.4, cfg.Scoring.DefaultWeights.Skills, 1e-9)
	assert.Equal(t, "30s", cfg.Ranker.RankTimeout)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	content := "aliyun:\n  api_key: \"file_key\"\n  model: \"qwen-max\"\n"
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("ALIYUN_API_KEY", "env_key")
	t.Setenv("ALIYUN_MODEL", "qwen-turbo")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env_key", cfg.Aliyun.APIKey)
	assert.Equal(t, "qwen-turbo", cfg.Aliyun.Model)
}

func TestDefaultsApplied(t *testing.T) {
	content := "server:\n  address: \"\"\n"
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 45, cfg.Scoring.CacheTTLMinutes)
	assert.Equal(t, 8, cfg.Scoring.BatchSize)
	// 未配置时应回落到默认权重
	assert.InDelta(t, 0.5, cfg.Scoring.DefaultWeights.Skills, 1e-9)
	assert.InDelta(t, 0.05, cfg.Scoring.DefaultWeights.Gaps, 1e-9)
}

func TestRankModelPriority(t *testing.T) {
	cfg := createDefaultConfig()
	cfg.Aliyun.Model = "qwen-max"
	cfg.Aliyun.FallbackModels = []string{"qwen-plus", "qwen-max", "", "qwen-turbo"}

	models := cfg.RankModelPriority()
	// 首选模型在前，去重且忽略空串
	assert.Equal(t, []string{"qwen-max", "qwen-plus", "qwen-turbo"}, models)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, GetDuration("3s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("bogus", time.Minute))
}
