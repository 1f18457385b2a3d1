package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"talent-rank-go/internal/config"

	"github.com/cloudwego/eino/components/embedding"
)

// AliyunEmbedder 通过阿里云OpenAI兼容端点生成文本向量，
// 实现 cloudwego/eino 的 embedding.Embedder 接口
type AliyunEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	baseURL    string
	httpClient *http.Client
}

// NewAliyunEmbedder 创建阿里云Embedder
func NewAliyunEmbedder(apiKey string, cfg config.EmbeddingConfig) (*AliyunEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-v3"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"
	}

	return &AliyunEmbedder{
		apiKey:     apiKey,
		model:      model,
		dimensions: cfg.Dimensions,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// embeddingRequest 阿里云Embedding请求体（OpenAI兼容）
type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

// embeddingResponse 阿里云Embedding响应体（OpenAI兼容）
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// EmbedStrings 将一批文本转换为向量
func (a *AliyunEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	options := &embedding.Options{}
	options = embedding.GetCommonOptions(options, opts...)
	model := a.model
	if options.Model != nil && *options.Model != "" {
		model = *options.Model
	}

	reqBody := embeddingRequest{
		Input:          texts,
		Model:          model,
		Dimensions:     a.dimensions,
		EncodingFormat: "float",
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化Embedding请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("构建Embedding请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("调用Embedding接口失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取Embedding响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Embedding接口返回状态 %d: %.200s", resp.StatusCode, body)
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析Embedding响应失败: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("Embedding接口错误 [%s]: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("Embedding响应条数不匹配: 期望%d, 实际%d", len(texts), len(parsed.Data))
	}

	// 按index还原顺序，服务端可能乱序返回
	vectors := make([][]float64, len(texts))
	for _, entry := range parsed.Data {
		if entry.Index < 0 || entry.Index >= len(texts) {
			return nil, fmt.Errorf("Embedding响应index越界: %d", entry.Index)
		}
		vectors[entry.Index] = entry.Embedding
	}
	return vectors, nil
}
