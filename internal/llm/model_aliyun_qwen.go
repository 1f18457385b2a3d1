package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"talent-rank-go/internal/logger"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	// DashScope的OpenAI兼容端点
	openAICompatibleQwenAPIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	defaultQwenModelName       = "qwen-plus"
)

// AliyunQwenChatModel 通过OpenAI兼容接口调用阿里云通义千问，
// 实现 model.ToolCallingChatModel 接口
type AliyunQwenChatModel struct {
	apiKey     string
	modelName  string
	apiURL     string
	httpClient *http.Client
}

// NewAliyunQwenChatModel 创建通义千问模型客户端
func NewAliyunQwenChatModel(apiKey, modelName, apiURL string) (*AliyunQwenChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultQwenModelName
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = openAICompatibleQwenAPIURL
	}

	return &AliyunQwenChatModel{
		apiKey:     apiKey,
		modelName:  modelName,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}, nil
}

// ModelName 返回该客户端使用的模型名
func (aq *AliyunQwenChatModel) ModelName() string {
	return aq.modelName
}

type chatCompletionRequest struct {
	Model    string            `json:"model"`
	Messages []*schema.Message `json:"messages"`
}

type chatCompletionMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type chatCompletionChoice struct {
	Index        int                   `json:"index"`
	Message      chatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

type chatCompletionResponse struct {
	Id      string                 `json:"id"`
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
}

// Generate 实现 model.ChatModel 接口
func (aq *AliyunQwenChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	reqPayload := chatCompletionRequest{
		Model:    aq.modelName,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, aq.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+aq.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	logger.Ctx(ctx).Debug().Str("model", aq.modelName).Int("messages", len(messages)).Msg("发送通义千问请求")

	httpResp, err := aq.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API请求失败，状态 %s: %.500s", httpResp.Status, bodyBytes)
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return nil, fmt.Errorf("反序列化API响应失败: %w。响应体: %.500s", err, bodyBytes)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("API返回空choices: %.500s", bodyBytes)
	}

	apiMessage := resp.Choices[0].Message
	content := ""
	if apiMessage.Content != nil {
		content = *apiMessage.Content
	}
	role := schema.RoleType(apiMessage.Role)
	if role == "" {
		role = schema.Assistant
	}

	return &schema.Message{Role: role, Content: content}, nil
}

// Stream 实现 model.ChatModel 接口。排名场景只需要完整响应，
// 这里以单条消息的流形式返回Generate的结果。
func (aq *AliyunQwenChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := aq.Generate(ctx, messages, options...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools 实现 model.ToolCallingChatModel 接口。排名提示词不使用工具调用，
// 这里直接返回自身。
func (aq *AliyunQwenChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return aq, nil
}

var _ model.ToolCallingChatModel = (*AliyunQwenChatModel)(nil)
