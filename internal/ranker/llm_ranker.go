package ranker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"talent-rank-go/internal/logger"
	"talent-rank-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const rankSystemPrompt = `你是一位资深的招聘顾问。你的任务是根据岗位要求对候选人进行整体排名。
你会收到岗位摘要和候选人摘要列表。候选人摘要中 title_inferred 为 true 的职位名称是系统推测值，参考价值较低。
综合考虑技能匹配度、工作经验、职位相关性和履历连续性，给出从最合适到最不合适的完整排名。

你必须只输出一个JSON对象，格式如下，不要输出任何其他内容：
{"rankings": [{"candidate_id": "候选人ID", "rank": 1, "reason": "简短的中文排名理由"}]}

要求：
1. rankings 必须覆盖全部候选人，rank 从1开始连续编号
2. candidate_id 必须原样使用输入中的ID
3. reason 不超过50字`

// NamedModel 带名称的聊天模型，按优先级依次尝试
type NamedModel struct {
	Name  string
	Model model.ToolCallingChatModel
}

// LLMRanker 基于大模型的排名协作方，失败时按优先级切换备用模型
type LLMRanker struct {
	models  []NamedModel
	timeout time.Duration
}

// NewLLMRanker 创建大模型排名器
func NewLLMRanker(models []NamedModel, timeout time.Duration) (*LLMRanker, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("至少需要一个排名模型")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LLMRanker{models: models, timeout: timeout}, nil
}

// rankRequest 发送给模型的用户消息内容
type rankRequest struct {
	Job        types.JobSummary         `json:"job"`
	Candidates []types.CandidateSummary `json:"candidates"`
}

// rankResponse 模型应答的目标结构
type rankResponse struct {
	Rankings []types.RankItem `json:"rankings"`
}

// Rank 调用排名协作方，返回可能不完整、重复或越界的原始排名三元组。
// 全部模型均失败时返回包装了ErrUpstreamUnavailable或ErrMalformedResponse的错误。
func (r *LLMRanker) Rank(ctx context.Context, job types.JobSummary, candidates []types.CandidateSummary) ([]types.RankItem, error) {
	payload, err := json.Marshal(rankRequest{Job: job, Candidates: candidates})
	if err != nil {
		return nil, fmt.Errorf("序列化排名请求失败: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(rankSystemPrompt),
		schema.UserMessage(string(payload)),
	}

	var lastErr error
	for _, m := range r.models {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		resp, err := m.Model.Generate(callCtx, messages)
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("模型 %s 调用失败: %w: %v", m.Name, types.ErrUpstreamUnavailable, err)
			logger.Ctx(ctx).Warn().Err(err).Str("model", m.Name).Msg("排名模型调用失败，尝试下一个")
			continue
		}

		items, err := parseRankResponse(resp.Content)
		if err != nil {
			lastErr = fmt.Errorf("模型 %s 响应无法解析: %w", m.Name, err)
			logger.Ctx(ctx).Warn().Err(err).Str("model", m.Name).Msg("排名响应解析失败，尝试下一个")
			continue
		}

		logger.Ctx(ctx).Info().Str("model", m.Name).Int("items", len(items)).Msg("排名协作方返回成功")
		return items, nil
	}

	return nil, lastErr
}

// parseRankResponse 严格的解析-校验流程：提取JSON、清理非法引号、反序列化、校验必填字段
func parseRankResponse(content string) ([]types.RankItem, error) {
	raw := extractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("响应中找不到JSON对象: %w", types.ErrMalformedResponse)
	}

	var resp rankResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		// 一次清理后重试，处理字符串内部未转义的引号
		if err2 := json.Unmarshal([]byte(sanitizeJSON(raw)), &resp); err2 != nil {
			return nil, fmt.Errorf("排名JSON反序列化失败: %w: %v", types.ErrMalformedResponse, err)
		}
	}

	if len(resp.Rankings) == 0 {
		return nil, fmt.Errorf("排名列表为空: %w", types.ErrMalformedResponse)
	}
	for _, item := range resp.Rankings {
		if strings.TrimSpace(item.CandidateID) == "" {
			return nil, fmt.Errorf("排名条目缺少candidate_id: %w", types.ErrMalformedResponse)
		}
	}
	return resp.Rankings, nil
}

// extractJSON 用花括号配对从自由文本中提取第一个完整JSON对象
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inStr {
				escaped = true
			}
		case '"':
			inStr = !inStr
		case '{':
			if !inStr {
				level++
			}
		case '}':
			if !inStr {
				level--
				if level == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}

// sanitizeJSON 将字符串字面量内部未转义的双引号改写为\"。
// 通过检查下一个非空白字符是否为 :, ], }, 或 , 来判断引号是否为真正的字符串结束。
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		if c == '"' && !escaped {
			if !inStr {
				inStr = true
				b.WriteByte(c)
			} else {
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				if j >= len(src) || src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}' {
					inStr = false
					b.WriteByte(c)
				} else {
					b.WriteString("\\\"")
				}
			}
			escaped = false
			continue
		}

		if c == '\\' && inStr {
			escaped = !escaped
		} else {
			escaped = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
