package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"resumeForge/internal/config"
	"resumeForge/internal/section"
)

// ErrGenerationFailed 表示传输层或供应商层面的生成失败（超时、空响应、上游错误）。
// 对调用方可重试；本服务自身不做任何重试。
var ErrGenerationFailed = errors.New("ai generation failed")

// Enhancer 是核心管线对 AI 增强器的唯一要求：
// 输入分区类型、当前内容与自由文本指引，输出完整的替换内容。
// 返回值未经结构保证，调用方必须在持久化前重新执行内容校验。
type Enhancer interface {
	Enhance(ctx context.Context, variant section.Variant, current section.Content, guidance string) (json.RawMessage, error)
}

// Service 基于 OpenAI 兼容接口实现 Enhancer。
type Service struct {
	client *openai.Client
	model  openai.ChatModel
}

// NewService 构造 AI 增强服务。
func NewService(cfg config.AIConfig) *Service {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Service{
		client: openai.NewClient(opts...),
		model:  openai.ChatModel(cfg.Model),
	}
}

// Enhance 构造分区提示词并请求替换内容。
func (s *Service) Enhance(ctx context.Context, variant section.Variant, current section.Content, guidance string) (json.RawMessage, error) {
	systemPrompt, ok := sectionPrompts[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %q", section.ErrUnknownVariant, variant)
	}

	prompt, err := buildUserPrompt(current, guidance)
	if err != nil {
		return nil, err
	}

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		}),
		Model: openai.F(s.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	text := stripCodeFence(completion.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrGenerationFailed)
	}

	return json.RawMessage(text), nil
}

// BuildPrompt 返回审计日志中记录的完整提示词。
func BuildPrompt(variant section.Variant, current section.Content, guidance string) string {
	user, err := buildUserPrompt(current, guidance)
	if err != nil {
		user = guidance
	}
	return sectionPrompts[variant] + "\n\n" + user
}

func buildUserPrompt(current section.Content, guidance string) (string, error) {
	currentJSON, err := section.Marshal(current)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Current content:\n")
	sb.Write(currentJSON)
	if guidance = strings.TrimSpace(guidance); guidance != "" {
		sb.WriteString("\n\nTarget role / job description:\n")
		sb.WriteString(guidance)
	}
	sb.WriteString("\n\nRespond with the JSON object only, no surrounding text.")
	return sb.String(), nil
}

// stripCodeFence 去掉模型偶尔包裹的 ```json 围栏。
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
