package summary

import (
	"context"
	"time"

	"medicore-monitor/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// FallbackSummary LLM 调用失败/超时时的固定回退文案
const FallbackSummary = "AI summary generation failed. See raw data above."

const systemPrompt = "You are a medical AI coordinator. Summarize the autonomous analysis " +
	"in clear, actionable language. Highlight critical findings first."

// chatRequest OpenAI 兼容的对话请求
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse OpenAI 兼容的对话响应
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client LLM 摘要客户端
// 失败永不向上传播：任何错误都替换为 FallbackSummary
type Client struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

// NewClient 创建摘要客户端
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.Summary.BaseURL).
		SetTimeout(time.Duration(cfg.Summary.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		model:      cfg.Summary.Model,
		logger:     logger,
	}
}

// Summarize 生成自然语言摘要
// 超时/错误/空响应时返回 FallbackSummary，不返回 error
func (c *Client) Summarize(ctx context.Context, analysisContext string) string {
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: analysisContext},
		},
		Temperature: 0.3,
	}

	var response chatResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post("/v1/chat/completions")

	if err != nil {
		c.logger.Warn("Summary generation failed",
			zap.Error(err),
		)
		return FallbackSummary
	}
	if resp.IsError() || len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		c.logger.Warn("Summary endpoint returned unusable response",
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("choices", len(response.Choices)),
		)
		return FallbackSummary
	}

	return response.Choices[0].Message.Content
}
