package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL 通义千问文本生成接口
const DefaultBaseURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

// DashScopeClient 通义千问客户端
type DashScopeClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDashScopeClient 创建通义千问客户端
func NewDashScopeClient(apiKey, model, baseURL string, timeout time.Duration, logger *zap.Logger) *DashScopeClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &DashScopeClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Message 消息
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest 聊天请求
type ChatRequest struct {
	Model      string     `json:"model"`
	Input      Input      `json:"input"`
	Parameters Parameters `json:"parameters,omitempty"`
}

// Input 输入
type Input struct {
	Messages []Message `json:"messages"`
}

// Parameters 参数
type Parameters struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// ChatResponse 聊天响应
type ChatResponse struct {
	Output struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	RequestID string `json:"request_id"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Chat 调用通义千问聊天接口
func (c *DashScopeClient) Chat(ctx context.Context, messages []Message, params Parameters) (string, error) {
	reqBody := ChatRequest{
		Model: c.model,
		Input: Input{
			Messages: messages,
		},
		Parameters: params,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API 返回错误: %d, body: %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}

	text := strings.TrimSpace(chatResp.Output.Text)
	if text == "" {
		return "", fmt.Errorf("API 返回空内容: request_id=%s code=%s", chatResp.RequestID, chatResp.Code)
	}

	c.logger.Debug("LLM 调用完成",
		zap.String("requestId", chatResp.RequestID),
		zap.Int("inputTokens", chatResp.Usage.InputTokens),
		zap.Int("outputTokens", chatResp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// Generate 按提示词生成文本
func (c *DashScopeClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	messages := []Message{{Role: "user", Content: prompt}}
	return c.Chat(ctx, messages, Parameters{Temperature: temperature, MaxTokens: maxTokens})
}
