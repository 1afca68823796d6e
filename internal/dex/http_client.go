package dex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// ClientConfig 描述聚合器 HTTP 客户端的连接参数。
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client 通过 HTTP 调用 DEX 聚合器服务，实现 Aggregator 接口。
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient 根据配置创建聚合器客户端。
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("未配置 DEX 聚合器地址")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Quote 实现 Aggregator 接口。
func (c *Client) Quote(ctx context.Context, fromProcessID, toProcessID, amountBase, owner string) (*Quote, error) {
	request := map[string]string{
		"from":   fromProcessID,
		"to":     toProcessID,
		"amount": amountBase,
		"owner":  owner,
	}
	var quote Quote
	if err := c.post(ctx, "/quote", request, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// Execute 实现 Aggregator 接口。
func (c *Client) Execute(ctx context.Context, route Route, fromProcessID, toProcessID, inputAmount, minOutput, owner string) (*ExecuteResult, error) {
	request := map[string]any{
		"route":     route,
		"from":      fromProcessID,
		"to":        toProcessID,
		"amount":    inputAmount,
		"minOutput": minOutput,
		"owner":     owner,
	}
	var result ExecuteResult
	if err := c.post(ctx, "/swap", request, &result); err != nil {
		return nil, err
	}
	if result.MessageID == "" {
		return nil, errors.New("聚合器未返回消息标识")
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化聚合器请求失败: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构建聚合器请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("请求聚合器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("聚合器返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析聚合器响应失败: %w", err)
	}
	return nil
}
