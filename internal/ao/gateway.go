package ao

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultMessengerURL = "https://mu.ao-testnet.xyz"
	defaultComputeURL   = "https://cu.ao-testnet.xyz"
	defaultTimeout      = 30 * time.Second
)

// GatewayConfig 描述网关客户端的连接参数。
type GatewayConfig struct {
	// MessengerURL 是接收已签名消息的 MU 节点地址。
	MessengerURL string
	// ComputeURL 是提供只读查询与结果读取的 CU 节点地址。
	ComputeURL string
	Timeout    time.Duration
}

// Gateway 通过 HTTP 网关访问消息网络，实现 Client 接口。
type Gateway struct {
	messengerURL string
	computeURL   string
	httpClient   *http.Client
}

// NewGateway 根据配置创建网关客户端。
func NewGateway(cfg GatewayConfig) *Gateway {
	messengerURL := strings.TrimRight(strings.TrimSpace(cfg.MessengerURL), "/")
	if messengerURL == "" {
		messengerURL = defaultMessengerURL
	}
	computeURL := strings.TrimRight(strings.TrimSpace(cfg.ComputeURL), "/")
	if computeURL == "" {
		computeURL = defaultComputeURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{
		messengerURL: messengerURL,
		computeURL:   computeURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// submitEnvelope 是提交给 MU 的消息信封。
type submitEnvelope struct {
	ID        string `json:"Id"`
	Target    string `json:"Target"`
	Owner     string `json:"Owner"`
	Data      string `json:"Data"`
	Tags      []Tag  `json:"Tags"`
	Signature string `json:"Signature"`
}

// Submit 组装并签名消息信封后投递到 MU，返回消息标识。
func (g *Gateway) Submit(ctx context.Context, processID string, tags []Tag, data string, signer Signer) (string, error) {
	if signer == nil {
		return "", errors.New("未提供消息签名者")
	}
	processID = strings.TrimSpace(processID)
	if processID == "" {
		return "", errors.New("进程地址不能为空")
	}

	envelope := submitEnvelope{
		ID:     uuid.NewString(),
		Target: processID,
		Owner:  signer.Address(),
		Data:   data,
		Tags:   tags,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("序列化消息信封失败: %w", err)
	}
	signature, err := signer.Sign(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("消息签名失败: %w", err)
	}
	envelope.Signature = base64.RawURLEncoding.EncodeToString(signature)

	body, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("序列化已签名消息失败: %w", err)
	}

	var decoded struct {
		ID string `json:"id"`
	}
	if err := g.post(ctx, g.messengerURL+"/", body, &decoded); err != nil {
		return "", err
	}
	if decoded.ID == "" {
		// 部分 MU 实现不回传消息标识，退回到信封自带的标识。
		return envelope.ID, nil
	}
	return decoded.ID, nil
}

// DryRun 执行只读查询，不会改变进程状态。
func (g *Gateway) DryRun(ctx context.Context, processID string, tags []Tag, owner string) (*ReadResult, error) {
	processID = strings.TrimSpace(processID)
	if processID == "" {
		return nil, errors.New("进程地址不能为空")
	}

	request := struct {
		Target string `json:"Target"`
		Owner  string `json:"Owner"`
		Tags   []Tag  `json:"Tags"`
	}{Target: processID, Owner: owner, Tags: tags}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("序列化查询请求失败: %w", err)
	}

	endpoint := g.computeURL + "/dry-run?process-id=" + url.QueryEscape(processID)
	var result ReadResult
	if err := g.post(ctx, endpoint, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchResult 读取一条已提交消息的执行结果。
func (g *Gateway) FetchResult(ctx context.Context, messageID, processID string) (*MessageResult, error) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return nil, errors.New("消息标识不能为空")
	}
	endpoint := fmt.Sprintf("%s/result/%s?process-id=%s",
		g.computeURL, url.PathEscape(messageID), url.QueryEscape(processID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("构建结果查询请求失败: %w", err)
	}
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("请求执行结果失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("结果查询返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result MessageResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析执行结果失败: %w", err)
	}
	return &result, nil
}

func (g *Gateway) post(ctx context.Context, endpoint string, body []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构建网关请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("请求网关失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("网关返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析网关响应失败: %w", err)
	}
	return nil
}
