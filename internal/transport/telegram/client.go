package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"AOChat-Wallet/internal/transport"
)

const (
	defaultAPIURL      = "https://api.telegram.org"
	defaultPollTimeout = 30 * time.Second
)

// Config 描述 Bot API 客户端的连接参数。
type Config struct {
	Token       string
	APIURL      string
	PollTimeout time.Duration
}

// Client 是 Telegram Bot API 的薄封装，实现 transport.Messenger。
type Client struct {
	baseURL     string
	pollTimeout time.Duration
	httpClient  *http.Client
}

// NewClient 根据配置创建 Bot API 客户端。
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("未提供 Telegram Bot Token")
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &Client{
		baseURL:     apiURL + "/bot" + token,
		pollTimeout: pollTimeout,
		// 长轮询请求的超时要长于 Bot API 的挂起时间。
		httpClient: &http.Client{Timeout: pollTimeout + 15*time.Second},
	}, nil
}

// Update 是一条入站消息的精简视图。
type Update struct {
	UpdateID int64
	ChatID   string
	UserID   string
	Text     string
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// applyOptions 把 transport.SendOptions 映射到 Bot API 请求字段。
func applyOptions(payload map[string]any, opts *transport.SendOptions) {
	if opts == nil {
		return
	}
	if opts.ParseMode != "" {
		payload["parse_mode"] = opts.ParseMode
	}
	if opts.DisableLinkPreview {
		payload["disable_web_page_preview"] = true
	}
}

// Send 实现 transport.Messenger。
func (c *Client) Send(ctx context.Context, chatID, text string, opts *transport.SendOptions) (string, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	applyOptions(payload, opts)

	var message struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.call(ctx, "sendMessage", payload, &message); err != nil {
		return "", err
	}
	return strconv.FormatInt(message.MessageID, 10), nil
}

// Edit 实现 transport.Messenger。
func (c *Client) Edit(ctx context.Context, chatID, messageID, text string, opts *transport.SendOptions) error {
	id, err := strconv.ParseInt(messageID, 10, 64)
	if err != nil {
		return fmt.Errorf("非法的消息标识 %q: %w", messageID, err)
	}
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": id,
		"text":       text,
	}
	applyOptions(payload, opts)
	return c.call(ctx, "editMessageText", payload, nil)
}

// Poll 以长轮询方式消费入站消息，直到上下文取消。
// 每条带文本的私聊消息触发一次 handler。
func (c *Client) Poll(ctx context.Context, handler func(ctx context.Context, update Update)) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		payload := map[string]any{
			"timeout":         int(c.pollTimeout / time.Second),
			"offset":          offset,
			"allowed_updates": []string{"message"},
		}
		var updates []struct {
			UpdateID int64 `json:"update_id"`
			Message  *struct {
				MessageID int64  `json:"message_id"`
				Text      string `json:"text"`
				Chat      struct {
					ID int64 `json:"id"`
				} `json:"chat"`
				From struct {
					ID int64 `json:"id"`
				} `json:"from"`
			} `json:"message"`
		}
		if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			// 拉取失败不终止循环，稍作等待后继续。
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
				continue
			}
			handler(ctx, Update{
				UpdateID: update.UpdateID,
				ChatID:   strconv.FormatInt(update.Message.Chat.ID, 10),
				UserID:   strconv.FormatInt(update.Message.From.ID, 10),
				Text:     update.Message.Text,
			})
		}
	}
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化 %s 请求失败: %w", method, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构建 %s 请求失败: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("请求 Bot API 失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("读取 Bot API 响应失败: %w", err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("解析 Bot API 响应失败: %w", err)
	}
	if !decoded.OK {
		return classifyError(decoded.ErrorCode, decoded.Description)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("解析 %s 结果失败: %w", method, err)
	}
	return nil
}

// classifyError 把 Bot API 错误映射为传输层错误类别：
// 403 表示对方拉黑了机器人，400 且描述包含 chat not found
// 表示会话已删除。
func classifyError(code int, description string) error {
	lower := strings.ToLower(description)
	switch {
	case code == http.StatusForbidden:
		return transport.ErrBlocked
	case code == http.StatusBadRequest && strings.Contains(lower, "chat not found"):
		return transport.ErrChatNotFound
	default:
		return fmt.Errorf("Bot API 错误 %d: %s", code, description)
	}
}
