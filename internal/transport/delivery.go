package transport

import (
	"context"
	"errors"
	"log/slog"

	"AOChat-Wallet/pkg/logger"
)

// SafeSender 包装 Messenger 的每一次出站调用：拉黑与会话不存在
// 两类失败只记日志并返回未送达，不会让会话循环崩溃；其余错误
// 原样向上传播。
type SafeSender struct {
	messenger Messenger
	log       *slog.Logger
}

// NewSafeSender 创建 SafeSender。
func NewSafeSender(messenger Messenger) *SafeSender {
	return &SafeSender{
		messenger: messenger,
		log:       logger.Named("delivery"),
	}
}

// Send 发送消息。返回值 delivered 为 false 表示对方不可达，
// 调用方不应重试。
func (s *SafeSender) Send(ctx context.Context, chatID, text string, opts *SendOptions) (messageID string, delivered bool, err error) {
	messageID, err = s.messenger.Send(ctx, chatID, text, opts)
	if err == nil {
		return messageID, true, nil
	}
	if s.swallow(chatID, err) {
		return "", false, nil
	}
	return "", false, err
}

// Edit 编辑消息，失败语义与 Send 一致。
func (s *SafeSender) Edit(ctx context.Context, chatID, messageID, text string, opts *SendOptions) (delivered bool, err error) {
	err = s.messenger.Edit(ctx, chatID, messageID, text, opts)
	if err == nil {
		return true, nil
	}
	if s.swallow(chatID, err) {
		return false, nil
	}
	return false, err
}

func (s *SafeSender) swallow(chatID string, err error) bool {
	switch {
	case errors.Is(err, ErrBlocked):
		s.log.Info("对方已拉黑机器人，放弃投递", "chat_id", chatID)
		return true
	case errors.Is(err, ErrChatNotFound):
		s.log.Info("会话已不存在，放弃投递", "chat_id", chatID)
		return true
	default:
		return false
	}
}
