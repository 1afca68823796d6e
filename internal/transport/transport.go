package transport

import (
	"context"

	xerrors "AOChat-Wallet/internal/errors"
)

// SendOptions 控制单条消息的投递形式。
type SendOptions struct {
	ParseMode          string
	DisableLinkPreview bool
}

// 传输层的两类可容忍失败：对方已拉黑机器人、会话已不存在。
// 其余错误一律向上传播。
var (
	ErrBlocked      = xerrors.New(xerrors.CodeTransportBlocked, "")
	ErrChatNotFound = xerrors.New(xerrors.CodeTransportChatNotFound, "")
)

// Messenger 定义会话传输的最小契约：发送与编辑。
type Messenger interface {
	// Send 发送一条消息，返回消息标识。
	Send(ctx context.Context, chatID, text string, opts *SendOptions) (string, error)
	// Edit 编辑既有消息的文本。
	Edit(ctx context.Context, chatID, messageID, text string, opts *SendOptions) error
}
