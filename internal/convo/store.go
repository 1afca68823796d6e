package convo

import (
	"context"
	"time"
)

// WindowCap 是每个用户保留的最大对话轮数，超出后从最旧一侧裁剪。
const WindowCap = 20

// AgentContextSize 是提供给大模型兜底路径的最近轮数。
const AgentContextSize = 10

// Turn 是一轮对话：用户或助手的一条消息。
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// 对话角色。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Store 是按用户键控的滑动窗口存储。实现必须保证窗口长度
// 恒 ≤ WindowCap。
type Store interface {
	// Get 返回用户的完整窗口，按时间先后排序。
	Get(ctx context.Context, userID string) ([]Turn, error)
	// Append 追加一轮并裁剪到 WindowCap。
	Append(ctx context.Context, userID string, turn Turn) error
	// Clear 清空用户的窗口。
	Clear(ctx context.Context, userID string) error
}

// Recent 返回窗口中最近的 n 轮。
func Recent(window []Turn, n int) []Turn {
	if n <= 0 || len(window) == 0 {
		return nil
	}
	if len(window) <= n {
		return window
	}
	return window[len(window)-n:]
}
