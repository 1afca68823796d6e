package ao

import "context"

// Tag 是网络消息携带的键值对。代币进程的消息至少包含 Action 标签，
// 以及按操作区分的 Recipient、Quantity、Target、Limit、Cursor 等。
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message 是进程返回的一条输出消息。
type Message struct {
	Data string `json:"Data"`
	Tags []Tag  `json:"Tags"`
}

// ReadResult 是只读查询（dry-run）的结果。
type ReadResult struct {
	Messages []Message `json:"Messages"`
}

// MessageResult 是一条已提交消息的执行结果。
type MessageResult struct {
	Output string `json:"Output"`
	Error  string `json:"Error,omitempty"`
}

// Signer 对即将上网的消息进行签名。具体的签名算法由托管密钥层
// 决定，本层只消费其结果。
type Signer interface {
	// Address 返回签名者的链上地址。
	Address() string
	// Sign 对消息负载签名。
	Sign(ctx context.Context, payload []byte) ([]byte, error)
}

// Client 定义访问消息网络所需的三个原语：提交带签名的消息、
// 只读查询进程状态、读取某条消息的执行结果。
type Client interface {
	Submit(ctx context.Context, processID string, tags []Tag, data string, signer Signer) (string, error)
	DryRun(ctx context.Context, processID string, tags []Tag, owner string) (*ReadResult, error)
	FetchResult(ctx context.Context, messageID, processID string) (*MessageResult, error)
}

// TagValue 返回指定名称的标签值，不存在时返回空串。
func TagValue(tags []Tag, name string) string {
	for _, tag := range tags {
		if tag.Name == name {
			return tag.Value
		}
	}
	return ""
}
