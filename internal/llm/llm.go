package llm

import "context"

// Message 是发给大模型的一条对话消息。role 取值 system/user/
// assistant/tool；tool 消息通过 ToolCallID 关联模型发起的调用。
type Message struct {
	Role       string
	Content    string
	ToolCallID string
	ToolCalls  []ToolCall
}

// 对话消息角色。
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolSpec 描述一个可供模型调用的工具：名称、说明与 JSON Schema
// 形式的入参定义。
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall 是模型发起的一次工具调用，Arguments 为原始 JSON。
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Request 描述一次推理请求：完整对话转录与可用工具。
type Request struct {
	Messages []Message
	Tools    []ToolSpec
}

// Response 是模型的一步输出：要么给出最终文本回复，要么发起
// 一组工具调用，由上层执行后把结果追加进转录再次请求。
type Response struct {
	Reply     string
	ToolCalls []ToolCall
}

// Client 定义了调用大模型的统一接口。
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
