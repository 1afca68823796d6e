package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"AOChat-Wallet/internal/convo"
	xerrors "AOChat-Wallet/internal/errors"
	"AOChat-Wallet/internal/intent"
	"AOChat-Wallet/internal/llm"
	"AOChat-Wallet/pkg/logger"
)

// Executor 执行一条已解析的命令并返回用户可读文本。由编排引擎实现。
type Executor interface {
	Execute(ctx context.Context, userID string, cmd intent.Command) string
}

// Agent 是快速匹配落空后的兜底路径：把消息交给大模型，模型通过
// 工具调用落回封闭命令集，本层负责工具结果的回填与迭代控制。
type Agent struct {
	llmClient  llm.Client
	executor   Executor
	maxRounds  int
	llmTimeout time.Duration
	log        *slog.Logger
}

// Option 定义可选的 Agent 配置。
type Option func(*Agent)

const (
	// defaultMaxRounds 是一次消息允许的工具调用迭代上限，
	// 防止模型在工具之间打转。
	defaultMaxRounds  = 3
	defaultLLMTimeout = 60 * time.Second
)

// WithMaxRounds 设置工具调用迭代上限。
func WithMaxRounds(rounds int) Option {
	return func(a *Agent) {
		if rounds > 0 {
			a.maxRounds = rounds
		}
	}
}

// WithLLMTimeout 设置单次大模型调用的超时时间。
func WithLLMTimeout(timeout time.Duration) Option {
	return func(a *Agent) {
		if timeout > 0 {
			a.llmTimeout = timeout
		}
	}
}

// New 创建兜底调度器。
func New(llmClient llm.Client, executor Executor, opts ...Option) *Agent {
	agent := &Agent{
		llmClient:  llmClient,
		executor:   executor,
		maxRounds:  defaultMaxRounds,
		llmTimeout: defaultLLMTimeout,
		log:        logger.Named("agent"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(agent)
		}
	}
	return agent
}

const systemPrompt = `You are a custodial wallet assistant on the AO network.
You help users transfer tokens, swap tokens, and check balances.
Use the provided tools to act on the user's behalf. Tool results are final:
report them to the user as-is, never invent transaction ids or balances.
If the request is unrelated to the wallet, answer briefly in plain language.`

// Respond 处理一条无法快速匹配的消息。最多迭代 maxRounds 轮工具
// 调用；超出上限后以最后一次文本回复兜底。
func (a *Agent) Respond(ctx context.Context, userID, message string, history []convo.Turn) (string, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, turn := range history {
		role := llm.RoleUser
		if turn.Role == convo.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	lastReply := ""
	for round := 0; round < a.maxRounds; round++ {
		response, err := a.generate(ctx, llm.Request{Messages: messages, Tools: toolSpecs})
		if err != nil {
			return "", xerrors.Wrap(xerrors.CodeUpstreamTimeout, err, "大模型调用失败")
		}
		if len(response.ToolCalls) == 0 {
			if reply := strings.TrimSpace(response.Reply); reply != "" {
				return reply, nil
			}
			break
		}
		lastReply = response.Reply

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   response.Reply,
			ToolCalls: response.ToolCalls,
		})
		for _, call := range response.ToolCalls {
			result := a.invokeTool(ctx, userID, call)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	if reply := strings.TrimSpace(lastReply); reply != "" {
		return reply, nil
	}
	a.log.Warn("迭代上限内未得到最终回复", "user_id", userID, "max_rounds", a.maxRounds)
	return "Sorry, I couldn't finish that request. Please try rephrasing it.", nil
}

func (a *Agent) generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.llmTimeout)
	defer cancel()
	return a.llmClient.Generate(ctx, req)
}

// invokeTool 把模型的工具调用映射为封闭命令并交给执行器。
// 未知工具与参数错误以文本形式回给模型，让它自行纠正。
func (a *Agent) invokeTool(ctx context.Context, userID string, call llm.ToolCall) string {
	cmd, err := commandFromToolCall(call)
	if err != nil {
		a.log.Warn("工具调用参数无效", "user_id", userID, "tool", call.Name, "error", err)
		return "tool error: " + err.Error()
	}
	a.log.Info("执行工具调用", "user_id", userID, "tool", call.Name)
	return a.executor.Execute(ctx, userID, cmd)
}
