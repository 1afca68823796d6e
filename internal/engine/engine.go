package engine

import (
	"context"
	"crypto/rand"
	"log/slog"
	"strings"
	"time"

	"AOChat-Wallet/internal/ao"
	"AOChat-Wallet/internal/convo"
	"AOChat-Wallet/internal/dex"
	xerrors "AOChat-Wallet/internal/errors"
	"AOChat-Wallet/internal/events"
	"AOChat-Wallet/internal/intent"
	"AOChat-Wallet/internal/observability/alerting"
	"AOChat-Wallet/internal/token"
	"AOChat-Wallet/internal/vault"
	"AOChat-Wallet/internal/wallet"
	"AOChat-Wallet/pkg/logger"
)

// Fallback 是快速匹配全部落空时的兜底路径，由大模型调度器实现。
type Fallback interface {
	Respond(ctx context.Context, userID, message string, history []convo.Turn) (string, error)
}

// Engine 把聊天文本变成经过校验、单位正确的网络操作，
// 是命令解析与交易编排的核心。
type Engine struct {
	registry     *token.Registry
	users        wallet.Store
	vault        *vault.Vault
	network      ao.Client
	dex          dex.Aggregator
	conversation convo.Store
	resolver     *intent.Resolver
	publisher    events.Publisher
	alerts       alerting.Dispatcher
	fallback     Fallback

	slippageBps  int
	confirmDelay time.Duration
	log          *slog.Logger
}

// Option 定义可选的 Engine 配置。
type Option func(*Engine)

const (
	defaultSlippageBps  = 50
	defaultConfirmDelay = 3 * time.Second
)

// WithSlippageBps 设置兑换的滑点容忍度（基点）。
func WithSlippageBps(bps int) Option {
	return func(e *Engine) {
		if bps > 0 {
			e.slippageBps = bps
		}
	}
}

// WithConfirmDelay 设置转账提交后确认检查前的固定等待。
func WithConfirmDelay(delay time.Duration) Option {
	return func(e *Engine) {
		if delay > 0 {
			e.confirmDelay = delay
		}
	}
}

// WithEventPublisher 配置资金变动事件流。
func WithEventPublisher(publisher events.Publisher) Option {
	return func(e *Engine) {
		if publisher != nil {
			e.publisher = publisher
		}
	}
}

// WithAlertDispatcher 配置严重错误的告警分发器。
func WithAlertDispatcher(dispatcher alerting.Dispatcher) Option {
	return func(e *Engine) {
		if dispatcher != nil {
			e.alerts = dispatcher
		}
	}
}

// New 创建编排引擎。
func New(registry *token.Registry, users wallet.Store, keyVault *vault.Vault,
	network ao.Client, aggregator dex.Aggregator, conversation convo.Store, opts ...Option) *Engine {
	eng := &Engine{
		registry:     registry,
		users:        users,
		vault:        keyVault,
		network:      network,
		dex:          aggregator,
		conversation: conversation,
		resolver:     intent.NewResolver(),
		publisher:    events.NopPublisher{},
		slippageBps:  defaultSlippageBps,
		confirmDelay: defaultConfirmDelay,
		log:          logger.Named("engine"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(eng)
		}
	}
	return eng
}

// SetFallback 注入大模型兜底路径。单独提供是为了打破引擎与
// 调度器之间的构造顺序依赖。
func (e *Engine) SetFallback(fallback Fallback) {
	e.fallback = fallback
}

// HandleMessage 处理一条入站消息并返回要回给用户的文本。
// 斜杠命令 → 快速匹配 → 大模型兜底，三层依次尝试。
func (e *Engine) HandleMessage(ctx context.Context, userID, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "Please send a text message."
	}

	// 斜杠命令不进入对话窗口，/reset 之后窗口保持为空。
	if reply, handled := e.handleSlashCommand(ctx, userID, text); handled {
		return reply
	}

	reply := e.dispatch(ctx, userID, text)

	// 对话窗口在回复产生后统一追加，窗口上限由存储层保证。
	if err := e.conversation.Append(ctx, userID, convo.Turn{Role: convo.RoleUser, Content: text}); err != nil {
		e.log.Warn("追加用户回合失败", "user_id", userID, "error", err)
	}
	if err := e.conversation.Append(ctx, userID, convo.Turn{Role: convo.RoleAssistant, Content: reply}); err != nil {
		e.log.Warn("追加助手回合失败", "user_id", userID, "error", err)
	}
	return reply
}

func (e *Engine) dispatch(ctx context.Context, userID, text string) string {
	if cmd, matcher := e.resolver.Resolve(text); cmd != nil {
		e.log.Debug("快速匹配命中", "user_id", userID, "matcher", matcher)
		return e.Execute(ctx, userID, cmd)
	}

	if e.fallback == nil {
		return "Sorry, I didn't understand that. Try \"send 1 AO to <address>\" or \"my balance\"."
	}
	history, err := e.conversation.Get(ctx, userID)
	if err != nil {
		e.log.Warn("读取对话窗口失败", "user_id", userID, "error", err)
	}
	reply, err := e.fallback.Respond(ctx, userID, text, convo.Recent(history, convo.AgentContextSize))
	if err != nil {
		return e.renderError(ctx, userID, "agent", err)
	}
	return reply
}

// Execute 执行封闭命令集中的一个变体并返回用户可读文本。
// 业务校验类错误在这里就地转成文案，绝不向上抛出。
func (e *Engine) Execute(ctx context.Context, userID string, cmd intent.Command) string {
	switch c := cmd.(type) {
	case intent.Transfer:
		reply, err := e.executeTransfer(ctx, userID, c)
		if err != nil {
			return e.renderError(ctx, userID, "transfer", err)
		}
		return reply
	case intent.Swap:
		reply, err := e.executeSwap(ctx, userID, c)
		if err != nil {
			return e.renderError(ctx, userID, "swap", err)
		}
		return reply
	case intent.CheckBalance:
		reply, err := e.checkBalance(ctx, userID, c)
		if err != nil {
			return e.renderError(ctx, userID, "balance", err)
		}
		return reply
	case intent.ListBalances:
		reply, err := e.listBalances(ctx, userID, c)
		if err != nil {
			return e.renderError(ctx, userID, "holders", err)
		}
		return reply
	case intent.WalletInfo:
		reply, err := e.walletInfo(ctx, userID)
		if err != nil {
			return e.renderError(ctx, userID, "wallet_info", err)
		}
		return reply
	default:
		return "Sorry, I can't do that yet."
	}
}

func (e *Engine) handleSlashCommand(ctx context.Context, userID, text string) (string, bool) {
	switch strings.ToLower(strings.Fields(text)[0]) {
	case "/start":
		return e.startWallet(ctx, userID), true
	case "/reset":
		if err := e.conversation.Clear(ctx, userID); err != nil {
			e.log.Warn("清空对话窗口失败", "user_id", userID, "error", err)
		}
		return "Conversation history cleared.", true
	default:
		return "", false
	}
}

// startWallet 返回已有钱包信息，或为新用户开通一个托管钱包。
func (e *Engine) startWallet(ctx context.Context, userID string) string {
	user, err := e.users.FindByExternalID(ctx, userID)
	if err == nil {
		return "Welcome back!\nYour wallet address: " + user.Address
	}
	if xerrors.CodeOf(err) != xerrors.CodeUserNotFound {
		return e.renderError(ctx, userID, "start", err)
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return e.renderError(ctx, userID, "start",
			xerrors.Wrap(xerrors.CodeUnknown, err, "生成钱包种子失败"))
	}
	credential, err := e.vault.Encrypt(seed)
	if err != nil {
		return e.renderError(ctx, userID, "start",
			xerrors.Wrap(xerrors.CodeUnknown, err, "加密钱包凭据失败"))
	}
	signer, err := e.vault.Decrypt(credential)
	if err != nil {
		return e.renderError(ctx, userID, "start",
			xerrors.Wrap(xerrors.CodeUnknown, err, "校验钱包凭据失败"))
	}
	newUser := &wallet.User{
		ExternalID: userID,
		Address:    signer.Address(),
		Credential: credential,
	}
	if err := e.users.Create(ctx, newUser); err != nil {
		return e.renderError(ctx, userID, "start", err)
	}
	return "Wallet created! 🎉\nYour wallet address: " + newUser.Address
}

// signerFor 解出用户的签名者。用户不存在与凭据不可用分别映射为
// UserNotFound 与 WalletMissing。
func (e *Engine) signerFor(ctx context.Context, userID string) (ao.Signer, *wallet.User, error) {
	user, err := e.users.FindByExternalID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(user.Credential) == "" {
		return nil, nil, xerrors.New(xerrors.CodeWalletMissing, "用户没有托管凭据")
	}
	signer, err := e.vault.Decrypt(user.Credential)
	if err != nil {
		return nil, nil, xerrors.Wrap(xerrors.CodeWalletMissing, err, "凭据解密失败")
	}
	return signer, user, nil
}

// renderError 是错误传播策略的落点：业务错误转成具体文案，
// 其余记日志、按需告警，并回以统一的致歉文案。
func (e *Engine) renderError(ctx context.Context, userID, operation string, err error) string {
	switch xerrors.CodeOf(err) {
	case xerrors.CodeUserNotFound, xerrors.CodeWalletMissing:
		return "You don't have a wallet yet. Use /start to create one."
	case xerrors.CodeUnsupportedToken:
		if meta := metadataOf(err, "token"); meta != "" {
			return "Unsupported token: " + meta
		}
		return "Unsupported token."
	case xerrors.CodeInvalidAmount:
		return "That amount doesn't look right. Please send a positive number."
	case xerrors.CodeInsufficientBalance:
		return "Insufficient balance: there is nothing to send."
	case xerrors.CodeNoRouteFound:
		return "No swap route found for that pair."
	}

	e.log.Error("操作失败", "user_id", userID, "operation", operation, "error", err)
	if e.alerts != nil && xerrors.ShouldAlert(err) {
		_ = e.alerts.Notify(ctx, alerting.Event{
			Code:      xerrors.CodeOf(err),
			Message:   err.Error(),
			Severity:  xerrors.SeverityOf(err),
			UserID:    userID,
			Operation: operation,
		})
	}
	return "Sorry, something went wrong. Please try again later."
}

func metadataOf(err error, key string) string {
	if e, ok := xerrors.From(err); ok {
		return e.Metadata()[key]
	}
	return ""
}

// publishEvent 发布资金变动事件，失败只记日志，绝不影响业务路径。
func (e *Engine) publishEvent(ctx context.Context, event events.Event) {
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.log.Warn("发布操作事件失败", "event_id", event.ID, "error", err)
	}
}

func shortAddress(addr string) string {
	return token.ShortenID(addr)
}
