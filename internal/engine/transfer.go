package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"AOChat-Wallet/internal/amount"
	"AOChat-Wallet/internal/ao"
	xerrors "AOChat-Wallet/internal/errors"
	"AOChat-Wallet/internal/events"
	"AOChat-Wallet/internal/intent"
	"AOChat-Wallet/pkg/logger"
)

// executeTransfer 执行一笔转账：解析代币、取出签名者、归一化金额、
// 提交消息，随后做一次乐观的确认检查。
func (e *Engine) executeTransfer(ctx context.Context, userID string, cmd intent.Transfer) (string, error) {
	// 未指定代币时默认网络原生代币（注册表首项）。
	tokenRef := cmd.TokenAliasOrID
	if strings.TrimSpace(tokenRef) == "" {
		tokenRef = e.registry.Tracked()[0].Alias
	}
	descriptor, ok := e.registry.Resolve(tokenRef)
	if !ok {
		return "", xerrors.New(xerrors.CodeUnsupportedToken, "未收录的代币: "+tokenRef,
			xerrors.WithMetadata("token", tokenRef))
	}

	signer, user, err := e.signerFor(ctx, userID)
	if err != nil {
		return "", err
	}

	var amountBase string
	if cmd.IsAll {
		// all/max 取提交时刻的实时余额，原样作为转账数量，
		// 不做任何显示层换算。随后余额若被并发消费，由网络
		// 侧的余额检查兜底。
		amountBase, err = e.fetchBalance(ctx, descriptor.ProcessID, user.Address)
		if err != nil {
			return "", err
		}
		if amount.IsZeroBase(amountBase) {
			return "", xerrors.New(xerrors.CodeInsufficientBalance, "余额为零，无可转数量")
		}
		if err := amount.ValidateBase(amountBase); err != nil {
			return "", err
		}
		e.log.Info("all/max 转账使用实时余额", "user_id", userID,
			"token", descriptor.Alias, "amount_base", amountBase)
	} else {
		amountBase, err = amount.ToBaseUnits(cmd.AmountDisplay, descriptor.Decimals)
		if err != nil {
			return "", err
		}
	}

	messageID, err := e.network.Submit(ctx, descriptor.ProcessID, []ao.Tag{
		{Name: "Action", Value: "Transfer"},
		{Name: "Recipient", Value: cmd.Recipient},
		{Name: "Quantity", Value: amountBase},
	}, "", signer)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeNetworkFailure, err, "转账消息提交失败")
	}

	logger.Audit().Info("转账已提交",
		"user_id", userID, "address", user.Address,
		"token", descriptor.Alias, "process_id", descriptor.ProcessID,
		"amount_base", amountBase, "recipient", cmd.Recipient,
		"message_id", messageID)
	event := events.Event{
		ID:         uuid.NewString(),
		Kind:       events.KindTransfer,
		UserID:     userID,
		Token:      descriptor.ProcessID,
		AmountBase: amountBase,
		Recipient:  cmd.Recipient,
		MessageID:  messageID,
	}
	events.Stamp(&event)
	e.publishEvent(ctx, event)

	display, err := amount.ToDisplayUnits(amountBase, descriptor.Decimals)
	if err != nil {
		display = amountBase
	}
	status := e.confirmTransfer(ctx, messageID, descriptor.ProcessID)

	return fmt.Sprintf("Transfer submitted ✅\nAmount: %s %s\nRecipient: %s\nMessage: %s\nStatus: %s",
		display, descriptor.Alias, shortAddress(cmd.Recipient), messageID, status), nil
}

// confirmTransfer 在固定等待后读取一次执行结果。确认本身是尽力而为：
// 读取失败或超时都按 processing 上报，绝不据此回滚用户侧文案。
func (e *Engine) confirmTransfer(ctx context.Context, messageID, processID string) string {
	select {
	case <-ctx.Done():
		return "processing"
	case <-time.After(e.confirmDelay):
	}

	result, err := e.network.FetchResult(ctx, messageID, processID)
	if err != nil {
		e.log.Warn("确认检查失败，按 processing 上报", "message_id", messageID, "error", err)
		return "processing"
	}
	if result.Error != "" {
		e.log.Warn("转账执行返回错误", "message_id", messageID, "process_error", result.Error)
		return "processing"
	}
	return "confirmed"
}

// fetchBalance 向代币进程做只读余额查询，返回最小单位的原始数量。
func (e *Engine) fetchBalance(ctx context.Context, processID, address string) (string, error) {
	result, err := e.network.DryRun(ctx, processID, []ao.Tag{
		{Name: "Action", Value: "Balance"},
		{Name: "Target", Value: address},
	}, address)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeNetworkFailure, err, "余额查询失败")
	}
	if len(result.Messages) == 0 {
		return "", xerrors.New(xerrors.CodeNetworkFailure, "余额查询没有返回消息")
	}
	msg := result.Messages[0]
	if raw := ao.TagValue(msg.Tags, "Balance"); raw != "" {
		return raw, nil
	}
	if msg.Data != "" {
		return msg.Data, nil
	}
	return "", xerrors.New(xerrors.CodeNetworkFailure, "余额查询返回为空")
}
