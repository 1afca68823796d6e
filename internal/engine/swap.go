package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"AOChat-Wallet/internal/amount"
	"AOChat-Wallet/internal/dex"
	xerrors "AOChat-Wallet/internal/errors"
	"AOChat-Wallet/internal/events"
	"AOChat-Wallet/internal/intent"
	"AOChat-Wallet/pkg/logger"
)

// executeSwap 执行一次兑换：询价、按滑点计算最小产出、提交执行。
// 兑换提交后不做确认轮询，回执里的消息号即为最终答复。
func (e *Engine) executeSwap(ctx context.Context, userID string, cmd intent.Swap) (string, error) {
	if e.dex == nil {
		return "", xerrors.New(xerrors.CodeNoRouteFound, "未配置聚合器, 兑换不可用")
	}
	from, ok := e.registry.Resolve(cmd.FromToken)
	if !ok {
		return "", xerrors.New(xerrors.CodeUnsupportedToken, "未收录的代币: "+cmd.FromToken,
			xerrors.WithMetadata("token", cmd.FromToken))
	}
	to, ok := e.registry.Resolve(cmd.ToToken)
	if !ok {
		return "", xerrors.New(xerrors.CodeUnsupportedToken, "未收录的代币: "+cmd.ToToken,
			xerrors.WithMetadata("token", cmd.ToToken))
	}

	// 数量按源代币的精度换算。
	amountBase, err := amount.ToBaseUnits(cmd.AmountDisplay, from.Decimals)
	if err != nil {
		return "", err
	}

	_, user, err := e.signerFor(ctx, userID)
	if err != nil {
		return "", err
	}

	quote, err := e.dex.Quote(ctx, from.ProcessID, to.ProcessID, amountBase, user.Address)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeNetworkFailure, err, "兑换询价失败")
	}
	if len(quote.BestRoute) == 0 || amount.IsZeroBase(quote.EstimatedOutput) {
		return "", xerrors.New(xerrors.CodeNoRouteFound,
			fmt.Sprintf("%s -> %s 没有可行路径", from.Alias, to.Alias))
	}

	minOutput, err := dex.MinAmount(quote.EstimatedOutput, e.slippageBps)
	if err != nil {
		return "", err
	}

	result, err := e.dex.Execute(ctx, quote.BestRoute, from.ProcessID, to.ProcessID, amountBase, minOutput, user.Address)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeNetworkFailure, err, "兑换执行失败")
	}

	logger.Audit().Info("兑换已提交",
		"user_id", userID, "address", user.Address,
		"from", from.Alias, "to", to.Alias,
		"amount_base", amountBase, "min_output", minOutput,
		"message_id", result.MessageID)
	event := events.Event{
		ID:         uuid.NewString(),
		Kind:       events.KindSwap,
		UserID:     userID,
		Token:      from.ProcessID,
		ToToken:    to.ProcessID,
		AmountBase: amountBase,
		MessageID:  result.MessageID,
	}
	events.Stamp(&event)
	e.publishEvent(ctx, event)

	estimatedDisplay, err := amount.ToDisplayUnits(quote.EstimatedOutput, to.Decimals)
	if err != nil {
		estimatedDisplay = quote.EstimatedOutput
	}
	return fmt.Sprintf("Swap submitted ✅\nFrom: %s %s\nEstimated: %s %s\nMessage: %s",
		cmd.AmountDisplay, from.Alias, estimatedDisplay, to.Alias, result.MessageID), nil
}
