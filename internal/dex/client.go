package dex

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	xerrors "AOChat-Wallet/internal/errors"
)

// Route 是聚合器给出的一条兑换路径，内容对本层不透明，
// 执行时原样回传。
type Route map[string]any

// Quote 是一次询价的结果。BestRoute 为空表示没有可行路径。
type Quote struct {
	BestRoute       Route  `json:"bestRoute"`
	EstimatedOutput string `json:"estimatedOutput"`
	InputAmount     string `json:"inputAmount"`
}

// ExecuteResult 是兑换提交后的回执。
type ExecuteResult struct {
	MessageID string `json:"messageId"`
}

// Aggregator 定义 DEX 聚合器的调用契约：询价与执行。
type Aggregator interface {
	Quote(ctx context.Context, fromProcessID, toProcessID, amountBase, owner string) (*Quote, error)
	Execute(ctx context.Context, route Route, fromProcessID, toProcessID, inputAmount, minOutput, owner string) (*ExecuteResult, error)
}

// MinAmount 依据滑点容忍度（基点）从预估产出计算可接受的最小
// 产出，向下取整避免放大产出。
func MinAmount(estimatedOutput string, slippageBps int) (string, error) {
	estimated, err := decimal.NewFromString(strings.TrimSpace(estimatedOutput))
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeInvalidAmount, err, "预估产出无法解析: "+estimatedOutput)
	}
	if estimated.Sign() < 0 {
		return "", xerrors.New(xerrors.CodeInvalidAmount, "预估产出不能为负数")
	}
	if slippageBps < 0 {
		slippageBps = 0
	}
	factor := decimal.NewFromInt(10000 - int64(slippageBps)).Div(decimal.NewFromInt(10000))
	return estimated.Mul(factor).Floor().String(), nil
}
