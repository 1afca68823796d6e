package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"AOChat-Wallet/internal/amount"
	"AOChat-Wallet/internal/ao"
	xerrors "AOChat-Wallet/internal/errors"
	"AOChat-Wallet/internal/intent"
	"AOChat-Wallet/internal/token"
)

const (
	holdersTopN = 10
	// balancesReadLimit 约束一次 Balances 读取返回的条目数，
	// 大持仓表不分页，榜单只需要头部。
	balancesReadLimit = "1000"
)

// walletInfo 返回用户的钱包地址。
func (e *Engine) walletInfo(ctx context.Context, userID string) (string, error) {
	user, err := e.users.FindByExternalID(ctx, userID)
	if err != nil {
		return "", err
	}
	return "Your wallet address: " + user.Address, nil
}

// checkBalance 查询单个代币余额，或在 Alias 为空时聚合全部追踪代币。
func (e *Engine) checkBalance(ctx context.Context, userID string, cmd intent.CheckBalance) (string, error) {
	user, err := e.users.FindByExternalID(ctx, userID)
	if err != nil {
		return "", err
	}
	if cmd.Alias == "" {
		return e.aggregateBalances(ctx, user.Address)
	}

	descriptor, ok := e.registry.Resolve(cmd.Alias)
	if !ok {
		return "", xerrors.New(xerrors.CodeUnsupportedToken, "未收录的代币: "+cmd.Alias,
			xerrors.WithMetadata("token", cmd.Alias))
	}
	raw, err := e.fetchBalance(ctx, descriptor.ProcessID, user.Address)
	if err != nil {
		return "", err
	}
	display, err := amount.ToDisplayUnits(raw, descriptor.Decimals)
	if err != nil {
		display = raw
	}
	return fmt.Sprintf("Your %s balance: %s %s", descriptor.Alias, display, descriptor.Alias), nil
}

// aggregateBalances 并发查询全部追踪代币，过滤零余额后按注册表
// 顺序输出。单个代币查询失败只记日志并从结果中省略。
func (e *Engine) aggregateBalances(ctx context.Context, address string) (string, error) {
	tracked := e.registry.Tracked()
	results := make([]string, len(tracked))

	var wg sync.WaitGroup
	for i, descriptor := range tracked {
		wg.Add(1)
		go func(i int, descriptor token.Descriptor) {
			defer wg.Done()
			raw, err := e.fetchBalance(ctx, descriptor.ProcessID, address)
			if err != nil {
				e.log.Warn("聚合余额单项失败", "token", descriptor.Alias, "error", err)
				return
			}
			// 零余额判定走高精度比较，"0"、"0.0"、"000" 一视同仁。
			if amount.IsZeroBase(raw) {
				return
			}
			display, err := amount.ToDisplayUnits(raw, descriptor.Decimals)
			if err != nil {
				e.log.Warn("聚合余额格式化失败", "token", descriptor.Alias, "raw", raw, "error", err)
				return
			}
			results[i] = fmt.Sprintf("%s: %s", descriptor.Alias, display)
		}(i, descriptor)
	}
	wg.Wait()

	var lines []string
	for _, line := range results {
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "No balances found.", nil
	}
	return "Your balances:\n" + strings.Join(lines, "\n"), nil
}

type holderEntry struct {
	Address string
	Balance string
}

// listBalances 读取某个代币进程的全量持仓，输出余额前十名，
// 用户自己的持仓若在榜外则追加在末尾。
func (e *Engine) listBalances(ctx context.Context, userID string, cmd intent.ListBalances) (string, error) {
	user, err := e.users.FindByExternalID(ctx, userID)
	if err != nil {
		return "", err
	}

	result, err := e.network.DryRun(ctx, cmd.ProcessID, []ao.Tag{
		{Name: "Action", Value: "Balances"},
		{Name: "Limit", Value: balancesReadLimit},
	}, user.Address)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeNetworkFailure, err, "持仓查询失败")
	}
	if len(result.Messages) == 0 {
		return "", xerrors.New(xerrors.CodeNetworkFailure, "持仓查询没有返回消息")
	}

	holders, err := parseHolders(result.Messages[0].Data)
	if err != nil {
		return "", err
	}
	if len(holders) == 0 {
		return "No balances found.", nil
	}

	sort.SliceStable(holders, func(i, j int) bool {
		return amount.CompareBase(holders[i].Balance, holders[j].Balance) > 0
	})

	decimals := e.registry.DecimalsOf(cmd.ProcessID)
	label := e.registry.ReverseAlias(cmd.ProcessID)
	if _, known := e.registry.Resolve(cmd.ProcessID); !known {
		// 注册表之外的进程向其 Info 接口要一次元数据，
		// 拿得到就用链上的 ticker 和精度。
		if info := e.fetchTokenInfo(ctx, cmd.ProcessID, user.Address); info != nil {
			if info.Ticker != "" {
				label = info.Ticker
			}
			if info.Denomination > 0 {
				decimals = info.Denomination
			}
		}
	}

	var lines []string
	ownListed := false
	for rank, holder := range holders {
		if rank >= holdersTopN {
			break
		}
		marker := ""
		if holder.Address == user.Address {
			marker = " (you)"
			ownListed = true
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s%s",
			rank+1, shortAddress(holder.Address), displayOrRaw(holder.Balance, decimals), marker))
	}
	if !ownListed {
		for _, holder := range holders {
			if holder.Address == user.Address {
				lines = append(lines, fmt.Sprintf("…\n%s: %s (you)",
					shortAddress(holder.Address), displayOrRaw(holder.Balance, decimals)))
				break
			}
		}
	}
	return fmt.Sprintf("Top holders for %s:\n%s", label, strings.Join(lines, "\n")), nil
}

// parseHolders 解析进程返回的地址到余额映射。余额在 JSON 里可能是
// 字符串也可能是数字，统一转成字符串再比较。
func parseHolders(data string) ([]holderEntry, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	decoder := json.NewDecoder(strings.NewReader(data))
	decoder.UseNumber()
	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeNetworkFailure, err, "持仓数据无法解析")
	}
	holders := make([]holderEntry, 0, len(raw))
	for address, value := range raw {
		var balance string
		switch v := value.(type) {
		case string:
			balance = v
		case json.Number:
			balance = v.String()
		default:
			continue
		}
		holders = append(holders, holderEntry{Address: address, Balance: balance})
	}
	return holders, nil
}

type tokenInfo struct {
	Ticker       string
	Denomination int
}

// fetchTokenInfo 读取代币进程的 Info 元数据。失败只记日志并返回 nil，
// 调用方退回本地注册表的兜底展示。
func (e *Engine) fetchTokenInfo(ctx context.Context, processID, owner string) *tokenInfo {
	result, err := e.network.DryRun(ctx, processID, []ao.Tag{
		{Name: "Action", Value: "Info"},
	}, owner)
	if err != nil || len(result.Messages) == 0 {
		e.log.Warn("Info 查询失败", "process_id", processID, "error", err)
		return nil
	}
	tags := result.Messages[0].Tags
	info := &tokenInfo{Ticker: ao.TagValue(tags, "Ticker")}
	if raw := ao.TagValue(tags, "Denomination"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			info.Denomination = v
		}
	}
	return info
}

func displayOrRaw(base string, decimals int) string {
	display, err := amount.ToDisplayUnits(base, decimals)
	if err != nil {
		return base
	}
	return display
}
