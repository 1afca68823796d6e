package intent

import (
	"regexp"
	"strings"
)

// Matcher 把一段消息文本匹配为一个命令。predicate 与提取逻辑
// 合并在 Match 中：匹配失败返回 (nil, false)。
type Matcher struct {
	Name  string
	Match func(norm, lower string) (Command, bool)
}

// Resolver 按固定顺序执行一组互斥的快速匹配器，第一个命中者
// 生效；全部未命中则交给大模型兜底。
type Resolver struct {
	matchers []Matcher
}

var (
	specificBalanceRe = regexp.MustCompile(`what(?:'s| is) my ([a-z0-9_-]+) balance`)
	listBalancesRe    = regexp.MustCompile(`(?i)(?:list balances for|holders for)\s+(\S{20,})`)
	transferRe        = regexp.MustCompile(`(?i)\b(?:send|transfer)\s+(all|max|\d+(?:\.\d+)?)\s+(?:my\s+)?([a-z0-9_-]+)\s+to\s+(\S{20,})`)
	swapRe            = regexp.MustCompile(`(?i)\bswap\s+(\d+(?:\.\d+)?)\s+([a-z0-9_-]+)\s+to\s+([a-z0-9_-]+)`)
)

// NewResolver 构建默认顺序的解析器：地址查询 → 指定代币余额 →
// 聚合余额 → 持有者排行 → 转账 → 兑换。
func NewResolver() *Resolver {
	return &Resolver{
		matchers: []Matcher{
			{Name: "wallet_info", Match: matchWalletInfo},
			{Name: "specific_balance", Match: matchSpecificBalance},
			{Name: "aggregate_balance", Match: matchAggregateBalance},
			{Name: "list_balances", Match: matchListBalances},
			{Name: "transfer", Match: matchTransfer},
			{Name: "swap", Match: matchSwap},
		},
	}
}

// Resolve 对消息做归一化后依次尝试每个匹配器。
// 返回 (nil, "") 表示没有任何快速路径命中。
func (r *Resolver) Resolve(text string) (Command, string) {
	norm := normalizeQuotes(strings.TrimSpace(text))
	lower := strings.ToLower(norm)
	for _, matcher := range r.matchers {
		if cmd, ok := matcher.Match(norm, lower); ok {
			return cmd, matcher.Name
		}
	}
	return nil, ""
}

// normalizeQuotes 统一弯引号，保留原始大小写供载荷提取使用。
func normalizeQuotes(text string) string {
	replacer := strings.NewReplacer(
		"‘", "'", "’", "'",
		"“", "'", "”", "'",
	)
	return replacer.Replace(text)
}

func matchWalletInfo(_, lower string) (Command, bool) {
	if strings.Contains(lower, "wallet") && strings.Contains(lower, "address") {
		return WalletInfo{}, true
	}
	if strings.Contains(lower, "my address") {
		return WalletInfo{}, true
	}
	return nil, false
}

func matchSpecificBalance(_, lower string) (Command, bool) {
	if m := specificBalanceRe.FindStringSubmatch(lower); m != nil {
		return CheckBalance{Alias: m[1]}, true
	}
	return nil, false
}

func matchAggregateBalance(_, lower string) (Command, bool) {
	if strings.Contains(lower, "my balance") {
		return CheckBalance{}, true
	}
	if strings.Contains(lower, "balance") && strings.Contains(lower, "my") {
		return CheckBalance{}, true
	}
	return nil, false
}

func matchListBalances(norm, _ string) (Command, bool) {
	// 进程地址大小写敏感，直接在原文上做不区分大小写的匹配。
	if m := listBalancesRe.FindStringSubmatch(norm); m != nil {
		return ListBalances{ProcessID: m[1]}, true
	}
	return nil, false
}

func matchTransfer(norm, _ string) (Command, bool) {
	if m := transferRe.FindStringSubmatch(norm); m != nil {
		amount := m[1]
		cmd := Transfer{
			AmountDisplay:  amount,
			TokenAliasOrID: m[2],
			Recipient:      m[3],
		}
		if isAllWord(amount) {
			cmd.IsAll = true
		}
		return cmd, true
	}
	return nil, false
}

func matchSwap(norm, _ string) (Command, bool) {
	if m := swapRe.FindStringSubmatch(norm); m != nil {
		return Swap{
			AmountDisplay: m[1],
			FromToken:     m[2],
			ToToken:       m[3],
		}, true
	}
	return nil, false
}

func isAllWord(word string) bool {
	switch strings.ToLower(word) {
	case "all", "max":
		return true
	default:
		return false
	}
}
