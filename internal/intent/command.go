package intent

// Command 是意图解析产出的封闭命令集合。无论命令来自快速匹配
// 还是大模型的工具调用，最终都会落到这几个变体之一，调度器
// 不会执行集合之外的任何路径。
type Command interface {
	isCommand()
}

// Transfer 表示一笔代币转账。
type Transfer struct {
	Recipient      string
	AmountDisplay  string
	TokenAliasOrID string
	// IsAll 为真表示 amount 是 all/max 哨兵，由执行器解析为
	// 实时余额。
	IsAll bool
}

// Swap 表示一次代币兑换。
type Swap struct {
	AmountDisplay string
	FromToken     string
	ToToken       string
}

// CheckBalance 查询余额。Alias 为空表示聚合查询全部追踪代币。
type CheckBalance struct {
	Alias string
}

// ListBalances 查询某个代币的持有者排行。
type ListBalances struct {
	ProcessID string
}

// WalletInfo 查询自己的钱包地址。
type WalletInfo struct{}

func (Transfer) isCommand()     {}
func (Swap) isCommand()         {}
func (CheckBalance) isCommand() {}
func (ListBalances) isCommand() {}
func (WalletInfo) isCommand()   {}
