package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"AOChat-Wallet/internal/amount"
	"AOChat-Wallet/internal/intent"
	"AOChat-Wallet/internal/llm"
)

// 暴露给大模型的工具集，与封闭命令集一一对应。
var toolSpecs = []llm.ToolSpec{
	{
		Name:        "transfer",
		Description: "Send tokens from the user's wallet to a recipient address. amount accepts a decimal number or the keyword \"all\" to send the entire balance.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"recipient": map[string]any{"type": "string", "description": "recipient wallet address"},
				"amount":    map[string]any{"type": "string", "description": "display amount, e.g. \"1.5\", or \"all\""},
				"token":     map[string]any{"type": "string", "description": "token alias or process id, e.g. \"AO\"; omit for the native token"},
			},
			"required": []string{"recipient", "amount"},
		},
	},
	{
		Name:        "swap",
		Description: "Swap one token for another through the DEX aggregator.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"amount":     map[string]any{"type": "string", "description": "display amount of the source token"},
				"from_token": map[string]any{"type": "string", "description": "source token alias or process id"},
				"to_token":   map[string]any{"type": "string", "description": "destination token alias or process id"},
			},
			"required": []string{"amount", "from_token", "to_token"},
		},
	},
	{
		Name:        "check_balance",
		Description: "Check the user's balance. Omit token to list all non-zero balances.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"token": map[string]any{"type": "string", "description": "token alias or process id; omit for all tokens"},
			},
		},
	},
	{
		Name:        "list_balances",
		Description: "List the top holders of a token process.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"process_id": map[string]any{"type": "string", "description": "token process id"},
			},
			"required": []string{"process_id"},
		},
	},
	{
		Name:        "wallet_info",
		Description: "Show the user's wallet address.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}

type transferArgs struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Token     string `json:"token"`
}

type swapArgs struct {
	Amount    string `json:"amount"`
	FromToken string `json:"from_token"`
	ToToken   string `json:"to_token"`
}

type checkBalanceArgs struct {
	Token string `json:"token"`
}

type listBalancesArgs struct {
	ProcessID string `json:"process_id"`
}

// commandFromToolCall 把一次工具调用解析为封闭命令集中的变体。
func commandFromToolCall(call llm.ToolCall) (intent.Command, error) {
	switch call.Name {
	case "transfer":
		var args transferArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		if args.Recipient == "" || args.Amount == "" {
			return nil, fmt.Errorf("transfer 需要 recipient 与 amount 参数")
		}
		return intent.Transfer{
			Recipient:      args.Recipient,
			AmountDisplay:  args.Amount,
			TokenAliasOrID: args.Token,
			IsAll:          amount.IsAllKeyword(args.Amount),
		}, nil
	case "swap":
		var args swapArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		if args.Amount == "" || args.FromToken == "" || args.ToToken == "" {
			return nil, fmt.Errorf("swap 需要 amount、from_token、to_token 三个参数")
		}
		return intent.Swap{
			AmountDisplay: args.Amount,
			FromToken:     args.FromToken,
			ToToken:       args.ToToken,
		}, nil
	case "check_balance":
		var args checkBalanceArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		return intent.CheckBalance{Alias: strings.TrimSpace(args.Token)}, nil
	case "list_balances":
		var args listBalancesArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		if args.ProcessID == "" {
			return nil, fmt.Errorf("list_balances 需要 process_id 参数")
		}
		return intent.ListBalances{ProcessID: args.ProcessID}, nil
	case "wallet_info":
		return intent.WalletInfo{}, nil
	default:
		return nil, fmt.Errorf("未知工具: %s", call.Name)
	}
}

func decodeArgs(raw string, out any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("工具参数解析失败: %w", err)
	}
	return nil
}
