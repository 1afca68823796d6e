package amount

import (
	"strings"

	"github.com/shopspring/decimal"

	xerrors "AOChat-Wallet/internal/errors"
)

// maxDisplayDecimals 是展示金额时保留的最大小数位数。
const maxDisplayDecimals = 6

// ToBaseUnits 把用户输入的十进制金额换算成链上整数数量。
// 乘以 10^decimals 后按银行家舍入法取整，保证转账、兑换与展示
// 使用同一套舍入规则。金额必须为正数。
func ToBaseUnits(display string, decimals int) (string, error) {
	display = strings.TrimSpace(display)
	if display == "" {
		return "", xerrors.New(xerrors.CodeInvalidAmount, "金额不能为空")
	}
	value, err := decimal.NewFromString(display)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeInvalidAmount, err, "金额无法解析: "+display)
	}
	if value.Sign() <= 0 {
		return "", xerrors.New(xerrors.CodeInvalidAmount, "金额必须大于零: "+display)
	}
	base := value.Shift(int32(decimals)).RoundBank(0)
	if base.Sign() <= 0 {
		return "", xerrors.New(xerrors.CodeInvalidAmount, "金额换算后为零: "+display)
	}
	return base.String(), nil
}

// ToDisplayUnits 把链上整数数量换算成人类可读的十进制金额，
// 最多保留 6 位小数并去掉尾随的零。
func ToDisplayUnits(base string, decimals int) (string, error) {
	value, err := parseBase(base)
	if err != nil {
		return "", err
	}
	display := value.Shift(int32(-decimals)).Truncate(maxDisplayDecimals).String()
	if strings.Contains(display, ".") {
		display = strings.TrimRight(display, "0")
		display = strings.TrimSuffix(display, ".")
	}
	return display, nil
}

// IsAllKeyword 判断输入是否为 "all"/"max" 哨兵（大小写不敏感），
// 表示"全部当前余额"。哨兵由执行器通过实时余额查询解析，
// 永远不会进入上面的乘法路径。
func IsAllKeyword(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "all", "max":
		return true
	default:
		return false
	}
}

// IsZeroBase 用任意精度比较判断链上数量是否为零，
// 以兼容 "0"、"0.0"、"00" 等不同的零表示。
func IsZeroBase(raw string) bool {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return value.IsZero()
}

// CompareBase 按数值比较两个链上数量字符串，无法解析的值排在最后。
func CompareBase(a, b string) int {
	da, errA := decimal.NewFromString(strings.TrimSpace(a))
	db, errB := decimal.NewFromString(strings.TrimSpace(b))
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return da.Cmp(db)
}

// ValidateBase 校验链上数量必须是非负整数字符串，
// 上墙之前的最后一道闸。
func ValidateBase(base string) error {
	_, err := parseBase(base)
	return err
}

func parseBase(base string) (decimal.Decimal, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return decimal.Zero, xerrors.New(xerrors.CodeInvalidAmount, "链上数量不能为空")
	}
	value, err := decimal.NewFromString(base)
	if err != nil {
		return decimal.Zero, xerrors.Wrap(xerrors.CodeInvalidAmount, err, "链上数量无法解析: "+base)
	}
	if !value.IsInteger() {
		return decimal.Zero, xerrors.New(xerrors.CodeInvalidAmount, "链上数量必须是整数: "+base)
	}
	if value.Sign() < 0 {
		return decimal.Zero, xerrors.New(xerrors.CodeInvalidAmount, "链上数量不能为负数: "+base)
	}
	return value, nil
}
