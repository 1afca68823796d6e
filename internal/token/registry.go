package token

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor 描述一个代币：别名、网络进程地址以及精度。
// 启动时加载后不再变更。
type Descriptor struct {
	Alias     string `yaml:"alias"`
	ProcessID string `yaml:"process_id"`
	Decimals  int    `yaml:"decimals"`
}

// Definitions 对应 tokens.yaml 的文件结构。
type Definitions struct {
	Tokens []Descriptor `yaml:"tokens"`
}

// Registry 提供别名与进程地址之间的双向查询。
type Registry struct {
	byAlias map[string]Descriptor
	byID    map[string]Descriptor
	order   []Descriptor
}

// defaultDescriptors 是未提供 tokens.yaml 时使用的内置代币集。
var defaultDescriptors = []Descriptor{
	{Alias: "AO", ProcessID: "0syT13r0s0tgPmIed95bJnuSqaD29HQNN8D3ElLSrsc", Decimals: 12},
	{Alias: "wAR", ProcessID: "xU9zFkq3X2ZQ6olwNVvr1vUWIjc3kXTWr7xKQD6dh10", Decimals: 12},
	{Alias: "ARIO", ProcessID: "qNvAoz0TgcH7DMg8BCVn8jF32QH5L6T29VjHxhHqqGE", Decimals: 6},
	{Alias: "USDA", ProcessID: "FBt9A5GA_KXMMSxA2DJ0xZbAq8sLLU2ak-YJe9zDvg8", Decimals: 12},
	{Alias: "wUSDC", ProcessID: "7zH9dlMNoxprab9loshv3Y7WG45DOny_Vrq9KrXObdQ", Decimals: 6},
}

// NewRegistry 基于给定描述符构建注册表。列表为空时使用内置集。
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		descriptors = defaultDescriptors
	}
	reg := &Registry{
		byAlias: make(map[string]Descriptor, len(descriptors)),
		byID:    make(map[string]Descriptor, len(descriptors)),
	}
	for _, desc := range descriptors {
		alias := strings.TrimSpace(desc.Alias)
		if alias == "" {
			return nil, fmt.Errorf("代币别名不能为空")
		}
		if strings.TrimSpace(desc.ProcessID) == "" {
			return nil, fmt.Errorf("代币 %s 缺少进程地址", alias)
		}
		if desc.Decimals < 0 {
			return nil, fmt.Errorf("代币 %s 的精度不能为负数", alias)
		}
		key := strings.ToLower(alias)
		if _, exists := reg.byAlias[key]; exists {
			return nil, fmt.Errorf("代币别名重复: %s", alias)
		}
		reg.byAlias[key] = desc
		reg.byID[desc.ProcessID] = desc
		reg.order = append(reg.order, desc)
	}
	return reg, nil
}

// LoadRegistry 从 YAML 文件加载代币定义。路径为空时返回内置集。
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return NewRegistry(nil)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取代币配置失败: %w", err)
	}

	var defs Definitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return nil, fmt.Errorf("解析代币配置失败: %w", err)
	}
	return NewRegistry(defs.Tokens)
}

// Resolve 按别名（大小写不敏感）或进程地址查找描述符。
func (r *Registry) Resolve(aliasOrID string) (Descriptor, bool) {
	aliasOrID = strings.TrimSpace(aliasOrID)
	if aliasOrID == "" {
		return Descriptor{}, false
	}
	if desc, ok := r.byAlias[strings.ToLower(aliasOrID)]; ok {
		return desc, true
	}
	if desc, ok := r.byID[aliasOrID]; ok {
		return desc, true
	}
	return Descriptor{}, false
}

// DecimalsOf 返回标识对应的精度。未识别的标识返回 0：
// 原始进程地址可能指向精度未知的代币，这里兜底而不是报错。
func (r *Registry) DecimalsOf(aliasOrID string) int {
	if desc, ok := r.Resolve(aliasOrID); ok {
		return desc.Decimals
	}
	return 0
}

// ReverseAlias 返回进程地址对应的别名；没有别名时返回截断的地址，
// 仅用于展示。
func (r *Registry) ReverseAlias(processID string) string {
	if desc, ok := r.byID[processID]; ok {
		return desc.Alias
	}
	return ShortenID(processID)
}

// Tracked 返回按配置顺序排列的全部代币，用于聚合余额查询。
func (r *Registry) Tracked() []Descriptor {
	out := make([]Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// ShortenID 把长进程地址缩写成 "前6…后4" 的展示形式。
func ShortenID(processID string) string {
	if len(processID) <= 12 {
		return processID
	}
	return processID[:6] + "…" + processID[len(processID)-4:]
}
