package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Config 描述钱包服务在启动阶段需要加载的全部配置。
// 凭据敏感项（bot token、API key、密钥库口令）支持 *_env 间接引用，
// 避免明文落盘。
type Config struct {
	Transport Transport `json:"transport"`
	Network   Network   `json:"network"`
	Tokens    Tokens    `json:"tokens"`
	LLM       LLM       `json:"llm"`
	Dex       Dex       `json:"dex"`
	Wallet    Wallet    `json:"wallet"`
	Convo     Convo     `json:"conversation"`
	Events    Events    `json:"events"`
	Logging   Logging   `json:"logging"`
}

// Transport 是聊天入口的配置，目前支持 telegram。
type Transport struct {
	Driver   string   `json:"driver"`
	Telegram Telegram `json:"telegram"`
}

// Telegram 描述 Bot API 的连接参数。
type Telegram struct {
	Token    string `json:"token"`
	TokenEnv string `json:"token_env"`
	APIURL   string `json:"api_url"`
}

// Network 描述消息网络网关节点。
type Network struct {
	MessengerURL string `json:"messenger_url"`
	ComputeURL   string `json:"compute_url"`
}

// Tokens 指向代币注册表文件，为空时使用内置代币集。
type Tokens struct {
	Path string `json:"path"`
}

// LLM 用于配置兜底路径的大模型调用。
type LLM struct {
	Provider  string `json:"provider"`
	APIKey    string `json:"api_key"`
	APIKeyEnv string `json:"api_key_env"`
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
	MaxRounds int    `json:"max_rounds"`
}

// Dex 描述聚合器服务的地址。
type Dex struct {
	BaseURL     string `json:"base_url"`
	APIKey      string `json:"api_key"`
	APIKeyEnv   string `json:"api_key_env"`
	SlippageBps int    `json:"slippage_bps"`
}

// Wallet 描述用户与托管凭据的存储。
type Wallet struct {
	StoreDriver string `json:"store_driver"`
	DSN         string `json:"dsn"`
	SecretEnv   string `json:"secret_env"`
}

// Convo 描述对话窗口的存储后端。
type Convo struct {
	Driver     string `json:"driver"`
	Address    string `json:"address"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// Events 描述资金变动事件流。
type Events struct {
	Driver string `json:"driver"`
	URL    string `json:"url"`
	Queue  string `json:"queue"`
}

// Logging 控制运行日志与审计日志。
type Logging struct {
	Level       string   `json:"level"`
	Format      string   `json:"format"`
	OutputPaths []string `json:"output_paths"`
	AuditPath   string   `json:"audit_path"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	cfg.resolveSecrets()

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Transport.Driver == "" {
		c.Transport.Driver = "telegram"
	}
	if c.Transport.Telegram.TokenEnv == "" {
		c.Transport.Telegram.TokenEnv = "TELEGRAM_BOT_TOKEN"
	}

	if c.Tokens.Path != "" && !filepath.IsAbs(c.Tokens.Path) {
		c.Tokens.Path = filepath.Join(baseDir, c.Tokens.Path)
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}

	if c.Wallet.StoreDriver == "" {
		c.Wallet.StoreDriver = "memory"
	}
	if c.Wallet.SecretEnv == "" {
		c.Wallet.SecretEnv = "WALLETD_VAULT_SECRET"
	}

	if c.Convo.Driver == "" {
		c.Convo.Driver = "memory"
	}
	if c.Events.Driver == "" {
		c.Events.Driver = "none"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if len(c.Logging.OutputPaths) == 0 {
		c.Logging.OutputPaths = []string{"stdout"}
	}
	if c.Logging.AuditPath != "" && !filepath.IsAbs(c.Logging.AuditPath) {
		c.Logging.AuditPath = filepath.Join(baseDir, c.Logging.AuditPath)
	}
}

// resolveSecrets 把 *_env 字段指向的环境变量读进对应的明文字段。
// 明文字段已填写时环境变量不覆盖。
func (c *Config) resolveSecrets() {
	if c.Transport.Telegram.Token == "" {
		c.Transport.Telegram.Token = os.Getenv(c.Transport.Telegram.TokenEnv)
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}
	if c.Dex.APIKey == "" && c.Dex.APIKeyEnv != "" {
		c.Dex.APIKey = os.Getenv(c.Dex.APIKeyEnv)
	}
}

// VaultSecret 返回密钥库口令。单列出来是因为它没有明文字段，
// 只允许经环境变量传入。
func (c *Config) VaultSecret() string {
	return os.Getenv(c.Wallet.SecretEnv)
}
