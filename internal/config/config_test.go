package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "walletd.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Transport.Driver != "telegram" {
		t.Fatalf("默认传输应为 telegram, 实际 %s", cfg.Transport.Driver)
	}
	if cfg.Wallet.StoreDriver != "memory" || cfg.Convo.Driver != "memory" {
		t.Fatalf("默认存储应为 memory: %+v", cfg)
	}
	if cfg.Events.Driver != "none" {
		t.Fatalf("默认事件流应关闭, 实际 %s", cfg.Events.Driver)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("日志默认值错误: %+v", cfg.Logging)
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	path := writeConfig(t, `{"tokens":{"path":"tokens.yaml"},"logging":{"audit_path":"logs/audit.log"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base := filepath.Dir(path)
	if cfg.Tokens.Path != filepath.Join(base, "tokens.yaml") {
		t.Fatalf("代币路径应相对配置目录解析: %s", cfg.Tokens.Path)
	}
	if cfg.Logging.AuditPath != filepath.Join(base, "logs", "audit.log") {
		t.Fatalf("审计路径应相对配置目录解析: %s", cfg.Logging.AuditPath)
	}
}

func TestLoadResolvesSecretsFromEnv(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "tok-123")
	t.Setenv("TEST_LLM_KEY", "sk-456")
	t.Setenv("TEST_VAULT_SECRET", "hunter2")
	path := writeConfig(t, `{
		"transport":{"telegram":{"token_env":"TEST_BOT_TOKEN"}},
		"llm":{"api_key_env":"TEST_LLM_KEY"},
		"wallet":{"secret_env":"TEST_VAULT_SECRET"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Transport.Telegram.Token != "tok-123" {
		t.Fatalf("bot token 应取自环境变量: %q", cfg.Transport.Telegram.Token)
	}
	if cfg.LLM.APIKey != "sk-456" {
		t.Fatalf("API key 应取自环境变量: %q", cfg.LLM.APIKey)
	}
	if cfg.VaultSecret() != "hunter2" {
		t.Fatalf("密钥库口令应取自环境变量: %q", cfg.VaultSecret())
	}
}

func TestLoadPlaintextWinsOverEnv(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "from-env")
	path := writeConfig(t, `{"transport":{"telegram":{"token":"from-file","token_env":"TEST_BOT_TOKEN"}}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Transport.Telegram.Token != "from-file" {
		t.Fatalf("明文字段不应被环境变量覆盖: %q", cfg.Transport.Telegram.Token)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("不存在的配置文件应报错")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("空路径应报错")
	}
}
