package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"AOChat-Wallet/internal/agent"
	"AOChat-Wallet/internal/ao"
	"AOChat-Wallet/internal/config"
	"AOChat-Wallet/internal/convo"
	"AOChat-Wallet/internal/dex"
	"AOChat-Wallet/internal/engine"
	"AOChat-Wallet/internal/events"
	"AOChat-Wallet/internal/llm"
	"AOChat-Wallet/internal/llm/openai"
	"AOChat-Wallet/internal/token"
	"AOChat-Wallet/internal/transport"
	"AOChat-Wallet/internal/transport/telegram"
	"AOChat-Wallet/internal/vault"
	"AOChat-Wallet/internal/wallet"
	"AOChat-Wallet/pkg/logger"
)

// main 是钱包守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("walletd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("WALLETD_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "walletd.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled: cfg.Logging.AuditPath != "",
			Path:    cfg.Logging.AuditPath,
		},
	}); err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	registry, err := token.LoadRegistry(cfg.Tokens.Path)
	if err != nil {
		return err
	}

	secret := cfg.VaultSecret()
	if secret == "" {
		return fmt.Errorf("缺少密钥库口令, 请设置 %s", cfg.Wallet.SecretEnv)
	}
	keyVault, err := vault.New(secret)
	if err != nil {
		return err
	}

	var userStore wallet.Store
	switch cfg.Wallet.StoreDriver {
	case "", "memory":
		store, err := wallet.NewMemoryStore()
		if err != nil {
			return err
		}
		userStore = store
	case "mysql":
		store, err := wallet.NewMySQLStore(cfg.Wallet.DSN)
		if err != nil {
			return err
		}
		userStore = store
	default:
		return fmt.Errorf("未知的用户存储驱动: %s", cfg.Wallet.StoreDriver)
	}
	defer func() {
		if closer, ok := userStore.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}()

	var convoStore convo.Store
	switch cfg.Convo.Driver {
	case "", "memory":
		convoStore = convo.NewMemoryStore(
			convo.WithTTL(time.Duration(cfg.Convo.TTLSeconds) * time.Second))
	case "redis":
		store, err := convo.NewRedisStore(convo.RedisStoreConfig{
			Address:  cfg.Convo.Address,
			Password: cfg.Convo.Password,
			DB:       cfg.Convo.DB,
			TTL:      time.Duration(cfg.Convo.TTLSeconds) * time.Second,
		})
		if err != nil {
			return err
		}
		convoStore = store
	default:
		return fmt.Errorf("未知的对话存储驱动: %s", cfg.Convo.Driver)
	}

	var publisher events.Publisher = events.NopPublisher{}
	switch cfg.Events.Driver {
	case "", "none":
	case "rabbitmq":
		p, err := events.NewRabbitMQPublisher(events.RabbitMQConfig{
			URL:     cfg.Events.URL,
			Queue:   cfg.Events.Queue,
			Durable: true,
		})
		if err != nil {
			return err
		}
		publisher = p
	default:
		return fmt.Errorf("未知的事件流驱动: %s", cfg.Events.Driver)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("关闭事件发布器失败: %v", err)
		}
	}()

	network := ao.NewGateway(ao.GatewayConfig{
		MessengerURL: cfg.Network.MessengerURL,
		ComputeURL:   cfg.Network.ComputeURL,
	})

	var aggregator dex.Aggregator
	if cfg.Dex.BaseURL != "" {
		client, err := dex.NewClient(dex.ClientConfig{
			BaseURL: cfg.Dex.BaseURL,
			APIKey:  cfg.Dex.APIKey,
		})
		if err != nil {
			return err
		}
		aggregator = client
	}

	eng := engine.New(registry, userStore, keyVault, network, aggregator, convoStore,
		engine.WithSlippageBps(cfg.Dex.SlippageBps),
		engine.WithEventPublisher(publisher),
	)

	llmClient, err := createLLMClient(cfg)
	if err != nil {
		return err
	}
	if llmClient != nil {
		eng.SetFallback(agent.New(llmClient, eng,
			agent.WithMaxRounds(cfg.LLM.MaxRounds)))
	}

	if cfg.Transport.Driver != "telegram" {
		return fmt.Errorf("未知的传输驱动: %s", cfg.Transport.Driver)
	}
	bot, err := telegram.NewClient(telegram.Config{
		Token:  cfg.Transport.Telegram.Token,
		APIURL: cfg.Transport.Telegram.APIURL,
	})
	if err != nil {
		return err
	}
	sender := transport.NewSafeSender(bot)

	logger.L().Info("walletd 已启动", "transport", cfg.Transport.Driver,
		"wallet_store", cfg.Wallet.StoreDriver, "convo_store", cfg.Convo.Driver)

	err = bot.Poll(ctx, func(ctx context.Context, update telegram.Update) {
		reply := eng.HandleMessage(ctx, update.UserID, update.Text)
		if _, _, err := sender.Send(ctx, update.ChatID, reply, nil); err != nil {
			logger.L().Error("回复发送失败", "chat_id", update.ChatID, "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func createLLMClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "none":
		return nil, nil
	case "", "openai":
		if cfg.LLM.APIKey == "" {
			// 没有配置大模型时仅保留快速匹配路径。
			logger.L().Warn("未配置大模型 API key, 兜底路径不可用")
			return nil, nil
		}
		return openai.NewClient(openai.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
	default:
		return nil, fmt.Errorf("未知的大模型 provider: %s", cfg.LLM.Provider)
	}
}
