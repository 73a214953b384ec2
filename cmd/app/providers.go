package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/emotion-api/internal/domain/emotion"
	"github.com/yanqian/emotion-api/internal/infra/config"
	"github.com/yanqian/emotion-api/internal/infra/labelcache"
	"github.com/yanqian/emotion-api/internal/infra/llm/ollama"
)

func provideClassifierConfig(cfg *config.Config) emotion.Config {
	return emotion.Config{
		Model:           cfg.Ollama.Model,
		StreamMaxTokens: cfg.Classifier.StreamMaxTokens,
		EarlyStop:       cfg.Classifier.EarlyStop,
		CacheTTL:        cfg.Classifier.Cache.TTL,
	}
}

func provideOllamaClient(cfg *config.Config) *ollama.Client {
	return ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Timeout)
}

func provideLabelStore(cfg *config.Config, logger *slog.Logger) emotion.Store {
	if !cfg.Classifier.Cache.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Classifier.Cache.Addr) == "" {
		logger.Info("label cache addr not set, using memory store")
		return labelcache.NewMemoryStore()
	}

	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return labelcache.NewMemoryStore()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return labelcache.NewMemoryStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		return labelcache.NewMemoryStore()
	}
	logger.Info("label valkey store enabled", "addr", cfg.Classifier.Cache.Addr)
	return labelcache.NewValkeyStore(client, "emotion")
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Classifier.Cache.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Classifier.Cache.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Classifier.Cache.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
