//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/emotion-api/internal/bootstrap"
	"github.com/yanqian/emotion-api/internal/domain/emotion"
	"github.com/yanqian/emotion-api/internal/infra/config"
	"github.com/yanqian/emotion-api/internal/infra/llm/ollama"
	httpiface "github.com/yanqian/emotion-api/internal/interface/http"
	"github.com/yanqian/emotion-api/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideClassifierConfig,
		provideOllamaClient,
		provideLabelStore,
		emotion.NewService,
		wire.Bind(new(emotion.StreamClient), new(*ollama.Client)),
		httpiface.NewClassifyHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
