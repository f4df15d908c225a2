package main

import (
	"fmt"
	"os"

	"github.com/arcadia-exchange/arcadia-options/internal/app"
	"github.com/arcadia-exchange/arcadia-options/internal/config"
	"github.com/arcadia-exchange/arcadia-options/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: cfg.Service.Name,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	a, err := app.New(cfg)
	if err != nil {
		logger.Fatal("应用初始化失败", "error", err)
	}

	if err := a.Run(); err != nil {
		logger.Fatal("应用运行失败", "error", err)
	}
}
