package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"dns01-hook/internal/config"
	"dns01-hook/internal/core"
	"dns01-hook/internal/lifecycle"
)

func main() {
	if err := newRootCommand(runOperation).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// runOperation 加载配置并执行操作
func runOperation(ctx context.Context, configPath string, op core.Operation) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Errorf("加载配置失败: %v", err)
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		logrus.Errorf("初始化日志失败: %v", err)
		return err
	}
	entry := logger.WithField("operation", op.Name())

	manager, err := core.NewManager(cfg, entry)
	if err != nil {
		entry.Errorf("初始化失败: %v", err)
		return err
	}

	sigHandler := lifecycle.NewSignalHandler(ctx, entry)
	sigHandler.Start()
	defer sigHandler.Stop()

	if err := manager.Run(sigHandler.Context(), op); err != nil {
		entry.Errorf("%s 失败: %v", op.Name(), err)
		return err
	}
	return nil
}

// newLogger 日志写到 stderr
func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.LogLevel, err)
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("无效的日志格式: %s", cfg.LogFormat)
	}

	return logger, nil
}
