package main

import (
	"context"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/clusterwiki/internal/config"
	"github.com/clusterwiki/internal/observability"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// CLI 定义命令行入口；不带子命令时启动服务。
type CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging"`

	Serve  ServeCmd  `cmd:"" default:"1" help:"Run the wiki HTTP server (seeds an empty store first)"`
	Reseed ReseedCmd `cmd:"" help:"Replace every stored page with the current seed pages"`
	Seeds  SeedsCmd  `cmd:"" help:"Inspect the seed directory"`
}

// appContext 在各子命令之间共享配置与日志。
type appContext struct {
	ctx     context.Context
	cfg     config.AppConfig
	logger  zerolog.Logger
	tracing *observability.Tracing
}

func main() {
	// 本地开发时从 .env 读取配置，生产环境直接使用系统环境变量
	_ = godotenv.Load()

	cfg := config.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("clusterwiki"),
		kong.Description("Self-hosted documentation wiki."),
		kong.UsageOnError(),
	)

	level := cfg.LogLevel
	if cli.Verbose {
		level = "debug"
	}
	logger := observability.ConfigureLogging(level, cfg.LogFormat, os.Stderr)

	ctx := context.Background()
	tracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Endpoint:    cfg.TracingEndpoint,
		Insecure:    cfg.TracingInsecure,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure tracing")
	}
	if cfg.TracingEnabled() {
		logger.Info().Str("endpoint", cfg.TracingEndpoint).Bool("insecure", cfg.TracingInsecure).Msg("exporting spans")
	} else {
		logger.Debug().Msg("span export disabled")
	}

	app := &appContext{ctx: ctx, cfg: cfg, logger: logger, tracing: tracing}
	runErr := kctx.Run(app)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("failed to flush spans")
	}

	if runErr != nil {
		logger.Error().Err(runErr).Str("command", kctx.Command()).Msg("command failed")
		cancel()
		os.Exit(1)
	}
}
