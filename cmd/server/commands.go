package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/clusterwiki/internal/db"
	"github.com/clusterwiki/internal/handler"
	"github.com/clusterwiki/internal/observability"
	"github.com/clusterwiki/internal/router"
	"github.com/clusterwiki/internal/seed"
	"github.com/clusterwiki/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ServeCmd 启动 HTTP 服务。
type ServeCmd struct{}

// ReseedCmd 用种子页面整体替换数据库内容。
type ReseedCmd struct{}

// SeedsCmd 检查种子目录。
type SeedsCmd struct {
	Check  SeedsCheckCmd  `cmd:"" help:"Parse the seed directory and report problems"`
	Status SeedsStatusCmd `cmd:"" help:"Compare seed pages with the stored pages"`
}

// SeedsCheckCmd 仅解析种子文件。
type SeedsCheckCmd struct{}

// SeedsStatusCmd 输出种子与数据库之间的差异。
type SeedsStatusCmd struct{}

func (s *ServeCmd) Run(app *appContext) error {
	ctx, cfg, logger := app.ctx, app.cfg, app.logger

	// 种子解析失败时直接终止启动，并指出出错的文件
	seedPages, err := seed.Load(cfg.SeedDir)
	if err != nil {
		return err
	}

	gdb, err := openStore(cfg.DatabasePath, app.tracing)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	inserted, err := service.NewSeedService(service.NewPageService(gdb)).SeedIfEmpty(ctx, seedPages)
	if err != nil {
		return err
	}
	logger.Info().Int("inserted", inserted).Str("seed_dir", cfg.SeedDir).Msg("seed check finished")

	gin.SetMode(cfg.GinMode)
	engine, err := router.SetupRouter(handler.NewAPI(gdb, cfg.SiteName), router.Options{
		SessionSecret: cfg.SessionSecret,
		Logger:        logger,
		Tracer:        app.tracing.Tracer(),
		MetricsPath:   cfg.MetricsPath,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Str("site", cfg.SiteName).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
		return nil
	case <-quit:
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (r *ReseedCmd) Run(app *appContext) error {
	seedPages, err := seed.Load(app.cfg.SeedDir)
	if err != nil {
		return err
	}

	gdb, err := openStore(app.cfg.DatabasePath, app.tracing)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	inserted, err := service.NewSeedService(service.NewPageService(gdb)).Reseed(app.ctx, seedPages)
	if err != nil {
		return err
	}

	fmt.Printf("Reseeded %d pages.\n", inserted)
	return nil
}

func (s *SeedsCheckCmd) Run(app *appContext) error {
	seedPages, err := seed.Load(app.cfg.SeedDir)
	if err != nil {
		return err
	}
	fmt.Printf("%d seed pages OK in %s\n", len(seedPages), app.cfg.SeedDir)
	return nil
}

func (s *SeedsStatusCmd) Run(app *appContext) error {
	seedPages, err := seed.Load(app.cfg.SeedDir)
	if err != nil {
		return err
	}

	gdb, err := openStore(app.cfg.DatabasePath, app.tracing)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	entries, err := service.NewSeedService(service.NewPageService(gdb)).Drift(app.ctx, seedPages)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tSLUG\tTITLE\tFILE")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Status, entry.Slug, entry.Title, entry.File)
	}
	return w.Flush()
}

func openStore(path string, tracing *observability.Tracing) (*gorm.DB, error) {
	var plugins []gorm.Plugin
	if tracing.Enabled() {
		plugins = append(plugins, observability.NewStoreTracing(tracing.Tracer()))
	}
	return db.Open(path, db.Options{Plugins: plugins})
}
