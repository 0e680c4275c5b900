package router

import (
	"fmt"

	"github.com/clusterwiki/internal/handler"
	"github.com/clusterwiki/internal/observability"
	"github.com/clusterwiki/internal/view"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Options 汇总路由所需的中间件依赖。
type Options struct {
	SessionSecret string
	Logger        zerolog.Logger
	Tracer        trace.Tracer
	Metrics       *observability.Metrics
	MetricsPath   string
}

// SetupRouter 配置 Gin 引擎、中间件和路由
func SetupRouter(api *handler.API, opts Options) (*gin.Engine, error) {
	tmpl, err := view.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(observability.InstrumentationName)
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics(nil, metricsPath)
	}
	secret := opts.SessionSecret
	if secret == "" {
		secret = "clusterwiki-dev-secret"
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	// 指标与访问日志位于 Recovery 之外，才能看到 panic 之后的 500
	r.Use(
		observability.RequestID(),
		observability.RequestLogger(opts.Logger),
		metrics.Middleware(),
		gin.Recovery(),
		observability.TraceRequests(tracer),
		sessions.Sessions("clusterwiki_session", cookie.NewStore([]byte(secret))),
	)

	r.GET(metricsPath, gin.WrapH(metrics.Handler()))
	r.GET("/healthz", api.HealthCheck)

	r.GET("/", api.RedirectHome)
	pages := r.Group("/pages")
	{
		pages.GET("", api.ListPages)
		pages.GET("/new", api.NewPage)
		pages.POST("", api.SavePage)
		pages.GET("/:slug", api.ViewPage)
		pages.GET("/:slug/edit", api.EditPage)
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/pages", api.GetPages)
		apiGroup.GET("/pages/:slug", api.GetPage)
		apiGroup.POST("/pages", api.CreatePage)
		apiGroup.PUT("/pages/:slug", api.UpdatePage)
	}

	return r, nil
}
