// Package app 组装配置、存储、中间件与路由，并负责 HTTP 服务的启动与优雅退出.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/tgvault/pkg/api"
	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/jobs"
	"github.com/yeisme/tgvault/pkg/internal/storage"
	"github.com/yeisme/tgvault/pkg/internal/storage/mq"
	"github.com/yeisme/tgvault/pkg/log"
	"github.com/yeisme/tgvault/pkg/metrics"
	"github.com/yeisme/tgvault/pkg/middleware"
	"github.com/yeisme/tgvault/pkg/queue"
	"github.com/yeisme/tgvault/pkg/scheduler"
	"github.com/yeisme/tgvault/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Engine *gin.Engine

	config  *configs.AppConfig
	manager *storage.Manager
	sched   *scheduler.Scheduler
	audit   *message.Router
}

// NewApp 基于已加载的全局配置创建应用，调用前需先执行 configs.InitConfig.
func NewApp(ctx context.Context) (*App, error) {
	config := configs.GetConfig()

	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(manager),
	)

	a := &App{Engine: engine, config: config, manager: manager}

	if config.Reconcile.Enabled {
		if a.sched, err = scheduler.NewScheduler(); err != nil {
			return nil, fmt.Errorf("init scheduler: %w", err)
		}

		if err := jobs.RegisterCronJobs(a.sched, manager, config); err != nil {
			return nil, fmt.Errorf("register jobs: %w", err)
		}

		engine.Use(middleware.SchedulerMiddleware(a.sched))
	}

	if mqc := manager.GetMQClient(); mqc != nil && config.Events.Audit {
		a.audit, err = queue.NewAuditRouter(mqc.Subscriber(), mq.NewLoggerAdapter(l), *l)
		if err != nil {
			return nil, fmt.Errorf("init audit router: %w", err)
		}
	}

	api.RegisterGroup(ctx, engine, config, a.sched != nil)

	if err := metrics.StartMetricsServer(config.Metrics, engine); err != nil {
		return nil, fmt.Errorf("mount metrics: %w", err)
	}

	return a, nil
}

// Addr 监听地址.
func (a *App) Addr() string {
	return net.JoinHostPort(a.config.Server.Host, strconv.Itoa(a.config.Server.Port))
}

// Run 启动 HTTP 服务并阻塞，ctx 结束后优雅关闭并释放资源.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
		IdleTimeout:       2 * a.config.Server.GetTimeoutDuration(),
	}

	if a.sched != nil {
		a.sched.Start()
	}

	if a.audit != nil {
		go func() {
			if err := a.audit.Run(ctx); err != nil {
				log.Logger().Error().Err(err).Msg("audit router stopped")
			}
		}()
	}

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)

		log.Logger().Info().Str("addr", srv.Addr).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Join(err, a.Close(context.Background()))
	case <-ctx.Done():
	}

	log.Logger().Info().Msg("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)

	return errors.Join(err, a.Close(shutdownCtx))
}

// Close 停止调度器并关闭存储与追踪.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if a.sched != nil {
		errs = append(errs, a.sched.Stop())
	}

	if a.audit != nil {
		errs = append(errs, a.audit.Close())
	}

	if a.manager != nil {
		errs = append(errs, a.manager.Close())
	}

	errs = append(errs, tracing.ShutdownTracer(ctx))

	return errors.Join(errs...)
}
