// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"

	"github.com/yeisme/tgvault/pkg/configs"
	ctxPkg "github.com/yeisme/tgvault/pkg/context"
	"github.com/yeisme/tgvault/pkg/internal/service"
	"github.com/yeisme/tgvault/pkg/internal/storage"
	"github.com/yeisme/tgvault/pkg/log"
	"github.com/yeisme/tgvault/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务，reconcile.enabled 为 false 时不注册任何任务：
//   - 按 reconcile.cron 重试失败的中继消息删除
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager, cfg *configs.AppConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if mgr == nil {
		return errors.New("storage manager is nil")
	}

	if !cfg.Reconcile.Enabled {
		return nil
	}

	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)
	svc := service.New(mgr, service.OptionsFromConfig(cfg))

	return sched.AddCron(JobRelayDeleteRetry, cfg.Reconcile.Cron, func(ctx context.Context) {
		runRelayDeleteRetry(ctx, svc)
	}, baseCtx)
}

// runRelayDeleteRetry 执行一轮补偿删除.
func runRelayDeleteRetry(ctx context.Context, svc *service.FileService) {
	l := log.Logger().With().Str("job", JobRelayDeleteRetry).Logger()

	res, err := svc.RetryPendingDeletes(ctx)
	if err != nil {
		l.Error().Err(err).Int("checked", res.Checked).Msg("relay delete retry failed")

		return
	}

	if res.Checked == 0 {
		l.Debug().Msg("no pending relay deletes")

		return
	}

	l.Info().
		Int("checked", res.Checked).
		Int("deleted", res.Deleted).
		Int("failed", res.Failed).
		Msg("relay delete retry done")
}
