package service

import (
	"context"
	"errors"

	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/model"
	"github.com/yeisme/tgvault/pkg/internal/relay"
	nlog "github.com/yeisme/tgvault/pkg/log"
)

// ReconcileResult 一轮补偿删除的统计.
type ReconcileResult struct {
	Checked int `json:"checked"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// RetryPendingDeletes 重试待删除的中继消息，成功或消息已不存在时移出队列.
func (fs *FileService) RetryPendingDeletes(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	if err := fs.ready(); err != nil {
		return result, err
	}

	if !fs.relay.Configured() {
		return result, relay.ErrNotConfigured
	}

	maxAttempts := fs.opts.Reconcile.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = configs.DefaultReconcileMaxAttempts
	}

	batch := fs.opts.Reconcile.BatchSize
	if batch <= 0 {
		batch = configs.DefaultReconcileBatchSize
	}

	pending, err := fs.store.ListPendingDeletes(ctx, maxAttempts, batch)
	if err != nil {
		return result, err
	}

	for _, p := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		result.Checked++

		err := fs.relay.DeleteMessage(ctx, p.RemoteMessageHandle)
		if err == nil || relayGone(err) {
			if rmErr := fs.store.RemovePendingDelete(ctx, p.ID); rmErr != nil {
				return result, rmErr
			}

			result.Deleted++

			continue
		}

		result.Failed++

		if markErr := fs.store.MarkPendingDeleteFailed(ctx, p.ID, err); markErr != nil {
			return result, markErr
		}

		rec := &model.FileRecord{ID: p.FileRowID, RemoteMessageHandle: p.RemoteMessageHandle}
		fs.publishDeleteFailed(ctx, rec, err, p.Attempts+1, p.Attempts+1 < maxAttempts)

		var re *relay.RelayError
		if errors.As(err, &re) && re.Rejected() {
			nlog.Logger().Warn().Msg("relay breaker open, stop reconcile round")

			break
		}
	}

	return result, nil
}
