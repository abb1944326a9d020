package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/yeisme/tgvault/pkg/internal/model"
)

// AddPendingDelete 记录一次失败的远端删除，等待补偿任务重试.
func (s *Store) AddPendingDelete(ctx context.Context, messageHandle string, fileRowID int64, cause error) error {
	p := &model.PendingDelete{
		RemoteMessageHandle: messageHandle,
		FileRowID:           fileRowID,
		Attempts:            1,
	}
	if cause != nil {
		p.LastError = cause.Error()
	}

	return wrap("pending add", s.db.WithContext(ctx).Create(p).Error)
}

// ListPendingDeletes 返回尝试次数小于 maxAttempts 的待删除项，按创建顺序.
func (s *Store) ListPendingDeletes(ctx context.Context, maxAttempts, limit int) ([]model.PendingDelete, error) {
	items := make([]model.PendingDelete, 0)

	err := s.db.WithContext(ctx).
		Where("attempts < ?", maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, wrap("pending list", err)
	}

	return items, nil
}

// RemovePendingDelete 远端删除成功后移除待删除项.
func (s *Store) RemovePendingDelete(ctx context.Context, id uint) error {
	return wrap("pending remove", s.db.WithContext(ctx).Delete(&model.PendingDelete{}, id).Error)
}

// MarkPendingDeleteFailed 累加尝试次数并记录最近一次错误.
func (s *Store) MarkPendingDeleteFailed(ctx context.Context, id uint, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	err := s.db.WithContext(ctx).
		Model(&model.PendingDelete{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": msg,
		}).Error

	return wrap("pending mark", err)
}
