// Package store 实现文件元数据存储：单表 files，按自增 id 或 year/month/day/uuid 查找，
// 并负责按记录中的下载地址拉取文件内容.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yeisme/tgvault/pkg/internal/model"
	"github.com/yeisme/tgvault/pkg/internal/storage/db"
	nlog "github.com/yeisme/tgvault/pkg/log"
	"github.com/yeisme/tgvault/pkg/tracing"
)

// Store 元数据存储.
type Store struct {
	db         *gorm.DB
	httpClient *http.Client
	fetches    singleflight.Group
}

// Option 配置 Store.
type Option func(*Store)

// WithHTTPClient 指定拉取文件内容使用的 HTTP 客户端.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		s.httpClient = c
	}
}

// New 基于数据库客户端创建 Store.
func New(client *db.Client, opts ...Option) *Store {
	s := &Store{
		db:         client.GetDB(),
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Init 初始化表结构，可重复调用.
// files 表已存在时视为可信，不做迁移，只在版本不一致时记录警告.
func (s *Store) Init(ctx context.Context) error {
	tx := s.db.WithContext(ctx)
	m := tx.Migrator()

	if !m.HasTable(&model.FileRecord{}) {
		err := tx.Transaction(func(tx *gorm.DB) error {
			if err := tx.Migrator().CreateTable(&model.FileRecord{}); err != nil {
				return err
			}

			if err := tx.Migrator().AutoMigrate(&model.SchemaMeta{}); err != nil {
				return err
			}

			return tx.Create(&model.SchemaMeta{Version: model.SchemaVersion}).Error
		})
		if err != nil {
			return wrap("init", err)
		}

		nlog.Logger().Info().Int("schema_version", model.SchemaVersion).Msg("files table created")
	} else {
		s.checkSchemaVersion(tx)
	}

	if !m.HasTable(&model.PendingDelete{}) {
		if err := m.CreateTable(&model.PendingDelete{}); err != nil {
			return wrap("init", err)
		}
	}

	return nil
}

func (s *Store) checkSchemaVersion(tx *gorm.DB) {
	if !tx.Migrator().HasTable(&model.SchemaMeta{}) {
		nlog.Logger().Warn().Msg("files table has no schema_meta, trusting existing schema")

		return
	}

	var meta model.SchemaMeta
	if err := tx.Order("id DESC").Take(&meta).Error; err != nil {
		nlog.Logger().Warn().Err(err).Msg("failed to read schema version")

		return
	}

	if meta.Version != model.SchemaVersion {
		nlog.Logger().Warn().
			Int("found", meta.Version).
			Int("expected", model.SchemaVersion).
			Msg("files schema version mismatch, existing schema is used as is")
	}
}

// Insert 写入一条记录并返回新 id；不生成 uuid.
func (s *Store) Insert(ctx context.Context, rec *model.FileRecord) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "store.insert")

	rec.ID = 0

	err := s.db.WithContext(ctx).Create(rec).Error
	tracing.EndSpan(span, err)

	if err != nil {
		return 0, wrap("insert", err)
	}

	return rec.ID, nil
}

// ListAll 返回全部记录，按 id 升序.
func (s *Store) ListAll(ctx context.Context) ([]model.FileRecord, error) {
	records := make([]model.FileRecord, 0)
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, wrap("list", err)
	}

	return records, nil
}

// GetByID 按 id 查找，不存在时返回 nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*model.FileRecord, error) {
	var rec model.FileRecord

	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, wrap("get", err)
	}

	return &rec, nil
}

// GetByDateAndUUID 按分区字段与 uuid 查找，多条匹配时返回 id 最小的一条；不存在时返回 nil, nil.
func (s *Store) GetByDateAndUUID(ctx context.Context, year, month, day int, id string) (*model.FileRecord, error) {
	var rec model.FileRecord

	err := s.db.WithContext(ctx).
		Where("year = ? AND month = ? AND day = ? AND uuid = ?", year, month, day, id).
		Order("id ASC").
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, wrap("get", err)
	}

	return &rec, nil
}

// DeleteByID 删除记录，返回删除的行数；id 不存在时返回 0.
func (s *Store) DeleteByID(ctx context.Context, id int64) (int64, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.FileRecord{})
	if res.Error != nil {
		return 0, wrap("delete", res.Error)
	}

	return res.RowsAffected, nil
}

// FetchContent 查找记录并下载其内容.
func (s *Store) FetchContent(ctx context.Context, year, month, day int, id string) ([]byte, error) {
	rec, err := s.GetByDateAndUUID(ctx, year, month, day, id)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		return nil, fmt.Errorf("%s: %w", model.PartitionKey(year, month, day, id), ErrNotFound)
	}

	return s.Download(ctx, rec)
}

// Download 下载记录对应的文件内容，同一地址的并发请求合并为一次.
func (s *Store) Download(ctx context.Context, rec *model.FileRecord) ([]byte, error) {
	ch := s.fetches.DoChan(rec.DownloadURL, func() (any, error) {
		return s.get(context.WithoutCancel(ctx), rec.DownloadURL)
	})

	select {
	case <-ctx.Done():
		return nil, &FetchError{URL: rec.DownloadURL, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.([]byte), nil
	}
}

func (s *Store) get(ctx context.Context, url string) ([]byte, error) {
	ctx, span := tracing.StartSpan(ctx, "store.fetch")
	span.SetAttributes(attribute.String("url", RedactURL(url)))

	start := time.Now()

	body, err := s.doGet(ctx, url)
	tracing.EndSpan(span, err)

	nlog.Logger().Debug().
		Str("url", RedactURL(url)).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(body)).
		Err(err).
		Msg("content fetched")

	return body, err
}

func (s *Store) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Status: resp.StatusCode, Err: err}
	}

	return body, nil
}
