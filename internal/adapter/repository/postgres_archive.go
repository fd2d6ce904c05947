package repository

import (
	"context"
	"fmt"
	"time"

	"github-star-sweeper/internal/common"
	"github-star-sweeper/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresArchive 实现了 port.Archive 接口
type PostgresArchive struct {
	db *gorm.DB
}

// NewPostgresArchive 初始化数据库连接并自动迁移表结构
func NewPostgresArchive(dsn string) (*PostgresArchive, error) {
	// 1. 连接数据库
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "连接数据库失败", err)
	}

	// 2. 自动迁移，创建 unstar_records 表
	if err := db.AutoMigrate(&domain.UnstarRecord{}); err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "数据库迁移失败", err)
	}

	return &PostgresArchive{db: db}, nil
}

// Save 写入一条取消 star 的记录
func (r *PostgresArchive) Save(ctx context.Context, record *domain.UnstarRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return common.WrapError(common.ErrCodeDatabase, fmt.Sprintf("保存 %s 的归档记录失败", record.FullName), err)
	}
	return nil
}

// ListRestorable 获取某次运行中成功取消、且还没恢复的记录
func (r *PostgresArchive) ListRestorable(ctx context.Context, runID string) ([]*domain.UnstarRecord, error) {
	var records []*domain.UnstarRecord
	err := r.db.WithContext(ctx).
		Where("run_id = ? AND outcome = ? AND restored = ?", runID, string(domain.OutcomeSuccess), false).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询归档记录失败", err)
	}
	return records, nil
}

// LatestRunID 最近一次有成功取消记录的运行 ID，没有时返回 NOT_FOUND
func (r *PostgresArchive) LatestRunID(ctx context.Context) (string, error) {
	var runIDs []string
	err := r.db.WithContext(ctx).
		Model(&domain.UnstarRecord{}).
		Where("outcome = ?", string(domain.OutcomeSuccess)).
		Order("created_at DESC").
		Limit(1).
		Pluck("run_id", &runIDs).Error
	if err != nil {
		return "", common.WrapError(common.ErrCodeDatabase, "查询最近一次运行失败", err)
	}
	if len(runIDs) == 0 {
		return "", common.NewError(common.ErrCodeNotFound, "归档中没有可恢复的运行")
	}
	return runIDs[0], nil
}

// MarkRestored 标记记录已恢复
func (r *PostgresArchive) MarkRestored(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.UnstarRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"restored": true, "restored_at": at})
	if result.Error != nil {
		return common.WrapError(common.ErrCodeDatabase, fmt.Sprintf("标记记录 %d 为已恢复失败", id), result.Error)
	}
	return nil
}
