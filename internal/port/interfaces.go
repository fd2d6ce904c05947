package port

import (
	"context"
	"time"

	"github-star-sweeper/internal/domain"
)

// StarSource (星标来源): 负责和 GitHub 的 star 接口打交道
type StarSource interface {
	// 校验令牌是否可用，返回是否通过以及给人看的说明
	ValidateCredentials(ctx context.Context) (bool, string)

	// 分页拉取全部 star，遇到空页为止
	ListStarred(ctx context.Context) ([]domain.StarredItem, error)

	// 取消 star，非 2xx 不返回 error，而是体现在结果里
	Unstar(ctx context.Context, owner, name string) domain.DeletionResult

	// 重新 star (restore 用)
	Star(ctx context.Context, owner, name string) error

	// 查询当前是否已 star
	IsStarred(ctx context.Context, owner, name string) (bool, error)
}

// Filter (筛子): 按最近活跃时间给仓库分类
type Filter interface {
	IsActive(item domain.StarredItem, thresholdYears int) bool
	SplitInactive(items []domain.StarredItem, thresholdYears int) []domain.StarredItem
}

// Confirmer (确认闸门): 删除之前必须经过用户确认
type Confirmer interface {
	// 等待回答时 ctx 被取消，返回 ctx.Err()
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Archive (档案员): 可选，记录每次取消 star 的结果，便于事后恢复
type Archive interface {
	Save(ctx context.Context, record *domain.UnstarRecord) error

	// 某次运行中成功取消且未恢复的记录
	ListRestorable(ctx context.Context, runID string) ([]*domain.UnstarRecord, error)

	// 最近一次有成功记录的运行
	LatestRunID(ctx context.Context) (string, error)

	MarkRestored(ctx context.Context, id uint, at time.Time) error
}

// Notifier (信使): 可选，把运行汇总推送出去
type Notifier interface {
	NotifySummary(ctx context.Context, summary *domain.RunSummary) error
}
