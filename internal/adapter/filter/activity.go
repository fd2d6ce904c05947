package filter

import (
	"time"

	"github-star-sweeper/internal/domain"
)

// 一年按 365 天计算，闰年不做修正
const daysPerYear = 365

// ActivityFilter 实现了 port.Filter 接口
type ActivityFilter struct {
	nowFunc func() time.Time
}

// NewActivityFilter 创建新的过滤器实例
func NewActivityFilter() *ActivityFilter {
	return &ActivityFilter{
		nowFunc: time.Now, // 便于测试注入当前时间
	}
}

// Threshold 返回判定阈值：当前时间往前推 years*365 天
// 按 UTC 日期计算，每天固定 24 小时；年数很大时也不会溢出 time.Duration
func (f *ActivityFilter) Threshold(thresholdYears int) time.Time {
	current := time.Now()
	if f != nil && f.nowFunc != nil {
		current = f.nowFunc()
	}
	return current.UTC().AddDate(0, 0, -thresholdYears*daysPerYear)
}

// IsActive 判断仓库在阈值内是否活跃
// 没有任何时间戳的仓库视为不活跃；正好落在阈值上的也视为不活跃
func (f *ActivityFilter) IsActive(item domain.StarredItem, thresholdYears int) bool {
	last, ok := item.LastActivity()
	if !ok {
		return false
	}
	return last.After(f.Threshold(thresholdYears))
}

// SplitInactive 筛出不活跃的仓库，保持原有顺序
func (f *ActivityFilter) SplitInactive(items []domain.StarredItem, thresholdYears int) []domain.StarredItem {
	threshold := f.Threshold(thresholdYears)

	var inactive []domain.StarredItem
	for _, item := range items {
		last, ok := item.LastActivity()
		if !ok || !last.After(threshold) {
			inactive = append(inactive, item)
		}
	}
	return inactive
}
