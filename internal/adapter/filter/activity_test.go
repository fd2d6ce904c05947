package filter

import (
	"testing"
	"time"

	"github-star-sweeper/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestActivityFilter_IsActive(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	fiveYears := 5 * 365 * 24 * time.Hour

	tests := []struct {
		name      string
		item      domain.StarredItem
		threshold int
		expected  bool
	}{
		{
			name:      "一年前更新，活跃",
			item:      domain.StarredItem{UpdatedAt: now.AddDate(-1, 0, 0)},
			threshold: 5,
			expected:  true,
		},
		{
			name:      "六年前更新，不活跃",
			item:      domain.StarredItem{UpdatedAt: now.AddDate(-6, 0, 0)},
			threshold: 5,
			expected:  false,
		},
		{
			name:      "正好在阈值上，不活跃",
			item:      domain.StarredItem{UpdatedAt: now.Add(-fiveYears)},
			threshold: 5,
			expected:  false,
		},
		{
			name:      "阈值之后一秒，活跃",
			item:      domain.StarredItem{UpdatedAt: now.Add(-fiveYears + time.Second)},
			threshold: 5,
			expected:  true,
		},
		{
			name:      "updated_at 缺失，使用 pushed_at",
			item:      domain.StarredItem{PushedAt: now.AddDate(0, -3, 0)},
			threshold: 1,
			expected:  true,
		},
		{
			name:      "阈值为 0 年",
			item:      domain.StarredItem{UpdatedAt: now.Add(-time.Minute)},
			threshold: 0,
			expected:  false,
		},
		{
			name:      "293 年阈值，一小时前更新仍然活跃",
			item:      domain.StarredItem{UpdatedAt: now.Add(-time.Hour)},
			threshold: 293,
			expected:  true,
		},
		{
			name:      "1000 年阈值，一小时前更新仍然活跃",
			item:      domain.StarredItem{UpdatedAt: now.Add(-time.Hour)},
			threshold: 1000,
			expected:  true,
		},
		{
			name:      "300 年阈值，301 年前更新不活跃",
			item:      domain.StarredItem{UpdatedAt: now.AddDate(-301, 0, 0)},
			threshold: 300,
			expected:  false,
		},
		{
			// 5*365 天比 5 个日历年少一天 (中间有闰年)
			name:      "闰年不修正",
			item:      domain.StarredItem{UpdatedAt: now.AddDate(-5, 0, 0).Add(12 * time.Hour)},
			threshold: 5,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := &ActivityFilter{nowFunc: func() time.Time { return now }}
			assert.Equal(t, tt.expected, filter.IsActive(tt.item, tt.threshold))
		})
	}
}

func TestActivityFilter_IsActive_MissingTimestamp(t *testing.T) {
	now := time.Now()
	filter := &ActivityFilter{nowFunc: func() time.Time { return now }}

	for _, threshold := range []int{0, 1, 5, 50, 1000} {
		assert.False(t, filter.IsActive(domain.StarredItem{FullName: "ghost/repo"}, threshold))
	}
}

func TestActivityFilter_SplitInactive(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		items     []domain.StarredItem
		threshold int
		verify    func(*testing.T, []domain.StarredItem)
	}{
		{
			name: "一新一旧一缺失",
			items: []domain.StarredItem{
				{FullName: "fresh/repo", UpdatedAt: now.AddDate(-1, 0, 0)},
				{FullName: "stale/repo", UpdatedAt: now.AddDate(-6, 0, 0)},
				{FullName: "ghost/repo"},
			},
			threshold: 5,
			verify: func(t *testing.T, result []domain.StarredItem) {
				assert.Equal(t, 2, len(result))
				assert.Equal(t, "stale/repo", result[0].FullName)
				assert.Equal(t, "ghost/repo", result[1].FullName)
			},
		},
		{
			name: "两年阈值",
			items: []domain.StarredItem{
				{FullName: "a/one", UpdatedAt: now.AddDate(-1, 0, 0)},
				{FullName: "b/three", UpdatedAt: now.AddDate(-3, 0, 0)},
			},
			threshold: 2,
			verify: func(t *testing.T, result []domain.StarredItem) {
				assert.Equal(t, 1, len(result))
				assert.Equal(t, "b/three", result[0].FullName)
			},
		},
		{
			name:      "空列表",
			items:     []domain.StarredItem{},
			threshold: 5,
			verify: func(t *testing.T, result []domain.StarredItem) {
				assert.Equal(t, 0, len(result))
			},
		},
		{
			name: "全部活跃",
			items: []domain.StarredItem{
				{FullName: "a/one", UpdatedAt: now.AddDate(0, -1, 0)},
			},
			threshold: 5,
			verify: func(t *testing.T, result []domain.StarredItem) {
				assert.Equal(t, 0, len(result))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := &ActivityFilter{nowFunc: func() time.Time { return now }}
			result := filter.SplitInactive(tt.items, tt.threshold)
			tt.verify(t, result)
		})
	}
}

func TestActivityFilter_SplitInactiveAgreesWithIsActive(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	filter := &ActivityFilter{nowFunc: func() time.Time { return now }}

	var items []domain.StarredItem
	for months := 0; months < 120; months += 7 {
		items = append(items, domain.StarredItem{UpdatedAt: now.AddDate(0, -months, 0)})
	}
	items = append(items, domain.StarredItem{})

	inactive := filter.SplitInactive(items, 5)

	expected := 0
	for _, item := range items {
		if !filter.IsActive(item, 5) {
			expected++
		}
	}
	assert.Equal(t, expected, len(inactive))
}

func TestActivityFilter_Threshold_LargeYears(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	filter := &ActivityFilter{nowFunc: func() time.Time { return now }}

	previous := now
	for _, years := range []int{1, 100, 292, 293, 300, 1000} {
		threshold := filter.Threshold(years)
		// 阈值必须在过去，而且年数越大越早
		assert.True(t, threshold.Before(previous), "years=%d threshold=%s", years, threshold)
		assert.Equal(t, now.AddDate(0, 0, -years*365), threshold)
		previous = threshold
	}
}

func TestNewActivityFilter(t *testing.T) {
	filter := NewActivityFilter()
	assert.NotNil(t, filter.nowFunc)

	threshold := filter.Threshold(1)
	assert.WithinDuration(t, time.Now().Add(-365*24*time.Hour), threshold, time.Minute)
}
