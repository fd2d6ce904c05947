package domain

import (
	"time"
)

// TimestampLayout GitHub API 返回的时间格式
const TimestampLayout = "2006-01-02T15:04:05Z"

// StarredItem 代表一个被当前用户 star 的仓库
// 每次运行都从 GitHub 重新拉取，不做本地缓存
type StarredItem struct {
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	FullName string `json:"full_name"` // 例如 "gohugoio/hugo"
	URL      string `json:"url"`

	// 零值表示 API 没有返回该字段
	UpdatedAt time.Time `json:"updated_at"`
	PushedAt  time.Time `json:"pushed_at"`
	StarredAt time.Time `json:"starred_at"`
}

// Slug 返回 owner/name 形式的名字
func (s *StarredItem) Slug() string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Owner + "/" + s.Name
}

// LastActivity 返回最近活跃时间：优先 updated_at，其次 pushed_at
func (s *StarredItem) LastActivity() (time.Time, bool) {
	if !s.UpdatedAt.IsZero() {
		return s.UpdatedAt, true
	}
	if !s.PushedAt.IsZero() {
		return s.PushedAt, true
	}
	return time.Time{}, false
}

// FormatTimestamp 按 GitHub 的格式输出时间，缺失时返回 N/A
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format(TimestampLayout)
}

// Outcome 单次取消 star 的结果
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeNotFound         Outcome = "not_found"
	OutcomePermissionDenied Outcome = "permission_denied"
	OutcomeOtherError       Outcome = "other_error"
)

// Outcomes 报告中的输出顺序
var Outcomes = []Outcome{
	OutcomeSuccess,
	OutcomeNotFound,
	OutcomePermissionDenied,
	OutcomeOtherError,
}

// DeletionResult 一次 DELETE 调用的结果
type DeletionResult struct {
	Item       StarredItem
	Outcome    Outcome
	StatusCode int
	Message    string
}

// RunSummary 一次清理运行的汇总，只存在于内存中
type RunSummary struct {
	RunID          string
	ThresholdYears int
	Total          int
	Inactive       []StarredItem
	Results        []DeletionResult

	// Declined 用户在确认环节没有输入 y
	Declined bool
	// Interrupted 删除过程中 context 被取消
	Interrupted bool
}

// Count 统计某种结果的数量
func (s *RunSummary) Count(o Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// ByOutcome 按结果筛选
func (s *RunSummary) ByOutcome(o Outcome) []DeletionResult {
	var out []DeletionResult
	for _, r := range s.Results {
		if r.Outcome == o {
			out = append(out, r)
		}
	}
	return out
}

// OK 只要出现权限不足就视为失败
func (s *RunSummary) OK() bool {
	return s.Count(OutcomePermissionDenied) == 0
}

// UnstarRecord 归档表中的一行，记录一次取消 star 的尝试 (可选功能)
type UnstarRecord struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	RunID        string     `json:"run_id" gorm:"index"`
	Owner        string     `json:"owner"`
	Name         string     `json:"name"`
	FullName     string     `json:"full_name"`
	URL          string     `json:"url"`
	LastActivity time.Time  `json:"last_activity"`
	Outcome      string     `json:"outcome" gorm:"index"`
	Message      string     `json:"message" gorm:"type:text"`
	Restored     bool       `json:"restored"`
	CreatedAt    time.Time  `json:"created_at"`
	RestoredAt   *time.Time `json:"restored_at"`
}

// NewUnstarRecord 根据删除结果生成归档记录
func NewUnstarRecord(runID string, r DeletionResult) *UnstarRecord {
	last, _ := r.Item.LastActivity()
	return &UnstarRecord{
		RunID:        runID,
		Owner:        r.Item.Owner,
		Name:         r.Item.Name,
		FullName:     r.Item.Slug(),
		URL:          r.Item.URL,
		LastActivity: last,
		Outcome:      string(r.Outcome),
		Message:      r.Message,
	}
}
