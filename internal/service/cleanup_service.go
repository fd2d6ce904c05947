package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github-star-sweeper/internal/common"
	"github-star-sweeper/internal/domain"
	"github-star-sweeper/internal/port"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultDeleteDelay 两次取消 star 之间的间隔
const DefaultDeleteDelay = 500 * time.Millisecond

// CleanupService 处理 star 清理逻辑：校验 -> 拉取 -> 分类 -> 确认 -> 逐个取消 -> 汇总
type CleanupService struct {
	source    port.StarSource
	filter    port.Filter
	confirmer port.Confirmer
	archive   port.Archive  // 可选
	notifier  port.Notifier // 可选

	out           io.Writer // 给用户看的报告
	logger        zerolog.Logger
	validate      bool
	deleteDelay   time.Duration
	newRunID      func() string
	nowFunc       func() time.Time
}

// NewCleanupService 创建新的清理服务，archive 和 notifier 可以传 nil
func NewCleanupService(
	source port.StarSource,
	filter port.Filter,
	confirmer port.Confirmer,
	archive port.Archive,
	notifier port.Notifier,
	out io.Writer,
) *CleanupService {
	if out == nil {
		out = os.Stdout
	}
	return &CleanupService{
		source:        source,
		filter:        filter,
		confirmer:     confirmer,
		archive:       archive,
		notifier:      notifier,
		out:           out,
		logger:        zerolog.Nop(),
		validate:      true,
		deleteDelay:   DefaultDeleteDelay,
		newRunID:      uuid.NewString,
		nowFunc:       time.Now,
	}
}

// SetLogger 设置诊断日志器
func (s *CleanupService) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// SetValidateToken 是否在运行前校验令牌
func (s *CleanupService) SetValidateToken(validate bool) {
	s.validate = validate
}

// SetDeleteDelay 设置上一次调用返回后到下一次调用之前的间隔，0 表示不等待
func (s *CleanupService) SetDeleteDelay(d time.Duration) {
	s.deleteDelay = d
}

// pause 在第 i 个仓库之前等待，第一个不等；ctx 取消时立即返回
func (s *CleanupService) pause(ctx context.Context, i int) error {
	if i == 0 || s.deleteDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.deleteDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *CleanupService) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

// Run 执行一次完整的清理
// 令牌校验失败、拉取列表失败时直接返回错误，此时不会有任何删除操作
// 删除阶段的单个失败只计入汇总；出现权限不足时 summary.OK() 为 false
func (s *CleanupService) Run(ctx context.Context, thresholdYears int) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		RunID:          s.newRunID(),
		ThresholdYears: thresholdYears,
	}

	// 1. 校验令牌
	if s.validate {
		s.printf("🔑 正在校验 GitHub 令牌...\n")
		ok, message := s.source.ValidateCredentials(ctx)
		if !ok {
			s.printf("❌ 令牌校验未通过: %s\n", message)
			return summary, common.NewError(common.ErrCodeAuth, message)
		}
		s.printf("✅ %s\n", message)
	}

	// 2. 拉取全部 star
	s.printf("📥 正在获取 star 列表...\n")
	items, err := s.source.ListStarred(ctx)
	if err != nil {
		return summary, err
	}
	summary.Total = len(items)
	s.printf("✅ 共获取 %d 个 star\n", len(items))

	// 3. 按活跃度分类
	summary.Inactive = s.filter.SplitInactive(items, thresholdYears)
	s.printf("🔍 其中 %d 个仓库超过 %d 年没有活动\n", len(summary.Inactive), thresholdYears)

	if len(summary.Inactive) == 0 {
		s.printf("🎉 没有需要取消 star 的仓库\n")
		return summary, nil
	}
	s.printInactive(summary.Inactive)

	// 4. 确认，只有 y 才继续
	confirmed, err := s.confirmer.Confirm(ctx, fmt.Sprintf("确定要取消这 %d 个仓库的 star 吗? (y/N): ", len(summary.Inactive)))
	if err != nil {
		if ctx.Err() != nil {
			summary.Interrupted = true
			s.printf("🚫 操作已取消，没有取消任何 star\n")
			return summary, common.WrapError(common.ErrCodeInternal, "等待确认时被中断", err)
		}
		return summary, common.WrapError(common.ErrCodeInvalidInput, "读取确认输入失败", err)
	}
	if !confirmed {
		summary.Declined = true
		s.printf("🚫 操作已取消\n")
		return summary, nil
	}

	// 5. 逐个取消，不并发
	for i, item := range summary.Inactive {
		if err := s.pause(ctx, i); err != nil {
			summary.Interrupted = true
			break
		}

		result := s.source.Unstar(ctx, item.Owner, item.Name)
		result.Item = item
		summary.Results = append(summary.Results, result)
		s.printResult(result)
		s.archiveResult(ctx, summary.RunID, result)
	}

	// 6. 汇总
	s.printSummary(summary)
	s.notify(ctx, summary)

	if summary.Interrupted {
		return summary, common.WrapError(common.ErrCodeInternal,
			fmt.Sprintf("运行被中断，已处理 %d/%d 个仓库", len(summary.Results), len(summary.Inactive)), ctx.Err())
	}
	return summary, nil
}

// Report 只拉取并分类，不确认、不删除 (dry run)
func (s *CleanupService) Report(ctx context.Context, thresholdYears int) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{ThresholdYears: thresholdYears}

	s.printf("📥 正在获取 star 列表...\n")
	items, err := s.source.ListStarred(ctx)
	if err != nil {
		return summary, err
	}
	summary.Total = len(items)
	s.printf("✅ 共获取 %d 个 star\n", len(items))

	summary.Inactive = s.filter.SplitInactive(items, thresholdYears)
	s.printInactive(summary.Inactive)
	s.printf("\n📊 共 %d 个仓库超过 %d 年没有活动 (未做任何修改)\n", len(summary.Inactive), thresholdYears)
	return summary, nil
}

func (s *CleanupService) printInactive(items []domain.StarredItem) {
	for _, item := range items {
		last, _ := item.LastActivity()
		s.printf("  - %s (最后活动: %s)\n", item.Slug(), domain.FormatTimestamp(last))
	}
}

func (s *CleanupService) printResult(r domain.DeletionResult) {
	switch r.Outcome {
	case domain.OutcomeSuccess:
		s.printf("✅ 已取消 star: %s\n", r.Item.Slug())
	case domain.OutcomeNotFound:
		s.printf("🔍 %s 已不存在 (404): %s\n", r.Item.Slug(), r.Message)
	case domain.OutcomePermissionDenied:
		s.printf("⛔ 无权取消 %s (403): %s\n", r.Item.Slug(), r.Message)
	default:
		s.printf("❌ 取消 %s 失败 (HTTP %d): %s\n", r.Item.Slug(), r.StatusCode, r.Message)
	}
	s.logger.Debug().
		Str("repo", r.Item.Slug()).
		Str("outcome", string(r.Outcome)).
		Int("status", r.StatusCode).
		Msg("unstar attempt")
}

func (s *CleanupService) printSummary(summary *domain.RunSummary) {
	s.printf("\n================ [ 清理结果 ] ================\n")

	// 权限不足时只给出修复建议
	if denied := summary.Count(domain.OutcomePermissionDenied); denied > 0 {
		s.printf("⛔ 有 %d 个仓库因权限不足 (403) 无法取消 star\n", denied)
		s.printf("请检查令牌权限:\n")
		s.printf("  - classic 令牌需要 public_repo 或 repo scope\n")
		s.printf("  - fine-grained 令牌需要授予 Starring 的读写权限\n")
		s.printf("==============================================\n")
		return
	}

	sections := map[domain.Outcome]string{
		domain.OutcomeSuccess:    "✅ 成功取消",
		domain.OutcomeNotFound:   "🔍 仓库已不存在 (视为已取消)",
		domain.OutcomeOtherError: "❌ 其他错误",
	}
	for _, outcome := range domain.Outcomes {
		title, ok := sections[outcome]
		if !ok {
			continue
		}
		results := summary.ByOutcome(outcome)
		if len(results) == 0 {
			continue
		}
		s.printf("%s: %d 个\n", title, len(results))
		if outcome == domain.OutcomeSuccess {
			continue
		}
		for _, r := range results {
			s.printf("  - %s: %s\n", r.Item.Slug(), r.Message)
		}
	}

	if summary.Interrupted {
		s.printf("⏹️ 运行被中断，还有 %d 个仓库未处理\n", len(summary.Inactive)-len(summary.Results))
	}
	s.printf("==============================================\n")
}

func (s *CleanupService) archiveResult(ctx context.Context, runID string, r domain.DeletionResult) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(ctx, domain.NewUnstarRecord(runID, r)); err != nil {
		s.logger.Warn().Err(err).Str("repo", r.Item.Slug()).Msg("archive unstar record failed")
	}
}

func (s *CleanupService) notify(ctx context.Context, summary *domain.RunSummary) {
	if s.notifier == nil {
		return
	}
	// 运行被中断时也要把已处理的部分推送出去
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.notifier.NotifySummary(nctx, summary); err != nil {
		s.logger.Warn().Err(err).Msg("push run summary failed")
	}
}
