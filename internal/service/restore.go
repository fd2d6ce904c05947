package service

import (
	"context"

	"github-star-sweeper/internal/common"
)

// RestoreResult 一次恢复的统计
type RestoreResult struct {
	RunID          string
	Restored       int
	AlreadyStarred int
	Failed         int
}

// Restore 按归档记录把某次运行取消的 star 加回来，runID 为空时取最近一次
// 单个仓库失败不影响其他仓库
func (s *CleanupService) Restore(ctx context.Context, runID string) (*RestoreResult, error) {
	if s.archive == nil {
		return nil, common.NewError(common.ErrCodeConfig, "未配置 STAR_ARCHIVE_DSN，无法恢复")
	}

	if runID == "" {
		latest, err := s.archive.LatestRunID(ctx)
		if err != nil {
			return nil, err
		}
		runID = latest
	}

	records, err := s.archive.ListRestorable(ctx, runID)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{RunID: runID}
	s.printf("♻️ 运行 %s 中有 %d 个仓库可以恢复\n", runID, len(records))

	for i, record := range records {
		if err := s.pause(ctx, i); err != nil {
			return result, common.WrapError(common.ErrCodeInternal, "恢复被中断", err)
		}

		starred, err := s.source.IsStarred(ctx, record.Owner, record.Name)
		if err != nil {
			result.Failed++
			s.printf("❌ 查询 %s 失败: %v\n", record.FullName, err)
			continue
		}

		if starred {
			result.AlreadyStarred++
			s.printf("⏭️ %s 已经是 star 状态\n", record.FullName)
		} else {
			if err := s.source.Star(ctx, record.Owner, record.Name); err != nil {
				result.Failed++
				s.printf("❌ 恢复 %s 失败: %v\n", record.FullName, err)
				continue
			}
			result.Restored++
			s.printf("⭐ 已恢复 star: %s\n", record.FullName)
		}

		if err := s.archive.MarkRestored(ctx, record.ID, s.nowFunc()); err != nil {
			s.logger.Warn().Err(err).Str("repo", record.FullName).Msg("mark record restored failed")
		}
	}

	s.printf("🎉 恢复完成: 成功 %d 个，已存在 %d 个，失败 %d 个\n",
		result.Restored, result.AlreadyStarred, result.Failed)
	return result, nil
}
