package service

import (
	"context"
	"errors"
	"testing"

	"github-star-sweeper/internal/common"
	"github-star-sweeper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func restorableRecords() []*domain.UnstarRecord {
	return []*domain.UnstarRecord{
		{ID: 1, RunID: "run-1", Owner: "old", Name: "lib", FullName: "old/lib", Outcome: "success"},
		{ID: 2, RunID: "run-1", Owner: "again", Name: "starred", FullName: "again/starred", Outcome: "success"},
		{ID: 3, RunID: "run-1", Owner: "gone", Name: "forever", FullName: "gone/forever", Outcome: "success"},
	}
}

func TestCleanupService_Restore(t *testing.T) {
	source := new(MockStarSource)
	archive := new(MockArchive)

	archive.On("ListRestorable", mock.Anything, "run-1").Return(restorableRecords(), nil)
	source.On("IsStarred", mock.Anything, "old", "lib").Return(false, nil)
	source.On("Star", mock.Anything, "old", "lib").Return(nil)
	source.On("IsStarred", mock.Anything, "again", "starred").Return(true, nil)
	source.On("IsStarred", mock.Anything, "gone", "forever").Return(false, nil)
	source.On("Star", mock.Anything, "gone", "forever").
		Return(common.NewError(common.ErrCodeGitHubAPI, "重新 star gone/forever 失败: Not Found"))
	archive.On("MarkRestored", mock.Anything, uint(1), mock.Anything).Return(nil)
	archive.On("MarkRestored", mock.Anything, uint(2), mock.Anything).Return(nil)

	svc, out := newTestService(source, new(MockConfirmer), archive, nil)

	result, err := svc.Restore(context.Background(), "run-1")

	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, 1, result.Restored)
	assert.Equal(t, 1, result.AlreadyStarred)
	assert.Equal(t, 1, result.Failed)

	source.AssertNotCalled(t, "Star", mock.Anything, "again", "starred")
	archive.AssertNotCalled(t, "MarkRestored", mock.Anything, uint(3), mock.Anything)
	archive.AssertExpectations(t)
	assert.Contains(t, out.String(), "恢复完成: 成功 1 个，已存在 1 个，失败 1 个")
}

func TestCleanupService_Restore_LatestRun(t *testing.T) {
	source := new(MockStarSource)
	archive := new(MockArchive)

	archive.On("LatestRunID", mock.Anything).Return("run-9", nil)
	archive.On("ListRestorable", mock.Anything, "run-9").Return([]*domain.UnstarRecord{}, nil)

	svc, _ := newTestService(source, new(MockConfirmer), archive, nil)

	result, err := svc.Restore(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "run-9", result.RunID)
	assert.Zero(t, result.Restored)
}

func TestCleanupService_Restore_Errors(t *testing.T) {
	t.Run("未配置归档", func(t *testing.T) {
		svc, _ := newTestService(new(MockStarSource), new(MockConfirmer), nil, nil)

		result, err := svc.Restore(context.Background(), "run-1")

		assert.Nil(t, result)
		assert.True(t, common.HasCode(err, common.ErrCodeConfig))
	})

	t.Run("归档为空", func(t *testing.T) {
		archive := new(MockArchive)
		archive.On("LatestRunID", mock.Anything).Return("", common.NewError(common.ErrCodeNotFound, "归档中没有可恢复的运行"))
		svc, _ := newTestService(new(MockStarSource), new(MockConfirmer), archive, nil)

		_, err := svc.Restore(context.Background(), "")

		assert.True(t, common.HasCode(err, common.ErrCodeNotFound))
	})

	t.Run("查询状态失败不影响后续", func(t *testing.T) {
		source := new(MockStarSource)
		archive := new(MockArchive)
		records := restorableRecords()[:2]
		archive.On("ListRestorable", mock.Anything, "run-1").Return(records, nil)
		source.On("IsStarred", mock.Anything, "old", "lib").Return(false, errors.New("502"))
		source.On("IsStarred", mock.Anything, "again", "starred").Return(false, nil)
		source.On("Star", mock.Anything, "again", "starred").Return(nil)
		archive.On("MarkRestored", mock.Anything, uint(2), mock.Anything).Return(errors.New("db down"))
		svc, _ := newTestService(source, new(MockConfirmer), archive, nil)

		result, err := svc.Restore(context.Background(), "run-1")

		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Restored)
	})
}
