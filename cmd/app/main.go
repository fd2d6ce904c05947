package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github-star-sweeper/internal/adapter/feishu"
	"github-star-sweeper/internal/adapter/filter"
	"github-star-sweeper/internal/adapter/github"
	"github-star-sweeper/internal/adapter/prompt"
	"github-star-sweeper/internal/adapter/repository"
	"github-star-sweeper/internal/common"
	"github-star-sweeper/internal/config"
	"github-star-sweeper/internal/domain"
	"github-star-sweeper/internal/port"
	"github-star-sweeper/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// reportedError 已经打印给用户的错误，只影响退出码
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

var errPermissionDenied = errors.New("部分仓库因权限不足无法取消 star")

// app 持有一次命令执行需要的输入输出和配置
type app struct {
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	envFile string
	lookup  config.LookupFunc

	cfg    *config.Config
	logger zerolog.Logger
}

func main() {
	a := &app{
		in:      os.Stdin,
		out:     os.Stdout,
		errOut:  os.Stderr,
		envFile: config.DefaultEnvFile,
		lookup:  os.LookupEnv,
	}
	os.Exit(a.execute(os.Args[1:]))
}

// execute 运行命令并返回进程退出码，Ctrl+C / SIGTERM 会取消 ctx
// 包括停在 y/N 提示上的时候
func (a *app) execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.run(ctx, args)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var reported *reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintf(a.errOut, "❌ %v\n", err)
	}
	return 1
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "github-star-sweeper",
		Short:         "取消长期不活跃仓库的 star",
		Long:          "拉取当前用户的全部 star，找出超过阈值年限没有活动的仓库，确认后逐个取消 star。",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCleanup(cmd.Context())
		},
	}

	root.AddCommand(a.newReportCmd(), a.newRestoreCmd())
	return root
}

func (a *app) newReportCmd() *cobra.Command {
	var years int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "只列出不活跃的仓库，不做任何修改",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("years") {
				years = a.cfg.ThresholdYears
			}
			if years < 0 || years > config.MaxThresholdYears {
				return common.NewError(common.ErrCodeInvalidInput,
					fmt.Sprintf("--years 必须在 0 到 %d 之间", config.MaxThresholdYears))
			}
			return a.runReport(cmd.Context(), years)
		},
	}
	cmd.Flags().IntVar(&years, "years", config.DefaultThresholdYears, "不活跃年限阈值")
	return cmd
}

func (a *app) newRestoreCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "根据归档记录重新 star 某次运行取消的仓库",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRestore(cmd.Context(), runID)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "要恢复的运行 ID，默认最近一次")
	return cmd
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.envFile, a.lookup)
	if err != nil {
		return err
	}
	if err := cfg.RequireToken(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = common.NewLoggerTo(a.errOut, cfg.LogLevel)
	return nil
}

// newService 组装清理服务，withArchive 为 false 时不连接数据库
func (a *app) newService(withArchive bool) (*service.CleanupService, error) {
	client := github.NewStarClient(a.cfg.GitHubToken)
	if err := client.SetBaseURL(a.cfg.GitHubAPIURL); err != nil {
		return nil, err
	}
	client.SetPageDelay(a.cfg.PageDelay)
	client.SetLogger(a.logger)

	// 接口变量必须保持为 nil，不能装一个 nil 指针
	var archive port.Archive
	if withArchive && a.cfg.ArchiveDSN != "" {
		store, err := repository.NewPostgresArchive(a.cfg.ArchiveDSN)
		if err != nil {
			return nil, err
		}
		archive = store
		a.logger.Debug().Msg("unstar archive enabled")
	}

	var notifier port.Notifier
	if a.cfg.FeishuWebhook != "" {
		notifier = feishu.NewNotifier(a.cfg.FeishuWebhook)
	}

	svc := service.NewCleanupService(
		client,
		filter.NewActivityFilter(),
		prompt.NewLineConfirmer(a.in, a.out),
		archive,
		notifier,
		a.out,
	)
	svc.SetLogger(a.logger)
	svc.SetValidateToken(a.cfg.ValidateToken)
	svc.SetDeleteDelay(a.cfg.DeleteDelay)
	return svc, nil
}

// --- 清理模式 ---
func (a *app) runCleanup(ctx context.Context) error {
	svc, err := a.newService(true)
	if err != nil {
		return err
	}

	summary, err := svc.Run(ctx, a.cfg.ThresholdYears)
	return a.cleanupResult(summary, err)
}

// cleanupResult 决定退出码：令牌无效、权限不足、被中断时失败
// 网络或 API 错误只打印，按成功退出
func (a *app) cleanupResult(summary *domain.RunSummary, err error) error {
	switch {
	case err == nil:
		if summary != nil && !summary.OK() {
			return &reportedError{err: errPermissionDenied}
		}
		return nil
	case common.HasCode(err, common.ErrCodeAuth):
		return &reportedError{err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(a.out, "⏹️ 已停止\n")
		return &reportedError{err: err}
	case common.HasCode(err, common.ErrCodeGitHubAPI):
		fmt.Fprintf(a.out, "❌ API 请求失败: %v\n", err)
		return nil
	default:
		return err
	}
}

// --- 预览模式 ---
func (a *app) runReport(ctx context.Context, years int) error {
	svc, err := a.newService(false)
	if err != nil {
		return err
	}

	if _, err := svc.Report(ctx, years); err != nil {
		return a.cleanupResult(nil, err)
	}
	return nil
}

// --- 恢复模式 ---
func (a *app) runRestore(ctx context.Context, runID string) error {
	svc, err := a.newService(true)
	if err != nil {
		return err
	}

	result, err := svc.Restore(ctx, runID)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return &reportedError{err: fmt.Errorf("%d 个仓库恢复失败", result.Failed)}
	}
	return nil
}
