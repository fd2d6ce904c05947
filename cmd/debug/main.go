package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github-star-sweeper/internal/adapter/github"
	"github-star-sweeper/internal/common"
	"github-star-sweeper/internal/config"
	"github-star-sweeper/internal/domain"
)

func main() {
	cfg, err := config.Load(config.DefaultEnvFile, os.LookupEnv)
	if err != nil {
		log.Fatalf("❌ 读取配置失败: %v", err)
	}
	if err := cfg.RequireToken(); err != nil {
		log.Fatalf("❌ %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := github.NewStarClient(cfg.GitHubToken)
	if err := client.SetBaseURL(cfg.GitHubAPIURL); err != nil {
		log.Fatalf("❌ %v", err)
	}
	client.SetLogger(common.NewLogger(cfg.LogLevel))

	if err := diagnose(ctx, client, os.Stdout); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// diagnose 打印令牌对应的身份、scope、限流情况，并试拉一次 star 列表
func diagnose(ctx context.Context, client *github.StarClient, out io.Writer) error {
	fmt.Fprintln(out, "🔍 调试模式：检查 GitHub 令牌")

	// 1. 身份与限流
	id, err := client.Whoami(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "👤 登录用户: %s\n", id.Login)
	if id.ScopesReported {
		scopes := strings.Join(id.Scopes, ", ")
		if scopes == "" {
			scopes = "(无)"
		}
		fmt.Fprintf(out, "🔑 令牌 scope: %s\n", scopes)
	} else {
		fmt.Fprintln(out, "🔑 令牌没有返回 scope 信息 (可能是 fine-grained 令牌)")
	}
	fmt.Fprintf(out, "⏱️ 限流: 剩余 %d/%d，%s 重置\n",
		id.RateRemaining, id.RateLimit, id.RateReset.Local().Format("15:04:05"))

	// 2. 校验结论，与正式运行时的判断一致
	if ok, message := client.ValidateCredentials(ctx); ok {
		fmt.Fprintf(out, "✅ %s\n", message)
	} else {
		fmt.Fprintf(out, "❌ %s\n", message)
	}

	// 3. 试拉一次 star 列表
	fmt.Fprintln(out, "📥 正在获取 star 列表...")
	items, err := client.ListStarred(ctx)
	if err != nil {
		fmt.Fprintf(out, "❌ 获取 star 列表失败: %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "✅ 共 %d 个 star\n", len(items))
	for i, item := range items {
		if i >= 3 {
			break
		}
		last, _ := item.LastActivity()
		fmt.Fprintf(out, "  %d. %s (最后活动: %s)\n", i+1, item.Slug(), domain.FormatTimestamp(last))
	}
	return nil
}
