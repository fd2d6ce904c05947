package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github-star-sweeper/internal/common"

	"github.com/joho/godotenv"
)

const (
	// DefaultEnvFile 默认读取当前目录下的 .env
	DefaultEnvFile = ".env"
	// DefaultThresholdYears 默认把 5 年没动静的仓库视为不活跃
	DefaultThresholdYears = 5
	// MaxThresholdYears 阈值上限
	MaxThresholdYears = 1000
	// DefaultDeleteDelay 两次取消 star 之间的间隔
	DefaultDeleteDelay = 500 * time.Millisecond
	// DefaultPageDelay 两次翻页之间的间隔
	DefaultPageDelay = 100 * time.Millisecond

	// 示例文件里的占位符，视为没有配置
	placeholderToken = "your_github_token_here"
)

// Config 运行所需的全部配置，显式传给各个组件，不修改进程环境变量
type Config struct {
	GitHubToken    string
	GitHubAPIURL   string // 为空时使用 api.github.com
	ValidateToken  bool
	ThresholdYears int
	PageDelay      time.Duration
	DeleteDelay    time.Duration

	ArchiveDSN    string // 为空时不归档
	FeishuWebhook string // 为空时不推送
	LogLevel      string
}

// LookupFunc 与 os.LookupEnv 签名一致，便于测试替换
type LookupFunc func(key string) (string, bool)

// Default 返回默认配置
func Default() *Config {
	return &Config{
		ValidateToken:  true,
		ThresholdYears: DefaultThresholdYears,
		PageDelay:      DefaultPageDelay,
		DeleteDelay:    DefaultDeleteDelay,
		LogLevel:       "info",
	}
}

// Load 从 .env 文件和环境变量读取配置，环境变量优先
// 文件不存在不算错误
func Load(envFile string, lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	fileValues := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileValues = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, common.WrapError(common.ErrCodeConfig, "读取配置文件 "+envFile+" 失败", err)
		}
	}

	get := func(key string) string {
		if v, ok := lookup(key); ok {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(fileValues[key])
	}

	cfg := Default()
	cfg.GitHubToken = get("GITHUB_TOKEN")
	if cfg.GitHubToken == placeholderToken {
		cfg.GitHubToken = ""
	}
	cfg.GitHubAPIURL = get("GITHUB_API_URL")
	cfg.ArchiveDSN = get("STAR_ARCHIVE_DSN")
	cfg.FeishuWebhook = get("FEISHU_WEBHOOK")

	if v := get("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := get("VALIDATE_TOKEN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, common.WrapError(common.ErrCodeConfig, "VALIDATE_TOKEN 必须是布尔值", err)
		}
		cfg.ValidateToken = b
	}

	if v := get("THRESHOLD_YEARS"); v != "" {
		years, err := strconv.Atoi(v)
		if err != nil || years < 0 || years > MaxThresholdYears {
			return nil, common.NewError(common.ErrCodeConfig,
				fmt.Sprintf("THRESHOLD_YEARS 必须是 0 到 %d 之间的整数: %s", MaxThresholdYears, v))
		}
		cfg.ThresholdYears = years
	}

	return cfg, nil
}

// RequireToken 没有令牌时返回带操作提示的错误
func (c *Config) RequireToken() error {
	if c.GitHubToken != "" {
		return nil
	}
	return common.NewError(common.ErrCodeConfig, strings.Join([]string{
		"请先设置 GitHub 令牌，任选其一:",
		"  1. 在 .env 文件中写入: GITHUB_TOKEN=your_token_here",
		"  2. 设置环境变量: export GITHUB_TOKEN=your_token",
	}, "\n"))
}
