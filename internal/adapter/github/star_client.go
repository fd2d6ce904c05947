package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github-star-sweeper/internal/common"
	"github-star-sweeper/internal/domain"

	"github.com/google/go-github/v53/github"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultPageSize GitHub 允许的最大分页大小
	DefaultPageSize = 100
	// DefaultPageDelay 两次翻页之间的间隔，避免触发限流
	DefaultPageDelay = 100 * time.Millisecond

	scopesHeader = "X-OAuth-Scopes"
)

// 只要令牌带有其中任意一个 scope，就能取消 star
var acceptedScopes = []string{"repo", "public_repo"}

// StarClient 实现了 port.StarSource 接口
type StarClient struct {
	client   *github.Client
	pageSize int
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// Identity 令牌对应的身份信息 (调试用)
type Identity struct {
	Login          string
	Scopes         []string
	ScopesReported bool // fine-grained 令牌不返回 X-OAuth-Scopes
	RateLimit      int
	RateRemaining  int
	RateReset      time.Time
}

// NewStarClient 初始化 GitHub 客户端
// token 为空时匿名访问，只能用来调试，list/unstar 都会 401
func NewStarClient(token string) *StarClient {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	return &StarClient{
		client:   client,
		pageSize: DefaultPageSize,
		limiter:  newLimiter(DefaultPageDelay),
		logger:   zerolog.Nop(),
	}
}

// SetBaseURL 指向 GitHub Enterprise 或测试服务器
func (c *StarClient) SetBaseURL(raw string) error {
	if raw == "" {
		return nil
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return common.WrapError(common.ErrCodeConfig, "GitHub API 地址无效", err)
	}
	c.client.BaseURL = u
	return nil
}

// SetPageDelay 设置翻页间隔，0 表示不等待
func (c *StarClient) SetPageDelay(d time.Duration) {
	c.limiter = newLimiter(d)
}

// SetLogger 设置日志器
func (c *StarClient) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// Whoami 请求 GET /user，返回身份、scope 和限流信息
func (c *StarClient) Whoami(ctx context.Context) (*Identity, error) {
	user, resp, err := c.client.Users.Get(ctx, "")
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, common.WrapError(common.ErrCodeAuth,
			fmt.Sprintf("身份校验失败 (HTTP %d): %s", status, errorMessage(resp, err)), err)
	}

	id := &Identity{
		Login:         user.GetLogin(),
		RateLimit:     resp.Rate.Limit,
		RateRemaining: resp.Rate.Remaining,
		RateReset:     resp.Rate.Reset.Time,
	}
	if values, ok := resp.Header[http.CanonicalHeaderKey(scopesHeader)]; ok {
		id.ScopesReported = true
		id.Scopes = parseScopes(strings.Join(values, ","))
	}
	return id, nil
}

// ValidateCredentials 校验令牌：请求失败或 scope 不满足时不通过
// 没有 scope 信息 (fine-grained 令牌) 时无法判断，放行
func (c *StarClient) ValidateCredentials(ctx context.Context) (bool, string) {
	id, err := c.Whoami(ctx)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			return false, appErr.Message
		}
		return false, err.Error()
	}

	if !id.ScopesReported {
		return true, fmt.Sprintf("已登录为 %s，令牌未返回 scope 信息 (可能是 fine-grained 令牌)，无法确认权限", id.Login)
	}

	for _, scope := range id.Scopes {
		for _, accepted := range acceptedScopes {
			if scope == accepted {
				return true, fmt.Sprintf("已登录为 %s，令牌 scope: %s", id.Login, strings.Join(id.Scopes, ", "))
			}
		}
	}

	return false, fmt.Sprintf("令牌缺少必要的 scope (需要 %s 之一)，当前 scope: %s",
		strings.Join(acceptedScopes, " 或 "), displayScopes(id.Scopes))
}

// ListStarred 分页拉取当前用户的全部 star，直到返回空页
// 任何一页失败都直接返回错误，不重试
func (c *StarClient) ListStarred(ctx context.Context) ([]domain.StarredItem, error) {
	opts := &github.ActivityListStarredOptions{
		ListOptions: github.ListOptions{PerPage: c.pageSize},
	}

	var items []domain.StarredItem
	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, common.WrapError(common.ErrCodeGitHubAPI, "GitHub API 调用失败", err)
		}

		opts.Page = page
		starred, _, err := c.client.Activity.ListStarred(ctx, "", opts)
		if err != nil {
			return nil, common.WrapError(common.ErrCodeGitHubAPI,
				fmt.Sprintf("GitHub API 调用失败: 获取第 %d 页 star 列表出错", page), err)
		}

		c.logger.Debug().Int("page", page).Int("count", len(starred)).Msg("fetched starred page")
		if len(starred) == 0 {
			break
		}

		for _, s := range starred {
			items = append(items, toStarredItem(s))
		}
	}

	return items, nil
}

// Unstar 调用 DELETE /user/starred/{owner}/{repo}
// HTTP 错误不作为 error 返回，而是映射到 Outcome
func (c *StarClient) Unstar(ctx context.Context, owner, name string) domain.DeletionResult {
	result := domain.DeletionResult{
		Item: domain.StarredItem{Owner: owner, Name: name, FullName: owner + "/" + name},
	}

	resp, err := c.client.Activity.Unstar(ctx, owner, name)
	if resp != nil {
		result.StatusCode = resp.StatusCode
	}
	result.Outcome = ClassifyStatus(result.StatusCode)

	switch {
	case err != nil:
		result.Message = errorMessage(resp, err)
	case result.Outcome != domain.OutcomeSuccess:
		result.Message = fmt.Sprintf("unexpected status %d", result.StatusCode)
	}

	return result
}

// Star 调用 PUT /user/starred/{owner}/{repo}
func (c *StarClient) Star(ctx context.Context, owner, name string) error {
	resp, err := c.client.Activity.Star(ctx, owner, name)
	if err != nil {
		return common.WrapError(common.ErrCodeGitHubAPI,
			fmt.Sprintf("重新 star %s/%s 失败: %s", owner, name, errorMessage(resp, err)), err)
	}
	return nil
}

// IsStarred 调用 GET /user/starred/{owner}/{repo}，404 表示未 star
func (c *StarClient) IsStarred(ctx context.Context, owner, name string) (bool, error) {
	starred, resp, err := c.client.Activity.IsStarred(ctx, owner, name)
	if err != nil {
		return false, common.WrapError(common.ErrCodeGitHubAPI,
			fmt.Sprintf("查询 %s/%s 的 star 状态失败: %s", owner, name, errorMessage(resp, err)), err)
	}
	return starred, nil
}

// ClassifyStatus 把 DELETE 的 HTTP 状态码映射成结果
func ClassifyStatus(status int) domain.Outcome {
	switch status {
	case http.StatusNoContent:
		return domain.OutcomeSuccess
	case http.StatusNotFound:
		return domain.OutcomeNotFound
	case http.StatusForbidden:
		return domain.OutcomePermissionDenied
	default:
		return domain.OutcomeOtherError
	}
}

func toStarredItem(s *github.StarredRepository) domain.StarredItem {
	repo := s.GetRepository()
	item := domain.StarredItem{
		Owner:     repo.GetOwner().GetLogin(),
		Name:      repo.GetName(),
		FullName:  repo.GetFullName(),
		URL:       repo.GetHTMLURL(),
		UpdatedAt: repo.GetUpdatedAt().Time,
		PushedAt:  repo.GetPushedAt().Time,
		StarredAt: s.GetStarredAt().Time,
	}

	// 部分镜像服务不返回 owner 对象，从 full_name 里补齐
	if item.Owner == "" {
		if owner, name, ok := strings.Cut(item.FullName, "/"); ok {
			item.Owner = owner
			if item.Name == "" {
				item.Name = name
			}
		}
	}
	return item
}

// errorMessage 尽量从错误响应里取出可读信息：JSON message > 原始响应体 > 状态码文本
func errorMessage(resp *github.Response, err error) string {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Message != "" {
		return rateErr.Message
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Message != "" {
		return abuseErr.Message
	}
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) {
		if errResp.Message != "" {
			return errResp.Message
		}
		if raw := readRawBody(errResp.Response); raw != "" {
			return raw
		}
	}

	if resp != nil && resp.Response != nil {
		if raw := readRawBody(resp.Response); raw != "" {
			return raw
		}
		if text := http.StatusText(resp.StatusCode); text != "" {
			return text
		}
	}

	if err != nil {
		return err.Error()
	}
	return ""
}

func readRawBody(r *http.Response) string {
	if r == nil || r.Body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func parseScopes(header string) []string {
	var scopes []string
	for _, s := range strings.Split(header, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

func displayScopes(scopes []string) string {
	if len(scopes) == 0 {
		return "(无)"
	}
	return strings.Join(scopes, ", ")
}
