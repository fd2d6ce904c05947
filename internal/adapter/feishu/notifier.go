package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github-star-sweeper/internal/common"
	"github-star-sweeper/internal/domain"
)

// 卡片里最多列出多少个仓库，避免消息过长
const maxListedRepos = 20

// Notifier 实现了 port.Notifier 接口
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewNotifier(webhook string) *Notifier {
	return &Notifier{
		webhookURL: webhook,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifySummary 把本次清理结果发送成飞书卡片消息 (Schema 2.0)
func (n *Notifier) NotifySummary(ctx context.Context, summary *domain.RunSummary) error {
	if n.webhookURL == "" {
		return common.NewError(common.ErrCodeNotification, "Webhook URL 为空")
	}

	// 1. 准备标题，出现权限问题时用红色
	title := fmt.Sprintf("🧹 GitHub star 清理完成: 取消 %d 个", summary.Count(domain.OutcomeSuccess))
	template := "green"
	if !summary.OK() {
		title = "⛔ GitHub star 清理失败: 令牌权限不足"
		template = "red"
	}

	// 2. 构造卡片
	payload := map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"schema": "2.0",
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": title,
				},
				"template": template,
			},
			"body": map[string]interface{}{
				"direction": "vertical",
				"elements": []map[string]interface{}{
					{
						"tag":       "markdown",
						"content":   buildMarkdown(summary),
						"text_size": "normal",
					},
				},
			},
		},
	}

	// 3. 发送请求，不重试
	body, err := json.Marshal(payload)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "序列化卡片失败", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "发送请求失败", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "发送请求失败", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return common.NewError(common.ErrCodeNotification, fmt.Sprintf("飞书 API 报错: 状态码 %d", resp.StatusCode))
	}
	return nil
}

func buildMarkdown(summary *domain.RunSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**📦 Star 总数:** %d  |  **阈值:** %d 年  |  **不活跃:** %d\n",
		summary.Total, summary.ThresholdYears, len(summary.Inactive))
	fmt.Fprintf(&b, "**✅ 成功:** %d  |  **🔍 不存在:** %d  |  **⛔ 权限不足:** %d  |  **❌ 其他错误:** %d\n",
		summary.Count(domain.OutcomeSuccess),
		summary.Count(domain.OutcomeNotFound),
		summary.Count(domain.OutcomePermissionDenied),
		summary.Count(domain.OutcomeOtherError))
	if summary.Interrupted {
		b.WriteString("**⏹️ 运行被中断，剩余仓库未处理**\n")
	}

	removed := summary.ByOutcome(domain.OutcomeSuccess)
	if len(removed) > 0 {
		b.WriteString("\n**已取消 star:**\n")
		for i, r := range removed {
			if i == maxListedRepos {
				fmt.Fprintf(&b, "- ... 以及另外 %d 个\n", len(removed)-maxListedRepos)
				break
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", r.Item.Slug(), r.Item.URL)
		}
	}

	if summary.RunID != "" {
		fmt.Fprintf(&b, "\n运行 ID: `%s`", summary.RunID)
	}
	return b.String()
}
