package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/notification"
)

const footer = "Sentinel Execution Engine"

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	embed := NewEmbed().
		SetTitle("에러 발생").
		SetDescription(fmt.Sprintf("```%v```", err)).
		SetColor(notification.ColorError).
		SetFooter(footer).
		SetTimestamp(time.Now())

	return c.sendToWebhook(c.errorWebhook, WebhookMessage{Embeds: []Embed{*embed}})
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	embed := NewEmbed().
		SetDescription(message).
		SetColor(notification.ColorInfo).
		SetFooter(footer).
		SetTimestamp(time.Now())

	return c.sendToWebhook(c.infoWebhook, WebhookMessage{Embeds: []Embed{*embed}})
}

// SendExecution은 의도 처리 결과를 전송합니다
// partial 결과는 운영자의 수동 후속 조치가 필요하므로 에러 채널에도 전송합니다
func (c *Client) SendExecution(result *domain.ExecutionResult) error {
	embed := NewEmbed().
		SetTitle(fmt.Sprintf("%s %s: %s", statusEmoji(result.Status), result.Action, result.Symbol)).
		SetColor(notification.GetColorForStatus(result.Status)).
		AddField("상태", string(result.Status), true).
		AddField("단계", string(result.Stage()), true).
		AddField("의도 ID", result.IntentID, false).
		SetFooter(footer).
		SetTimestamp(result.FinishedAt)

	if result.PrimaryOrderID != "" {
		embed.AddField("주문 ID", result.PrimaryOrderID, true)
		embed.AddField("체결", fmt.Sprintf("%.8f @ %.8f", result.FilledQuantity, result.AvgFillPrice), true)
	}
	for _, p := range result.ProtectiveOrders {
		value := p.OrderID
		if p.Error != "" {
			value = "❌ " + p.Error
		}
		embed.AddField(fmt.Sprintf("%s @ %.8f", p.Kind, p.TriggerPrice), value, false)
	}
	if len(result.Errors) > 0 {
		lines := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			lines = append(lines, fmt.Sprintf("[%s/%s] %s", e.Category, e.Kind, e.Message))
		}
		embed.SetDescription(fmt.Sprintf("```%s```", strings.Join(lines, "\n")))
	}

	msg := WebhookMessage{Embeds: []Embed{*embed}}
	if err := c.sendToWebhook(c.tradeWebhook, msg); err != nil {
		return err
	}
	if result.Status == domain.StatusPartial {
		return c.sendToWebhook(c.errorWebhook, msg)
	}
	return nil
}

func statusEmoji(status domain.Status) string {
	switch status {
	case domain.StatusSuccess:
		return "✅"
	case domain.StatusPartial:
		return "⚠️"
	case domain.StatusFailed:
		return "❌"
	default:
		return "ℹ️"
	}
}
