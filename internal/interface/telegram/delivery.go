package telegram

import (
	"context"

	"github.com/course-watch/course-watch-bot/internal/application/monitor"
	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
	"github.com/course-watch/course-watch-bot/internal/infrastructure/external/telegram"
)

// DeliveryChannel adapts the Telegram client to the dispatcher's outgoing
// channel: rendered messages become HTML texts, link buttons become an
// inline keyboard.
type DeliveryChannel struct {
	client *telegram.Client
}

// NewDeliveryChannel creates the adapter.
func NewDeliveryChannel(client *telegram.Client) *DeliveryChannel {
	return &DeliveryChannel{client: client}
}

var _ monitor.DeliveryChannel = (*DeliveryChannel)(nil)

// Deliver sends one notification to one recipient.
func (d *DeliveryChannel) Deliver(ctx context.Context, recipientID subscription.RecipientID, msg monitor.Message) error {
	var keyboard [][]telegram.InlineKeyboardButton
	if len(msg.Buttons) > 0 {
		row := make([]telegram.InlineKeyboardButton, 0, len(msg.Buttons))
		for _, btn := range msg.Buttons {
			row = append(row, telegram.URLButton(btn.Label, btn.URL))
		}
		keyboard = [][]telegram.InlineKeyboardButton{row}
	}

	return d.client.Deliver(ctx, int64(recipientID), msg.Text, keyboard)
}
