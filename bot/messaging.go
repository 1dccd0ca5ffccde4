package bot

import (
	"context"
	"fmt"
	"log/slog"
	"swagportal/entity"
)

func (t *TgBot) SendMessage(msg string) {
	t.SendMessageWithLevel(msg, t.minLevel)
}

// SendMessageWithLevel infers the topic from the level
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	topic := entity.TopicSystem
	if level >= slog.LevelError {
		topic = entity.TopicError
	}
	t.SendMessageWithTopic(msg, level, topic)
}

// SendMessageWithTopic delivers to every enabled operator whose level and
// topics admit the message
func (t *TgBot) SendMessageWithTopic(msg string, level slog.Level, topic string) {
	for _, op := range t.snapshot() {
		if !op.Enabled || level < op.Level || !op.HasTopic(topic) {
			continue
		}
		t.plainResponse(op.TelegramId, msg)
	}
}

func (t *TgBot) Name() string {
	return "telegram"
}

// Send is the order notification channel. Orders go out at WARN so they pass
// the default operator level; an exhausted stock adds an inventory alert.
func (t *TgBot) Send(_ context.Context, order *entity.Order, remaining int) error {
	msg := fmt.Sprintf("*New order* `%s`\nSize: `%s`\nShip to: %s\nRemaining: `%d`",
		Sanitize(order.Id),
		Sanitize(string(order.Size)),
		Sanitize(order.Address.City+", "+order.Address.Country),
		remaining,
	)
	t.SendMessageWithTopic(msg, slog.LevelWarn, entity.TopicOrder)
	if remaining == 0 {
		t.SendMessageWithTopic("*Stock exhausted*\nNo units left to redeem\\.", slog.LevelError, entity.TopicInventory)
	}
	return nil
}
