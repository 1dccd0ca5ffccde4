package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"swagportal/entity"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireOperator(chatId) {
		return nil
	}
	t.updateOperator(chatId, func(op *entity.Operator) {
		op.Enabled = true
	})
	t.plainResponse(chatId, "Notifications ENABLED")
	return nil
}

func (t *TgBot) stop(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireOperator(chatId) {
		return nil
	}
	t.updateOperator(chatId, func(op *entity.Operator) {
		op.Enabled = false
	})
	t.plainResponse(chatId, "Notifications DISABLED")
	return nil
}

func (t *TgBot) level(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireOperator(chatId) {
		return nil
	}
	op := t.findOperator(chatId)

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, fmt.Sprintf("Your current log level: %s\nAvailable levels: debug, info, warn, error", Sanitize(op.Level.String())))
		return nil
	}

	levelStr := strings.ToLower(args[1])
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		t.plainResponse(chatId, fmt.Sprintf("Invalid level: %s\nAvailable levels: debug, info, warn, error", Sanitize(levelStr)))
		return nil
	}

	t.updateOperator(chatId, func(op *entity.Operator) {
		op.Level = level
	})
	t.plainResponse(chatId, fmt.Sprintf("Log level set to: %s", Sanitize(level.String())))
	return nil
}

func (t *TgBot) topics(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireOperator(chatId) {
		return nil
	}
	op := t.findOperator(chatId)

	var sb strings.Builder
	sb.WriteString("*Available topics:*\n")
	for _, topic := range entity.AllTopics() {
		marker := "  "
		if op.HasTopic(topic) {
			marker = "\\+ "
		}
		sb.WriteString(fmt.Sprintf("%s`%s`\n", marker, topic))
	}
	if len(op.Topics) == 0 {
		sb.WriteString("\nYou are subscribed to *all* topics\\.")
	}
	sb.WriteString("\nUse `/subscribe <topic>` or `/unsubscribe <topic>`")
	t.plainResponse(chatId, sb.String())
	return nil
}

func (t *TgBot) subscribe(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireOperator(chatId) {
		return nil
	}

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, "Usage: `/subscribe <topic|all>`\nAvailable topics: "+Sanitize(strings.Join(entity.AllTopics(), ", ")))
		return nil
	}
	topic := strings.ToLower(args[1])

	if topic == "all" {
		t.updateOperator(chatId, func(op *entity.Operator) {
			op.Topics = nil
		})
		t.plainResponse(chatId, "Subscribed to *all* topics\\.")
		return nil
	}
	if !entity.IsValidTopic(topic) {
		t.plainResponse(chatId, "Invalid topic: `"+Sanitize(topic)+"`\nAvailable: "+Sanitize(strings.Join(entity.AllTopics(), ", ")))
		return nil
	}

	t.updateOperator(chatId, func(op *entity.Operator) {
		filtered := make([]string, 0, len(op.Topics)+1)
		for _, ct := range op.Topics {
			if ct != "none" && ct != topic {
				filtered = append(filtered, ct)
			}
		}
		op.Topics = append(filtered, topic)
	})
	t.plainResponse(chatId, "Subscribed to `"+Sanitize(topic)+"`")
	return nil
}

func (t *TgBot) unsubscribe(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireOperator(chatId) {
		return nil
	}

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, "Usage: `/unsubscribe <topic|all>`\nAvailable topics: "+Sanitize(strings.Join(entity.AllTopics(), ", ")))
		return nil
	}
	topic := strings.ToLower(args[1])

	if topic == "all" {
		t.updateOperator(chatId, func(op *entity.Operator) {
			op.Topics = []string{"none"}
		})
		t.plainResponse(chatId, "Unsubscribed from all topics\\.")
		return nil
	}
	if !entity.IsValidTopic(topic) {
		t.plainResponse(chatId, "Invalid topic: `"+Sanitize(topic)+"`\nAvailable: "+Sanitize(strings.Join(entity.AllTopics(), ", ")))
		return nil
	}

	t.updateOperator(chatId, func(op *entity.Operator) {
		// an empty list means all topics
		current := op.Topics
		if len(current) == 0 {
			current = entity.AllTopics()
		}
		filtered := make([]string, 0, len(current))
		for _, ct := range current {
			if ct != topic {
				filtered = append(filtered, ct)
			}
		}
		if len(filtered) == 0 {
			filtered = []string{"none"}
		}
		op.Topics = filtered
	})
	t.plainResponse(chatId, "Unsubscribed from `"+Sanitize(topic)+"`")
	return nil
}

func (t *TgBot) status(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireOperator(chatId) {
		return nil
	}
	op := t.findOperator(chatId)

	topics := "all"
	if len(op.Topics) > 0 {
		topics = strings.Join(op.Topics, ", ")
	}
	enabled := "yes"
	if !op.Enabled {
		enabled = "no"
	}

	msg := fmt.Sprintf(
		"*Your Settings*\n"+
			"Enabled: `%s`\n"+
			"Log level: `%s`\n"+
			"Topics: `%s`",
		enabled,
		Sanitize(op.Level.String()),
		Sanitize(topics),
	)
	t.plainResponse(chatId, msg)
	return nil
}

func (t *TgBot) stock(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireOperator(chatId) {
		return nil
	}
	if t.core == nil {
		t.plainResponse(chatId, "Service is not ready\\.")
		return nil
	}

	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	report, err := t.core.Stock(c)
	if err != nil {
		t.reportError(chatId, "/stock", err)
		return nil
	}

	msg := fmt.Sprintf(
		"*%s*\n"+
			"Remaining: `%d`\n"+
			"Orders: `%d`",
		Sanitize(report.Name),
		report.Remaining,
		report.Orders,
	)
	t.plainResponse(chatId, msg)
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireOperator(chatId) {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("*Available Commands*\n\n")
	sb.WriteString("`/stock` \\- Remaining stock and orders\n")
	sb.WriteString("`/start` \\- Enable notifications\n")
	sb.WriteString("`/stop` \\- Disable notifications\n")
	sb.WriteString("`/level <debug|info|warn|error>` \\- Set log level\n")
	sb.WriteString("`/topics` \\- View topic subscriptions\n")
	sb.WriteString("`/subscribe <topic|all>` \\- Subscribe to topic\n")
	sb.WriteString("`/unsubscribe <topic|all>` \\- Unsubscribe from topic\n")
	sb.WriteString("`/status` \\- Show your settings\n")
	t.plainResponse(chatId, sb.String())
	return nil
}
