package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"swagportal/entity"
	"swagportal/lib/sl"
	"sync"
)

// Notifier receives formatted records; *bot.TgBot implements it
type Notifier interface {
	SendMessageWithTopic(msg string, level slog.Level, topic string)
}

// TelegramHandler is a slog.Handler that forwards records at or above
// minLevel to operators. A record tagged with sl.Topic is routed by that
// topic, otherwise the topic follows the level.
type TelegramHandler struct {
	handler  slog.Handler
	notifier Notifier
	minLevel slog.Level
	mu       *sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, notifier Notifier, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		notifier: notifier,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
		attrs:    make([]slog.Attr, 0),
	}
}

// Enabled keeps the wrapped handler's level; forwarding is decided in Handle
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.handler.Handle(ctx, record)
	if err != nil {
		return err
	}
	if record.Level < h.minLevel || h.notifier == nil {
		return nil
	}

	topic := ""
	var sb strings.Builder
	name := record.Message
	if h.group != "" {
		name = h.group + "." + name
	}
	sb.WriteString(fmt.Sprintf("*%s* `%s`", record.Level.String(), sanitize(name)))

	write := func(attr slog.Attr) {
		switch attr.Key {
		case sl.TopicKey:
			topic = attr.Value.String()
		case "error":
			sb.WriteString(fmt.Sprintf("\nerror: ```\n%s```", strings.ReplaceAll(attr.Value.String(), "`", "'")))
		default:
			sb.WriteString(sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value)))
		}
	}
	for _, attr := range h.attrs {
		write(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		write(attr)
		return true
	})

	if !entity.IsValidTopic(topic) {
		topic = entity.TopicSystem
		if record.Level >= slog.LevelError {
			topic = entity.TopicError
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifier.SendMessageWithTopic(sb.String(), record.Level, topic)
	return nil
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		notifier: h.notifier,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    newAttrs,
		group:    h.group,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		notifier: h.notifier,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    h.attrs,
		group:    group,
	}
}

// sanitize escapes MarkdownV2 reserved characters
func sanitize(input string) string {
	const reserved = "\\_{}#+-.!|()[]=*`>~"
	var sb strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reserved, char) {
			sb.WriteRune('\\')
		}
		sb.WriteRune(char)
	}
	return sb.String()
}
