// Package bot implements the operator Telegram bot.
//
// Operators are the chat ids listed in the config. They receive new order
// notifications, inventory alerts and ERROR log records, and can ask for the
// current stock:
//   - tgbot.go     TgBot struct, lifecycle (Start/Stop), operator registry
//   - commands.go  /start, /stop, /level, /topics, /subscribe, /unsubscribe, /status, /stock, /help
//   - messaging.go level and topic routing, the order notification channel
//   - helpers.go   Sanitize, plainResponse, reportError
//
// Operator settings live in memory and reset to the config on restart.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"swagportal/entity"
	"swagportal/lib/sl"
	"sync"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
)

// Core is what the /stock command reads
type Core interface {
	Stock(ctx context.Context) (*entity.StockReport, error)
}

// Sender is satisfied by *tgbotapi.Bot
type Sender interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
}

type TgBot struct {
	log       *slog.Logger
	bot       *tgbotapi.Bot
	api       Sender
	core      Core
	mu        sync.RWMutex
	operators map[int64]*entity.Operator
	minLevel  slog.Level
	updater   *ext.Updater
}

func NewTgBot(apiKey string, operators []int64, minLevel slog.Level, log *slog.Logger) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	t := newTgBot(api, operators, minLevel, log)
	t.bot = api
	return t, nil
}

func newTgBot(api Sender, operators []int64, minLevel slog.Level, log *slog.Logger) *TgBot {
	t := &TgBot{
		log:       log.With(sl.Module("tgbot")),
		api:       api,
		operators: make(map[int64]*entity.Operator, len(operators)),
		minLevel:  minLevel,
	}
	for _, id := range operators {
		t.operators[id] = &entity.Operator{
			TelegramId: id,
			Enabled:    true,
			Level:      minLevel,
		}
	}
	return t
}

func (t *TgBot) SetCore(core Core) {
	t.core = core
}

// Start polls for updates and blocks until Stop
func (t *TgBot) Start() error {
	if t.bot == nil {
		return fmt.Errorf("bot api not initialized")
	}
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("stop", t.stop))
	dispatcher.AddHandler(handlers.NewCommand("level", t.level))
	dispatcher.AddHandler(handlers.NewCommand("topics", t.topics))
	dispatcher.AddHandler(handlers.NewCommand("subscribe", t.subscribe))
	dispatcher.AddHandler(handlers.NewCommand("unsubscribe", t.unsubscribe))
	dispatcher.AddHandler(handlers.NewCommand("status", t.status))
	dispatcher.AddHandler(handlers.NewCommand("stock", t.stock))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	t.setCommands()

	err := t.updater.StartPolling(t.bot, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	t.log.With(slog.Int("operators", len(t.operators))).Info("telegram bot started")

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

func (t *TgBot) setCommands() {
	_, err := t.bot.SetMyCommands([]tgbotapi.BotCommand{
		{Command: "stock", Description: "Remaining stock and orders"},
		{Command: "status", Description: "Your notification settings"},
		{Command: "start", Description: "Enable notifications"},
		{Command: "stop", Description: "Disable notifications"},
		{Command: "help", Description: "Available commands"},
	}, nil)
	if err != nil {
		t.log.Warn("setting bot commands", sl.Err(err))
	}
}

func (t *TgBot) findOperator(id int64) *entity.Operator {
	t.mu.RLock()
	defer t.mu.RUnlock()
	op, ok := t.operators[id]
	if !ok {
		return nil
	}
	copied := *op
	return &copied
}

func (t *TgBot) updateOperator(id int64, fn func(op *entity.Operator)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.operators[id]
	if !ok {
		return false
	}
	fn(op)
	return true
}

// snapshot returns operators ordered by id so delivery order is stable
func (t *TgBot) snapshot() []entity.Operator {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ops := make([]entity.Operator, 0, len(t.operators))
	for _, op := range t.operators {
		ops = append(ops, *op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].TelegramId < ops[j].TelegramId })
	return ops
}
