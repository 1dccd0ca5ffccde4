package entity

import "log/slog"

// Operator is a Telegram chat that receives order and integrity alerts.
// Operators are listed in the config; Enabled is toggled with /start and /stop.
type Operator struct {
	TelegramId int64
	Enabled    bool
	Level      slog.Level
	Topics     []string
}

// HasTopic checks if the operator is subscribed to a given notification topic.
// Empty Topics means subscribed to everything.
func (o *Operator) HasTopic(topic string) bool {
	if len(o.Topics) == 0 {
		return true
	}
	for _, t := range o.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
