package sl

import (
	"fmt"
	"log/slog"
	"strings"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Secret returns a string with the first 5 characters of the input string
// used to hide sensitive information in logs
func Secret(key, value string) slog.Attr {
	r := "***"
	if len(value) > 5 {
		r = fmt.Sprintf("%s***", value[0:5])
	}
	if value == "" {
		r = "?"
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(r),
	}
}

// Email keeps the domain and the first letter of the local part
func Email(value string) slog.Attr {
	masked := "?"
	if at := strings.LastIndex(value, "@"); at > 0 {
		masked = value[0:1] + "***" + value[at:]
	} else if value != "" {
		masked = "***"
	}
	return slog.String("email", masked)
}

func Module(mod string) slog.Attr {
	return slog.Attr{
		Key:   "mod",
		Value: slog.StringValue(mod),
	}
}

func Topic(topic string) slog.Attr {
	return slog.String(TopicKey, topic)
}

// TopicKey tags a record for operator routing, see logger.TelegramHandler
const TopicKey = "tg_topic"
