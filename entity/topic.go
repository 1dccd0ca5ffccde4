// Package entity defines domain types shared across the application.

package entity

// Notification topics used to categorize operator messages.
// Log calls can tag messages with sl.Topic(entity.TopicXxx).
const (
	TopicOrder     = "order"
	TopicInventory = "inventory"
	TopicIntegrity = "integrity"
	TopicError     = "error"
	TopicSystem    = "system"
)

var allTopics = []string{
	TopicOrder,
	TopicInventory,
	TopicIntegrity,
	TopicError,
	TopicSystem,
}

func AllTopics() []string {
	result := make([]string, len(allTopics))
	copy(result, allTopics)
	return result
}

func IsValidTopic(topic string) bool {
	for _, t := range allTopics {
		if t == topic {
			return true
		}
	}
	return false
}
