package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"swagportal/entity"
	"swagportal/lib/sl"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const TypeOrderPlaced = "order.placed"

// OrderPlaced is the event payload; it carries no contact details
type OrderPlaced struct {
	Type      string    `json:"type"`
	OrderId   string    `json:"order_id"`
	UserId    string    `json:"user_id"`
	Size      string    `json:"size"`
	Country   string    `json:"country"`
	Remaining int       `json:"remaining"`
	PlacedAt  time.Time `json:"placed_at"`
}

type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Publisher struct {
	producer Producer
	topic    string
	closer   func()
	log      *slog.Logger
}

func New(brokers []string, topic string, log *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	p := NewWithProducer(client, topic, log)
	p.closer = client.Close
	return p, nil
}

func NewWithProducer(producer Producer, topic string, log *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		log:      log.With(sl.Module("events")),
	}
}

func (p *Publisher) Name() string {
	return "kafka"
}

// Send publishes one record keyed by order id
func (p *Publisher) Send(ctx context.Context, order *entity.Order, remaining int) error {
	payload, err := json.Marshal(OrderPlaced{
		Type:      TypeOrderPlaced,
		OrderId:   order.Id,
		UserId:    order.UserId,
		Size:      string(order.Size),
		Country:   order.Address.CountryCode(),
		Remaining: remaining,
		PlacedAt:  order.DateSubmitted,
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(order.Id),
		Value: payload,
	}
	if err = p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka produce: %w", err)
	}
	p.log.Debug("event published", slog.String("order_id", order.Id))
	return nil
}

func (p *Publisher) Close() {
	if p.closer != nil {
		p.closer()
	}
}
