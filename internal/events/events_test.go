package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"swagportal/entity"
)

type producer struct {
	records []*kgo.Record
	err     error
}

func (p *producer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var results kgo.ProduceResults
	for _, r := range rs {
		p.records = append(p.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func TestSendPublishesOrder(t *testing.T) {
	p := &producer{}
	pub := NewWithProducer(p, "orders", slog.New(slog.NewTextHandler(io.Discard, nil)))
	placed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	order := &entity.Order{
		Id:            "o1",
		UserId:        "u1",
		Email:         "jane@acme.com",
		Size:          entity.SizeXL,
		Address:       entity.Address{Country: "Germany"},
		DateSubmitted: placed,
	}
	require.NoError(t, pub.Send(context.Background(), order, 7))
	require.Len(t, p.records, 1)

	rec := p.records[0]
	assert.Equal(t, "orders", rec.Topic)
	assert.Equal(t, "o1", string(rec.Key))

	var event OrderPlaced
	require.NoError(t, json.Unmarshal(rec.Value, &event))
	assert.Equal(t, OrderPlaced{
		Type:      TypeOrderPlaced,
		OrderId:   "o1",
		UserId:    "u1",
		Size:      "XL",
		Country:   "DE",
		Remaining: 7,
		PlacedAt:  placed,
	}, event)
	assert.NotContains(t, string(rec.Value), "jane@acme.com")
}

func TestSendReportsProduceError(t *testing.T) {
	p := &producer{err: errors.New("not leader for partition")}
	pub := NewWithProducer(p, "orders", slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := pub.Send(context.Background(), &entity.Order{Id: "o1"}, 0)
	assert.ErrorContains(t, err, "not leader")
}
