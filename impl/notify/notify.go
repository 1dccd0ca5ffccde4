package notify

import (
	"context"
	"fmt"
	"log/slog"
	"swagportal/entity"
	"swagportal/internal/metrics"
	"swagportal/lib/sl"
	"sync"
	"time"
)

// Channel delivers one order notification. Errors are logged and counted by
// the dispatcher, never returned to the order flow.
type Channel interface {
	Name() string
	Send(ctx context.Context, order *entity.Order, remaining int) error
}

type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
	metrics  *metrics.Metrics
	log      *slog.Logger
	wg       sync.WaitGroup
}

func New(m *metrics.Metrics, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		timeout: timeout,
		metrics: m,
		log:     log.With(sl.Module("notify")),
	}
}

// Add registers a channel; call before the first order
func (d *Dispatcher) Add(ch Channel) {
	if ch == nil {
		return
	}
	d.channels = append(d.channels, ch)
	d.log.Debug("channel added", slog.String("channel", ch.Name()))
}

// OrderPlaced fans the order out to every channel and returns immediately
func (d *Dispatcher) OrderPlaced(order *entity.Order, remaining int) {
	for _, ch := range d.channels {
		d.wg.Add(1)
		go d.send(ch, order, remaining)
	}
}

// Wait blocks until every notification started so far has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) send(ch Channel, order *entity.Order, remaining int) {
	defer d.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := d.safeSend(ctx, ch, order, remaining)
	if d.metrics != nil {
		d.metrics.Notified(ch.Name(), err)
	}
	if err != nil {
		d.log.With(
			slog.String("channel", ch.Name()),
			slog.String("order_id", order.Id),
			sl.Err(err),
		).Warn("notification failed")
	}
}

func (d *Dispatcher) safeSend(ctx context.Context, ch Channel, order *entity.Order, remaining int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ch.Send(ctx, order, remaining)
}
