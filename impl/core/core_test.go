package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"swagportal/entity"
	"swagportal/impl/core/mocks"
	"swagportal/impl/gate"
	"swagportal/impl/notify"
	"swagportal/internal/lock"
	"swagportal/internal/metrics"
	"swagportal/lib/clock"
)

const productId = "bundle"

var placedAt = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func request(userId string) *entity.OrderRequest {
	return &entity.OrderRequest{
		UserId:    userId,
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "Jane.Doe@acme.com",
		Size:      "m",
		Address: entity.Address{
			Address1: "1 Main St",
			City:     "Irvine",
			State:    "CA",
			ZipCode:  "92618",
			Country:  "US",
		},
		PhoneNumber: "+1 555 0100",
	}
}

type PlaceOrderSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memStore
	metrics *metrics.Metrics
	core    *Core
}

func TestPlaceOrderSuite(t *testing.T) {
	suite.Run(t, new(PlaceOrderSuite))
}

func (s *PlaceOrderSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = newMemStore()
	s.store.stock[productId] = 1
	s.store.addUser(entity.User{Id: "invited", Email: "jane.doe@acme.com", Invited: true})
	s.store.addUser(entity.User{Id: "ordered", Email: "done@acme.com", Invited: true, OrderSubmitted: true})
	s.store.addUser(entity.User{Id: "stranger", Email: "guest@acme.com"})

	s.metrics = metrics.New()
	s.core = New(s.store, gate.New(s.store, []string{"acme.com"}, nil, discard()), productId, discard())
	s.core.SetMetrics(s.metrics)
	s.core.SetClock(clock.Fixed(placedAt))
}

func (s *PlaceOrderSuite) requireAbort(err error, kind entity.AbortKind, reason entity.IneligibleReason) {
	var pe *entity.PlacementError
	s.Require().ErrorAs(err, &pe)
	s.Equal(kind, pe.Kind)
	s.Equal(reason, pe.Reason)
}

func (s *PlaceOrderSuite) TestEndToEnd() {
	ctrl := gomock.NewController(s.T())
	notifier := mocks.NewMockNotifier(ctrl)
	s.core.SetNotifier(notifier)

	var notified *entity.Order
	notifier.EXPECT().OrderPlaced(gomock.Any(), 0).Do(func(order *entity.Order, _ int) {
		notified = order
	}).Times(1)

	conf, err := s.core.PlaceOrder(s.ctx, "invited", request("invited"))
	s.Require().NoError(err)
	s.NotEmpty(conf.OrderId)
	s.Equal(0, conf.Remaining)

	s.Equal(0, s.store.remaining(productId))
	s.True(s.store.user("invited").OrderSubmitted)
	s.Require().NotNil(notified)
	s.Equal(conf.OrderId, notified.Id)
	s.Equal(entity.SizeM, notified.Size)
	s.Equal("jane.doe@acme.com", notified.Email)
	s.Equal(placedAt, notified.DateSubmitted)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.OrdersPlaced))

	_, err = s.core.PlaceOrder(s.ctx, "invited", request("invited"))
	s.requireAbort(err, entity.AbortUnauthorized, entity.ReasonAlreadyOrdered)
	s.Equal(1, s.store.orderCount())
}

func (s *PlaceOrderSuite) TestNotInvited() {
	_, err := s.core.PlaceOrder(s.ctx, "stranger", request("stranger"))
	s.requireAbort(err, entity.AbortUnauthorized, entity.ReasonNotInvited)
	s.Equal(1, s.store.remaining(productId))
	s.Zero(s.store.orderCount())
}

func (s *PlaceOrderSuite) TestAlreadyOrderedIsDeniedEveryTime() {
	for i := 0; i < 3; i++ {
		_, err := s.core.PlaceOrder(s.ctx, "ordered", request("ordered"))
		s.requireAbort(err, entity.AbortUnauthorized, entity.ReasonAlreadyOrdered)
	}
	s.Equal(1, s.store.remaining(productId))
	s.Equal(3.0, testutil.ToFloat64(s.metrics.Aborts.WithLabelValues(string(entity.AbortUnauthorized))))
}

func (s *PlaceOrderSuite) TestUnknownUser() {
	_, err := s.core.PlaceOrder(s.ctx, "ghost", request("ghost"))
	s.requireAbort(err, entity.AbortUnauthorized, entity.ReasonUserNotFound)
}

func (s *PlaceOrderSuite) TestSessionMismatch() {
	_, err := s.core.PlaceOrder(s.ctx, "stranger", request("invited"))
	s.requireAbort(err, entity.AbortUnauthorized, entity.ReasonSessionMismatch)
	s.Equal(1, s.store.remaining(productId))
}

func (s *PlaceOrderSuite) TestInvalidInput() {
	req := request("invited")
	req.Size = "XXL"
	req.Address.City = " "
	_, err := s.core.PlaceOrder(s.ctx, "invited", req)
	s.requireAbort(err, entity.AbortInvalidInput, entity.ReasonNone)
	s.Contains(err.Error(), "size")
	s.Contains(err.Error(), "city")

	_, err = s.core.PlaceOrder(s.ctx, "invited", nil)
	s.requireAbort(err, entity.AbortInvalidInput, entity.ReasonNone)

	s.Equal(1, s.store.remaining(productId))
	s.False(s.store.user("invited").OrderSubmitted)
}

func (s *PlaceOrderSuite) TestOutOfStock() {
	s.store.stock[productId] = 0
	_, err := s.core.PlaceOrder(s.ctx, "invited", request("invited"))
	s.requireAbort(err, entity.AbortOutOfStock, entity.ReasonNone)
	s.Zero(s.store.orderCount())
	s.False(s.store.user("invited").OrderSubmitted)
	s.Equal(0, s.store.remaining(productId))
}

func (s *PlaceOrderSuite) TestStorageErrors() {
	s.store.load = errors.New("connection refused")
	_, err := s.core.PlaceOrder(s.ctx, "invited", request("invited"))
	s.requireAbort(err, entity.AbortStorageError, entity.ReasonNone)

	s.store.load = nil
	s.store.reserve = errors.New("write conflict")
	_, err = s.core.PlaceOrder(s.ctx, "invited", request("invited"))
	s.requireAbort(err, entity.AbortStorageError, entity.ReasonNone)
	s.Equal(1, s.store.remaining(productId))
}

func (s *PlaceOrderSuite) TestCompensationRestoresStock() {
	s.store.create = errors.New("disk full")
	_, err := s.core.PlaceOrder(s.ctx, "invited", request("invited"))
	s.requireAbort(err, entity.AbortOrderCreationFailed, entity.ReasonNone)

	s.Equal(1, s.store.remaining(productId))
	s.Zero(s.store.orderCount())
	s.False(s.store.user("invited").OrderSubmitted)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Compensations.WithLabelValues("ok")))
}

func (s *PlaceOrderSuite) TestCompensationFailureIsReported() {
	s.store.create = errors.New("disk full")
	s.store.release = errors.New("still full")
	_, err := s.core.PlaceOrder(s.ctx, "invited", request("invited"))
	s.requireAbort(err, entity.AbortOrderCreationFailed, entity.ReasonNone)

	s.Equal(0, s.store.remaining(productId))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Compensations.WithLabelValues("failed")))
}

func (s *PlaceOrderSuite) TestDuplicateOrderIsAlreadyOrdered() {
	// the flag never got set for an earlier order
	s.store.byUser["invited"] = "earlier"
	_, err := s.core.PlaceOrder(s.ctx, "invited", request("invited"))
	s.requireAbort(err, entity.AbortUnauthorized, entity.ReasonAlreadyOrdered)
	s.Equal(1, s.store.remaining(productId))
}

func (s *PlaceOrderSuite) TestFlagFailureStillSucceeds() {
	s.store.flag = errors.New("timeout")
	conf, err := s.core.PlaceOrder(s.ctx, "invited", request("invited"))
	s.Require().NoError(err)
	s.NotEmpty(conf.OrderId)
	s.Equal(1, s.store.orderCount())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.FlagFailures))
}

func (s *PlaceOrderSuite) TestConflictWhileLockHeld() {
	s.core.SetLocker(heldLocker{})
	_, err := s.core.PlaceOrder(s.ctx, "invited", request("invited"))
	s.requireAbort(err, entity.AbortConflict, entity.ReasonNone)
	s.Equal(1, s.store.remaining(productId))
}

func (s *PlaceOrderSuite) TestNotificationFailureDoesNotAffectOrder() {
	dispatcher := notify.New(s.metrics, time.Second, discard())
	dispatcher.Add(failingChannel{})
	s.core.SetNotifier(dispatcher)

	conf, err := s.core.PlaceOrder(s.ctx, "invited", request("invited"))
	s.Require().NoError(err)
	dispatcher.Wait()

	s.NotEmpty(conf.OrderId)
	s.True(s.store.user("invited").OrderSubmitted)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Notifications.WithLabelValues("failing", "failed")))
}

func (s *PlaceOrderSuite) TestCancelledClientAfterGate() {
	ctx, cancel := context.WithCancel(s.ctx)
	s.core.SetLocker(cancellingLocker{cancel: cancel})

	_, err := s.core.PlaceOrder(ctx, "invited", request("invited"))
	s.Require().NoError(err)
	s.Equal(1, s.store.orderCount())
}

func (s *PlaceOrderSuite) TestInvite() {
	user, err := s.core.Invite(s.ctx, &entity.Invite{FirstName: "New", Email: "new@acme.com"})
	s.Require().NoError(err)
	s.True(user.Invited)
	s.False(user.OrderSubmitted)
	s.Equal(placedAt, user.CreatedAt)

	_, err = s.core.Invite(s.ctx, &entity.Invite{FirstName: "New", Email: "new@acme.com"})
	s.ErrorIs(err, ErrUserExists)

	_, err = s.core.Invite(s.ctx, &entity.Invite{FirstName: "Eve", Email: "eve@evil.com"})
	s.ErrorIs(err, ErrNotAllowed)
}

func (s *PlaceOrderSuite) TestStock() {
	report, err := s.core.Stock(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Remaining)
	s.Zero(report.Orders)
}

func TestLastUnitGoesToExactlyOneUser(t *testing.T) {
	for i := 0; i < 20; i++ {
		store := newMemStore()
		store.stock[productId] = 1
		store.addUser(entity.User{Id: "a", Email: "a@acme.com", Invited: true})
		store.addUser(entity.User{Id: "b", Email: "b@acme.com", Invited: true})
		c := New(store, gate.New(store, []string{"acme.com"}, nil, discard()), productId, discard())

		succeeded, outOfStock := raceTwoUsers(t, c)
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, outOfStock)
		assert.Equal(t, 0, store.remaining(productId))
		assert.Equal(t, 1, store.orderCount())
	}
}

func raceTwoUsers(t *testing.T, c *Core) (succeeded, outOfStock int) {
	t.Helper()
	type result struct {
		err error
	}
	results := make(chan result, 2)
	start := make(chan struct{})
	for _, id := range []string{"a", "b"} {
		go func(id string) {
			<-start
			_, err := c.PlaceOrder(context.Background(), id, request(id))
			results <- result{err: err}
		}(id)
	}
	close(start)
	for i := 0; i < 2; i++ {
		r := <-results
		switch {
		case r.err == nil:
			succeeded++
		case entity.KindOf(r.err) == entity.AbortOutOfStock:
			outOfStock++
		default:
			require.NoError(t, r.err)
		}
	}
	return succeeded, outOfStock
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string) (lock.Release, error) {
	return nil, lock.ErrHeld
}

// cancellingLocker simulates the client going away right after the lock is taken
type cancellingLocker struct {
	cancel context.CancelFunc
}

func (l cancellingLocker) Acquire(context.Context, string) (lock.Release, error) {
	l.cancel()
	return func() {}, nil
}

type failingChannel struct{}

func (failingChannel) Name() string { return "failing" }

func (failingChannel) Send(context.Context, *entity.Order, int) error {
	return errors.New("smtp: 550 mailbox unavailable")
}

func TestPlaceOrderSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	store := newMemStore()
	store.stock[productId] = 0
	store.addUser(entity.User{Id: "a", Email: "a@acme.com", Invited: true})
	c := New(store, gate.New(store, []string{"acme.com"}, nil, discard()), productId, discard())
	c.SetTracer(provider.Tracer("test"))

	_, err := c.PlaceOrder(context.Background(), "a", request("a"))
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "core.PlaceOrder", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, string(entity.AbortOutOfStock), spans[0].Status().Description)
}
