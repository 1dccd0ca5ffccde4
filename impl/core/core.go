package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"swagportal/entity"
	"swagportal/internal/database"
	"swagportal/internal/lock"
	"swagportal/internal/metrics"
	"swagportal/lib/clock"
	"swagportal/lib/sl"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotAllowed = errors.New("email is not allowed")
	ErrNotFound   = database.ErrNotFound
	ErrUserExists = database.ErrUserExists
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks swagportal/impl/core Notifier

// Notifier is told about every completed order. It must not block and must
// not report failures back; delivery is best-effort.
type Notifier interface {
	OrderPlaced(order *entity.Order, remaining int)
}

type Gate interface {
	CheckEligibility(ctx context.Context, userId string) (entity.Eligibility, error)
	CheckEmail(ctx context.Context, email string) (entity.Eligibility, error)
	AllowedEmail(email string) bool
}

type Locker interface {
	Acquire(ctx context.Context, key string) (lock.Release, error)
}

type AuthService interface {
	UserByToken(ctx context.Context, token string) (*entity.User, error)
}

type AddressService interface {
	Resolve(ctx context.Context, placeId string) (*entity.AddressCheck, error)
}

type Core struct {
	store     database.Store
	gate      Gate
	productId string
	locker    Locker
	notifier  Notifier
	auth      AuthService
	places    AddressService
	metrics   *metrics.Metrics
	clock     clock.Clock
	tracer    trace.Tracer
	log       *slog.Logger
}

func New(store database.Store, gate Gate, productId string, log *slog.Logger) *Core {
	if store == nil {
		panic("store is nil")
	}
	return &Core{
		store:     store,
		gate:      gate,
		productId: productId,
		locker:    lock.NewLocal(),
		metrics:   metrics.New(),
		clock:     clock.System{},
		tracer:    otel.Tracer("swagportal/core"),
		log:       log.With(sl.Module("core")),
	}
}

func (c *Core) SetLocker(locker Locker) {
	c.locker = locker
}

func (c *Core) SetNotifier(notifier Notifier) {
	c.notifier = notifier
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetAddressService(places AddressService) {
	c.places = places
}

func (c *Core) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

func (c *Core) SetClock(clk clock.Clock) {
	c.clock = clk
}

func (c *Core) SetTracer(tracer trace.Tracer) {
	c.tracer = tracer
}

func (c *Core) AuthenticateByToken(ctx context.Context, token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(ctx, token)
}

// CheckEmail is the login-time eligibility check
func (c *Core) CheckEmail(ctx context.Context, email string) (entity.Eligibility, error) {
	return c.gate.CheckEmail(ctx, email)
}

func (c *Core) Inventory(ctx context.Context) (*entity.Inventory, error) {
	return c.store.Inventory(ctx, c.productId)
}

func (c *Core) Stock(ctx context.Context) (*entity.StockReport, error) {
	inv, err := c.store.Inventory(ctx, c.productId)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	orders, err := c.store.CountOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	return &entity.StockReport{
		ProductId: inv.ProductId,
		Name:      inv.Name,
		Remaining: inv.QuantityAvailable,
		Orders:    orders,
	}, nil
}

// Invite provisions an invited user; the address must pass the allow-list
func (c *Core) Invite(ctx context.Context, invite *entity.Invite) (*entity.User, error) {
	if !c.gate.AllowedEmail(invite.Email) {
		return nil, ErrNotAllowed
	}
	user := invite.User(uuid.NewString())
	user.CreatedAt = c.clock.Now()
	if err := c.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	c.log.With(
		slog.String("user_id", user.Id),
		sl.Email(user.Email),
	).Info("user invited")
	return user, nil
}

func (c *Core) ValidateAddress(ctx context.Context, placeId string) (*entity.AddressCheck, error) {
	if c.places == nil {
		return nil, fmt.Errorf("address service not connected")
	}
	return c.places.Resolve(ctx, placeId)
}
