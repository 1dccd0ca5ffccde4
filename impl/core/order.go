package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"swagportal/entity"
	"swagportal/internal/database"
	"swagportal/internal/lock"
	"swagportal/lib/sl"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const placedMessage = "Order placed"

// PlaceOrder runs one redemption for the session user. Steps are strictly
// sequential: validate, re-check eligibility, reserve one unit, record the
// order, flag the user, then hand the order to the notifier. Any abort is a
// *entity.PlacementError.
func (c *Core) PlaceOrder(ctx context.Context, userId string, req *entity.OrderRequest) (*entity.Confirmation, error) {
	ctx, span := c.tracer.Start(ctx, "core.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userId))

	log := c.log.With(slog.String("user_id", userId))

	order, remaining, err := c.placeOrder(ctx, log, userId, req)
	if err != nil {
		kind := entity.KindOf(err)
		c.metrics.Aborted(string(kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		logAbort(log, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.Id), attribute.Int("inventory.remaining", remaining))
	c.metrics.OrderPlaced(remaining)
	log.With(
		slog.String("order_id", order.Id),
		slog.String("size", string(order.Size)),
		slog.Int("remaining", remaining),
		sl.Topic(entity.TopicOrder),
	).Info("order placed")

	if c.notifier != nil {
		c.notifier.OrderPlaced(order, remaining)
	}

	return &entity.Confirmation{
		OrderId:   order.Id,
		Remaining: remaining,
		Message:   placedMessage,
	}, nil
}

func (c *Core) placeOrder(ctx context.Context, log *slog.Logger, userId string, req *entity.OrderRequest) (*entity.Order, int, error) {
	if req == nil {
		return nil, 0, entity.Invalid("empty request")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, 0, entity.Invalid(err.Error())
	}
	if userId == "" || req.UserId != userId {
		return nil, 0, entity.Unauthorized(entity.ReasonSessionMismatch)
	}

	release, err := c.locker.Acquire(ctx, userId)
	switch {
	case errors.Is(err, lock.ErrHeld):
		return nil, 0, entity.Abort(entity.AbortConflict, err)
	case err != nil:
		// the unique user_id on orders still holds without the lock
		log.Warn("placement lock unavailable", sl.Err(err))
	default:
		defer release()
	}

	eligibility, err := c.gate.CheckEligibility(ctx, userId)
	if errors.Is(err, database.ErrNotFound) {
		return nil, 0, entity.Unauthorized(entity.ReasonUserNotFound)
	}
	if err != nil {
		return nil, 0, entity.Abort(entity.AbortStorageError, err)
	}
	if !eligibility.Eligible {
		return nil, 0, entity.Unauthorized(eligibility.Reason)
	}

	// once stock may be taken, the client going away must not interrupt the writes
	work := context.WithoutCancel(ctx)
	order := entity.NewOrder(uuid.NewString(), req, c.clock.Now())

	var remaining int
	if tx, ok := c.store.(database.Transactor); ok {
		remaining, err = c.recordInTx(work, tx, order)
	} else {
		remaining, err = c.record(work, log, order)
	}
	if err != nil {
		return nil, 0, err
	}
	return order, remaining, nil
}

// record reserves and writes with separate statements; a failed order write
// gives the unit back.
func (c *Core) record(ctx context.Context, log *slog.Logger, order *entity.Order) (int, error) {
	reservation, err := c.store.TryReserveOne(ctx, c.productId)
	if err != nil {
		return 0, entity.Abort(entity.AbortStorageError, fmt.Errorf("reserve: %w", err))
	}
	if !reservation.Reserved {
		return 0, entity.Abort(entity.AbortOutOfStock, nil)
	}

	if err = c.store.CreateOrder(ctx, order); err != nil {
		c.compensate(ctx, log, order, err)
		return 0, orderFailure(err)
	}

	if err = c.store.MarkOrderSubmitted(ctx, order.UserId); err != nil {
		c.metrics.FlagFailed()
		log.With(
			slog.String("order_id", order.Id),
			sl.Topic(entity.TopicIntegrity),
			sl.Err(err),
		).Error("user flag update failed; order stands")
	}

	return reservation.Remaining, nil
}

func (c *Core) compensate(ctx context.Context, log *slog.Logger, order *entity.Order, cause error) {
	log = log.With(
		slog.String("order_id", order.Id),
		slog.String("product_id", c.productId),
		slog.String("cause", cause.Error()),
	)
	if err := c.store.ReleaseOne(ctx, c.productId); err != nil {
		c.metrics.Compensated(false)
		log.With(
			sl.Topic(entity.TopicIntegrity),
			sl.Err(err),
		).Error("inventory release failed; one unit is lost")
		return
	}
	c.metrics.Compensated(true)
	log.With(sl.Topic(entity.TopicInventory)).Warn("inventory released after failed order")
}

// recordInTx keeps reserve, order and flag in one storage transaction
func (c *Core) recordInTx(ctx context.Context, tx database.Transactor, order *entity.Order) (int, error) {
	var remaining int
	err := tx.RunInTx(ctx, func(l database.Ledger) error {
		reservation, err := l.TryReserveOne(ctx, c.productId)
		if err != nil {
			return entity.Abort(entity.AbortStorageError, fmt.Errorf("reserve: %w", err))
		}
		if !reservation.Reserved {
			return entity.Abort(entity.AbortOutOfStock, nil)
		}
		if err = l.CreateOrder(ctx, order); err != nil {
			return orderFailure(err)
		}
		if err = l.MarkOrderSubmitted(ctx, order.UserId); err != nil {
			return entity.Abort(entity.AbortOrderCreationFailed, fmt.Errorf("flag user: %w", err))
		}
		remaining = reservation.Remaining
		return nil
	})
	if err != nil {
		if entity.KindOf(err) != "" {
			return 0, err
		}
		return 0, entity.Abort(entity.AbortOrderCreationFailed, fmt.Errorf("commit: %w", err))
	}
	return remaining, nil
}

// orderFailure maps a failed order write; a second order for the user means
// someone else already redeemed.
func orderFailure(err error) *entity.PlacementError {
	if errors.Is(err, database.ErrDuplicateOrder) {
		return &entity.PlacementError{
			Kind:   entity.AbortUnauthorized,
			Reason: entity.ReasonAlreadyOrdered,
			Err:    err,
		}
	}
	return entity.Abort(entity.AbortOrderCreationFailed, err)
}

func logAbort(log *slog.Logger, err error) {
	var pe *entity.PlacementError
	if !errors.As(err, &pe) {
		log.Error("order aborted", sl.Err(err))
		return
	}
	log = log.With(slog.String("kind", string(pe.Kind)), slog.String("reason", pe.Code()))
	switch pe.Kind {
	case entity.AbortStorageError, entity.AbortOrderCreationFailed:
		log.Error("order aborted", sl.Err(err))
	case entity.AbortOutOfStock:
		log.With(sl.Topic(entity.TopicInventory)).Warn("order aborted")
	default:
		log.Info("order aborted")
	}
}
