package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swagportal/entity"
	"swagportal/impl/gate"
	"swagportal/internal/database"
)

func newBoltCore(t *testing.T, stock int) (*Core, *database.BoltDB) {
	t.Helper()
	store, err := database.NewBolt(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.EnsureInventory(ctx, &entity.Inventory{ProductId: productId, Name: "Bundle", QuantityAvailable: stock}))
	for _, id := range []string{"a", "b"} {
		require.NoError(t, store.CreateUser(ctx, &entity.User{Id: id, Email: id + "@acme.com", Invited: true}))
	}
	return New(store, gate.New(store, []string{"acme.com"}, nil, discard()), productId, discard()), store
}

func TestTransactionalPlacement(t *testing.T) {
	c, store := newBoltCore(t, 2)
	ctx := context.Background()

	conf, err := c.PlaceOrder(ctx, "a", request("a"))
	require.NoError(t, err)
	assert.Equal(t, 1, conf.Remaining)

	order, err := store.Order(ctx, conf.OrderId)
	require.NoError(t, err)
	assert.Equal(t, "a", order.UserId)
	user, err := store.UserByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, user.OrderSubmitted)

	_, err = c.PlaceOrder(ctx, "a", request("a"))
	assert.Equal(t, entity.AbortUnauthorized, entity.KindOf(err))
}

func TestTransactionalOutOfStockWritesNothing(t *testing.T) {
	c, store := newBoltCore(t, 0)
	ctx := context.Background()

	_, err := c.PlaceOrder(ctx, "a", request("a"))
	assert.Equal(t, entity.AbortOutOfStock, entity.KindOf(err))

	count, err := store.CountOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	user, err := store.UserByID(ctx, "a")
	require.NoError(t, err)
	assert.False(t, user.OrderSubmitted)
}

func TestTransactionalLastUnit(t *testing.T) {
	for i := 0; i < 10; i++ {
		c, store := newBoltCore(t, 1)
		succeeded, outOfStock := raceTwoUsers(t, c)
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, outOfStock)

		inv, err := store.Inventory(context.Background(), productId)
		require.NoError(t, err)
		assert.Equal(t, 0, inv.QuantityAvailable)
	}
}

// flagFailingStore breaks the user flag inside the transaction
type flagFailingStore struct {
	*database.BoltDB
}

func (s flagFailingStore) RunInTx(ctx context.Context, fn func(tx database.Ledger) error) error {
	return s.BoltDB.RunInTx(ctx, func(tx database.Ledger) error {
		return fn(flagFailingLedger{tx})
	})
}

type flagFailingLedger struct {
	database.Ledger
}

func (flagFailingLedger) MarkOrderSubmitted(context.Context, string) error {
	return errors.New("flag write failed")
}

func TestTransactionalFailureRollsBack(t *testing.T) {
	_, store := newBoltCore(t, 1)
	c := New(flagFailingStore{store}, gate.New(store, []string{"acme.com"}, nil, discard()), productId, discard())
	ctx := context.Background()

	_, err := c.PlaceOrder(ctx, "a", request("a"))
	assert.Equal(t, entity.AbortOrderCreationFailed, entity.KindOf(err))

	inv, err := store.Inventory(ctx, productId)
	require.NoError(t, err)
	assert.Equal(t, 1, inv.QuantityAvailable)
	count, err := store.CountOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
