package database

import (
	"context"
	"errors"
	"swagportal/entity"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateOrder = errors.New("order already exists for user")
	ErrUserExists     = errors.New("user already exists")
)

// Ledger is the set of reads and writes the order flow performs.
// Every backend implements it on its plain handle; transactional backends
// also hand a Ledger bound to one transaction to RunInTx callbacks.
type Ledger interface {
	UserByID(ctx context.Context, id string) (*entity.User, error)
	TryReserveOne(ctx context.Context, productId string) (entity.Reservation, error)
	ReleaseOne(ctx context.Context, productId string) error
	CreateOrder(ctx context.Context, order *entity.Order) error
	MarkOrderSubmitted(ctx context.Context, userId string) error
}

// Transactor runs fn inside one storage transaction. If fn returns an error
// nothing fn wrote is kept.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(tx Ledger) error) error
}

// Store is everything the server needs from a backend
type Store interface {
	Ledger
	UserByEmail(ctx context.Context, email string) (*entity.User, error)
	CreateUser(ctx context.Context, user *entity.User) error
	Inventory(ctx context.Context, productId string) (*entity.Inventory, error)
	EnsureInventory(ctx context.Context, inv *entity.Inventory) error
	CountOrders(ctx context.Context) (int64, error)
	Close() error
}
