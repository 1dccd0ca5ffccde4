package database

import (
	"context"
	"encoding/json"
	"fmt"
	"swagportal/entity"
	"time"

	bolt "github.com/boltdb/bolt"
)

var (
	bucketUsers        = []byte("users")
	bucketUsersByEmail = []byte("users_by_email")
	bucketOrders       = []byte("orders")
	bucketOrdersByUser = []byte("orders_by_user")
	bucketInventory    = []byte("inventory")
)

// BoltDB keeps everything in one file. Bolt allows a single writer at a
// time, so each Update is serialisable and RunInTx covers the whole placement.
type BoltDB struct {
	db *bolt.DB
}

func NewBolt(path string) (*BoltDB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketUsersByEmail, bucketOrders, bucketOrdersByUser, bucketInventory} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func (b *BoltDB) Close() error {
	return b.db.Close()
}

func (b *BoltDB) RunInTx(ctx context.Context, fn func(tx Ledger) error) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltLedger{tx: tx})
	})
}

func (b *BoltDB) view(fn func(l *boltLedger) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		return fn(&boltLedger{tx: tx})
	})
}

func (b *BoltDB) update(fn func(l *boltLedger) error) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltLedger{tx: tx})
	})
}

func (b *BoltDB) UserByID(ctx context.Context, id string) (user *entity.User, err error) {
	err = b.view(func(l *boltLedger) error {
		user, err = l.UserByID(ctx, id)
		return err
	})
	return user, err
}

func (b *BoltDB) UserByEmail(_ context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := b.view(func(l *boltLedger) error {
		id := l.tx.Bucket(bucketUsersByEmail).Get([]byte(entity.NormalizeEmail(email)))
		if id == nil {
			return ErrNotFound
		}
		return l.get(bucketUsers, string(id), &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (b *BoltDB) CreateUser(_ context.Context, user *entity.User) error {
	user.Email = entity.NormalizeEmail(user.Email)
	return b.update(func(l *boltLedger) error {
		byEmail := l.tx.Bucket(bucketUsersByEmail)
		if byEmail.Get([]byte(user.Email)) != nil || l.tx.Bucket(bucketUsers).Get([]byte(user.Id)) != nil {
			return ErrUserExists
		}
		if err := byEmail.Put([]byte(user.Email), []byte(user.Id)); err != nil {
			return err
		}
		return l.put(bucketUsers, user.Id, user)
	})
}

func (b *BoltDB) MarkOrderSubmitted(ctx context.Context, userId string) error {
	return b.update(func(l *boltLedger) error {
		return l.MarkOrderSubmitted(ctx, userId)
	})
}

// TryReserveOne returns a non-reservation without error when stock is out;
// the Update still commits but has written nothing.
func (b *BoltDB) TryReserveOne(ctx context.Context, productId string) (res entity.Reservation, err error) {
	err = b.update(func(l *boltLedger) error {
		res, err = l.TryReserveOne(ctx, productId)
		return err
	})
	return res, err
}

func (b *BoltDB) ReleaseOne(ctx context.Context, productId string) error {
	return b.update(func(l *boltLedger) error {
		return l.ReleaseOne(ctx, productId)
	})
}

func (b *BoltDB) CreateOrder(ctx context.Context, order *entity.Order) error {
	return b.update(func(l *boltLedger) error {
		return l.CreateOrder(ctx, order)
	})
}

func (b *BoltDB) Inventory(_ context.Context, productId string) (*entity.Inventory, error) {
	var inv entity.Inventory
	err := b.view(func(l *boltLedger) error {
		return l.get(bucketInventory, productId, &inv)
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (b *BoltDB) EnsureInventory(_ context.Context, inv *entity.Inventory) error {
	return b.update(func(l *boltLedger) error {
		if l.tx.Bucket(bucketInventory).Get([]byte(inv.ProductId)) != nil {
			return nil
		}
		return l.put(bucketInventory, inv.ProductId, inv)
	})
}

func (b *BoltDB) CountOrders(_ context.Context) (int64, error) {
	var count int64
	err := b.view(func(l *boltLedger) error {
		count = int64(l.tx.Bucket(bucketOrders).Stats().KeyN)
		return nil
	})
	return count, err
}

// Order returns a stored order by id
func (b *BoltDB) Order(_ context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	err := b.view(func(l *boltLedger) error {
		return l.get(bucketOrders, id, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// boltLedger is a Ledger bound to one bolt transaction
type boltLedger struct {
	tx *bolt.Tx
}

func (l *boltLedger) get(bucket []byte, key string, v interface{}) error {
	data := l.tx.Bucket(bucket).Get([]byte(key))
	if data == nil {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("bolt decode %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (l *boltLedger) put(bucket []byte, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("bolt encode %s/%s: %w", bucket, key, err)
	}
	return l.tx.Bucket(bucket).Put([]byte(key), data)
}

func (l *boltLedger) UserByID(_ context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := l.get(bucketUsers, id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (l *boltLedger) MarkOrderSubmitted(ctx context.Context, userId string) error {
	user, err := l.UserByID(ctx, userId)
	if err != nil {
		return err
	}
	if user.OrderSubmitted {
		return nil
	}
	user.OrderSubmitted = true
	return l.put(bucketUsers, user.Id, user)
}

func (l *boltLedger) TryReserveOne(_ context.Context, productId string) (entity.Reservation, error) {
	var inv entity.Inventory
	if err := l.get(bucketInventory, productId, &inv); err != nil {
		return entity.Reservation{}, err
	}
	if !inv.InStock() {
		return entity.Reservation{Remaining: inv.QuantityAvailable}, nil
	}
	inv.QuantityAvailable--
	if err := l.put(bucketInventory, productId, &inv); err != nil {
		return entity.Reservation{}, err
	}
	return entity.Reservation{Reserved: true, Remaining: inv.QuantityAvailable}, nil
}

func (l *boltLedger) ReleaseOne(_ context.Context, productId string) error {
	var inv entity.Inventory
	if err := l.get(bucketInventory, productId, &inv); err != nil {
		return err
	}
	inv.QuantityAvailable++
	return l.put(bucketInventory, productId, &inv)
}

func (l *boltLedger) CreateOrder(_ context.Context, order *entity.Order) error {
	byUser := l.tx.Bucket(bucketOrdersByUser)
	if byUser.Get([]byte(order.UserId)) != nil {
		return ErrDuplicateOrder
	}
	if l.tx.Bucket(bucketOrders).Get([]byte(order.Id)) != nil {
		return fmt.Errorf("bolt order id %s already used", order.Id)
	}
	if err := byUser.Put([]byte(order.UserId), []byte(order.Id)); err != nil {
		return err
	}
	return l.put(bucketOrders, order.Id, order)
}
