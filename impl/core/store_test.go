package core

import (
	"context"
	"sync"

	"swagportal/entity"
	"swagportal/internal/database"
)

// memStore is a non-transactional store, so the core takes the compensating path.
// Writes fail on a cancelled context the way a network driver would.
type memStore struct {
	mu      sync.Mutex
	users   map[string]*entity.User
	orders  map[string]*entity.Order
	byUser  map[string]string
	stock   map[string]int
	reserve error
	create  error
	flag    error
	release error
	load    error
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[string]*entity.User),
		orders: make(map[string]*entity.Order),
		byUser: make(map[string]string),
		stock:  make(map[string]int),
	}
}

func (s *memStore) addUser(user entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Id] = &user
}

func (s *memStore) user(id string) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *memStore) remaining(productId string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[productId]
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) UserByID(_ context.Context, id string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.load != nil {
		return nil, s.load
	}
	user, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memStore) UserByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == entity.NormalizeEmail(email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memStore) CreateUser(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return database.ErrUserExists
		}
	}
	copied := *user
	s.users[user.Id] = &copied
	return nil
}

func (s *memStore) TryReserveOne(ctx context.Context, productId string) (entity.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return entity.Reservation{}, err
	}
	if s.reserve != nil {
		return entity.Reservation{}, s.reserve
	}
	qty, ok := s.stock[productId]
	if !ok {
		return entity.Reservation{}, database.ErrNotFound
	}
	if qty <= 0 {
		return entity.Reservation{Remaining: qty}, nil
	}
	s.stock[productId] = qty - 1
	return entity.Reservation{Reserved: true, Remaining: qty - 1}, nil
}

func (s *memStore) ReleaseOne(_ context.Context, productId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.release != nil {
		return s.release
	}
	s.stock[productId]++
	return nil
}

func (s *memStore) CreateOrder(ctx context.Context, order *entity.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.create != nil {
		return s.create
	}
	if _, ok := s.byUser[order.UserId]; ok {
		return database.ErrDuplicateOrder
	}
	copied := *order
	s.orders[order.Id] = &copied
	s.byUser[order.UserId] = order.Id
	return nil
}

func (s *memStore) MarkOrderSubmitted(ctx context.Context, userId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.flag != nil {
		return s.flag
	}
	user, ok := s.users[userId]
	if !ok {
		return database.ErrNotFound
	}
	user.OrderSubmitted = true
	return nil
}

func (s *memStore) Inventory(_ context.Context, productId string) (*entity.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qty, ok := s.stock[productId]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &entity.Inventory{ProductId: productId, Name: "Bundle", QuantityAvailable: qty}, nil
}

func (s *memStore) EnsureInventory(_ context.Context, inv *entity.Inventory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stock[inv.ProductId]; !ok {
		s.stock[inv.ProductId] = inv.QuantityAvailable
	}
	return nil
}

func (s *memStore) CountOrders(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.orders)), nil
}

func (s *memStore) Close() error {
	return nil
}
