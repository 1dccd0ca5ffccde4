package database

import (
	"context"
	"errors"
	"fmt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"swagportal/entity"
	"swagportal/internal/config"
	"time"
)

const (
	collectionUsers     = "users"
	collectionOrders    = "orders"
	collectionInventory = "inventory"
)

// MongoDB has no cross-collection transaction on a standalone server, so it
// does not implement Transactor; the order flow compensates instead.
type MongoDB struct {
	client   *mongo.Client
	database string
}

func NewMongoClient(ctx context.Context, conf *config.Config) (*MongoDB, error) {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return ConnectMongo(ctx, clientOptions, conf.Mongo.Database)
}

// ConnectMongo opens the client, checks it and creates the indexes the ledger relies on
func ConnectMongo(ctx context.Context, clientOptions *options.ClientOptions, database string) (*MongoDB, error) {
	connection, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err = connection.Ping(ctx, nil); err != nil {
		_ = connection.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	m := &MongoDB{
		client:   connection,
		database: database,
	}
	if err = m.ensureIndexes(ctx); err != nil {
		_ = connection.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	unique := func(key string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}
	indexes := map[string][]mongo.IndexModel{
		collectionUsers:     {unique("id"), unique("email")},
		collectionOrders:    {unique("id"), unique("user_id")},
		collectionInventory: {unique("product_id")},
	}
	for name, models := range indexes {
		if _, err := m.collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongodb indexes %s: %w", name, err)
		}
	}
	return nil
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("mongodb find: %w", err)
}

func (m *MongoDB) UserByID(ctx context.Context, id string) (*entity.User, error) {
	filter := bson.D{{Key: "id", Value: id}}
	var user entity.User
	if err := m.collection(collectionUsers).FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, m.findError(err)
	}
	return &user, nil
}

func (m *MongoDB) UserByEmail(ctx context.Context, email string) (*entity.User, error) {
	filter := bson.D{{Key: "email", Value: entity.NormalizeEmail(email)}}
	var user entity.User
	if err := m.collection(collectionUsers).FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, m.findError(err)
	}
	return &user, nil
}

func (m *MongoDB) CreateUser(ctx context.Context, user *entity.User) error {
	user.Email = entity.NormalizeEmail(user.Email)
	_, err := m.collection(collectionUsers).InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("mongodb insert user: %w", err)
	}
	return nil
}

// MarkOrderSubmitted only ever sets the flag, so repeating it is harmless
func (m *MongoDB) MarkOrderSubmitted(ctx context.Context, userId string) error {
	filter := bson.D{{Key: "id", Value: userId}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "order_submitted", Value: true},
	}}}
	result, err := m.collection(collectionUsers).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongodb update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TryReserveOne decrements in a single conditional update; the filter on a
// positive quantity is what keeps two callers from taking the last unit.
func (m *MongoDB) TryReserveOne(ctx context.Context, productId string) (entity.Reservation, error) {
	filter := bson.D{{Key: "product_id", Value: productId}, {Key: "quantity_available", Value: bson.D{{Key: "$gt", Value: 0}}}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "quantity_available", Value: -1}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var inv entity.Inventory
	err := m.collection(collectionInventory).FindOneAndUpdate(ctx, filter, update, opts).Decode(&inv)
	if err == nil {
		return entity.Reservation{Reserved: true, Remaining: inv.QuantityAvailable}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return entity.Reservation{}, fmt.Errorf("mongodb reserve: %w", err)
	}

	current, err := m.Inventory(ctx, productId)
	if err != nil {
		return entity.Reservation{}, err
	}
	return entity.Reservation{Remaining: current.QuantityAvailable}, nil
}

func (m *MongoDB) ReleaseOne(ctx context.Context, productId string) error {
	filter := bson.D{{Key: "product_id", Value: productId}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "quantity_available", Value: 1}}}}
	result, err := m.collection(collectionInventory).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongodb release: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoDB) CreateOrder(ctx context.Context, order *entity.Order) error {
	_, err := m.collection(collectionOrders).InsertOne(ctx, order)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateOrder
	}
	if err != nil {
		return fmt.Errorf("mongodb insert order: %w", err)
	}
	return nil
}

func (m *MongoDB) Inventory(ctx context.Context, productId string) (*entity.Inventory, error) {
	filter := bson.D{{Key: "product_id", Value: productId}}
	var inv entity.Inventory
	if err := m.collection(collectionInventory).FindOne(ctx, filter).Decode(&inv); err != nil {
		return nil, m.findError(err)
	}
	return &inv, nil
}

// EnsureInventory seeds the counter once; an existing row is left untouched
func (m *MongoDB) EnsureInventory(ctx context.Context, inv *entity.Inventory) error {
	filter := bson.D{{Key: "product_id", Value: inv.ProductId}}
	update := bson.D{{Key: "$setOnInsert", Value: inv}}
	opts := options.Update().SetUpsert(true)
	_, err := m.collection(collectionInventory).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("mongodb seed inventory: %w", err)
	}
	return nil
}

func (m *MongoDB) CountOrders(ctx context.Context) (int64, error) {
	count, err := m.collection(collectionOrders).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongodb count orders: %w", err)
	}
	return count, nil
}
