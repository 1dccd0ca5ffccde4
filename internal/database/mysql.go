package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/go-sql-driver/mysql"
	"swagportal/entity"
	"swagportal/internal/config"
	"sync"
	"time"
)

const mysqlDuplicateEntry = 1062

// MySql runs every multi-statement operation in a transaction and implements
// Transactor, so the order flow can commit reserve, order and flag together.
type MySql struct {
	db         *sql.DB
	prefix     string
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.MySQL.UserName, conf.MySQL.Password, conf.MySQL.HostName, conf.MySQL.Port, conf.MySQL.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 10-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(10 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	return NewMySql(db, conf.MySQL.Prefix)
}

// NewMySql wraps an open handle and creates the tables when missing
func NewMySql(db *sql.DB, prefix string) (*MySql, error) {
	s := &MySql{
		db:         db,
		prefix:     prefix,
		statements: make(map[string]*sql.Stmt),
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MySql) Close() error {
	s.closeStmt()
	return s.db.Close()
}

func (s *MySql) migrate() error {
	tables := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %susers (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			address1 VARCHAR(200) NOT NULL DEFAULT '',
			address2 VARCHAR(200) NOT NULL DEFAULT '',
			city VARCHAR(100) NOT NULL DEFAULT '',
			state VARCHAR(100) NOT NULL DEFAULT '',
			zip_code VARCHAR(20) NOT NULL DEFAULT '',
			country VARCHAR(100) NOT NULL DEFAULT '',
			phone_number VARCHAR(32) NOT NULL DEFAULT '',
			invited TINYINT(1) NOT NULL DEFAULT 0,
			order_submitted TINYINT(1) NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			UNIQUE KEY uq_users_email (email)
		)`, s.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sorders (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL,
			size VARCHAR(8) NOT NULL,
			address1 VARCHAR(200) NOT NULL,
			address2 VARCHAR(200) NOT NULL DEFAULT '',
			city VARCHAR(100) NOT NULL,
			state VARCHAR(100) NOT NULL,
			zip_code VARCHAR(20) NOT NULL,
			country VARCHAR(100) NOT NULL,
			phone_number VARCHAR(32) NOT NULL,
			date_submitted DATETIME NOT NULL,
			UNIQUE KEY uq_orders_user (user_id)
		)`, s.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sinventory (
			product_id VARCHAR(64) NOT NULL PRIMARY KEY,
			sku VARCHAR(64) NOT NULL DEFAULT '',
			name VARCHAR(255) NOT NULL DEFAULT '',
			quantity_available INT NOT NULL DEFAULT 0
		)`, s.prefix),
	}
	for _, query := range tables {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *MySql) RunInTx(ctx context.Context, fn func(tx Ledger) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err = fn(&mysqlLedger{s: s, tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *MySql) ledger() *mysqlLedger {
	return &mysqlLedger{s: s}
}

func (s *MySql) UserByID(ctx context.Context, id string) (*entity.User, error) {
	return s.ledger().UserByID(ctx, id)
}

func (s *MySql) UserByEmail(ctx context.Context, email string) (*entity.User, error) {
	stmt, err := s.stmtSelectUserByEmail()
	if err != nil {
		return nil, err
	}
	return scanUser(stmt.QueryRowContext(ctx, entity.NormalizeEmail(email)))
}

func (s *MySql) CreateUser(ctx context.Context, user *entity.User) error {
	stmt, err := s.stmtInsertUser()
	if err != nil {
		return err
	}
	user.Email = entity.NormalizeEmail(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err = stmt.ExecContext(ctx,
		user.Id, user.Email, user.FirstName, user.LastName,
		user.Address1, user.Address2, user.City, user.State, user.ZipCode, user.Country,
		user.PhoneNumber, user.Invited, user.OrderSubmitted, user.CreatedAt,
	)
	if isDuplicate(err) {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MySql) MarkOrderSubmitted(ctx context.Context, userId string) error {
	return s.ledger().MarkOrderSubmitted(ctx, userId)
}

// TryReserveOne needs the decrement and the read-back in one transaction
func (s *MySql) TryReserveOne(ctx context.Context, productId string) (res entity.Reservation, err error) {
	err = s.RunInTx(ctx, func(tx Ledger) error {
		res, err = tx.TryReserveOne(ctx, productId)
		return err
	})
	return res, err
}

func (s *MySql) ReleaseOne(ctx context.Context, productId string) error {
	return s.ledger().ReleaseOne(ctx, productId)
}

func (s *MySql) CreateOrder(ctx context.Context, order *entity.Order) error {
	return s.ledger().CreateOrder(ctx, order)
}

func (s *MySql) Inventory(ctx context.Context, productId string) (*entity.Inventory, error) {
	return s.ledger().inventory(ctx, productId)
}

func (s *MySql) EnsureInventory(ctx context.Context, inv *entity.Inventory) error {
	stmt, err := s.stmtInsertInventory()
	if err != nil {
		return err
	}
	if _, err = stmt.ExecContext(ctx, inv.ProductId, inv.Sku, inv.Name, inv.QuantityAvailable); err != nil {
		return fmt.Errorf("seed inventory: %w", err)
	}
	return nil
}

func (s *MySql) CountOrders(ctx context.Context) (int64, error) {
	stmt, err := s.stmtCountOrders()
	if err != nil {
		return 0, err
	}
	var count int64
	if err = stmt.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// mysqlLedger runs statements on the pool, or on tx when bound to one
type mysqlLedger struct {
	s  *MySql
	tx *sql.Tx
}

func (l *mysqlLedger) bind(ctx context.Context, prepare func() (*sql.Stmt, error)) (*sql.Stmt, error) {
	stmt, err := prepare()
	if err != nil {
		return nil, err
	}
	if l.tx == nil {
		return stmt, nil
	}
	return l.tx.StmtContext(ctx, stmt), nil
}

func (l *mysqlLedger) UserByID(ctx context.Context, id string) (*entity.User, error) {
	stmt, err := l.bind(ctx, l.s.stmtSelectUserById)
	if err != nil {
		return nil, err
	}
	return scanUser(stmt.QueryRowContext(ctx, id))
}

func (l *mysqlLedger) MarkOrderSubmitted(ctx context.Context, userId string) error {
	stmt, err := l.bind(ctx, l.s.stmtUpdateOrderSubmitted)
	if err != nil {
		return err
	}
	result, err := stmt.ExecContext(ctx, userId)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	// MySQL reports changed rows, so an already-set flag looks like a miss
	if n, _ := result.RowsAffected(); n == 0 {
		if _, err = l.UserByID(ctx, userId); err != nil {
			return err
		}
	}
	return nil
}

func (l *mysqlLedger) TryReserveOne(ctx context.Context, productId string) (entity.Reservation, error) {
	stmt, err := l.bind(ctx, l.s.stmtReserveOne)
	if err != nil {
		return entity.Reservation{}, err
	}
	result, err := stmt.ExecContext(ctx, productId)
	if err != nil {
		return entity.Reservation{}, fmt.Errorf("reserve: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return entity.Reservation{}, fmt.Errorf("reserve: %w", err)
	}
	inv, err := l.inventory(ctx, productId)
	if err != nil {
		return entity.Reservation{}, err
	}
	return entity.Reservation{Reserved: n == 1, Remaining: inv.QuantityAvailable}, nil
}

func (l *mysqlLedger) ReleaseOne(ctx context.Context, productId string) error {
	stmt, err := l.bind(ctx, l.s.stmtReleaseOne)
	if err != nil {
		return err
	}
	result, err := stmt.ExecContext(ctx, productId)
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *mysqlLedger) CreateOrder(ctx context.Context, order *entity.Order) error {
	stmt, err := l.bind(ctx, l.s.stmtInsertOrder)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx,
		order.Id, order.UserId, order.FirstName, order.LastName, order.Email, string(order.Size),
		order.Address1, order.Address2, order.City, order.State, order.ZipCode, order.Country,
		order.PhoneNumber, order.DateSubmitted,
	)
	if isDuplicate(err) {
		return ErrDuplicateOrder
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (l *mysqlLedger) inventory(ctx context.Context, productId string) (*entity.Inventory, error) {
	stmt, err := l.bind(ctx, l.s.stmtSelectInventory)
	if err != nil {
		return nil, err
	}
	var inv entity.Inventory
	err = stmt.QueryRowContext(ctx, productId).Scan(&inv.ProductId, &inv.Sku, &inv.Name, &inv.QuantityAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select inventory: %w", err)
	}
	return &inv, nil
}

func scanUser(row *sql.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.Id, &user.Email, &user.FirstName, &user.LastName,
		&user.Address1, &user.Address2, &user.City, &user.State, &user.ZipCode, &user.Country,
		&user.PhoneNumber, &user.Invited, &user.OrderSubmitted, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
