package database

import (
	"database/sql"
	"fmt"
)

const userColumns = `id, email, first_name, last_name, address1, address2, city, state, zip_code, country,
	phone_number, invited, order_submitted, created_at`

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) stmtSelectUserById() (*sql.Stmt, error) {
	query := fmt.Sprintf(`SELECT %s FROM %susers WHERE id = ?`, userColumns, s.prefix)
	return s.prepareStmt("selectUserById", query)
}

func (s *MySql) stmtSelectUserByEmail() (*sql.Stmt, error) {
	query := fmt.Sprintf(`SELECT %s FROM %susers WHERE email = ?`, userColumns, s.prefix)
	return s.prepareStmt("selectUserByEmail", query)
}

func (s *MySql) stmtInsertUser() (*sql.Stmt, error) {
	query := fmt.Sprintf(`INSERT INTO %susers (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.prefix, userColumns)
	return s.prepareStmt("insertUser", query)
}

func (s *MySql) stmtUpdateOrderSubmitted() (*sql.Stmt, error) {
	query := fmt.Sprintf(`UPDATE %susers SET order_submitted = 1 WHERE id = ?`, s.prefix)
	return s.prepareStmt("updateOrderSubmitted", query)
}

// stmtReserveOne decrements only while stock is positive; the row lock taken
// by UPDATE serialises concurrent reservations
func (s *MySql) stmtReserveOne() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`UPDATE %sinventory SET quantity_available = quantity_available - 1
                   WHERE product_id = ? AND quantity_available > 0`,
		s.prefix,
	)
	return s.prepareStmt("reserveOne", query)
}

func (s *MySql) stmtReleaseOne() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`UPDATE %sinventory SET quantity_available = quantity_available + 1 WHERE product_id = ?`,
		s.prefix,
	)
	return s.prepareStmt("releaseOne", query)
}

func (s *MySql) stmtSelectInventory() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT product_id, sku, name, quantity_available FROM %sinventory WHERE product_id = ?`,
		s.prefix,
	)
	return s.prepareStmt("selectInventory", query)
}

func (s *MySql) stmtInsertInventory() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT IGNORE INTO %sinventory (product_id, sku, name, quantity_available) VALUES (?, ?, ?, ?)`,
		s.prefix,
	)
	return s.prepareStmt("insertInventory", query)
}

func (s *MySql) stmtInsertOrder() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO %sorders (id, user_id, first_name, last_name, email, size,
                   address1, address2, city, state, zip_code, country, phone_number, date_submitted)
                   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.prefix,
	)
	return s.prepareStmt("insertOrder", query)
}

func (s *MySql) stmtCountOrders() (*sql.Stmt, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %sorders`, s.prefix)
	return s.prepareStmt("countOrders", query)
}
