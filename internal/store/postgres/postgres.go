// Package postgres backs multi-terminal deployments where several lanes
// share one central database. Selected by DATABASE_URL; the embedded
// sqlite store remains the default for single-terminal desktops.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	barcode TEXT NOT NULL UNIQUE,
	price NUMERIC(12,2) NOT NULL,
	stock INTEGER NOT NULL DEFAULT 0,
	category TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	total NUMERIC(12,2) NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL,
	payment_method TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transaction_items (
	id TEXT PRIMARY KEY,
	transaction_id TEXT NOT NULL REFERENCES transactions(id),
	product_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price NUMERIC(12,2) NOT NULL,
	subtotal NUMERIC(12,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL,
	last_login TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS cash_registers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS cash_shifts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	register_id TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ,
	initial_cash NUMERIC(12,2) NOT NULL,
	expected_cash NUMERIC(12,2) NOT NULL,
	actual_cash NUMERIC(12,2),
	difference NUMERIC(12,2),
	status TEXT NOT NULL CHECK (status IN ('open','closed')),
	notes TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_cash_shifts_open_user
	ON cash_shifts(user_id) WHERE status = 'open';

CREATE TABLE IF NOT EXISTS cash_movements (
	id TEXT PRIMARY KEY,
	shift_id TEXT NOT NULL REFERENCES cash_shifts(id),
	transaction_id TEXT,
	movement_type TEXT NOT NULL CHECK (movement_type IN ('cash_in','cash_out','sale','adjustment')),
	amount NUMERIC(12,2) NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	timestamp TIMESTAMPTZ NOT NULL,
	user_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cash_movements_shift ON cash_movements(shift_id);

CREATE TABLE IF NOT EXISTS shift_reports (
	id TEXT PRIMARY KEY,
	shift_id TEXT NOT NULL,
	report_type TEXT NOT NULL,
	report_data JSONB NOT NULL,
	pdf_path TEXT,
	generated_at TIMESTAMPTZ NOT NULL,
	generated_by TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS receipt_templates (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	layout_config JSONB NOT NULL,
	is_default BOOLEAN NOT NULL DEFAULT false,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS printer_settings (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	printer_type TEXT NOT NULL,
	connection_type TEXT NOT NULL,
	config JSONB NOT NULL,
	is_default BOOLEAN NOT NULL DEFAULT false
);
`

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, barcode, price::text, stock, category, created_at, updated_at
		FROM products
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Barcode, &p.Price, &p.Stock, &p.Category, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Barcode == "" || product.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, barcode, price, stock, category, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, product.ID, product.Name, product.Barcode, product.Price.String(), product.Stock, product.Category, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.getProduct(ctx, `WHERE id = $1`, id)
}

func (s *Store) GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	return s.getProduct(ctx, `WHERE barcode = $1`, barcode)
}

func (s *Store) getProduct(ctx context.Context, where string, arg any) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, barcode, price::text, stock, category, created_at, updated_at
		FROM products `+where, arg).
		Scan(&p.ID, &p.Name, &p.Barcode, &p.Price, &p.Stock, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.Barcode == "" || product.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	product.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, barcode = $3, price = $4, stock = $5, category = $6, updated_at = $7
		WHERE id = $1
	`, product.ID, product.Name, product.Barcode, product.Price.String(), product.Stock, product.Category, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	var referenced int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transaction_items WHERE product_id = $1
	`, id).Scan(&referenced)
	if err != nil {
		return err
	}
	if referenced > 0 {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.Username == "" || user.PasswordHash == "" {
		return nil, store.ErrInvalidInput
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, full_name, role, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, user.ID, user.Username, user.PasswordHash, user.FullName, user.Role, user.IsActive, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	created := user
	return &created, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	var lastLogin sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, full_name, role, is_active, created_at, last_login
		FROM users
		WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, password_hash, full_name, role, is_active, created_at, last_login
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 8)
	for rows.Next() {
		var u domain.User
		var lastLogin sql.NullTime
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &lastLogin); err != nil {
			return nil, err
		}
		if lastLogin.Valid {
			t := lastLogin.Time
			u.LastLogin = &t
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2 WHERE username = $1
	`, username, passwordHash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) TouchUserLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_login = $2 WHERE id = $1
	`, userID, at.UTC())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListRegisters(ctx context.Context) ([]domain.CashRegister, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, location, is_active
		FROM cash_registers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registers := make([]domain.CashRegister, 0, 4)
	for rows.Next() {
		var r domain.CashRegister
		if err := rows.Scan(&r.ID, &r.Name, &r.Location, &r.IsActive); err != nil {
			return nil, err
		}
		registers = append(registers, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return registers, nil
}

func (s *Store) GetActiveRegister(ctx context.Context) (*domain.CashRegister, error) {
	var r domain.CashRegister
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, location, is_active
		FROM cash_registers
		WHERE is_active = true
		ORDER BY name
		LIMIT 1
	`).Scan(&r.ID, &r.Name, &r.Location, &r.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.SaleTransaction) (*domain.SaleTransaction, []domain.StockWarning, error) {
	if len(sale.Items) == 0 {
		return nil, nil, store.ErrInvalidInput
	}
	for _, item := range sale.Items {
		if item.Quantity < 1 {
			return nil, nil, store.ErrInvalidInput
		}
	}
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	if sale.Timestamp.IsZero() {
		sale.Timestamp = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, total, timestamp, payment_method)
		VALUES ($1,$2,$3,$4)
	`, sale.ID, sale.Total.String(), sale.Timestamp, sale.PaymentMethod)
	if err != nil {
		return nil, nil, err
	}

	warnings := make([]domain.StockWarning, 0)
	for _, item := range sale.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transaction_items (id, transaction_id, product_id, product_name, quantity, price, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, uuid.NewString(), sale.ID, item.ProductID, item.Name, item.Quantity, item.Price.String(), item.Subtotal.String())
		if err != nil {
			return nil, nil, err
		}

		var name string
		var stock int
		err = tx.QueryRowContext(ctx, `
			UPDATE products
			SET stock = stock - $2, updated_at = now()
			WHERE id = $1
			RETURNING name, stock
		`, item.ProductID, item.Quantity).Scan(&name, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, store.ErrNotFound
			}
			return nil, nil, err
		}
		if stock <= 0 {
			warnings = append(warnings, domain.StockWarning{ProductID: item.ProductID, Name: name, Stock: stock})
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	created := sale
	return &created, warnings, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.SaleTransaction, error) {
	var sale domain.SaleTransaction
	err := s.db.QueryRowContext(ctx, `
		SELECT id, total::text, timestamp, payment_method
		FROM transactions
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.Total, &sale.Timestamp, &sale.PaymentMethod)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	items, err := s.saleItems(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, limit int) ([]domain.SaleTransaction, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, total::text, timestamp, payment_method
		FROM transactions
		ORDER BY timestamp DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.SaleTransaction, 0, limit)
	for rows.Next() {
		var sale domain.SaleTransaction
		if err := rows.Scan(&sale.ID, &sale.Total, &sale.Timestamp, &sale.PaymentMethod); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sales {
		items, err := s.saleItems(ctx, sales[i].ID)
		if err != nil {
			return nil, err
		}
		sales[i].Items = items
	}
	return sales, nil
}

func (s *Store) saleItems(ctx context.Context, saleID string) ([]domain.SaleItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, price::text, subtotal::text
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY product_name
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateShift(ctx context.Context, shift domain.CashShift, opening domain.CashMovement) (*domain.CashShift, error) {
	if shift.UserID == "" || shift.InitialCash.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if _, ok := domain.MovementSign(opening.Type); !ok {
		return nil, store.ErrInvalidInput
	}
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	if shift.StartTime.IsZero() {
		shift.StartTime = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusOpen
	shift.ExpectedCash = shift.InitialCash

	if opening.ID == "" {
		opening.ID = uuid.NewString()
	}
	opening.ShiftID = shift.ID
	opening.Timestamp = shift.StartTime

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cash_shifts (id, user_id, register_id, start_time, initial_cash, expected_cash, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, shift.ID, shift.UserID, shift.RegisterID, shift.StartTime, shift.InitialCash.String(), shift.ExpectedCash.String(), shift.Status, shift.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyOpen
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cash_movements (id, shift_id, transaction_id, movement_type, amount, reason, timestamp, user_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, opening.ID, opening.ShiftID, opening.TransactionID, opening.Type, opening.Amount.String(), opening.Reason, opening.Timestamp, opening.UserID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := shift
	return &created, nil
}

const shiftColumns = `id, user_id, register_id, start_time, end_time, initial_cash::text, expected_cash::text, actual_cash::text, difference::text, status, notes`

func (s *Store) GetShiftByID(ctx context.Context, id string) (*domain.CashShift, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM cash_shifts WHERE id = $1`, id)
	return scanShift(row)
}

func (s *Store) GetOpenShiftByUser(ctx context.Context, userID string) (*domain.CashShift, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM cash_shifts WHERE user_id = $1 AND status = 'open'`, userID)
	return scanShift(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*domain.CashShift, error) {
	var shift domain.CashShift
	var endTime sql.NullTime
	var actualCash, difference sql.NullString
	err := row.Scan(&shift.ID, &shift.UserID, &shift.RegisterID, &shift.StartTime, &endTime,
		&shift.InitialCash, &shift.ExpectedCash, &actualCash, &difference, &shift.Status, &shift.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		shift.EndTime = &t
	}
	if actualCash.Valid {
		d, err := decimal.NewFromString(actualCash.String)
		if err != nil {
			return nil, err
		}
		shift.ActualCash = &d
	}
	if difference.Valid {
		d, err := decimal.NewFromString(difference.String)
		if err != nil {
			return nil, err
		}
		shift.Difference = &d
	}
	return &shift, nil
}

func (s *Store) AppendMovement(ctx context.Context, movement domain.CashMovement) (*domain.CashMovement, error) {
	if movement.ShiftID == "" || movement.Amount.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	delta, ok := domain.SignedAmount(movement.Type, movement.Amount)
	if !ok {
		return nil, store.ErrInvalidInput
	}
	if movement.ID == "" {
		movement.ID = uuid.NewString()
	}
	if movement.Timestamp.IsZero() {
		movement.Timestamp = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM cash_shifts WHERE id = $1 FOR UPDATE
	`, movement.ShiftID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.ShiftStatusOpen {
		return nil, store.ErrShiftClosed
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cash_movements (id, shift_id, transaction_id, movement_type, amount, reason, timestamp, user_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, movement.ID, movement.ShiftID, movement.TransactionID, movement.Type, movement.Amount.String(), movement.Reason, movement.Timestamp, movement.UserID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE cash_shifts SET expected_cash = expected_cash + $2 WHERE id = $1
	`, movement.ShiftID, delta.String())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := movement
	return &created, nil
}

func (s *Store) ListMovements(ctx context.Context, shiftID string) ([]domain.CashMovement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_id, transaction_id, movement_type, amount::text, reason, timestamp, user_id
		FROM cash_movements
		WHERE shift_id = $1
		ORDER BY timestamp DESC, id DESC
	`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.CashMovement, 0, 16)
	for rows.Next() {
		var m domain.CashMovement
		var txID sql.NullString
		if err := rows.Scan(&m.ID, &m.ShiftID, &txID, &m.Type, &m.Amount, &m.Reason, &m.Timestamp, &m.UserID); err != nil {
			return nil, err
		}
		if txID.Valid {
			id := txID.String
			m.TransactionID = &id
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Store) CloseShift(ctx context.Context, shiftID string, actualCash decimal.Decimal, notes string, at time.Time) (*domain.CashShift, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	var expectedText string
	err = tx.QueryRowContext(ctx, `
		SELECT status, expected_cash::text FROM cash_shifts WHERE id = $1 FOR UPDATE
	`, shiftID).Scan(&status, &expectedText)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.ShiftStatusOpen {
		return nil, store.ErrShiftClosed
	}
	expected, err := decimal.NewFromString(expectedText)
	if err != nil {
		return nil, err
	}

	difference := actualCash.Sub(expected)
	_, err = tx.ExecContext(ctx, `
		UPDATE cash_shifts
		SET status = 'closed', end_time = $2, actual_cash = $3, difference = $4, notes = $5
		WHERE id = $1 AND status = 'open'
	`, shiftID, at, actualCash.String(), difference.String(), notes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetShiftByID(ctx, shiftID)
}

func (s *Store) SaveReport(ctx context.Context, report domain.ShiftReport) (*domain.ShiftReport, error) {
	if report.ShiftID == "" {
		return nil, store.ErrInvalidInput
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(report.Data)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shift_reports (id, shift_id, report_type, report_data, pdf_path, generated_at, generated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, report.ID, report.ShiftID, report.ReportType, string(payload), report.PDFPath, report.GeneratedAt, report.GeneratedBy)
	if err != nil {
		return nil, err
	}

	saved := report
	return &saved, nil
}

func (s *Store) ListReports(ctx context.Context, limit int) ([]domain.ShiftReport, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_id, report_type, report_data, pdf_path, generated_at, generated_by
		FROM shift_reports
		ORDER BY generated_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]domain.ShiftReport, 0, limit)
	for rows.Next() {
		var r domain.ShiftReport
		var payload []byte
		var pdfPath sql.NullString
		if err := rows.Scan(&r.ID, &r.ShiftID, &r.ReportType, &payload, &pdfPath, &r.GeneratedAt, &r.GeneratedBy); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &r.Data); err != nil {
			return nil, err
		}
		if pdfPath.Valid {
			p := pdfPath.String
			r.PDFPath = &p
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Store) ListReceiptTemplates(ctx context.Context) ([]domain.ReceiptTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, layout_config, is_default, created_by, created_at
		FROM receipt_templates
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]domain.ReceiptTemplate, 0, 4)
	for rows.Next() {
		var t domain.ReceiptTemplate
		var layout []byte
		if err := rows.Scan(&t.ID, &t.Name, &layout, &t.IsDefault, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(layout, &t.Layout); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *Store) SaveReceiptTemplate(ctx context.Context, template domain.ReceiptTemplate) (*domain.ReceiptTemplate, error) {
	if err := template.Layout.Validate(); err != nil {
		return nil, store.ErrInvalidInput
	}
	if template.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	if template.CreatedAt.IsZero() {
		template.CreatedAt = time.Now().UTC()
	}

	layout, err := json.Marshal(template.Layout)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if template.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE receipt_templates SET is_default = false`); err != nil {
			return nil, err
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipt_templates (id, name, layout_config, is_default, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT(id) DO UPDATE SET name = EXCLUDED.name, layout_config = EXCLUDED.layout_config, is_default = EXCLUDED.is_default
	`, template.ID, template.Name, string(layout), template.IsDefault, template.CreatedBy, template.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	saved := template
	return &saved, nil
}

func (s *Store) ListPrinterSettings(ctx context.Context) ([]domain.PrinterSettings, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, printer_type, connection_type, config, is_default
		FROM printer_settings
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	printers := make([]domain.PrinterSettings, 0, 4)
	for rows.Next() {
		var p domain.PrinterSettings
		var config []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.ConnectionType, &config, &p.IsDefault); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(config, &p.Config); err != nil {
			return nil, err
		}
		printers = append(printers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return printers, nil
}

func (s *Store) SavePrinterSettings(ctx context.Context, settings domain.PrinterSettings) (*domain.PrinterSettings, error) {
	if err := settings.Validate(); err != nil {
		return nil, store.ErrInvalidInput
	}
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}

	config, err := json.Marshal(settings.Config)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if settings.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE printer_settings SET is_default = false`); err != nil {
			return nil, err
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO printer_settings (id, name, printer_type, connection_type, config, is_default)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT(id) DO UPDATE SET name = EXCLUDED.name, printer_type = EXCLUDED.printer_type,
			connection_type = EXCLUDED.connection_type, config = EXCLUDED.config, is_default = EXCLUDED.is_default
	`, settings.ID, settings.Name, settings.Type, settings.ConnectionType, string(config), settings.IsDefault)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	saved := settings
	return &saved, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
