package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Category  string          `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name     string          `json:"name"`
	Barcode  string          `json:"barcode"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
}

type ProductUpdateRequest struct {
	Name     *string          `json:"name,omitempty"`
	Barcode  *string          `json:"barcode,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty"`
	Category *string          `json:"category,omitempty"`
}

type SaleItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"product_name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SaleTransaction struct {
	ID            string          `json:"id"`
	Items         []SaleItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Timestamp     time.Time       `json:"timestamp"`
	PaymentMethod string          `json:"payment_method"`
}

type SaleItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SaleRequest struct {
	Items         []SaleItemInput `json:"items"`
	PaymentMethod string          `json:"payment_method"`
}

// StockWarning flags a product whose stock went at or below zero after a
// sale. Oversold stock is never rejected; it is reported for manual
// reconciliation.
type StockWarning struct {
	ProductID string `json:"product_id"`
	Name      string `json:"product_name"`
	Stock     int    `json:"stock"`
}

type SaleResponse struct {
	Transaction   SaleTransaction `json:"transaction"`
	StockWarnings []StockWarning  `json:"stock_warnings,omitempty"`
}

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type PasswordChangeRequest struct {
	Username    string `json:"username"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	UserID   string
	Username string
	Role     string
}

type CashRegister struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	IsActive bool   `json:"is_active"`
}

type CashShift struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	RegisterID   string           `json:"register_id"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      *time.Time       `json:"end_time,omitempty"`
	InitialCash  decimal.Decimal  `json:"initial_cash"`
	ExpectedCash decimal.Decimal  `json:"expected_cash"`
	ActualCash   *decimal.Decimal `json:"actual_cash,omitempty"`
	Difference   *decimal.Decimal `json:"difference,omitempty"`
	Status       string           `json:"status"`
	Notes        string           `json:"notes,omitempty"`
}

type CashMovement struct {
	ID            string          `json:"id"`
	ShiftID       string          `json:"shift_id"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	Type          string          `json:"movement_type"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"user_id"`
}

type ShiftOpenRequest struct {
	RegisterID  string          `json:"register_id,omitempty"`
	InitialCash decimal.Decimal `json:"initial_cash"`
}

type MovementRequest struct {
	ShiftID       string          `json:"shift_id"`
	Type          string          `json:"movement_type"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	TransactionID string          `json:"transaction_id,omitempty"`
}

type ShiftCloseRequest struct {
	ShiftID    string          `json:"shift_id"`
	ActualCash decimal.Decimal `json:"actual_cash"`
	Notes      string          `json:"notes"`
}

// ShiftCloseResponse carries the closed shift and, when generation
// succeeded, the persisted reconciliation report. The close itself is
// terminal: a report failure only populates ReportError.
type ShiftCloseResponse struct {
	Shift       CashShift    `json:"shift"`
	Report      *ShiftReport `json:"report,omitempty"`
	ReportError string       `json:"report_error,omitempty"`
}

type CashSummary struct {
	TotalCashIn  decimal.Decimal  `json:"total_cash_in"`
	TotalCashOut decimal.Decimal  `json:"total_cash_out"`
	NetMovement  decimal.Decimal  `json:"net_movement"`
	InitialCash  decimal.Decimal  `json:"initial_cash"`
	ExpectedCash decimal.Decimal  `json:"expected_cash"`
	ActualCash   *decimal.Decimal `json:"actual_cash,omitempty"`
	Difference   *decimal.Decimal `json:"difference,omitempty"`
}

type ShiftReportData struct {
	Shift        CashShift         `json:"shift_info"`
	CashSummary  CashSummary       `json:"cash_summary"`
	Movements    []CashMovement    `json:"movements"`
	Transactions []SaleTransaction `json:"transactions"`
}

type ShiftReport struct {
	ID          string          `json:"id"`
	ShiftID     string          `json:"shift_id"`
	ReportType  string          `json:"report_type"`
	Data        ShiftReportData `json:"data"`
	PDFPath     *string         `json:"pdf_path,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
	GeneratedBy string          `json:"generated_by"`
}

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

const (
	MovementCashIn     = "cash_in"
	MovementCashOut    = "cash_out"
	MovementSale       = "sale"
	MovementAdjustment = "adjustment"
)

// MovementSign maps a movement type to its effect on the drawer: +1 for
// inflows (cash_in, sale), -1 for outflows (cash_out, adjustment). Unknown
// types return ok=false and must be rejected before anything is persisted.
func MovementSign(movementType string) (sign int, ok bool) {
	switch movementType {
	case MovementCashIn, MovementSale:
		return 1, true
	case MovementCashOut, MovementAdjustment:
		return -1, true
	default:
		return 0, false
	}
}

// SignedAmount returns the drawer delta for a movement, already carrying
// the sign dictated by its type.
func SignedAmount(movementType string, amount decimal.Decimal) (decimal.Decimal, bool) {
	sign, ok := MovementSign(movementType)
	if !ok {
		return decimal.Zero, false
	}
	if sign < 0 {
		return amount.Neg(), true
	}
	return amount, true
}
