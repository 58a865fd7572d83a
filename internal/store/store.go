package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyOpen  = errors.New("shift already open")
	ErrShiftClosed  = errors.New("shift closed")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("duplicate")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUserPassword(ctx context.Context, username string, passwordHash string) error
	TouchUserLogin(ctx context.Context, userID string, at time.Time) error

	ListRegisters(ctx context.Context) ([]domain.CashRegister, error)
	GetActiveRegister(ctx context.Context) (*domain.CashRegister, error)

	// CreateSale persists the transaction with its items and decrements the
	// stock of every referenced product in one atomic unit. Stock is allowed
	// to go negative; products that end at or below zero come back as
	// warnings.
	CreateSale(ctx context.Context, sale domain.SaleTransaction) (*domain.SaleTransaction, []domain.StockWarning, error)
	GetSaleByID(ctx context.Context, id string) (*domain.SaleTransaction, error)
	ListSales(ctx context.Context, limit int) ([]domain.SaleTransaction, error)

	// CreateShift writes the shift and its synthetic opening movement
	// atomically. ErrAlreadyOpen when the user already has an open shift.
	CreateShift(ctx context.Context, shift domain.CashShift, opening domain.CashMovement) (*domain.CashShift, error)
	GetShiftByID(ctx context.Context, id string) (*domain.CashShift, error)
	GetOpenShiftByUser(ctx context.Context, userID string) (*domain.CashShift, error)
	// AppendMovement inserts the movement and folds its signed amount into
	// the shift's expected cash in one atomic unit.
	AppendMovement(ctx context.Context, movement domain.CashMovement) (*domain.CashMovement, error)
	ListMovements(ctx context.Context, shiftID string) ([]domain.CashMovement, error)
	CloseShift(ctx context.Context, shiftID string, actualCash decimal.Decimal, notes string, at time.Time) (*domain.CashShift, error)

	SaveReport(ctx context.Context, report domain.ShiftReport) (*domain.ShiftReport, error)
	ListReports(ctx context.Context, limit int) ([]domain.ShiftReport, error)

	ListReceiptTemplates(ctx context.Context) ([]domain.ReceiptTemplate, error)
	SaveReceiptTemplate(ctx context.Context, template domain.ReceiptTemplate) (*domain.ReceiptTemplate, error)
	ListPrinterSettings(ctx context.Context) ([]domain.PrinterSettings, error)
	SavePrinterSettings(ctx context.Context, settings domain.PrinterSettings) (*domain.PrinterSettings, error)
}
