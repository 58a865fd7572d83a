package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(context.Background(), filepath.Join(t.TempDir(), "pos.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seededUser(t *testing.T, s *Store, username string) *domain.User {
	t.Helper()

	user, err := s.GetUserByUsername(context.Background(), username)
	if err != nil {
		t.Fatalf("seeded user %q missing: %v", username, err)
	}
	return user
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", value, err)
	}
	return d
}

func TestSeedFixtures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 5 {
		t.Fatalf("expected 5 seeded products, got %d", len(products))
	}

	if _, err := s.GetProductByBarcode(ctx, "1234567890123"); err != nil {
		t.Fatalf("seeded barcode missing: %v", err)
	}
	seededUser(t, s, "admin")
	seededUser(t, s, "kasir")

	register, err := s.GetActiveRegister(ctx)
	if err != nil {
		t.Fatalf("active register missing: %v", err)
	}
	if register.Name != "Cash Register 1" {
		t.Fatalf("unexpected register: %+v", register)
	}

	templates, err := s.ListReceiptTemplates(ctx)
	if err != nil || len(templates) != 1 {
		t.Fatalf("expected one seeded template, got %d (err %v)", len(templates), err)
	}
	printers, err := s.ListPrinterSettings(ctx)
	if err != nil || len(printers) != 1 {
		t.Fatalf("expected one seeded printer, got %d (err %v)", len(printers), err)
	}
}

func TestShiftCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seededUser(t, s, "kasir")
	register, err := s.GetActiveRegister(ctx)
	if err != nil {
		t.Fatalf("active register: %v", err)
	}

	initial := mustDecimal(t, "100.00")
	shift, err := s.CreateShift(ctx, domain.CashShift{
		UserID:       user.ID,
		RegisterID:   register.ID,
		StartTime:    time.Now().UTC(),
		InitialCash:  initial,
		ExpectedCash: initial,
		Status:       domain.ShiftStatusOpen,
	}, domain.CashMovement{
		Type:   domain.MovementCashIn,
		Amount: initial,
		Reason: "Opening cash",
		UserID: user.ID,
	})
	if err != nil {
		t.Fatalf("create shift: %v", err)
	}
	if !shift.ExpectedCash.Equal(initial) {
		t.Fatalf("expected cash should start at %s, got %s", initial, shift.ExpectedCash)
	}

	// The partial unique index allows one open shift per user.
	_, err = s.CreateShift(ctx, domain.CashShift{
		UserID:      user.ID,
		RegisterID:  register.ID,
		InitialCash: mustDecimal(t, "50.00"),
	}, domain.CashMovement{
		Type:   domain.MovementCashIn,
		Amount: mustDecimal(t, "50.00"),
		UserID: user.ID,
	})
	if !errors.Is(err, store.ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}

	if _, err := s.AppendMovement(ctx, domain.CashMovement{
		ShiftID: shift.ID,
		Type:    domain.MovementCashIn,
		Amount:  mustDecimal(t, "50.00"),
		Reason:  "change run",
		UserID:  user.ID,
	}); err != nil {
		t.Fatalf("append cash_in: %v", err)
	}
	if _, err := s.AppendMovement(ctx, domain.CashMovement{
		ShiftID: shift.ID,
		Type:    domain.MovementCashOut,
		Amount:  mustDecimal(t, "20.00"),
		Reason:  "payout",
		UserID:  user.ID,
	}); err != nil {
		t.Fatalf("append cash_out: %v", err)
	}

	current, err := s.GetShiftByID(ctx, shift.ID)
	if err != nil {
		t.Fatalf("get shift: %v", err)
	}
	if !current.ExpectedCash.Equal(mustDecimal(t, "130.00")) {
		t.Fatalf("expected cash 130.00 after fold, got %s", current.ExpectedCash)
	}

	movements, err := s.ListMovements(ctx, shift.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(movements))
	}

	closed, err := s.CloseShift(ctx, shift.ID, mustDecimal(t, "125.00"), "drawer short", time.Now().UTC())
	if err != nil {
		t.Fatalf("close shift: %v", err)
	}
	if closed.Status != domain.ShiftStatusClosed {
		t.Fatalf("expected closed status, got %s", closed.Status)
	}
	if closed.Difference == nil || !closed.Difference.Equal(mustDecimal(t, "-5.00")) {
		t.Fatalf("expected difference -5.00, got %v", closed.Difference)
	}

	if _, err := s.CloseShift(ctx, shift.ID, mustDecimal(t, "125.00"), "", time.Now().UTC()); !errors.Is(err, store.ErrShiftClosed) {
		t.Fatalf("expected ErrShiftClosed on double close, got %v", err)
	}
	if _, err := s.AppendMovement(ctx, domain.CashMovement{
		ShiftID: shift.ID,
		Type:    domain.MovementCashIn,
		Amount:  mustDecimal(t, "1.00"),
		UserID:  user.ID,
	}); !errors.Is(err, store.ErrShiftClosed) {
		t.Fatalf("expected ErrShiftClosed on append after close, got %v", err)
	}

	if _, err := s.GetOpenShiftByUser(ctx, user.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no open shift after close, got %v", err)
	}

	// Reopening is allowed once the previous shift is closed.
	if _, err := s.CreateShift(ctx, domain.CashShift{
		UserID:      user.ID,
		RegisterID:  register.ID,
		InitialCash: mustDecimal(t, "10.00"),
	}, domain.CashMovement{
		Type:   domain.MovementCashIn,
		Amount: mustDecimal(t, "10.00"),
		UserID: user.ID,
	}); err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
}

func TestCreateSaleDecrementsStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product, err := s.GetProductByBarcode(ctx, "3456789012345")
	if err != nil {
		t.Fatalf("seeded product missing: %v", err)
	}

	price := product.Price
	qty := product.Stock + 5
	subtotal := price.Mul(decimal.NewFromInt(int64(qty)))
	sale, warnings, err := s.CreateSale(ctx, domain.SaleTransaction{
		Items: []domain.SaleItem{
			{ProductID: product.ID, Name: product.Name, Quantity: qty, Price: price, Subtotal: subtotal},
		},
		Total:         subtotal,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if sale.ID == "" {
		t.Fatalf("expected sale id to be assigned")
	}
	if len(warnings) != 1 || warnings[0].Stock != -5 {
		t.Fatalf("expected stock warning at -5, got %+v", warnings)
	}

	after, err := s.GetProductByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Stock != -5 {
		t.Fatalf("expected stored stock -5, got %d", after.Stock)
	}

	fetched, err := s.GetSaleByID(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if len(fetched.Items) != 1 || !fetched.Total.Equal(subtotal) {
		t.Fatalf("unexpected stored sale: %+v", fetched)
	}
}

func TestReportPersistence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seededUser(t, s, "kasir")
	register, _ := s.GetActiveRegister(ctx)
	shift, err := s.CreateShift(ctx, domain.CashShift{
		UserID:      user.ID,
		RegisterID:  register.ID,
		InitialCash: mustDecimal(t, "40.00"),
	}, domain.CashMovement{
		Type:   domain.MovementCashIn,
		Amount: mustDecimal(t, "40.00"),
		UserID: user.ID,
	})
	if err != nil {
		t.Fatalf("create shift: %v", err)
	}

	saved, err := s.SaveReport(ctx, domain.ShiftReport{
		ShiftID:    shift.ID,
		ReportType: "daily",
		Data: domain.ShiftReportData{
			Shift: *shift,
			CashSummary: domain.CashSummary{
				TotalCashIn:  mustDecimal(t, "40.00"),
				NetMovement:  mustDecimal(t, "40.00"),
				InitialCash:  mustDecimal(t, "40.00"),
				ExpectedCash: mustDecimal(t, "40.00"),
			},
		},
		GeneratedBy: user.Username,
	})
	if err != nil {
		t.Fatalf("save report: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected report id to be assigned")
	}

	reports, err := s.ListReports(ctx, 10)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected one report, got %d", len(reports))
	}
	if !reports[0].Data.CashSummary.NetMovement.Equal(mustDecimal(t, "40.00")) {
		t.Fatalf("report payload did not survive storage: %+v", reports[0].Data.CashSummary)
	}
}
