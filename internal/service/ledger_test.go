package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", value, err)
	}
	return d
}

func TestOpenShiftStartsAtInitialCash(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "100.00")})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}
	if shift.Status != domain.ShiftStatusOpen {
		t.Fatalf("expected open status, got %s", shift.Status)
	}
	if !shift.ExpectedCash.Equal(shift.InitialCash) {
		t.Fatalf("expected cash should start at initial cash, got %s", shift.ExpectedCash)
	}
	if shift.RegisterID == "" {
		t.Fatalf("expected active register to be resolved")
	}

	movements, err := svc.ListMovements(ctx, shift.ID)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected one opening movement, got %d", len(movements))
	}
	if movements[0].Type != domain.MovementCashIn || !movements[0].Amount.Equal(dec(t, "100.00")) {
		t.Fatalf("unexpected opening movement: %+v", movements[0])
	}

	active, err := svc.GetOpenShift(ctx)
	if err != nil {
		t.Fatalf("get open shift failed: %v", err)
	}
	if active == nil || active.ID != shift.ID {
		t.Fatalf("expected open shift %s, got %+v", shift.ID, active)
	}
}

func TestOpenShiftRejectsSecondOpen(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	if _, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "50.00")}); err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	_, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "75.00")})
	if !errors.Is(err, store.ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}

	// A different user is unaffected.
	adminCtx := actorContext(t, repo, "admin")
	if _, err := svc.OpenShift(adminCtx, domain.ShiftOpenRequest{InitialCash: dec(t, "20.00")}); err != nil {
		t.Fatalf("open for second user failed: %v", err)
	}
}

func TestOpenShiftRejectsNegativeInitialCash(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	_, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "-1.00")})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExpectedCashFoldsSignedMovements(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "100.00")})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}

	steps := []struct {
		movementType string
		amount       string
		expected     string
	}{
		{domain.MovementCashIn, "50.00", "150.00"},
		{domain.MovementSale, "25.50", "175.50"},
		{domain.MovementCashOut, "30.00", "145.50"},
		{domain.MovementAdjustment, "10.00", "135.50"},
	}
	for _, step := range steps {
		if _, err := svc.PostMovement(ctx, domain.MovementRequest{
			ShiftID: shift.ID,
			Type:    step.movementType,
			Amount:  dec(t, step.amount),
			Reason:  "test",
		}); err != nil {
			t.Fatalf("post %s failed: %v", step.movementType, err)
		}

		current, err := repo.GetShiftByID(ctx, shift.ID)
		if err != nil {
			t.Fatalf("get shift failed: %v", err)
		}
		if !current.ExpectedCash.Equal(dec(t, step.expected)) {
			t.Fatalf("after %s %s: expected cash %s, got %s", step.movementType, step.amount, step.expected, current.ExpectedCash)
		}
	}

	// Replaying the full movement log, opening float included, must land on
	// the materialized expected cash.
	movements, err := svc.ListMovements(ctx, shift.ID)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	replayed := decimal.Zero
	for _, movement := range movements {
		delta, ok := domain.SignedAmount(movement.Type, movement.Amount)
		if !ok {
			t.Fatalf("stored movement has unknown type %q", movement.Type)
		}
		replayed = replayed.Add(delta)
	}
	current, _ := repo.GetShiftByID(ctx, shift.ID)
	if !replayed.Equal(current.ExpectedCash) {
		t.Fatalf("replayed log %s != materialized expected cash %s", replayed, current.ExpectedCash)
	}
}

func TestPostMovementRejectsUnknownType(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "100.00")})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}

	_, err = svc.PostMovement(ctx, domain.MovementRequest{
		ShiftID: shift.ID,
		Type:    "teleport",
		Amount:  dec(t, "10.00"),
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown type, got %v", err)
	}

	movements, _ := svc.ListMovements(ctx, shift.ID)
	if len(movements) != 1 {
		t.Fatalf("rejected movement must not be persisted, have %d", len(movements))
	}
	current, _ := repo.GetShiftByID(ctx, shift.ID)
	if !current.ExpectedCash.Equal(dec(t, "100.00")) {
		t.Fatalf("expected cash must be untouched, got %s", current.ExpectedCash)
	}
}

func TestPostMovementRejectsNegativeAmount(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "100.00")})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}

	_, err = svc.PostMovement(ctx, domain.MovementRequest{
		ShiftID: shift.ID,
		Type:    domain.MovementCashOut,
		Amount:  dec(t, "-5.00"),
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative amount, got %v", err)
	}

	movements, _ := svc.ListMovements(ctx, shift.ID)
	if len(movements) != 1 {
		t.Fatalf("rejected movement must not be persisted, have %d", len(movements))
	}
}

func TestPostMovementOnClosedShift(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "100.00")})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}
	if _, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{ShiftID: shift.ID, ActualCash: dec(t, "100.00")}); err != nil {
		t.Fatalf("close shift failed: %v", err)
	}

	_, err = svc.PostMovement(ctx, domain.MovementRequest{
		ShiftID: shift.ID,
		Type:    domain.MovementCashIn,
		Amount:  dec(t, "10.00"),
	})
	if !errors.Is(err, store.ErrShiftClosed) {
		t.Fatalf("expected ErrShiftClosed, got %v", err)
	}
}

func TestCloseShiftComputesDifference(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "100.00")})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}
	if _, err := svc.PostMovement(ctx, domain.MovementRequest{
		ShiftID: shift.ID,
		Type:    domain.MovementCashIn,
		Amount:  dec(t, "50.00"),
	}); err != nil {
		t.Fatalf("post movement failed: %v", err)
	}

	resp, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{
		ShiftID:    shift.ID,
		ActualCash: dec(t, "140.00"),
		Notes:      "drawer short",
	})
	if err != nil {
		t.Fatalf("close shift failed: %v", err)
	}

	closed := resp.Shift
	if closed.Status != domain.ShiftStatusClosed {
		t.Fatalf("expected closed status, got %s", closed.Status)
	}
	if closed.EndTime == nil {
		t.Fatalf("expected end time to be set")
	}
	if closed.ActualCash == nil || !closed.ActualCash.Equal(dec(t, "140.00")) {
		t.Fatalf("unexpected actual cash: %v", closed.ActualCash)
	}
	if closed.Difference == nil || !closed.Difference.Equal(dec(t, "-10.00")) {
		t.Fatalf("expected difference -10.00, got %v", closed.Difference)
	}
	if resp.ReportError != "" {
		t.Fatalf("unexpected report error: %s", resp.ReportError)
	}
	if resp.Report == nil {
		t.Fatalf("expected report on close response")
	}

	// Close is terminal.
	_, err = svc.CloseShift(ctx, domain.ShiftCloseRequest{ShiftID: shift.ID, ActualCash: dec(t, "140.00")})
	if !errors.Is(err, store.ErrShiftClosed) {
		t.Fatalf("expected ErrShiftClosed on double close, got %v", err)
	}

	active, err := svc.GetOpenShift(ctx)
	if err != nil {
		t.Fatalf("get open shift failed: %v", err)
	}
	if active != nil {
		t.Fatalf("expected no open shift after close, got %+v", active)
	}
}

func TestCloseUnknownShift(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	_, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{ShiftID: "no-such-shift", ActualCash: dec(t, "10.00")})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListMovementsUnknownShift(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	_, err := svc.ListMovements(ctx, "no-such-shift")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
