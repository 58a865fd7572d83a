package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

// OpenShift starts a cash session for the calling user. The register falls
// back to the active one when the request leaves it empty, and the opening
// float is written as the shift's first cash_in movement.
func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (*domain.CashShift, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if req.InitialCash.IsNegative() {
		return nil, fmt.Errorf("%w: initial cash must not be negative", store.ErrInvalidInput)
	}

	registerID := strings.TrimSpace(req.RegisterID)
	if registerID == "" {
		register, err := s.repo.GetActiveRegister(ctx)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: no active cash register", store.ErrInvalidInput)
			}
			return nil, err
		}
		registerID = register.ID
	}

	now := time.Now().UTC()
	shift := domain.CashShift{
		UserID:       actor.UserID,
		RegisterID:   registerID,
		StartTime:    now,
		InitialCash:  req.InitialCash,
		ExpectedCash: req.InitialCash,
		Status:       domain.ShiftStatusOpen,
	}
	opening := domain.CashMovement{
		Type:      domain.MovementCashIn,
		Amount:    req.InitialCash,
		Reason:    "Opening cash",
		Timestamp: now,
		UserID:    actor.UserID,
	}

	created, err := s.repo.CreateShift(ctx, shift, opening)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("shift_id", created.ID).
		Str("user_id", actor.UserID).
		Str("register_id", registerID).
		Str("initial_cash", created.InitialCash.String()).
		Msg("shift opened")
	return created, nil
}

// GetOpenShift returns the caller's open shift, or nil when none is open.
func (s *Service) GetOpenShift(ctx context.Context) (*domain.CashShift, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	shift, err := s.repo.GetOpenShiftByUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return shift, nil
}

// PostMovement appends a cash movement to an open shift and rolls its
// signed amount into the shift's expected cash. Unknown movement types are
// rejected rather than treated as zero.
func (s *Service) PostMovement(ctx context.Context, req domain.MovementRequest) (*domain.CashMovement, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.ShiftID) == "" {
		return nil, fmt.Errorf("%w: shift id is required", store.ErrInvalidInput)
	}
	if _, ok := domain.MovementSign(req.Type); !ok {
		return nil, fmt.Errorf("%w: unknown movement type %q", store.ErrInvalidInput, req.Type)
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", store.ErrInvalidInput)
	}

	var transactionID *string
	if id := strings.TrimSpace(req.TransactionID); id != "" {
		transactionID = &id
	}

	movement, err := s.repo.AppendMovement(ctx, domain.CashMovement{
		ShiftID:       strings.TrimSpace(req.ShiftID),
		TransactionID: transactionID,
		Type:          req.Type,
		Amount:        req.Amount,
		Reason:        strings.TrimSpace(req.Reason),
		Timestamp:     time.Now().UTC(),
		UserID:        actor.UserID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("shift_id", movement.ShiftID).
		Str("movement_id", movement.ID).
		Str("type", movement.Type).
		Str("amount", movement.Amount.String()).
		Msg("cash movement recorded")
	return movement, nil
}

// ListMovements returns a shift's movements, newest first.
func (s *Service) ListMovements(ctx context.Context, shiftID string) ([]domain.CashMovement, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	shiftID = strings.TrimSpace(shiftID)
	if shiftID == "" {
		return nil, fmt.Errorf("%w: shift id is required", store.ErrInvalidInput)
	}
	if _, err := s.repo.GetShiftByID(ctx, shiftID); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, shiftID)
}

// CloseShift closes the shift, records the counted cash and the difference
// against expectations, then generates and stores the reconciliation report.
// The close stands even when report generation fails; that failure comes
// back on the response instead.
func (s *Service) CloseShift(ctx context.Context, req domain.ShiftCloseRequest) (*domain.ShiftCloseResponse, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	shiftID := strings.TrimSpace(req.ShiftID)
	if shiftID == "" {
		return nil, fmt.Errorf("%w: shift id is required", store.ErrInvalidInput)
	}
	if req.ActualCash.IsNegative() {
		return nil, fmt.Errorf("%w: actual cash must not be negative", store.ErrInvalidInput)
	}

	closed, err := s.repo.CloseShift(ctx, shiftID, req.ActualCash, strings.TrimSpace(req.Notes), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("shift_id", closed.ID).
		Str("expected_cash", closed.ExpectedCash.String()).
		Str("actual_cash", req.ActualCash.String()).
		Str("by", actor.Username).
		Msg("shift closed")

	resp := &domain.ShiftCloseResponse{Shift: *closed}

	report, err := s.GenerateReport(ctx, closed.ID)
	if err != nil {
		s.log.Error().Err(err).Str("shift_id", closed.ID).Msg("report generation failed after close")
		resp.ReportError = fmt.Sprintf("report generation failed: %v", err)
		return resp, nil
	}
	saved, err := s.SaveReport(ctx, *report)
	if err != nil {
		s.log.Error().Err(err).Str("shift_id", closed.ID).Msg("report save failed after close")
		resp.ReportError = fmt.Sprintf("report save failed: %v", err)
		return resp, nil
	}

	resp.Report = saved
	return resp, nil
}
