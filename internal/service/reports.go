package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

// GenerateReport assembles the reconciliation report for a shift from its
// movement log: cash-in and cash-out totals, the net against the opening
// float, and the sale transactions the movements reference. Movements whose
// transaction has since disappeared are dropped from the transaction list
// rather than failing the report.
func (s *Service) GenerateReport(ctx context.Context, shiftID string) (*domain.ShiftReport, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	shiftID = strings.TrimSpace(shiftID)
	if shiftID == "" {
		return nil, fmt.Errorf("%w: shift id is required", store.ErrInvalidInput)
	}

	shift, err := s.repo.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	movements, err := s.repo.ListMovements(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	totalIn := decimal.Zero
	totalOut := decimal.Zero
	seen := make(map[string]bool)
	transactions := make([]domain.SaleTransaction, 0)
	for _, movement := range movements {
		sign, ok := domain.MovementSign(movement.Type)
		if !ok {
			continue
		}
		if sign > 0 {
			totalIn = totalIn.Add(movement.Amount)
		} else {
			totalOut = totalOut.Add(movement.Amount)
		}

		if movement.TransactionID == nil || seen[*movement.TransactionID] {
			continue
		}
		seen[*movement.TransactionID] = true
		sale, err := s.repo.GetSaleByID(ctx, *movement.TransactionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.log.Warn().
					Str("shift_id", shiftID).
					Str("transaction_id", *movement.TransactionID).
					Msg("movement references missing transaction")
				continue
			}
			return nil, err
		}
		transactions = append(transactions, *sale)
	}

	summary := domain.CashSummary{
		TotalCashIn:  totalIn,
		TotalCashOut: totalOut,
		NetMovement:  totalIn.Sub(totalOut),
		InitialCash:  shift.InitialCash,
		ExpectedCash: shift.ExpectedCash,
		ActualCash:   shift.ActualCash,
		Difference:   shift.Difference,
	}

	report := &domain.ShiftReport{
		ShiftID:    shift.ID,
		ReportType: "daily",
		Data: domain.ShiftReportData{
			Shift:        *shift,
			CashSummary:  summary,
			Movements:    movements,
			Transactions: transactions,
		},
		GeneratedAt: time.Now().UTC(),
		GeneratedBy: actor.Username,
	}
	return report, nil
}

// SaveReport persists a generated report so it can be reloaded later.
func (s *Service) SaveReport(ctx context.Context, report domain.ShiftReport) (*domain.ShiftReport, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	if strings.TrimSpace(report.ShiftID) == "" {
		return nil, fmt.Errorf("%w: report shift id is required", store.ErrInvalidInput)
	}
	if _, err := s.repo.GetShiftByID(ctx, report.ShiftID); err != nil {
		return nil, err
	}
	if report.ReportType == "" {
		report.ReportType = "daily"
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}

	saved, err := s.repo.SaveReport(ctx, report)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("report_id", saved.ID).Str("shift_id", saved.ShiftID).Msg("shift report saved")
	return saved, nil
}

// ListReports returns stored reports, newest first.
func (s *Service) ListReports(ctx context.Context, limit int) ([]domain.ShiftReport, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListReports(ctx, limit)
}
