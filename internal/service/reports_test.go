package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

func TestGenerateReportTotals(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "100.00")})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}
	if _, err := svc.PostMovement(ctx, domain.MovementRequest{
		ShiftID: shift.ID, Type: domain.MovementCashIn, Amount: dec(t, "50.00"), Reason: "change run",
	}); err != nil {
		t.Fatalf("post cash_in failed: %v", err)
	}
	if _, err := svc.PostMovement(ctx, domain.MovementRequest{
		ShiftID: shift.ID, Type: domain.MovementCashOut, Amount: dec(t, "20.00"), Reason: "supplier payout",
	}); err != nil {
		t.Fatalf("post cash_out failed: %v", err)
	}

	report, err := svc.GenerateReport(ctx, shift.ID)
	if err != nil {
		t.Fatalf("generate report failed: %v", err)
	}

	summary := report.Data.CashSummary
	if !summary.TotalCashIn.Equal(dec(t, "150.00")) {
		t.Fatalf("expected cash in 150.00 (opening included), got %s", summary.TotalCashIn)
	}
	if !summary.TotalCashOut.Equal(dec(t, "20.00")) {
		t.Fatalf("expected cash out 20.00, got %s", summary.TotalCashOut)
	}
	if !summary.NetMovement.Equal(dec(t, "130.00")) {
		t.Fatalf("expected net 130.00, got %s", summary.NetMovement)
	}
	if !summary.NetMovement.Equal(summary.ExpectedCash) {
		t.Fatalf("net over full log must equal expected cash: %s vs %s", summary.NetMovement, summary.ExpectedCash)
	}
	if len(report.Data.Movements) != 3 {
		t.Fatalf("expected 3 movements in report, got %d", len(report.Data.Movements))
	}
	if report.GeneratedBy != "kasir" {
		t.Fatalf("expected generated_by kasir, got %s", report.GeneratedBy)
	}
}

func TestGenerateReportLinksSaleTransactions(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "100.00")})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}

	product, _ := repo.GetProductByBarcode(context.Background(), "1234567890123")
	saleResp, err := svc.SettleSale(ctx, domain.SaleRequest{
		Items: []domain.SaleItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("settle sale failed: %v", err)
	}
	saleID := saleResp.Transaction.ID
	if _, err := svc.PostMovement(ctx, domain.MovementRequest{
		ShiftID:       shift.ID,
		Type:          domain.MovementSale,
		Amount:        saleResp.Transaction.Total,
		TransactionID: saleID,
	}); err != nil {
		t.Fatalf("post sale movement failed: %v", err)
	}

	if _, err := svc.PostMovement(ctx, domain.MovementRequest{
		ShiftID:       shift.ID,
		Type:          domain.MovementSale,
		Amount:        dec(t, "1.00"),
		TransactionID: "vanished-transaction",
	}); err != nil {
		t.Fatalf("post dangling movement failed: %v", err)
	}

	report, err := svc.GenerateReport(ctx, shift.ID)
	if err != nil {
		t.Fatalf("generate report failed: %v", err)
	}
	if len(report.Data.Transactions) != 1 {
		t.Fatalf("expected one linked transaction (dangling dropped), got %d", len(report.Data.Transactions))
	}
	if report.Data.Transactions[0].ID != saleID {
		t.Fatalf("expected transaction %s, got %s", saleID, report.Data.Transactions[0].ID)
	}
}

func TestReportPayloadRoundTrip(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{InitialCash: dec(t, "75.00")})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}
	if _, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{ShiftID: shift.ID, ActualCash: dec(t, "80.00")}); err != nil {
		t.Fatalf("close shift failed: %v", err)
	}

	reports, err := svc.ListReports(ctx, 10)
	if err != nil {
		t.Fatalf("list reports failed: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected one stored report, got %d", len(reports))
	}

	payload, err := json.Marshal(reports[0].Data)
	if err != nil {
		t.Fatalf("marshal report data failed: %v", err)
	}
	var decoded domain.ShiftReportData
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal report data failed: %v", err)
	}
	if decoded.Shift.ID != shift.ID {
		t.Fatalf("expected shift %s in payload, got %s", shift.ID, decoded.Shift.ID)
	}
	if decoded.CashSummary.Difference == nil || !decoded.CashSummary.Difference.Equal(dec(t, "5.00")) {
		t.Fatalf("expected difference 5.00 to survive the round trip, got %v", decoded.CashSummary.Difference)
	}
}

func TestSaveReportUnknownShift(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	_, err := svc.SaveReport(ctx, domain.ShiftReport{ShiftID: "no-such-shift"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
