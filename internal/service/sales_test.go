package service

import (
	"context"
	"errors"
	"testing"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

func TestSettleSaleRecomputesTotals(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	product, err := repo.GetProductByBarcode(context.Background(), "1234567890123")
	if err != nil {
		t.Fatalf("seeded product missing: %v", err)
	}

	resp, err := svc.SettleSale(ctx, domain.SaleRequest{
		Items: []domain.SaleItemInput{
			{ProductID: product.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("settle sale failed: %v", err)
	}

	sale := resp.Transaction
	if len(sale.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(sale.Items))
	}
	line := sale.Items[0]
	if !line.Price.Equal(product.Price) {
		t.Fatalf("line price must be the catalog price, got %s", line.Price)
	}
	if !line.Subtotal.Equal(dec(t, "32.97")) {
		t.Fatalf("expected subtotal 32.97, got %s", line.Subtotal)
	}
	if !sale.Total.Equal(dec(t, "32.97")) {
		t.Fatalf("expected total 32.97, got %s", sale.Total)
	}
	if sale.PaymentMethod != "cash" {
		t.Fatalf("expected cash default payment method, got %s", sale.PaymentMethod)
	}

	after, err := repo.GetProductByID(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if after.Stock != product.Stock-3 {
		t.Fatalf("expected stock %d, got %d", product.Stock-3, after.Stock)
	}
	if len(resp.StockWarnings) != 0 {
		t.Fatalf("unexpected stock warnings: %+v", resp.StockWarnings)
	}
}

func TestSettleSaleFlagsNegativeStock(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	// Seeded with stock 25; oversell by 5.
	product, err := repo.GetProductByBarcode(context.Background(), "3456789012345")
	if err != nil {
		t.Fatalf("seeded product missing: %v", err)
	}

	resp, err := svc.SettleSale(ctx, domain.SaleRequest{
		Items: []domain.SaleItemInput{
			{ProductID: product.ID, Quantity: 30},
		},
	})
	if err != nil {
		t.Fatalf("oversell must settle, got error: %v", err)
	}
	if len(resp.StockWarnings) != 1 {
		t.Fatalf("expected one stock warning, got %d", len(resp.StockWarnings))
	}
	if resp.StockWarnings[0].Stock != -5 {
		t.Fatalf("expected stock -5 in warning, got %d", resp.StockWarnings[0].Stock)
	}

	after, _ := repo.GetProductByID(context.Background(), product.ID)
	if after.Stock != -5 {
		t.Fatalf("expected stored stock -5, got %d", after.Stock)
	}
}

func TestSettleSaleValidation(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	if _, err := svc.SettleSale(ctx, domain.SaleRequest{}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty cart, got %v", err)
	}

	_, err := svc.SettleSale(ctx, domain.SaleRequest{
		Items: []domain.SaleItemInput{{ProductID: "no-such-product", Quantity: 1}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown product, got %v", err)
	}

	product, _ := repo.GetProductByBarcode(context.Background(), "1234567890123")
	_, err = svc.SettleSale(ctx, domain.SaleRequest{
		Items: []domain.SaleItemInput{{ProductID: product.ID, Quantity: 0}},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero quantity, got %v", err)
	}
}

func TestListSalesNewestFirst(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := actorContext(t, repo, "kasir")

	product, _ := repo.GetProductByBarcode(context.Background(), "2345678901234")
	for i := 0; i < 3; i++ {
		if _, err := svc.SettleSale(ctx, domain.SaleRequest{
			Items: []domain.SaleItemInput{{ProductID: product.ID, Quantity: 1}},
		}); err != nil {
			t.Fatalf("settle sale failed: %v", err)
		}
	}

	sales, err := svc.ListSales(ctx, 2)
	if err != nil {
		t.Fatalf("list sales failed: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(sales))
	}
	if sales[0].Timestamp.Before(sales[1].Timestamp) {
		t.Fatalf("expected newest-first ordering")
	}
}
