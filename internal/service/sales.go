package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

// SettleSale finalizes a checkout. Line subtotals and the grand total are
// recomputed here from current catalog prices; client-sent figures never
// reach the books. Stock is decremented in the same write as the sale, and
// lines that push a product to zero or below come back as warnings.
func (s *Service) SettleSale(ctx context.Context, req domain.SaleRequest) (*domain.SaleResponse, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: sale must contain at least one item", store.ErrInvalidInput)
	}

	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	items := make([]domain.SaleItem, 0, len(req.Items))
	total := decimal.Zero
	for _, input := range req.Items {
		if strings.TrimSpace(input.ProductID) == "" {
			return nil, fmt.Errorf("%w: item product id is required", store.ErrInvalidInput)
		}
		if input.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", store.ErrInvalidInput)
		}

		product, err := s.repo.GetProductByID(ctx, strings.TrimSpace(input.ProductID))
		if err != nil {
			return nil, err
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(input.Quantity)))
		items = append(items, domain.SaleItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  input.Quantity,
			Price:     product.Price,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}

	sale, warnings, err := s.repo.CreateSale(ctx, domain.SaleTransaction{
		Items:         items,
		Total:         total,
		PaymentMethod: paymentMethod,
	})
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if product, err := s.repo.GetProductByID(ctx, item.ProductID); err == nil {
			s.invalidateProduct(ctx, product.Barcode)
		}
	}
	for _, warning := range warnings {
		s.log.Warn().
			Str("product_id", warning.ProductID).
			Str("name", warning.Name).
			Int("stock", warning.Stock).
			Msg("product stock at or below zero")
	}

	s.log.Info().
		Str("transaction_id", sale.ID).
		Str("total", sale.Total.String()).
		Int("items", len(sale.Items)).
		Msg("sale settled")
	return &domain.SaleResponse{Transaction: *sale, StockWarnings: warnings}, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (*domain.SaleTransaction, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, store.ErrInvalidInput
	}
	return s.repo.GetSaleByID(ctx, strings.TrimSpace(id))
}

func (s *Service) ListSales(ctx context.Context, limit int) ([]domain.SaleTransaction, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListSales(ctx, limit)
}
