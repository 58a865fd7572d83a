package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMovementSignPolicy(t *testing.T) {
	cases := []struct {
		movementType string
		sign         int
		ok           bool
	}{
		{MovementCashIn, 1, true},
		{MovementSale, 1, true},
		{MovementCashOut, -1, true},
		{MovementAdjustment, -1, true},
		{"refund", 0, false},
		{"", 0, false},
		{"CASH_IN", 0, false},
	}

	for _, tc := range cases {
		sign, ok := MovementSign(tc.movementType)
		if ok != tc.ok {
			t.Fatalf("MovementSign(%q): expected ok=%v, got %v", tc.movementType, tc.ok, ok)
		}
		if ok && sign != tc.sign {
			t.Fatalf("MovementSign(%q): expected sign %d, got %d", tc.movementType, tc.sign, sign)
		}
	}
}

func TestSignedAmount(t *testing.T) {
	amount := decimal.RequireFromString("12.50")

	delta, ok := SignedAmount(MovementSale, amount)
	if !ok || !delta.Equal(amount) {
		t.Fatalf("sale should count positive, got %s ok=%v", delta, ok)
	}

	delta, ok = SignedAmount(MovementAdjustment, amount)
	if !ok || !delta.Equal(amount.Neg()) {
		t.Fatalf("adjustment should count negative, got %s ok=%v", delta, ok)
	}

	if _, ok := SignedAmount("mystery", amount); ok {
		t.Fatalf("unknown type must not produce a signed amount")
	}
}
