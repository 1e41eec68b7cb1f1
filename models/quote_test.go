package models

import "testing"

func TestQuoteRecomputeTotal(t *testing.T) {
	tests := []struct {
		name  string
		quote Quote
		want  float64
	}{
		{"labor only", Quote{LaborPrice: 80}, 80},
		{
			"accepted items count",
			Quote{LaborPrice: 80, Items: []QuoteItem{
				{Price: 20, Quantity: 2, Status: QuoteItemAccepted},
			}},
			120,
		},
		{
			"pending and rejected never count",
			Quote{LaborPrice: 80, Items: []QuoteItem{
				{Price: 20, Quantity: 2, Status: QuoteItemAccepted},
				{Price: 50, Quantity: 1, Status: QuoteItemPending},
				{Price: 30, Quantity: 3, Status: QuoteItemRejected},
			}},
			120,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.quote.RecomputeTotal()
			if tt.quote.TotalAmount != tt.want {
				t.Errorf("TotalAmount = %v, want %v", tt.quote.TotalAmount, tt.want)
			}
		})
	}
}

func TestQuoteResolvePending(t *testing.T) {
	q := Quote{LaborPrice: 100, Items: []QuoteItem{
		{Price: 40, Quantity: 1, Status: QuoteItemRejected},
		{Price: 25, Quantity: 2, Status: QuoteItemPending},
		{Price: 10, Quantity: 1, Status: QuoteItemPending},
	}}

	if resolved := q.ResolvePending(true); resolved != 2 {
		t.Fatalf("ResolvePending() = %d, want 2", resolved)
	}
	if q.TotalAmount != 160 {
		t.Errorf("TotalAmount = %v, want 160", q.TotalAmount)
	}
	if q.Items[0].Status != QuoteItemRejected {
		t.Error("previously rejected item must stay rejected")
	}
	if len(q.PendingItems()) != 0 {
		t.Errorf("pending after resolve = %d, want 0", len(q.PendingItems()))
	}
}
