package models

import "time"

// QuoteItemStatus tracks the negotiation state of a single line item.
type QuoteItemStatus string

const (
	QuoteItemPending  QuoteItemStatus = "PENDING"
	QuoteItemAccepted QuoteItemStatus = "ACCEPTED"
	QuoteItemRejected QuoteItemStatus = "REJECTED"
)

// QuoteItem is a technician-proposed extra. Price and quantity are fixed at
// creation; only the status ever changes.
type QuoteItem struct {
	ID       string          `bson:"id" json:"id"`
	Name     string          `bson:"name" json:"name"`
	Price    float64         `bson:"price" json:"price"`
	Quantity int             `bson:"quantity" json:"quantity"`
	Status   QuoteItemStatus `bson:"status" json:"status"`
	AddedAt  time.Time       `bson:"addedAt" json:"addedAt"`
}

// Quote is the accumulated pricing ledger embedded in a booking.
type Quote struct {
	LaborPrice     float64     `bson:"laborPrice" json:"laborPrice"`
	Items          []QuoteItem `bson:"items" json:"items"`
	WarrantyMonths int         `bson:"warrantyMonths" json:"warrantyMonths"`
	TotalAmount    float64     `bson:"totalAmount" json:"totalAmount"`
	Note           string      `bson:"note,omitempty" json:"note,omitempty"`
	QuotedAt       time.Time   `bson:"quotedAt" json:"quotedAt"`
}

// RecomputeTotal rebuilds TotalAmount from scratch: labor price plus the sum
// of accepted items. Pending and rejected items never count.
func (q *Quote) RecomputeTotal() {
	total := q.LaborPrice
	for _, it := range q.Items {
		if it.Status == QuoteItemAccepted {
			total += it.Price * float64(it.Quantity)
		}
	}
	q.TotalAmount = total
}

// PendingItems returns the indexes of items still awaiting a customer decision.
func (q *Quote) PendingItems() []int {
	var idx []int
	for i, it := range q.Items {
		if it.Status == QuoteItemPending {
			idx = append(idx, i)
		}
	}
	return idx
}

// ResolvePending flips every currently pending item to accepted or rejected,
// leaving items resolved in earlier rounds untouched, then recomputes the total.
func (q *Quote) ResolvePending(accept bool) int {
	status := QuoteItemRejected
	if accept {
		status = QuoteItemAccepted
	}
	resolved := 0
	for i := range q.Items {
		if q.Items[i].Status == QuoteItemPending {
			q.Items[i].Status = status
			resolved++
		}
	}
	q.RecomputeTotal()
	return resolved
}
