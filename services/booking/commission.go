package booking

// CommissionStrategy computes the platform's cut of a completed booking.
// Pluggable so tiers or promotions can change the math without touching the
// completion flow.
type CommissionStrategy interface {
	Commission(finalPrice float64) float64
}

// FlatRateCommission takes a fixed fraction of the final price.
type FlatRateCommission struct {
	Rate float64
}

// DefaultCommission is the standard platform cut.
var DefaultCommission = FlatRateCommission{Rate: 0.10}

func (f FlatRateCommission) Commission(finalPrice float64) float64 {
	if finalPrice <= 0 {
		return 0
	}
	return finalPrice * f.Rate
}
