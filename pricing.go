package server

import "math"

// gradeMargins are the fixed per-grade multipliers applied to the crude oil
// reference price. Diesel carries the smallest margin, premium the largest.
var gradeMargins = GradeMap{
	GradeRegular:  1.1,
	GradeMidgrade: 1.2,
	GradePremium:  1.3,
	GradeDiesel:   1.05,
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}

// sellPrice derives the fair sell price for a grade from the current crude
// oil reference price.
func (w *World) sellPrice(grade FuelGrade) float64 {
	return round3(w.crudeOilPrice * gradeMargins[grade])
}

// buyPrice is the wholesale price for a grade, always strictly below the
// sell price for the same reference.
func (w *World) buyPrice(grade FuelGrade) float64 {
	return round3(buyPriceFactor * w.crudeOilPrice * gradeMargins[grade])
}

func (w *World) buyPrices() GradeMap {
	prices := make(GradeMap, len(FuelGrades))
	for _, grade := range FuelGrades {
		prices[grade] = w.buyPrice(grade)
	}
	return prices
}

// walkCrudePrice applies the bounded random multiplicative walk to the
// reference price and recomputes the buy prices. The fluctuation sign is
// forced upward below the floor and downward above the ceiling so the
// reference cannot drift away.
func (w *World) walkCrudePrice() {
	fluctuation := (w.rng.Float64() - 0.5) * 2
	if w.crudeOilPrice < crudePriceFloor {
		fluctuation = math.Abs(fluctuation)
	}
	if w.crudeOilPrice > crudePriceCeiling {
		fluctuation = -math.Abs(fluctuation)
	}
	w.crudeOilPrice *= 1 + fluctuation*maxPriceFluctuation
	w.state.FuelBuyPrices = w.buyPrices()
}

// adjustSellPrices overwrites every sell price with its freshly computed
// fair price, collapsing any manual override.
func (w *World) adjustSellPrices() {
	for _, grade := range FuelGrades {
		w.state.FuelPrices[grade] = w.sellPrice(grade)
	}
}

// updatePrices shallow-merges the provided sell prices and returns the
// resulting full price map.
func (w *World) updatePrices(patch PricesPatch) GradeMap {
	if patch.Regular != nil {
		w.state.FuelPrices[GradeRegular] = *patch.Regular
	}
	if patch.Midgrade != nil {
		w.state.FuelPrices[GradeMidgrade] = *patch.Midgrade
	}
	if patch.Premium != nil {
		w.state.FuelPrices[GradePremium] = *patch.Premium
	}
	if patch.Diesel != nil {
		w.state.FuelPrices[GradeDiesel] = *patch.Diesel
	}
	return w.state.FuelPrices.clone()
}

// PricesPatch carries a partial sell-price update; nil fields are left
// untouched.
type PricesPatch struct {
	Regular  *float64 `json:"regular,omitempty"`
	Midgrade *float64 `json:"midgrade,omitempty"`
	Premium  *float64 `json:"premium,omitempty"`
	Diesel   *float64 `json:"diesel,omitempty"`
}
