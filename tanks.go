package server

import (
	"context"
	"strconv"

	"gas-station-sim/server/logging"
	"gas-station-sim/server/logging/economy"
)

// refillTank schedules a delivery for one grade. The full amount lands in
// the in-flight bucket immediately and drains into the tank one liter per
// tick; the wholesale cost is charged up front.
func (w *World) refillTank(amount float64, grade FuelGrade) {
	cost := refillCostFactor * amount * w.state.FuelBuyPrices[grade]
	w.state.RefillingFuels[grade] += amount
	w.state.TotalRevenue -= cost

	economy.TankRefillOrdered(context.Background(), w.publisher, w.tick,
		logging.EntityRef{ID: string(grade), Kind: logging.EntityKindTank},
		economy.TankRefillOrderedPayload{Grade: string(grade), Liters: amount, Cost: cost},
		nil,
	)
}

// autoOrderRefills tops up every tank that fell below the low-water mark
// and has no delivery already in flight.
func (w *World) autoOrderRefills() {
	for _, grade := range FuelGrades {
		if w.state.FuelCapacity[grade] < tankLowWaterLiters && w.state.RefillingFuels[grade] == 0 {
			w.refillTank(tankAutoOrderLiters, grade)
		}
	}
}

// drainRefills moves one liter per tick from each in-flight delivery into
// the usable tank. This runs every tick regardless of the auto-refill knob.
func (w *World) drainRefills() {
	for _, grade := range FuelGrades {
		if w.state.RefillingFuels[grade] > 0 {
			w.state.RefillingFuels[grade] -= refillPerTickLiters
			w.state.FuelCapacity[grade] += refillPerTickLiters
		}
	}
}

func pumpRef(pumpID int) logging.EntityRef {
	return logging.EntityRef{ID: strconv.Itoa(pumpID), Kind: logging.EntityKindPump}
}
