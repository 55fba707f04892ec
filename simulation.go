package server

import "time"

// advance runs one full update pass and returns the delta between the state
// before and after the tick, or nil when nothing changed.
//
// The pass order is fixed: arrivals, vehicle auto-refill decisions, tank
// auto-refill orders, periodic sell-price adjustment, fuel transfer and
// completion handling, the busy-pump completion sweep, queue dispatch, the
// in-flight refill drain, and finally the periodic crude price walk.
func (w *World) advance(now time.Time) *StateDelta {
	previous := w.state.Clone()

	w.maybeAdmitVehicle()

	if w.state.VehiclesAutoRefill {
		w.autoSelectGrades()
	}
	if w.state.TanksAutoRefill {
		w.autoOrderRefills()
	}

	if w.tick%priceAdjustIntervalTicks == 0 && w.state.AutoAdjustPrices {
		w.adjustSellPrices()
	}

	w.advanceFueling(now)
	w.sweepFinished(now)
	w.dispatchQueue()
	w.drainRefills()

	if w.tick%priceWalkIntervalTicks == 0 {
		w.walkCrudePrice()
	}

	w.tick++
	return diffState(previous, w.state)
}

// updateSettings shallow-merges the provided knobs into the settings.
func (w *World) updateSettings(patch SettingsPatch) {
	if patch.VehiclesAutoRefill != nil {
		w.state.VehiclesAutoRefill = *patch.VehiclesAutoRefill
	}
	if patch.TanksAutoRefill != nil {
		w.state.TanksAutoRefill = *patch.TanksAutoRefill
	}
	if patch.AutoAdjustPrices != nil {
		w.state.AutoAdjustPrices = *patch.AutoAdjustPrices
	}
	if patch.VehiclesPerSecond != nil {
		w.state.VehiclesPerSecond = *patch.VehiclesPerSecond
	}
	if patch.ChancePerSecondOfVehicleStartRefill != nil {
		w.state.ChancePerSecondOfVehicleStartRefill = *patch.ChancePerSecondOfVehicleStartRefill
	}
	if patch.QueueSize != nil {
		w.state.QueueSize = *patch.QueueSize
	}
}

// SettingsPatch carries a partial settings update; nil fields keep their
// current value.
type SettingsPatch struct {
	VehiclesAutoRefill                  *bool    `json:"vehiclesAutoRefill,omitempty"`
	TanksAutoRefill                     *bool    `json:"tanksAutoRefill,omitempty"`
	AutoAdjustPrices                    *bool    `json:"autoAdjustPrices,omitempty"`
	VehiclesPerSecond                   *float64 `json:"vehiclesPerSecond,omitempty"`
	ChancePerSecondOfVehicleStartRefill *float64 `json:"chancePerSecondOfVehicleStartRefill,omitempty"`
	QueueSize                           *int     `json:"queueSize,omitempty"`
}
