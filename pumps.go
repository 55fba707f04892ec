package server

import (
	"context"
	"errors"
	"time"

	"gas-station-sim/server/logging/economy"
	"gas-station-sim/server/logging/lifecycle"
)

// ErrPumpNotFound is returned when a pump id does not match any pump.
var ErrPumpNotFound = errors.New("pump not found")

// ErrPumpBusy is returned when deleting a pump that is serving a vehicle.
var ErrPumpBusy = errors.New("pump is serving a vehicle")

// selectGrade transitions a busy pump with no grade chosen into fueling.
// Any other pump state makes this a no-op; the bool reports whether the
// command applied.
func (w *World) selectGrade(pumpID int, grade FuelGrade) bool {
	idx := w.pumpIndex(pumpID)
	if idx < 0 || !ValidGrade(grade) {
		return false
	}
	pump := &w.state.Pumps[idx]
	if pump.Status != PumpBusy || pump.CurrentVehicle == nil || pump.SelectedGasoline != nil {
		return false
	}
	chosen := grade
	pump.SelectedGasoline = &chosen
	pump.Status = PumpFueling
	return true
}

// autoSelectGrades rolls the vehicle auto-refill knob for every busy pump
// and starts fueling with a compatible grade when it fires.
func (w *World) autoSelectGrades() {
	for i := range w.state.Pumps {
		pump := &w.state.Pumps[i]
		if pump.Status != PumpBusy || pump.CurrentVehicle == nil {
			continue
		}
		if w.rng.Float64() >= w.state.ChancePerSecondOfVehicleStartRefill/tickRate {
			continue
		}
		if pump.CurrentVehicle.TankCapacity-pump.CurrentVehicle.CurrentFuel <= 0 {
			continue
		}
		w.selectGrade(pump.ID, w.pickGrade(pump.CurrentVehicle))
	}
}

// advanceFueling transfers one liter on every fueling pump. A tank already
// at or below zero finalizes the visit with no transfer this tick; a full
// vehicle tank finalizes normally.
func (w *World) advanceFueling(now time.Time) {
	for i := range w.state.Pumps {
		pump := &w.state.Pumps[i]
		if pump.Status != PumpFueling || pump.CurrentVehicle == nil || pump.SelectedGasoline == nil {
			continue
		}
		grade := *pump.SelectedGasoline

		if w.state.FuelCapacity[grade] <= 0 {
			w.state.FuelCapacity[grade] = 0
			w.finishRefueling(pump, now)
			continue
		}

		pump.CurrentVehicle.CurrentFuel += fuelPerTickLiters
		w.state.FuelCapacity[grade] -= fuelPerTickLiters
		w.state.FuelDispensed[grade] += fuelPerTickLiters

		if pump.CurrentVehicle.CurrentFuel >= pump.CurrentVehicle.TankCapacity {
			w.finishRefueling(pump, now)
		}
	}
}

// sweepFinished finalizes busy pumps whose attached vehicle somehow already
// holds a full tank, so no pump can wedge with a satisfied customer.
func (w *World) sweepFinished(now time.Time) {
	for i := range w.state.Pumps {
		pump := &w.state.Pumps[i]
		if pump.Status != PumpBusy || pump.CurrentVehicle == nil {
			continue
		}
		if pump.CurrentVehicle.CurrentFuel >= pump.CurrentVehicle.TankCapacity {
			w.finishRefueling(pump, now)
		}
	}
}

// finishRefueling performs the shared visit bookkeeping: served counters,
// revenue, smoothed wait time, pump reset, and the refuelingComplete event.
func (w *World) finishRefueling(pump *Pump, now time.Time) {
	vehicle := pump.CurrentVehicle
	if vehicle == nil {
		return
	}

	w.state.VehiclesServed++
	if vehicle.Kind == KindCar {
		w.state.CarsServed++
	} else {
		w.state.TrucksServed++
	}

	var income float64
	var grade string
	if pump.SelectedGasoline != nil {
		income = vehicle.CurrentFuel * w.state.FuelPrices[*pump.SelectedGasoline]
		grade = string(*pump.SelectedGasoline)
	}
	w.state.TotalRevenue += income

	waitMinutes := now.Sub(time.UnixMilli(vehicle.ArrivalTime)).Minutes()
	w.totalWaitTime += waitMinutes
	w.state.AverageWaitTime = waitTimeDecay*w.state.AverageWaitTime + waitTimeWeight*waitMinutes

	liters := vehicle.CurrentFuel
	pump.Status = PumpIdle
	pump.CurrentVehicle = nil
	pump.SelectedGasoline = nil

	w.emit(Event{Kind: EventRefuelingComplete, PumpID: pump.ID, Income: income})
	economy.RefuelingFinished(context.Background(), w.publisher, w.tick, pumpRef(pump.ID),
		economy.RefuelingFinishedPayload{VehicleID: vehicle.ID, Grade: grade, Liters: liters, Income: income},
		nil,
	)
}

// dispatchQueue attaches queued vehicles to idle pumps: the vehicle always
// pops from the queue head, the pump is drawn uniformly at random from the
// remaining idle set.
func (w *World) dispatchQueue() {
	idle := make([]int, 0, len(w.state.Pumps))
	for i := range w.state.Pumps {
		if w.state.Pumps[i].Status == PumpIdle {
			idle = append(idle, i)
		}
	}

	for len(idle) > 0 && len(w.state.Queue) > 0 {
		pick := w.rng.Intn(len(idle))
		pumpIdx := idle[pick]

		vehicle := w.state.Queue[0]
		w.state.Queue = w.state.Queue[1:]

		w.state.Pumps[pumpIdx].Status = PumpBusy
		w.state.Pumps[pumpIdx].CurrentVehicle = &vehicle

		idle = append(idle[:pick], idle[pick+1:]...)
	}
}

// createPump appends a new idle pump. Ids are computed as count+1, so an id
// freed by a mid-list deletion can be handed out again.
func (w *World) createPump() Pump {
	pump := Pump{ID: len(w.state.Pumps) + 1, Status: PumpIdle}
	w.state.Pumps = append(w.state.Pumps, pump)
	lifecycle.PumpCreated(context.Background(), w.publisher, w.tick, pumpRef(pump.ID))
	return pump
}

// deletePump removes a pump. A pump serving a vehicle is refused rather
// than orphaning its visit.
func (w *World) deletePump(pumpID int) error {
	idx := w.pumpIndex(pumpID)
	if idx < 0 {
		return ErrPumpNotFound
	}
	if w.state.Pumps[idx].Status != PumpIdle {
		return ErrPumpBusy
	}
	w.state.Pumps = append(w.state.Pumps[:idx], w.state.Pumps[idx+1:]...)
	lifecycle.PumpDeleted(context.Background(), w.publisher, w.tick, pumpRef(pumpID))
	return nil
}
