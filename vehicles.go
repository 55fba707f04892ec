package server

import (
	"math"

	"github.com/google/uuid"
)

// maybeAdmitVehicle rolls the arrival process for one tick and appends a
// fresh vehicle to the queue tail when it fires and there is room.
func (w *World) maybeAdmitVehicle() {
	if len(w.state.Queue) >= w.state.QueueSize {
		return
	}
	if w.rng.Float64() >= w.state.VehiclesPerSecond/tickRate {
		return
	}
	w.state.Queue = append(w.state.Queue, w.newVehicle())
}

func (w *World) newVehicle() Vehicle {
	kind := KindTruck
	if w.rng.Float64() < carProbability {
		kind = KindCar
	}

	var capacity float64
	compatibility := FuelDiesel
	if kind == KindCar {
		capacity = math.Floor(w.rng.Float64()*carTankSpanLiters) + carTankMinLiters
		if w.rng.Float64() >= carDieselProbability {
			compatibility = FuelGas
		}
	} else {
		capacity = math.Floor(w.rng.Float64()*truckTankSpanLiters) + truckTankMinLiters
	}

	return Vehicle{
		ID:           uuid.NewString(),
		Kind:         kind,
		FuelType:     compatibility,
		TankCapacity: capacity,
		ArrivalTime:  w.now().UnixMilli(),
	}
}

// pickGrade chooses a grade the vehicle can take, used by the vehicle
// auto-refill knob. Diesel vehicles always take diesel; gas vehicles split
// 70/20/10 across regular, midgrade, premium.
func (w *World) pickGrade(vehicle *Vehicle) FuelGrade {
	if vehicle.FuelType == FuelDiesel {
		return GradeDiesel
	}
	draw := w.rng.Float64()
	switch {
	case draw < 0.7:
		return GradeRegular
	case draw < 0.9:
		return GradeMidgrade
	default:
		return GradePremium
	}
}
