package server

// StateDelta is the minimal set of changed fields between two consecutive
// snapshots. Scalars appear when they changed, grade maps carry only the
// changed sub-keys, and the pump and queue arrays appear wholesale when any
// element differs.
type StateDelta struct {
	Pumps               *[]Pump    `json:"pumps,omitempty"`
	Queue               *[]Vehicle `json:"queue,omitempty"`
	VehiclesServed      *int       `json:"vehiclesServed,omitempty"`
	CarsServed          *int       `json:"carsServed,omitempty"`
	TrucksServed        *int       `json:"trucksServed,omitempty"`
	AverageWaitTime     *float64   `json:"averageWaitTime,omitempty"`
	TotalRevenue        *float64   `json:"totalRevenue,omitempty"`
	IsSimulationRunning *bool      `json:"isSimulationRunning,omitempty"`

	VehiclesAutoRefill                  *bool    `json:"vehiclesAutoRefill,omitempty"`
	TanksAutoRefill                     *bool    `json:"tanksAutoRefill,omitempty"`
	AutoAdjustPrices                    *bool    `json:"autoAdjustPrices,omitempty"`
	VehiclesPerSecond                   *float64 `json:"vehiclesPerSecond,omitempty"`
	ChancePerSecondOfVehicleStartRefill *float64 `json:"chancePerSecondOfVehicleStartRefill,omitempty"`
	QueueSize                           *int     `json:"queueSize,omitempty"`

	FuelDispensed  GradeMap `json:"fuelDispensed,omitempty"`
	FuelCapacity   GradeMap `json:"fuelCapacity,omitempty"`
	RefillingFuels GradeMap `json:"refillingFuels,omitempty"`
	FuelPrices     GradeMap `json:"fuelPrices,omitempty"`
	FuelBuyPrices  GradeMap `json:"fuelBuyPrices,omitempty"`
}

// diffState compares two snapshots and returns the delta, or nil when the
// states are identical.
func diffState(previous, current SimulationState) *StateDelta {
	delta := &StateDelta{}
	changed := false

	if !pumpsEqual(previous.Pumps, current.Pumps) {
		pumps := clonePumps(current.Pumps)
		delta.Pumps = &pumps
		changed = true
	}
	if !queuesEqual(previous.Queue, current.Queue) {
		queue := append([]Vehicle(nil), current.Queue...)
		delta.Queue = &queue
		changed = true
	}

	if previous.VehiclesServed != current.VehiclesServed {
		delta.VehiclesServed = intPtr(current.VehiclesServed)
		changed = true
	}
	if previous.CarsServed != current.CarsServed {
		delta.CarsServed = intPtr(current.CarsServed)
		changed = true
	}
	if previous.TrucksServed != current.TrucksServed {
		delta.TrucksServed = intPtr(current.TrucksServed)
		changed = true
	}
	if previous.AverageWaitTime != current.AverageWaitTime {
		delta.AverageWaitTime = floatPtr(current.AverageWaitTime)
		changed = true
	}
	if previous.TotalRevenue != current.TotalRevenue {
		delta.TotalRevenue = floatPtr(current.TotalRevenue)
		changed = true
	}
	if previous.IsSimulationRunning != current.IsSimulationRunning {
		delta.IsSimulationRunning = boolPtr(current.IsSimulationRunning)
		changed = true
	}
	if previous.VehiclesAutoRefill != current.VehiclesAutoRefill {
		delta.VehiclesAutoRefill = boolPtr(current.VehiclesAutoRefill)
		changed = true
	}
	if previous.TanksAutoRefill != current.TanksAutoRefill {
		delta.TanksAutoRefill = boolPtr(current.TanksAutoRefill)
		changed = true
	}
	if previous.AutoAdjustPrices != current.AutoAdjustPrices {
		delta.AutoAdjustPrices = boolPtr(current.AutoAdjustPrices)
		changed = true
	}
	if previous.VehiclesPerSecond != current.VehiclesPerSecond {
		delta.VehiclesPerSecond = floatPtr(current.VehiclesPerSecond)
		changed = true
	}
	if previous.ChancePerSecondOfVehicleStartRefill != current.ChancePerSecondOfVehicleStartRefill {
		delta.ChancePerSecondOfVehicleStartRefill = floatPtr(current.ChancePerSecondOfVehicleStartRefill)
		changed = true
	}
	if previous.QueueSize != current.QueueSize {
		delta.QueueSize = intPtr(current.QueueSize)
		changed = true
	}

	if sub := diffGradeMap(previous.FuelDispensed, current.FuelDispensed); sub != nil {
		delta.FuelDispensed = sub
		changed = true
	}
	if sub := diffGradeMap(previous.FuelCapacity, current.FuelCapacity); sub != nil {
		delta.FuelCapacity = sub
		changed = true
	}
	if sub := diffGradeMap(previous.RefillingFuels, current.RefillingFuels); sub != nil {
		delta.RefillingFuels = sub
		changed = true
	}
	if sub := diffGradeMap(previous.FuelPrices, current.FuelPrices); sub != nil {
		delta.FuelPrices = sub
		changed = true
	}
	if sub := diffGradeMap(previous.FuelBuyPrices, current.FuelBuyPrices); sub != nil {
		delta.FuelBuyPrices = sub
		changed = true
	}

	if !changed {
		return nil
	}
	return delta
}

func diffGradeMap(previous, current GradeMap) GradeMap {
	var sub GradeMap
	for _, grade := range FuelGrades {
		if previous[grade] != current[grade] {
			if sub == nil {
				sub = make(GradeMap, len(FuelGrades))
			}
			sub[grade] = current[grade]
		}
	}
	return sub
}

func pumpsEqual(a, b []Pump) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !pumpEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func pumpEqual(a, b Pump) bool {
	if a.ID != b.ID || a.Status != b.Status {
		return false
	}
	switch {
	case a.CurrentVehicle == nil && b.CurrentVehicle != nil:
		return false
	case a.CurrentVehicle != nil && b.CurrentVehicle == nil:
		return false
	case a.CurrentVehicle != nil && *a.CurrentVehicle != *b.CurrentVehicle:
		return false
	}
	switch {
	case a.SelectedGasoline == nil && b.SelectedGasoline != nil:
		return false
	case a.SelectedGasoline != nil && b.SelectedGasoline == nil:
		return false
	case a.SelectedGasoline != nil && *a.SelectedGasoline != *b.SelectedGasoline:
		return false
	}
	return true
}

func queuesEqual(a, b []Vehicle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func clonePumps(pumps []Pump) []Pump {
	cloned := make([]Pump, len(pumps))
	for i, pump := range pumps {
		cloned[i] = pump
		if pump.CurrentVehicle != nil {
			vehicle := *pump.CurrentVehicle
			cloned[i].CurrentVehicle = &vehicle
		}
		if pump.SelectedGasoline != nil {
			grade := *pump.SelectedGasoline
			cloned[i].SelectedGasoline = &grade
		}
	}
	return cloned
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }
