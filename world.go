package server

import (
	"math/rand"
	"time"

	"gas-station-sim/server/logging"
)

// FuelGrade identifies one of the four station fuel types. The string
// values double as the wire vocabulary for every grade-indexed object.
type FuelGrade string

const (
	GradeRegular  FuelGrade = "regular"
	GradeMidgrade FuelGrade = "midgrade"
	GradePremium  FuelGrade = "premium"
	GradeDiesel   FuelGrade = "diesel"
)

// FuelGrades lists every grade in canonical order.
var FuelGrades = []FuelGrade{GradeRegular, GradeMidgrade, GradePremium, GradeDiesel}

// ValidGrade reports whether the given grade is one of the four known types.
func ValidGrade(grade FuelGrade) bool {
	switch grade {
	case GradeRegular, GradeMidgrade, GradePremium, GradeDiesel:
		return true
	}
	return false
}

// GradeMap holds one value per fuel grade.
type GradeMap map[FuelGrade]float64

func (m GradeMap) clone() GradeMap {
	cloned := make(GradeMap, len(m))
	for grade, value := range m {
		cloned[grade] = value
	}
	return cloned
}

func zeroGradeMap() GradeMap {
	return GradeMap{GradeRegular: 0, GradeMidgrade: 0, GradePremium: 0, GradeDiesel: 0}
}

// VehicleKind distinguishes cars from trucks for the served counters.
type VehicleKind string

const (
	KindCar   VehicleKind = "Car"
	KindTruck VehicleKind = "Truck"
)

// FuelCompatibility constrains which grades a vehicle can take.
type FuelCompatibility string

const (
	FuelGas    FuelCompatibility = "Gas"
	FuelDiesel FuelCompatibility = "Diesel"
)

// Vehicle is a customer waiting in the queue or attached to a pump.
type Vehicle struct {
	ID           string            `json:"id"`
	Kind         VehicleKind       `json:"type"`
	FuelType     FuelCompatibility `json:"fuelType"`
	CurrentFuel  float64           `json:"currentFuel"`
	TankCapacity float64           `json:"tankCapacity"`
	ArrivalTime  int64             `json:"arrivalTime"`
}

// PumpStatus tracks the per-pump fueling state machine.
type PumpStatus string

const (
	PumpIdle    PumpStatus = "idle"
	PumpBusy    PumpStatus = "busy"
	PumpFueling PumpStatus = "fueling"
)

// Pump is a single dispenser. CurrentVehicle is non-nil exactly while the
// pump is busy or fueling; SelectedGasoline is non-nil only while fueling.
type Pump struct {
	ID               int        `json:"id"`
	Status           PumpStatus `json:"status"`
	CurrentVehicle   *Vehicle   `json:"currentVehicle"`
	SelectedGasoline *FuelGrade `json:"selectedGasoline"`
}

// SimulationState is the complete observable world, serialized as the
// stateUpdate payload.
type SimulationState struct {
	Pumps               []Pump    `json:"pumps"`
	Queue               []Vehicle `json:"queue"`
	VehiclesServed      int       `json:"vehiclesServed"`
	CarsServed          int       `json:"carsServed"`
	TrucksServed        int       `json:"trucksServed"`
	AverageWaitTime     float64   `json:"averageWaitTime"`
	TotalRevenue        float64   `json:"totalRevenue"`
	IsSimulationRunning bool      `json:"isSimulationRunning"`

	VehiclesAutoRefill                  bool    `json:"vehiclesAutoRefill"`
	TanksAutoRefill                     bool    `json:"tanksAutoRefill"`
	AutoAdjustPrices                    bool    `json:"autoAdjustPrices"`
	VehiclesPerSecond                   float64 `json:"vehiclesPerSecond"`
	ChancePerSecondOfVehicleStartRefill float64 `json:"chancePerSecondOfVehicleStartRefill"`
	QueueSize                           int     `json:"queueSize"`

	FuelDispensed  GradeMap `json:"fuelDispensed"`
	FuelCapacity   GradeMap `json:"fuelCapacity"`
	RefillingFuels GradeMap `json:"refillingFuels"`
	FuelPrices     GradeMap `json:"fuelPrices"`
	FuelBuyPrices  GradeMap `json:"fuelBuyPrices"`
}

// Clone deep-copies the state so a snapshot survives later tick mutations.
func (s SimulationState) Clone() SimulationState {
	cloned := s
	cloned.Pumps = make([]Pump, len(s.Pumps))
	for i, pump := range s.Pumps {
		cloned.Pumps[i] = pump
		if pump.CurrentVehicle != nil {
			vehicle := *pump.CurrentVehicle
			cloned.Pumps[i].CurrentVehicle = &vehicle
		}
		if pump.SelectedGasoline != nil {
			grade := *pump.SelectedGasoline
			cloned.Pumps[i].SelectedGasoline = &grade
		}
	}
	cloned.Queue = append([]Vehicle(nil), s.Queue...)
	cloned.FuelDispensed = s.FuelDispensed.clone()
	cloned.FuelCapacity = s.FuelCapacity.clone()
	cloned.RefillingFuels = s.RefillingFuels.clone()
	cloned.FuelPrices = s.FuelPrices.clone()
	cloned.FuelBuyPrices = s.FuelBuyPrices.clone()
	return cloned
}

// World owns the authoritative simulation state. It is not safe for
// concurrent use; the Hub serializes every tick and command under its lock.
type World struct {
	state         SimulationState
	crudeOilPrice float64
	tick          uint64
	totalWaitTime float64
	payments      []PaymentRequest
	pending       []Event

	rng       *rand.Rand
	now       func() time.Time
	publisher logging.Publisher
}

type worldConfig struct {
	rng       *rand.Rand
	now       func() time.Time
	publisher logging.Publisher
}

func newWorld(cfg worldConfig) *World {
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.publisher == nil {
		cfg.publisher = logging.NopPublisher()
	}
	w := &World{
		rng:       cfg.rng,
		now:       cfg.now,
		publisher: cfg.publisher,
	}
	w.reset()
	return w
}

// reset restores the canonical initial configuration: three idle pumps, an
// empty queue, zeroed counters, full tanks, and default prices. The running
// flag survives so a reset mid-run does not pause the scheduler.
func (w *World) reset() {
	running := w.state.IsSimulationRunning
	w.crudeOilPrice = defaultCrudeOilPrice
	w.tick = 1
	w.totalWaitTime = 0
	w.payments = nil

	pumps := make([]Pump, initialPumpCount)
	for i := range pumps {
		pumps[i] = Pump{ID: i + 1, Status: PumpIdle}
	}

	w.state = SimulationState{
		Pumps:               pumps,
		Queue:               make([]Vehicle, 0),
		IsSimulationRunning: running,

		VehiclesPerSecond:                   defaultVehiclesPerSecond,
		ChancePerSecondOfVehicleStartRefill: defaultRefillChancePerSecond,
		QueueSize:                           defaultQueueSize,

		FuelDispensed: zeroGradeMap(),
		FuelCapacity: GradeMap{
			GradeRegular:  defaultTankLevelLiters,
			GradeMidgrade: defaultTankLevelLiters,
			GradePremium:  defaultTankLevelLiters,
			GradeDiesel:   defaultTankLevelLiters,
		},
		RefillingFuels: zeroGradeMap(),
		FuelPrices: GradeMap{
			GradeRegular:  defaultRegularPrice,
			GradeMidgrade: defaultMidgradePrice,
			GradePremium:  defaultPremiumPrice,
			GradeDiesel:   defaultDieselPrice,
		},
		FuelBuyPrices: w.buyPrices(),
	}
}

func (w *World) pumpIndex(pumpID int) int {
	for i := range w.state.Pumps {
		if w.state.Pumps[i].ID == pumpID {
			return i
		}
	}
	return -1
}

// drainEvents hands back the domain events accumulated since the last drain.
func (w *World) drainEvents() []Event {
	events := w.pending
	w.pending = nil
	return events
}

func (w *World) emit(event Event) {
	w.pending = append(w.pending, event)
}
