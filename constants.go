package server

const (
	tickRate = 10 // ticks per second

	initialPumpCount = 3

	defaultQueueSize             = 9
	defaultVehiclesPerSecond     = 0.3
	defaultRefillChancePerSecond = 0.25
	defaultTankLevelLiters       = 500.0
	defaultCrudeOilPrice         = 1.496
	defaultRegularPrice          = 1.744
	defaultMidgradePrice         = 1.853
	defaultPremiumPrice          = 2.019
	defaultDieselPrice           = 1.687

	// Fuel moves one liter per tick, both pump-to-vehicle and
	// tanker-to-station.
	fuelPerTickLiters   = 1.0
	refillPerTickLiters = 1.0

	tankLowWaterLiters  = 400.0
	tankAutoOrderLiters = 1000.0

	// Upfront wholesale cost charged when a tank refill is ordered.
	refillCostFactor = 0.8

	carProbability       = 0.7
	carDieselProbability = 0.2
	carTankMinLiters     = 15
	carTankSpanLiters    = 40
	truckTankMinLiters   = 20
	truckTankSpanLiters  = 80

	priceWalkIntervalTicks   = 10
	priceAdjustIntervalTicks = 100
	maxPriceFluctuation      = 0.05
	crudePriceFloor          = 1.1
	crudePriceCeiling        = 2.1
	buyPriceFactor           = 0.9

	// Exponential smoothing weights for the average wait time.
	waitTimeDecay  = 0.7
	waitTimeWeight = 0.3
)

// TickRate reports the simulation frequency in ticks per second.
func TickRate() int {
	return tickRate
}
