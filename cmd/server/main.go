package main

import (
	"context"
	"log"

	"gas-station-sim/server/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
