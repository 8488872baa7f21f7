package main

import (
	"context"
	"log"

	"fog-and-fang/server/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
