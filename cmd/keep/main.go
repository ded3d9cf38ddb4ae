package main

import (
	"log"

	"github.com/keepdeck/keep/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ keep failed to start: %v", err)
	}
}
