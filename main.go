package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"order-analytics/pkg/cli"
)

func main() {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
