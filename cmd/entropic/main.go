package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/cli"
)

func main() {
	// A missing .env is fine; settings may come from the config file or the
	// environment directly.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
