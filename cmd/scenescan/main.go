package main

import (
	"github.com/joho/godotenv"

	"github.com/menta2k/scenescan/cmd/scenescan/cmd"
)

func main() {
	// Load a local .env if present; real environment wins on conflicts.
	_ = godotenv.Load()

	cmd.Execute()
}
