package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

// @title Skillcheck Assessment API
// @version 1.0
// @description Assessment templates, invites, timed attempts and prepaid credit reservations.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
