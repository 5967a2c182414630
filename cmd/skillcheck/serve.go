package main

import (
	"context"
	"time"

	"github.com/lshigami/skillcheck/database"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the expiry sweeper",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		noSweeper, _ := cmd.Flags().GetBool("no-sweeper")

		opts := []fx.Option{
			fx.Supply(cfg),
			coreModule,
			httpModule,
			fx.Invoke(database.Migrate),
			fx.Invoke(startRateLimiter),
			fx.Invoke(RegisterRoutesAndStartServer),
		}
		if !noSweeper {
			opts = append(opts, fx.Provide(newScheduler), fx.Invoke(startScheduler))
		}
		app := fx.New(opts...)

		if err := app.Start(context.Background()); err != nil {
			return err
		}

		sig := <-app.Done()
		log.Info().Str("signal", sig.String()).Msg("Application shutting down gracefully...")

		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return app.Stop(stopCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("no-sweeper", false, "do not schedule the expiry sweeper in this process")
}
