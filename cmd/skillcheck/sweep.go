package main

import (
	"context"
	"time"

	"github.com/lshigami/skillcheck/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire stale invites and attempts and retry deferred billing",
	Long: "Runs the expiry sweeper on its schedule until interrupted. " +
		"With --once a single pass runs and its report is logged.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		once, _ := cmd.Flags().GetBool("once")

		if once {
			var sweeper *service.Sweeper
			app := fx.New(fx.Supply(cfg), coreModule, fx.NopLogger, fx.Populate(&sweeper))
			if err := app.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = app.Stop(stopCtx)
			}()

			report := sweeper.Sweep(cmd.Context())
			log.Info().
				Int("invites_expired", report.InvitesExpired).
				Int("attempts_expired", report.AttemptsExpired).
				Int("billing_settled", report.BillingSettled).
				Int("billing_deferred", report.BillingDeferred).
				Int("failures", report.Failures).
				Msg("Sweep finished")
			return nil
		}

		app := fx.New(
			fx.Supply(cfg),
			coreModule,
			fx.Provide(newScheduler),
			fx.Invoke(startScheduler),
		)
		if err := app.Start(cmd.Context()); err != nil {
			return err
		}
		<-app.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return app.Stop(stopCtx)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().Bool("once", false, "run a single sweep pass and exit")
}
