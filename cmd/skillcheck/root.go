package main

import (
	"fmt"

	"github.com/lshigami/skillcheck/config"
	"github.com/lshigami/skillcheck/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const app = "skillcheck"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "skillcheck runs technical assessments billed against prepaid company credits",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "env-style config file (default is .env in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// loadConfig reads configuration and sets up the global logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}
