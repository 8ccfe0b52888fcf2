package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-agency-backoffice/internal/config"
)

const app = "backoffice"

var (
	// Used for flags.
	envFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "backoffice serves the matching and settlement API of a recruitment agency",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg(app + " failed")
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment (missing file is ignored)")

	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

// loadConfig reads the optional dotenv file, then the environment.
// Variables already set in the environment win over the file.
func loadConfig() (config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err == nil {
			log.Debug().Str("file", envFile).Msg("loaded env file")
		}
	}
	return config.Load()
}
