package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:   "titan",
		Short: "titan runs the wallet-intelligence pipeline's workers and query API",
	}

	root.AddCommand(
		newListenCmd(log),
		newDecodeCmd(log),
		newRiskCmd(log),
		newProfileCmd(log),
		newMeritCmd(log),
		newAlertCmd(log),
		newOutcomesCmd(log),
		newAutopilotCmd(log),
		newServeCmd(log),
		newStatusCmd(log),
	)

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("titan exited with error")
	}
}
