package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Writers Guild API and real-time server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	cmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
	)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logrus.WithError(err).Error("server exited")
		os.Exit(1)
	}
}
