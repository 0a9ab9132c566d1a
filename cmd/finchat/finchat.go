// Package finchatcmder
package finchatcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/finpersona/finchat/cmd/finchat/ask"
	chatcmder "github.com/finpersona/finchat/cmd/finchat/chat"
	configcmder "github.com/finpersona/finchat/cmd/finchat/config"
	logscmder "github.com/finpersona/finchat/cmd/finchat/logs"
	servecmder "github.com/finpersona/finchat/cmd/finchat/serve"
	versioncmder "github.com/finpersona/finchat/cmd/version"
)

const finchatLongDesc string = `Finchat is a personal-finance advisor you can chat with.

Run the service using:
  finchat serve        Run the advice service

Talk to the advisor using:
  finchat chat         Interactive advisor session
  finchat ask          Ask a single question

Responses stream in word by word; each answer carries insight tags for the
financial topics it touched.`

const finchatShortDesc string = "Finchat - Personal Finance Advisor"

func NewFinchatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finchat",
		Short: finchatShortDesc,
		Long:  finchatLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing the .finchat config (default: ./.finchat or ~/.finchat)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(logscmder.NewLogsCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
