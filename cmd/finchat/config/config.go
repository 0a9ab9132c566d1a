// Package configcmder provides the config command for managing persistent
// finchat configuration stored in the .finchat/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent finchat configuration.

Configuration is stored as config.toml in the .finchat/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  service.listen, service.log_file,
  client.target, client.user, client.connect_timeout_ms,
  stream.chunk_delay_ms

Use subcommands to get, set, or list configuration values:
  finchat config set <key> <value>    Set a configuration value
  finchat config get <key>            Get a configuration value
  finchat config list                 List all configuration values

Examples:
  finchat config set client.user alice
  finchat config set stream.chunk_delay_ms 100
  finchat config get client.target
  finchat config list`

const configShortDesc string = "Manage persistent finchat configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
