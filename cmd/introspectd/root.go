package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "introspectd",
		Short:         "OAuth 2.0 token introspection server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the YAML config file; INTROSPECT_* env vars override it")

	cmd.AddCommand(
		newServeCmd(opts),
		newClientsCmd(opts),
		newTokensCmd(opts),
	)
	return cmd
}
