package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/luikyv/go-introspect/internal/config"
	"github.com/luikyv/go-introspect/internal/hashutil"
	"github.com/luikyv/go-introspect/internal/strutil"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"github.com/spf13/cobra"
)

const generatedSecretLength = 64

func newClientsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage the clients allowed to introspect tokens",
	}
	cmd.AddCommand(newClientsAddCmd(opts))
	return cmd
}

func newClientsAddCmd(opts *rootOptions) *cobra.Command {
	var (
		id        string
		secret    string
		serviceID string
		name      string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a client and print its credentials",
		Long: "Register a client in the configured storage. The client id and " +
			"secret are generated when not informed. The secret is printed once " +
			"and only its bcrypt hash is stored.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if serviceID == "" {
				return errors.New("--service-id is required")
			}
			if id == "" {
				id = uuid.NewString()
			}
			if secret == "" {
				secret = strutil.Random(generatedSecretLength)
			}

			hashedSecret, err := hashutil.BCryptHash(secret)
			if err != nil {
				return fmt.Errorf("could not hash the client secret: %w", err)
			}

			client := &goidc.Client{
				ID:           id,
				HashedSecret: hashedSecret,
				ServiceID:    serviceID,
				Name:         name,
			}
			return withPersistentStores(cmd.Context(), opts, func(_ *config.Config, st *stores) error {
				if err := st.clients.Save(cmd.Context(), client); err != nil {
					return fmt.Errorf("could not save the client: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "client_id: %s\nclient_secret: %s\n", client.ID, secret)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "client id, a random uuid by default")
	cmd.Flags().StringVar(&secret, "secret", "", "client secret, generated by default")
	cmd.Flags().StringVar(&serviceID, "service-id", "", "identifier of the service, returned as the token audience")
	cmd.Flags().StringVar(&name, "name", "", "human readable name")
	return cmd
}
