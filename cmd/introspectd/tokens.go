package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
	"github.com/luikyv/go-introspect/internal/config"
	"github.com/luikyv/go-introspect/internal/joseutil"
	"github.com/luikyv/go-introspect/internal/timeutil"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"github.com/spf13/cobra"
)

func newTokensCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Issue and revoke access tokens for testing",
	}
	cmd.AddCommand(newTokensIssueCmd(opts), newTokensRevokeCmd(opts))
	return cmd
}

func newTokensIssueCmd(opts *rootOptions) *cobra.Command {
	var (
		clientID    string
		subject     string
		grantType   string
		authMethods []string
		lifetime    time.Duration
		jwkPath     string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Store a new access token and print its value",
		Long: "Store a new access token in the configured storage. The token is " +
			"opaque unless --jwk is informed, in which case a JWT signed with " +
			"that private key is printed and stored under its \"jti\".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clientID == "" || subject == "" {
				return errors.New("--client-id and --subject are required")
			}
			if lifetime < time.Second {
				return errors.New("--lifetime must be at least one second")
			}

			var jwk *jose.JSONWebKey
			if jwkPath != "" {
				key, err := loadPrivateJWK(jwkPath)
				if err != nil {
					return err
				}
				jwk = &key
			}

			token := &goidc.AccessToken{
				ID:           uuid.NewString(),
				Subject:      subject,
				ClientID:     clientID,
				GrantType:    grantType,
				AuthMethods:  authMethods,
				CreatedAt:    timeutil.Now().Truncate(time.Millisecond),
				LifetimeSecs: int(lifetime / time.Second),
			}

			return withPersistentStores(cmd.Context(), opts, func(cfg *config.Config, st *stores) error {
				value := token.ID
				if jwk != nil {
					signed, err := signAccessToken(token, cfg.Issuer, *jwk)
					if err != nil {
						return err
					}
					value = signed
				}

				if err := st.tokens.Save(cmd.Context(), token); err != nil {
					return fmt.Errorf("could not save the access token: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "client the token was issued to")
	cmd.Flags().StringVar(&subject, "subject", "", "principal the token represents")
	cmd.Flags().StringVar(&grantType, "grant-type", "authorization_code", "grant type recorded for the token")
	cmd.Flags().StringSliceVar(&authMethods, "auth-method", []string{"password"}, "authentication methods, in order")
	cmd.Flags().DurationVar(&lifetime, "lifetime", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&jwkPath, "jwk", "", "path to a private JWK used to sign the token as a JWT")
	return cmd
}

func newTokensRevokeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <token-id>",
		Short: "Remove an access token from the storage",
		Long:  "Remove an access token. For JWTs, inform the \"jti\" claim.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPersistentStores(cmd.Context(), opts, func(_ *config.Config, st *stores) error {
				if err := st.tokens.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("could not revoke the access token: %w", err)
				}
				return nil
			})
		},
	}
}

func loadPrivateJWK(path string) (jose.JSONWebKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jose.JSONWebKey{}, fmt.Errorf("could not read the jwk: %w", err)
	}

	var jwk jose.JSONWebKey
	if err := json.Unmarshal(data, &jwk); err != nil {
		return jose.JSONWebKey{}, fmt.Errorf("could not parse the jwk: %w", err)
	}

	if jwk.IsPublic() || jwk.Algorithm == "" {
		return jose.JSONWebKey{}, errors.New("the jwk must be a private key with the \"alg\" parameter")
	}

	return jwk, nil
}

func signAccessToken(
	token *goidc.AccessToken,
	issuer string,
	jwk jose.JSONWebKey,
) (
	string,
	error,
) {
	claims := jwt.Claims{
		ID:       token.ID,
		Issuer:   issuer,
		Subject:  token.Subject,
		IssuedAt: jwt.NewNumericDate(token.CreatedAt),
		Expiry:   jwt.NewNumericDate(token.ExpiresAt()),
	}
	signed, err := joseutil.Sign(
		jwk,
		(&jose.SignerOptions{}).WithType("at+jwt"),
		claims,
		map[string]any{"client_id": token.ClientID},
	)
	if err != nil {
		return "", fmt.Errorf("could not sign the access token: %w", err)
	}

	return signed, nil
}
