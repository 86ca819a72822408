package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// EnvPassword — пароль для login без интерактивного ввода.
const EnvPassword = "ORANGE_PASSWORD"

func newLoginCmd(opts *options) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange username/password for a bearer token",
		Long:  "Prints an access token. The password is taken from " + EnvPassword + ".",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := os.Getenv(EnvPassword)
			if username == "" || password == "" {
				return fmt.Errorf("--username and %s are required", EnvPassword)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			c := newAPIClient(opts.resolveAPIURL(), "")
			tok, raw, err := c.login(ctx, username, password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				_, err = fmt.Fprintln(out, string(raw))
				return err
			}

			_, err = fmt.Fprintln(out, tok.AccessToken)
			return err
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")

	return cmd
}
