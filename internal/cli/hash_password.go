package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/orange-copywriter/internal/auth"
)

// newHashPasswordCmd печатает bcrypt-хэш для auth.users[].password_hash.
// Пароль читается из stdin (первая строка), чтобы не попадать в историю shell.
func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for auth.users[].password_hash",
		Long:  "Reads a password from the first line of stdin and prints its bcrypt hash.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := bufio.NewScanner(cmd.InOrStdin())
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				return errors.New("password is empty")
			}

			pw := strings.TrimRight(sc.Text(), "\r")

			hash, err := auth.HashPassword(pw)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}
