// Package cli — команды orangectl: выпуск хэшей паролей для конфигурации
// и клиент к HTTP API (логин, генерация, история).
package cli

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Переменные окружения CLI.
const (
	EnvAPIURL = "ORANGE_API_URL"
	EnvToken  = "ORANGE_TOKEN"
)

const defaultAPIURL = "http://localhost:8000"

type options struct {
	apiURL  string
	token   string
	timeout time.Duration
	json    bool
}

// resolveAPIURL: флаг -> ORANGE_API_URL -> значение по умолчанию.
func (o *options) resolveAPIURL() string {
	if o.apiURL != "" {
		return o.apiURL
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		return v
	}
	return defaultAPIURL
}

// resolveToken: флаг -> ORANGE_TOKEN.
func (o *options) resolveToken() string {
	if o.token != "" {
		return o.token
	}
	return os.Getenv(EnvToken)
}

// NewRootCmd собирает дерево команд. in — источник пароля для hash-password.
func NewRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "orangectl",
		Short: "CLI for the Orange copywriting API",
		Long: `orangectl works with the Orange copywriting API.

Environment Variables:
  ORANGE_API_URL  API base URL (default: http://localhost:8000)
  ORANGE_TOKEN    bearer token for generate/history`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "API base URL (overrides "+EnvAPIURL+")")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token (overrides "+EnvToken+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 3*time.Minute, "request timeout")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print raw JSON")

	root.AddCommand(
		newHashPasswordCmd(),
		newLoginCmd(opts),
		newGenerateCmd(opts),
		newHistoryCmd(opts),
	)

	return root
}
