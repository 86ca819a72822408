package cli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/orange-copywriter/internal/models"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var fields []string

	kinds := make([]string, 0, len(models.Kinds()))
	for _, k := range models.Kinds() {
		kinds = append(kinds, string(k))
	}

	cmd := &cobra.Command{
		Use:       "generate <kind>",
		Short:     "Generate content of the given kind",
		Long:      "Kinds: " + strings.Join(kinds, ", ") + ".\nFields are passed as --field key=value, e.g. --field client=Luxofy.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := models.Kind(args[0])
			if !kind.Valid() {
				return fmt.Errorf("unknown kind %q (want one of %s)", args[0], strings.Join(kinds, ", "))
			}

			body, err := parseFields(fields)
			if err != nil {
				return err
			}

			token := opts.resolveToken()
			if token == "" {
				return errNoToken
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			c := newAPIClient(opts.resolveAPIURL(), token)
			res, raw, err := c.generate(ctx, string(kind), body)
			if err != nil {
				return err
			}

			if opts.json {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Result)
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "request field as key=value (repeatable)")

	return cmd
}

func newHistoryCmd(opts *options) *cobra.Command {
	var (
		industry string
		client   string
		purpose  string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent strategy chat turns (newest first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token := opts.resolveToken()
			if token == "" {
				return errNoToken
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			q := url.Values{
				"industry": {industry},
				"client":   {client},
				"purpose":  {purpose},
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}

			raw, err := newAPIClient(opts.resolveAPIURL(), token).conversations(ctx, q)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		},
	}

	cmd.Flags().StringVar(&industry, "industry", "", "conversation industry")
	cmd.Flags().StringVar(&client, "client", "", "client id")
	cmd.Flags().StringVar(&purpose, "purpose", "", "conversation purpose")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of turns (server default when 0)")

	return cmd
}

// parseFields разбирает key=value; ключ не пустой, повтор ключа — ошибка.
func parseFields(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))

	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("bad --field %q: want key=value", kv)
		}
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("duplicate --field %q", k)
		}
		out[k] = v
	}

	return out, nil
}
