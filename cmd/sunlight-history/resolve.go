package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/sunlight-history/internal/sunlight"
)

func newResolveCmd() *cobra.Command {
	var lat, lon, start, end string

	cmd := &cobra.Command{
		Use:     "resolve",
		Short:   "Resolve one location and date range and print the stored record",
		Example: "  sunlight-history resolve --lat 40.7128 --lon -74.0060 --start 2024-01-01 --end 2024-01-07",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := sunlight.ParseQuery(lat, lon, start, end)
			if err != nil {
				return err
			}

			a, err := newApplication(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.service.Resolve(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}

	cmd.Flags().StringVar(&lat, "lat", "", "latitude in decimal degrees")
	cmd.Flags().StringVar(&lon, "lon", "", "longitude in decimal degrees")
	cmd.Flags().StringVar(&start, "start", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last date (YYYY-MM-DD)")
	for _, name := range []string{"lat", "lon", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApplication(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.service.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
