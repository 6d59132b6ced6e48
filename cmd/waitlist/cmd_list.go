package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mirrorsync/internal/transport"
	"mirrorsync/internal/wallet"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show entries stored by the local transport",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		local, err := transport.OpenLocal(ctx, cfg.Transport.Local.Path, cfg.Transport.Local.List)
		if err != nil {
			return err
		}
		defer local.Close()

		records, err := local.List(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SUBMITTED\tFORM\tEMAIL\tWALLET")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				r.SubmittedAt.Local().Format(time.DateTime), r.FormID, r.Email, wallet.FormatAddress(r.Identity, 4))
		}
		return tw.Flush()
	},
}
