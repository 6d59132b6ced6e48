package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mirrorsync/internal/wallet"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the wallet key file and show its short address",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		link, err := wallet.Connect(ctx, wallet.NewKeyFile(cfg.Wallet.KeyFile), cfg.Wallet.InstallURL)
		var notInstalled *wallet.NotInstalledError
		if errors.As(err, &notInstalled) {
			return fmt.Errorf("wallet not detected (set wallet.key_file or WALLET_KEY_FILE); get one at %s", notInstalled.InstallURL)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "connected %s\n", link.Label)
		return nil
	},
}
