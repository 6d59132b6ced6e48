package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mirrorsync/pkg/config"
	"mirrorsync/pkg/logger"
)

var (
	configEnv string
	configDir string
	formID    string
	verbose   bool
	timeout   time.Duration

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "waitlist",
	Short: "Mirror Sync waitlist client",
	Long: `Submits waitlist sign-ups to the configured backend.

The backend is chosen by transport.kind in config/<env>.yaml
(http, local, redis, postgres, amqp) and can be overridden with
WAITLIST_TRANSPORT.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configEnv, configDir)
		if err != nil {
			return err
		}
		if formID != "" {
			cfg.Form.ID = formID
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		log = logger.New(cfg.Log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configEnv, "env", config.GetConfigEnv(), "Config environment (CONFIG_ENV)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.GetEnv("CONFIG_DIR", "config"), "Config directory (CONFIG_DIR)")
	rootCmd.PersistentFlags().StringVar(&formID, "form", "", "Form instance id (overrides form.id)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall deadline for the command")

	rootCmd.AddCommand(joinCmd, connectCmd, listCmd, sinkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
