package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mirrorsync/internal/transport"
	"mirrorsync/internal/wallet"
	"mirrorsync/internal/waitlist"
	"mirrorsync/pkg/config"
	pkgredis "mirrorsync/pkg/redis"
)

var (
	joinEmail   string
	joinConnect bool
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Submit one email to the waitlist",
	Long: `Validates the email, attaches the connected wallet key if any and
submits exactly once. Exits non-zero unless the submission is accepted.

Example:
  waitlist join --email you@example.com --connect`,
	RunE: runJoin,
}

func init() {
	joinCmd.Flags().StringVarP(&joinEmail, "email", "e", "", "Email address to add")
	joinCmd.Flags().BoolVar(&joinConnect, "connect", false, "Connect the wallet key file before submitting")
	_ = joinCmd.MarkFlagRequired("email")
}

func runJoin(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	tr, closeTransport, err := transport.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeTransport()

	w := wallet.NewKeyFile(cfg.Wallet.KeyFile)
	if joinConnect {
		link, err := wallet.Connect(ctx, w, cfg.Wallet.InstallURL)
		if err != nil {
			// joining without a wallet is still allowed
			fmt.Fprintf(cmd.ErrOrStderr(), "wallet not linked: %v\n", err)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "wallet connected: %s\n", link.Label)
		}
	}

	guard, closeGuard, err := newGuard(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGuard()

	s, err := waitlist.NewSubmitter(waitlist.Options{
		FormID:          cfg.Form.ID,
		Transport:       tr,
		Wallet:          w,
		Guard:           guard,
		IdentityTimeout: cfg.Form.IdentityTimeout,
		Logger:          log,
	})
	if err != nil {
		return err
	}

	return reportOutcome(cmd, s.Submit(ctx, joinEmail))
}

func reportOutcome(cmd *cobra.Command, out waitlist.Outcome) error {
	switch out.Kind {
	case waitlist.Accepted:
		fmt.Fprintln(cmd.OutOrStdout(), "joined the waitlist")
		return nil
	case waitlist.Rejected:
		return errors.New("please enter a valid email address")
	case waitlist.TransportFailure:
		if out.Retryable {
			return fmt.Errorf("could not reach the waitlist (%s), try again: %s", out.Cause, out.Reason)
		}
		return fmt.Errorf("waitlist submission failed: %s", out.Reason)
	default:
		return fmt.Errorf("waitlist submission not sent: %s", out)
	}
}

// newGuard builds the in-flight guard named by cfg.Guard.Kind.
func newGuard(ctx context.Context, cfg *config.Config) (waitlist.Guard, func(), error) {
	switch cfg.Guard.Kind {
	case "", "local":
		return &waitlist.LocalGuard{}, func() {}, nil
	case "redis":
		rdb, err := pkgredis.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis guard unavailable, using local guard", zap.Error(err))
			return &waitlist.LocalGuard{}, func() {}, nil
		}
		return waitlist.NewRedisGuard(rdb, cfg.Form.ID, cfg.Guard.TTL, log), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown guard kind %q", cfg.Guard.Kind)
	}
}
