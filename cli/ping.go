package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/intrence/catalog/engine/infra/postgres"
	"github.com/intrence/catalog/pkg/logger"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"
)

// PingCmd checks that one tier can reach the database.
func PingCmd() *cobra.Command {
	var (
		tierName string
		retries  uint64
	)
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Open a tier and run a trivial query through it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tier, err := postgres.ParseTier(tierName)
			if err != nil {
				return err
			}
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return pingWithRetry(cmd, a, tier, retries)
		},
	}
	cmd.Flags().StringVar(&tierName, "tier", postgres.TierTransaction.String(), "Tier to ping (admin, session, transaction)")
	cmd.Flags().Uint64Var(&retries, "retries", 0, "Retry a failed ping this many times with exponential backoff")
	return cmd
}

// pingWithRetry retries connection failures. A failed build is not cached,
// so each attempt constructs the source again. Credential and property
// errors are permanent.
func pingWithRetry(cmd *cobra.Command, a *app, tier postgres.Tier, retries uint64) error {
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(500*time.Millisecond))
	return retry.Do(a.ctx, backoff, func(_ context.Context) error {
		err := runPing(cmd, a, tier)
		if err == nil || !retryablePingError(err) {
			return err
		}
		logger.FromContext(a.ctx).Warn("Ping failed", "tier", tier, "error", err)
		return retry.RetryableError(err)
	})
}

func retryablePingError(err error) bool {
	var (
		missing *postgres.MissingCredentialError
		prop    *postgres.InvalidConnectionPropertyError
	)
	return !errors.As(err, &missing) && !errors.As(err, &prop) && !errors.Is(err, postgres.ErrManagerClosed)
}

func runPing(cmd *cobra.Command, a *app, tier postgres.Tier) error {
	start := time.Now()
	src, err := a.manager.Pool(a.ctx, a.desc, tier)
	if err != nil {
		return err
	}
	db, release, err := src.Acquire(a.ctx)
	if err != nil {
		return fmt.Errorf("acquiring from %s: %w", src.Name(), err)
	}
	defer release()
	var one int
	if err := db.QueryRow(a.ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("querying through %s: %w", src.Name(), err)
	}
	elapsed := time.Since(start)
	logger.FromContext(a.ctx).Debug("Ping succeeded", "pool", src.Name(), "tier", tier, "elapsed", elapsed)
	fmt.Fprintf(cmd.OutOrStdout(), "%s ok (%s, port %d) in %s\n", tier, src.Name(), a.desc.Port(tier), elapsed.Round(time.Millisecond))
	return nil
}
