package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/htmlcache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the fetched-page cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("cache"); err != nil {
			return err
		}

		ctx := cmd.Context()
		cache, err := initCache(ctx)
		if err != nil {
			return err
		}
		if cache == nil {
			return eris.New("cache is disabled (cache.driver none)")
		}
		defer cache.Close() //nolint:errcheck

		n, err := purgeExpired(ctx, cache)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "deleted %d expired entries\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func purgeExpired(ctx context.Context, cache htmlcache.Cache) (int, error) {
	n, err := cache.DeleteExpired(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "purge cache")
	}
	zap.L().Info("cache purged", zap.Int("deleted", n))
	return n, nil
}
