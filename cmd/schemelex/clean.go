package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"schemelex/internal/driver"
)

func newCleanCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the token cache",
		Long:  "Remove every cached tokenization result under $XDG_CACHE_HOME/schemelex (or ~/.cache/schemelex).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := driver.OpenTokenCache(cacheApp)
			if err != nil {
				return fmt.Errorf("failed to open token cache: %w", err)
			}
			if err := cache.DropAll(); err != nil {
				return fmt.Errorf("failed to remove %q: %w", cache.Dir(), err)
			}
			quiet, _ := cmd.Flags().GetBool("quiet")
			if !quiet {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cache.Dir())
			}
			return nil
		},
	}
}
