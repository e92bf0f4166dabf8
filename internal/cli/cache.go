package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pampasroute/internal/config"
	"github.com/matzehuels/pampasroute/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the street directions cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached directions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if cfg.Cache.Kind != "file" {
				printWarning("Cache kind %q is not cleared by pampasroute", cfg.Cache.Kind)
				printDetail("Redis entries expire after routing.ttl (%s)", cfg.Routing.TTL.Std())
				return nil
			}

			count, dir, err := clearFileCache(cfg.Cache.Dir)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// clearFileCache empties the file cache rooted at dir.
func clearFileCache(dir string) (int, string, error) {
	cc, err := cache.NewFileCache(dir)
	if err != nil {
		return 0, dir, err
	}
	fc := cc.(*cache.FileCache)
	n, err := fc.Clear()
	return n, fc.Dir(), err
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			fmt.Println(cfg.Cache.Dir)
			return nil
		},
	}
}
