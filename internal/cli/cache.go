package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jrevolver/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the resolution cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url := c.cfg().Cache.RedisURL; url != "" {
				return c.clearRedis(cmd.Context(), url)
			}

			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

func (c *CLI) clearRedis(ctx context.Context, url string) error {
	dialCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	rc, err := cache.NewRedisCache(dialCtx, url)
	if err != nil {
		return err
	}
	defer rc.Close()

	count, err := rc.Clear(ctx)
	if err != nil {
		return err
	}
	printSuccess("Cleared %d cached entries", count)
	printDetail("Redis prefix: %s", cache.DefaultRedisPrefix)
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url := c.cfg().Cache.RedisURL; url != "" {
				fmt.Fprintln(c.Out, url)
				return nil
			}
			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.Out, dir)
			return nil
		},
	}
}
