package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show storage statistics for every configured commune",
		Action: func(ctx context.Context, c *cli.Command) error {
			return showStats(c.String("config"))
		},
	}
}

func showStats(configPath string) error {
	cfg, manager, err := loadEnvironment(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(); err != nil {
			fmt.Printf("Warning: failed to close storage manager: %v\n", err)
		}
	}()

	// Open every configured commune so the aggregate covers them all.
	for _, slug := range cfg.ListCommunes() {
		if _, err := manager.GetStorage(slug); err != nil {
			return fmt.Errorf("opening storage for %s: %w", slug, err)
		}
	}

	stats, err := manager.Stats()
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	formatStats(stats)
	return nil
}
