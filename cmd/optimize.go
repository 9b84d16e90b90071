package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// OptimizeCommand creates the optimize command
func OptimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Optimize the commune databases",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "analyze",
				Usage: "Also run ANALYZE",
			},
			&cli.BoolFlag{
				Name:  "checkpoint",
				Usage: "Also truncate the WAL",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return optimizeStorages(c.String("config"), c.Bool("analyze"), c.Bool("checkpoint"))
		},
	}
}

func optimizeStorages(configPath string, analyze, checkpoint bool) error {
	cfg, manager, err := loadEnvironment(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(); err != nil {
			fmt.Printf("Warning: failed to close storage manager: %v\n", err)
		}
	}()

	for _, slug := range cfg.ListCommunes() {
		if _, err := manager.GetStorage(slug); err != nil {
			return fmt.Errorf("opening storage for %s: %w", slug, err)
		}
	}

	if err := manager.OptimizeAll(); err != nil {
		return fmt.Errorf("optimizing: %w", err)
	}
	fmt.Println("Databases optimized")

	if analyze {
		if err := manager.AnalyzeAll(); err != nil {
			return fmt.Errorf("analyzing: %w", err)
		}
		fmt.Println("Databases analyzed")
	}

	if checkpoint {
		if err := manager.WALCheckpointAll(); err != nil {
			return fmt.Errorf("checkpointing: %w", err)
		}
		fmt.Println("WAL checkpoint done")
	}

	return nil
}
