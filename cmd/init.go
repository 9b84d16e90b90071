package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/guichet-dev/guichet/pkg/config"
)

// InitCommand writes a starter configuration file with commented examples.
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a starter configuration file",
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(c.String("config"))
		},
	}
}

// initConfig renders the embedded sample, pre-filled with the resolved
// storage and favorites directories, to configPath.
func initConfig(configPath string) error {
	cfg, err := config.GetDefaultConfig()
	if err != nil {
		return fmt.Errorf("building default config: %w", err)
	}
	if err := cfg.SaveTemplateConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Fichier de configuration créé: %s\n", configPath)
	return nil
}
