package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/guichet-dev/guichet/pkg/config"
)

// CommuneCommand creates the commune command with its subcommands
func CommuneCommand() *cli.Command {
	return &cli.Command{
		Name:  "commune",
		Usage: "Manage configured communes",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a commune to the configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "slug",
						Usage:    "Commune slug used in paths and database names",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "nom",
						Usage:    "Display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "departement",
						Usage: "Department number",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return addCommune(c.String("config"), c.String("slug"), c.String("nom"), c.String("departement"))
				},
			},
			{
				Name:  "list",
				Usage: "List configured communes",
				Action: func(ctx context.Context, c *cli.Command) error {
					return listCommunes(c.String("config"))
				},
			},
		},
	}
}

func addCommune(configPath, slug, nom, departement string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg.AddCommune(slug, config.CommuneInfo{Nom: nom, Departement: departement})
	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Commune %s added\n", slug)
	return nil
}

func listCommunes(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slugs := cfg.ListCommunes()
	if len(slugs) == 0 {
		fmt.Println(noDataStyle.Render("Aucune commune configurée."))
		return nil
	}

	for _, slug := range slugs {
		info, err := cfg.GetCommune(slug)
		if err != nil {
			continue
		}
		if info.Departement != "" {
			fmt.Printf("%s: %s (%s)\n", slug, info.Nom, info.Departement)
		} else {
			fmt.Printf("%s: %s\n", slug, info.Nom)
		}
	}
	return nil
}
