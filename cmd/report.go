package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/guichet-dev/guichet/pkg/core"
)

// ReportCommand creates the report command
func ReportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "File a new signalement",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "commune",
				Usage:    "Commune slug",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "titre",
				Usage:    "Short description of the issue",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "categorie",
				Usage: "Category label (voirie, eclairage, proprete, ...)",
			},
			&cli.StringFlag{
				Name:  "contenu",
				Usage: "Detailed description",
			},
			&cli.StringFlag{
				Name:  "lieu",
				Usage: "Location of the issue",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return fileReport(c)
		},
	}
}

func fileReport(c *cli.Command) error {
	_, manager, err := loadEnvironment(c.String("config"))
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(); err != nil {
			fmt.Printf("Warning: failed to close storage manager: %v\n", err)
		}
	}()

	commune := c.String("commune")
	st, err := manager.GetStorage(commune)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	rec := core.Record{
		Kind:      core.KindSignalements,
		ID:        uuid.NewString(),
		Commune:   commune,
		Title:     c.String("titre"),
		Category:  c.String("categorie"),
		Status:    core.StatusNouveau,
		Body:      c.String("contenu"),
		CreatedAt: time.Now().UTC(),
	}
	if lieu := c.String("lieu"); lieu != "" {
		rec.Metadata = map[string]any{"lieu": lieu}
	}

	if err := st.Store(rec); err != nil {
		return fmt.Errorf("storing signalement: %w", err)
	}

	fmt.Printf("Signalement %s enregistré pour %s\n", rec.ID, commune)
	return nil
}
