package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/guichet-dev/guichet/pkg/bulk"
	"github.com/guichet-dev/guichet/pkg/core"
)

// OpenCommand creates the open command
func OpenCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open records in the browser, or print shareable links",
		ArgsUsage: "<id> [<id> ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "commune",
				Usage:    "Commune slug",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Record kind",
				Value: string(core.KindLois),
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Public base URL of the guichet instance",
				Value: "http://localhost:8080",
			},
			&cli.BoolFlag{
				Name:  "share",
				Usage: "Print the links instead of opening them",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("at least one record id is required")
			}
			return openRecords(c, c.Args().Slice())
		},
	}
}

func openRecords(c *cli.Command, ids []string) error {
	kind, err := core.ParseKind(c.String("kind"))
	if err != nil {
		return err
	}

	links := make([]string, len(ids))
	for i, id := range ids {
		links[i] = bulk.Link(c.String("base-url"), c.String("commune"), string(kind), id)
	}

	if c.Bool("share") {
		fmt.Println(bulk.ShareLinks(links))
		return nil
	}

	if blocked := bulk.OpenAll(links, openBrowser); blocked > 0 {
		fmt.Printf("%d lien(s) n'ont pas pu être ouverts\n", blocked)
	}
	return nil
}
