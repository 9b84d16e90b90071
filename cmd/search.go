package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/guichet-dev/guichet/pkg/core"
	"github.com/guichet-dev/guichet/pkg/pipeline"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search in a commune's records",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "commune",
				Usage:    "Commune slug",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Restrict to one record kind",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "start-date",
				Usage: "Start date (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "end-date",
				Usage: "End date (YYYY-MM-DD), inclusive",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("a search query is required")
			}
			return searchRecords(c, c.Args().First())
		},
	}
}

func searchRecords(c *cli.Command, query string) error {
	_, manager, err := loadEnvironment(c.String("config"))
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(); err != nil {
			fmt.Printf("Warning: failed to close storage manager: %v\n", err)
		}
	}()

	var kind core.Kind
	if kindFlag := c.String("kind"); kindFlag != "" {
		kind, err = core.ParseKind(kindFlag)
		if err != nil {
			return err
		}
	}

	var start, end *time.Time
	if s := c.String("start-date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return fmt.Errorf("parsing start date: %w", err)
		}
		start = &parsed
	}
	if e := c.String("end-date"); e != "" {
		parsed, err := time.Parse("2006-01-02", e)
		if err != nil {
			return fmt.Errorf("parsing end date: %w", err)
		}
		endOfDay := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, 999999999, parsed.Location())
		end = &endOfDay
	}

	st, err := manager.GetStorage(c.String("commune"))
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	recs, err := st.Search(query, kind, c.Int("limit"), start, end)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if len(recs) == 0 {
		fmt.Println(noDataStyle.Render(fmt.Sprintf("Aucun résultat pour %q.", query)))
		return nil
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%d résultat(s) pour %q", len(recs), query)))
	for _, rec := range recs {
		fmt.Println(formatRow(pipeline.Project(rec, nil)))
	}
	return nil
}
