package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/guichet-dev/guichet/pkg/core"
	"github.com/guichet-dev/guichet/pkg/favorites"
	"github.com/guichet-dev/guichet/pkg/pipeline"
)

// ListCommand creates the list command
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List records through the filter/sort/paginate pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "commune",
				Usage:    "Commune slug",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Record kind (signalements, arretes, lois, imports)",
				Value: string(core.KindSignalements),
			},
			&cli.StringFlag{
				Name:  "q",
				Usage: "Free-text search on titles and references",
			},
			&cli.StringFlag{
				Name:  "categorie",
				Usage: "Category label, or 'favoris' for the favorites view",
			},
			&cli.StringSliceFlag{
				Name:  "theme",
				Usage: "Theme filter. Can be used multiple times",
			},
			&cli.StringFlag{
				Name:  "start-date",
				Usage: "Start date (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "end-date",
				Usage: "End date (YYYY-MM-DD), inclusive",
			},
			&cli.StringFlag{
				Name:  "tri",
				Usage: "Sort order: recent or ancien",
				Value: string(pipeline.OrderRecent),
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page number",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Rows per page",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "User id scoping the favorites view",
				Value: "anonyme",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return listRecords(c)
		},
	}
}

func listRecords(c *cli.Command) error {
	cfg, manager, err := loadEnvironment(c.String("config"))
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(); err != nil {
			fmt.Printf("Warning: failed to close storage manager: %v\n", err)
		}
	}()

	kind, err := core.ParseKind(c.String("kind"))
	if err != nil {
		return err
	}

	// Reuse the HTTP parameter parsing so CLI flags and query strings
	// behave identically, end-of-day promotion included.
	query := map[string][]string{
		"q":          {c.String("q")},
		"categorie":  {c.String("categorie")},
		"tri":        {c.String("tri")},
		"page":       {fmt.Sprintf("%d", c.Int("page"))},
		"start_date": {c.String("start-date")},
		"end_date":   {c.String("end-date")},
	}
	if themes := c.StringSlice("theme"); len(themes) > 0 {
		query["theme"] = themes
	}
	if limit := c.Int("limit"); limit > 0 {
		query["limit"] = []string{fmt.Sprintf("%d", limit)}
	}

	params, err := pipeline.ParseListParams(query, cfg.PageSize)
	if err != nil {
		return fmt.Errorf("parsing list parameters: %w", err)
	}

	st, err := manager.GetStorage(c.String("commune"))
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	recs, err := st.ListKind(kind)
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}

	favs := favorites.Open(favoritesStore(cfg), kind, c.String("user"))
	rows := pipeline.ProjectAll(recs, favs)

	view := pipeline.NewView(params.Limit)
	view.Criteria = params.Criteria
	view.Order = params.Order
	view.Page = params.Page

	result := view.Apply(rows)

	heading := fmt.Sprintf("%s · %s", cases.Title(language.French).String(string(kind)), c.String("commune"))
	fmt.Println(titleStyle.Render(heading))

	if result.FilteredCount == 0 {
		fmt.Println(noDataStyle.Render("Aucun enregistrement ne correspond aux critères."))
		return nil
	}

	for _, row := range result.Rows {
		fmt.Println(formatRow(row))
	}

	fmt.Println(metaStyle.Render(fmt.Sprintf(
		"Page %d/%d · %d enregistrement(s)",
		result.Page, result.TotalPages, result.FilteredCount,
	)))
	return nil
}
