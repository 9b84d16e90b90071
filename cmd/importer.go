package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/urfave/cli/v3"

	"github.com/guichet-dev/guichet/pkg/core"
)

// ImporterCommand creates the import command
func ImporterCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a batch of arrêtés from a JSON file (plain or gzip)",
		ArgsUsage: "<file.json|file.json.gz>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "commune",
				Usage:    "Commune slug",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "lot",
				Usage: "Batch name. Defaults to lot-<date>-<random>",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("an input file is required")
			}
			return importBatch(c, c.Args().First())
		},
	}
}

func importBatch(c *cli.Command, path string) error {
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
	batch := c.String("lot")
	if batch == "" {
		batch = fmt.Sprintf("lot-%s-%s", time.Now().Format("2006-01-02"), uuid.NewString()[:8])
	}

	recs, err := readImportFile(path)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("no records found in %s", path)
	}

	now := time.Now().UTC()
	for i := range recs {
		recs[i].Kind = core.KindArretes
		recs[i].Commune = commune
		recs[i].ImportBatch = batch
		if recs[i].ID == "" {
			recs[i].ID = uuid.NewString()
		}
		if recs[i].CreatedAt.IsZero() {
			recs[i].CreatedAt = now
		}
	}

	st, err := manager.GetStorage(commune)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	if err := st.StoreMany(recs); err != nil {
		return fmt.Errorf("storing batch: %w", err)
	}

	// One import-history row per ingested batch.
	history := core.Record{
		Kind:      core.KindImports,
		ID:        uuid.NewString(),
		Commune:   commune,
		Title:     fmt.Sprintf("Import %s", batch),
		Reference: batch,
		CreatedAt: now,
		Metadata: map[string]any{
			"fichier": path,
			"nombre":  len(recs),
		},
	}
	if err := st.Store(history); err != nil {
		return fmt.Errorf("recording import history: %w", err)
	}

	fmt.Printf("Imported %d arrêtés into %s (lot %s)\n", len(recs), commune, batch)
	return nil
}

// readImportFile decodes a JSON array of records, transparently handling
// gzip-compressed files.
func readImportFile(path string) ([]core.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Printf("Warning: failed to close %s: %v\n", path, err)
		}
	}()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer func() {
			if err := gr.Close(); err != nil {
				fmt.Printf("Warning: failed to close gzip reader: %v\n", err)
			}
		}()
		reader = gr
	}

	var recs []core.Record
	if err := json.NewDecoder(reader).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return recs, nil
}
