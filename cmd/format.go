package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/guichet-dev/guichet/pkg/pipeline"
)

// Define styles using lipgloss
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Margin(1, 0, 1, 0)

	rowStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	favoriteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// formatNumber formats a number with K/M suffixes for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	} else {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// formatRow renders one list row for terminal output.
func formatRow(row pipeline.Row) string {
	title := row.Title
	if row.Favorite {
		title = favoriteStyle.Render("★ ") + title
	}

	meta := fmt.Sprintf("%s · %s", row.Category, row.FormattedDate)
	if row.Reference != "" {
		meta = row.Reference + " · " + meta
	}
	if row.Status != "" {
		meta += " · " + row.Status
	}

	return rowStyle.Render(title + "\n" + metaStyle.Render(meta))
}

// formatStats renders storage statistics for display.
func formatStats(stats map[string]any) {
	fmt.Println(titleStyle.Render("Statistiques de stockage"))

	totalRecords, _ := stats["total_records"].(int)
	totalCommunes, _ := stats["total_communes"].(int)

	fmt.Printf("Enregistrements: %s\n", formatNumber(totalRecords))
	fmt.Printf("Communes: %d\n", totalCommunes)

	if totalCommunes == 0 {
		fmt.Println(noDataStyle.Render("Aucune commune ouverte."))
		return
	}

	var communes []string
	for key := range stats {
		if key != "total_records" && key != "total_communes" {
			communes = append(communes, key)
		}
	}
	sort.Strings(communes)

	for _, commune := range communes {
		communeStats, ok := stats[commune].(map[string]any)
		if !ok {
			continue
		}

		fmt.Println(headerStyle.Render(commune))

		if total, ok := communeStats["total_records"].(int); ok {
			fmt.Printf("  Enregistrements: %s\n", formatNumber(total))
		}
		if perKind, ok := communeStats["records_per_kind"].(map[string]int); ok {
			kinds := make([]string, 0, len(perKind))
			for kind := range perKind {
				kinds = append(kinds, kind)
			}
			sort.Strings(kinds)
			for _, kind := range kinds {
				fmt.Printf("    %s: %s\n", kind, formatNumber(perKind[kind]))
			}
		}
		if oldest, ok := communeStats["oldest_record"].(time.Time); ok {
			fmt.Printf("  Plus ancien: %s\n", pipeline.FormatDateFR(oldest))
		}
		if newest, ok := communeStats["newest_record"].(time.Time); ok {
			fmt.Printf("  Plus récent: %s\n", pipeline.FormatDateFR(newest))
		}
	}
}
