package cmd

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/guichet-dev/guichet/pkg/config"
	"github.com/guichet-dev/guichet/pkg/favorites"
	"github.com/guichet-dev/guichet/pkg/storage"
)

// loadEnvironment loads the config and opens the storage manager most
// commands need.
func loadEnvironment(configPath string) (*config.Config, *storage.Manager, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	return cfg, storage.NewManager(cfg.StorageDir), nil
}

func favoritesStore(cfg *config.Config) favorites.Store {
	return favorites.NewDiskStore(cfg.FavoritesDir)
}

// openBrowser opens a link in the default browser.
func openBrowser(link string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", link)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", link)
	default:
		cmd = exec.Command("xdg-open", link)
	}
	return cmd.Start()
}
