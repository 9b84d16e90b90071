package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/guichet-dev/guichet/pkg/api"
	"github.com/guichet-dev/guichet/pkg/config"
	"github.com/guichet-dev/guichet/pkg/log"
	"github.com/guichet-dev/guichet/pkg/realtime"
	"github.com/guichet-dev/guichet/pkg/storage"
)

var serveLogger = log.ForService("serve")

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind address, overrides the config file",
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "Listen port, overrides the config file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("host"), c.String("port"))
		},
	}
}

func serve(ctx context.Context, configPath, hostOverride, portOverride string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if hostOverride != "" {
		cfg.Server.Host = hostOverride
	}
	if portOverride != "" {
		cfg.Server.Port = portOverride
	}

	manager := storage.NewManager(cfg.StorageDir)
	defer func() {
		if err := manager.Close(); err != nil {
			serveLogger.Warnf("closing storage manager: %v", err)
		}
	}()

	// Open the configured communes up front so stats and the firehose see
	// them before the first write.
	for _, slug := range cfg.ListCommunes() {
		if _, err := manager.GetStorage(slug); err != nil {
			return fmt.Errorf("opening storage for %s: %w", slug, err)
		}
	}

	hub := realtime.NewHub(0)
	server := api.NewServer(cfg, manager, hub, favoritesStore(cfg))

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           api.CorsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		serveLogger.Infof("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var cfgMutex sync.Mutex

	// Watch the config file so commune additions are picked up without a
	// restart.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		serveLogger.Warnf("creating config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				serveLogger.Warnf("closing config file watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			serveLogger.Warnf("watching config file %s: %v", configPath, err)
		} else {
			serveLogger.Infof("watching config file for changes: %s", configPath)
		}
	}

	shutdown := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}

	for {
		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ctx.Done():
			return shutdown()
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				serveLogger.Infof("received SIGHUP, reloading configuration")
				if err := reloadConfiguration(configPath, cfg, manager, &cfgMutex); err != nil {
					serveLogger.Errorf("reloading configuration: %v", err)
				}
			case syscall.SIGINT, syscall.SIGTERM:
				serveLogger.Infof("shutting down")
				return shutdown()
			}
		case event, ok := <-watcher.Events:
			if !ok {
				continue
			}
			// Editors often replace the file, so rename and remove count
			// as changes too.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					time.Sleep(200 * time.Millisecond)
					if _, err := os.Stat(configPath); os.IsNotExist(err) {
						serveLogger.Warnf("config file removed, skipping reload")
						continue
					}
					if err := watcher.Add(configPath); err != nil {
						serveLogger.Warnf("re-adding config file to watcher: %v", err)
					}
				} else {
					time.Sleep(100 * time.Millisecond)
				}

				serveLogger.Infof("config file changed, reloading")
				if err := reloadConfiguration(configPath, cfg, manager, &cfgMutex); err != nil {
					serveLogger.Errorf("reloading configuration: %v", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				continue
			}
			serveLogger.Warnf("config file watcher error: %v", err)
		}
	}
}

// reloadConfiguration refreshes the reloadable parts of the running config:
// communes, page size and API token. Storage and favorites directories
// require a restart.
func reloadConfiguration(configPath string, cfg *config.Config, manager *storage.Manager, cfgMutex *sync.Mutex) error {
	newCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading new config: %w", err)
	}

	cfgMutex.Lock()
	cfg.Communes = newCfg.Communes
	cfg.PageSize = newCfg.PageSize
	cfg.Server.APIToken = newCfg.Server.APIToken
	cfgMutex.Unlock()

	for _, slug := range newCfg.ListCommunes() {
		if _, err := manager.GetStorage(slug); err != nil {
			return fmt.Errorf("opening storage for %s: %w", slug, err)
		}
	}

	serveLogger.Infof("configuration reloaded: %d communes", len(newCfg.Communes))
	return nil
}
