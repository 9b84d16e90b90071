package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// DefaultPageSize is the number of rows per list page when the config does
// not override it.
const DefaultPageSize = 10

type Config struct {
	StorageDir   string                 `toml:"storage_dir"`
	FavoritesDir string                 `toml:"favorites_dir"`
	PageSize     int                    `toml:"page_size"`
	Server       ServerConfig           `toml:"server"`
	Communes     map[string]CommuneInfo `toml:"communes"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
	// APIToken guards mutating endpoints. Empty disables the check
	// (local development only).
	APIToken string `toml:"api_token"`
}

type CommuneInfo struct {
	Nom         string `toml:"nom"`
	Departement string `toml:"departement"`
}

func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	return &Config{
		StorageDir:   storageDir,
		FavoritesDir: filepath.Join(storageDir, "favorites"),
		PageSize:     DefaultPageSize,
		Server:       ServerConfig{Host: "localhost", Port: "8080"},
		Communes:     make(map[string]CommuneInfo),
	}, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}

	if config.FavoritesDir == "" {
		config.FavoritesDir = filepath.Join(config.StorageDir, "favorites")
	}

	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}

	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Communes == nil {
		config.Communes = make(map[string]CommuneInfo)
	}

	return &config, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return "", fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	// Replace the placeholder storage_dir with the actual path
	template := strings.Replace(configTemplate, "/home/user/.local/share/guichet", storageDir, 1)
	return template, nil
}

// AddCommune registers a commune scope in the config.
func (c *Config) AddCommune(slug string, info CommuneInfo) {
	c.Communes[slug] = info
}

// GetCommune returns the declared commune for slug.
func (c *Config) GetCommune(slug string) (CommuneInfo, error) {
	info, exists := c.Communes[slug]
	if !exists {
		return CommuneInfo{}, fmt.Errorf("commune %s not found", slug)
	}
	return info, nil
}

// ListCommunes returns the configured commune slugs, sorted.
func (c *Config) ListCommunes() []string {
	slugs := make([]string, 0, len(c.Communes))
	for slug := range c.Communes {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// GetDefaultStorageDir returns the default storage directory for databases
func GetDefaultStorageDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	guichetDir := filepath.Join(dataDir, "guichet")

	if err := os.MkdirAll(guichetDir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", guichetDir, err)
	}

	return guichetDir, nil
}

// GetConfigDir returns the configuration directory for guichet
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	guichetConfigDir := filepath.Join(configDir, "guichet")

	if err := os.MkdirAll(guichetConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", guichetConfigDir, err)
	}

	return guichetConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
