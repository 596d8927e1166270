package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Register struct {
		BaseURL   string `yaml:"base_url"`
		SinceDate string `yaml:"since_date"`
		PageSize  int    `yaml:"page_size"`
		Workers   int    `yaml:"workers"`
	} `yaml:"register"`

	Browser struct {
		PresenceTimeoutSeconds int  `yaml:"presence_timeout_seconds"`
		FormTimeoutSeconds     int  `yaml:"form_timeout_seconds"`
		SearchTimeoutSeconds   int  `yaml:"search_timeout_seconds"`
		Show                   bool `yaml:"show"`
	} `yaml:"browser"`

	Archive struct {
		Root      string `yaml:"root"`
		SinceYear int    `yaml:"since_year"`
	} `yaml:"archive"`

	Extract struct {
		StartThreshold int  `yaml:"start_threshold"`
		TrimEnd        bool `yaml:"trim_end"`
		EndThreshold   int  `yaml:"end_threshold"`
		Parallelism    int  `yaml:"parallelism"`
	} `yaml:"extract"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/gazette/config.yaml"),
			"/etc/gazette/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Register.BaseURL == "" {
		config.Register.BaseURL = "https://www.joradp.dz/HAR/Index.htm"
	}
	if config.Register.SinceDate == "" {
		config.Register.SinceDate = "01/01/1964"
	}
	if config.Register.PageSize == 0 {
		config.Register.PageSize = 200
	}
	if config.Register.Workers == 0 {
		config.Register.Workers = 3
	}

	if config.Browser.PresenceTimeoutSeconds == 0 {
		config.Browser.PresenceTimeoutSeconds = 10
	}
	if config.Browser.FormTimeoutSeconds == 0 {
		config.Browser.FormTimeoutSeconds = 60
	}
	if config.Browser.SearchTimeoutSeconds == 0 {
		config.Browser.SearchTimeoutSeconds = 180
	}

	if config.Archive.Root == "" {
		config.Archive.Root = "joradp_pages"
	}
	if config.Archive.SinceYear == 0 {
		config.Archive.SinceYear = 1964
	}

	if config.Extract.StartThreshold == 0 {
		config.Extract.StartThreshold = 60
	}
	if config.Extract.EndThreshold == 0 {
		config.Extract.EndThreshold = 90
	}
	if config.Extract.Parallelism == 0 {
		config.Extract.Parallelism = 4
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8090"
	}
}

func mergeWithEnv(config *Config) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if baseURL := os.Getenv("REGISTER_BASE_URL"); baseURL != "" {
		config.Register.BaseURL = baseURL
	}
	if root := os.Getenv("ARCHIVE_ROOT"); root != "" {
		config.Archive.Root = root
	}
}
