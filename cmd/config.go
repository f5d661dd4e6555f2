package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"db-luna/internal/schema"
	"db-luna/internal/sink"

	"github.com/spf13/viper"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`
	Active bool   `mapstructure:"active"`
}

func setDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	viper.SetDefault("settings.store_path", filepath.Join(home, "luna.db"))
	viper.SetDefault("settings.export_order", "locality")
	viper.SetDefault("import.sink", sink.KindFile)
	viper.SetDefault("import.driver", "sqlserver")
	viper.SetDefault("metrics.job", "db-luna")
}

// GetActiveDBConfig returns the currently active database configuration.
// Without a databases list, CONNECTION_STRING names a SQL Server source.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	if len(configs) == 0 {
		if conn := os.Getenv("CONNECTION_STRING"); conn != "" {
			return &DBConfig{Name: "CONNECTION_STRING", Driver: "sqlserver", DSN: conn, Active: true}, nil
		}
		return nil, fmt.Errorf("no databases configured (add a databases list to db-luna.yaml or set CONNECTION_STRING)")
	}

	var activeConfig *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			activeConfig = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}

	return activeConfig, nil
}

// modelPath is the directory of declarative model files: the setting, then
// MODEL_PATH, then ./models.
func modelPath() string {
	if p := viper.GetString("settings.model_path"); p != "" {
		return p
	}
	if p := os.Getenv("MODEL_PATH"); p != "" {
		return p
	}
	return "./models"
}

func storePath() string {
	return viper.GetString("settings.store_path")
}

func exportOrder() (schema.Order, error) {
	return schema.ParseOrder(viper.GetString("settings.export_order"))
}

// sinkConfig describes the import target; flags have been bound onto the
// import.* keys.
func sinkConfig(modelName string) sink.Config {
	path := viper.GetString("import.file")
	if path == "" {
		path = modelName + ".sql"
	}
	return sink.Config{
		Kind:   viper.GetString("import.sink"),
		Path:   path,
		Driver: viper.GetString("import.driver"),
		DSN:    viper.GetString("import.dsn"),
	}
}
