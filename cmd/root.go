package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"db-luna/internal/dialect"
	"db-luna/internal/report"
	"db-luna/internal/store/sqlite"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	noColor bool
)

var RootCmd = &cobra.Command{
	Use:   "db-luna",
	Short: "Move relational data through a model store",
	Long: `
  _    _   _ _   _    _
 | |  | | | | \ | |  / \
 | |  | | | |  \| | / _ \
 | |__| |_| | |\  |/ ___ \
 |_____\___/|_| \_/_/   \_\

DB LUNA 🌙 - export tables into a model store, import them back as SQL
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		return nil
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./db-luna.yaml)")
	RootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	RootCmd.PersistentFlags().String("store", "", "Model store file (overrides settings.store_path)")
	RootCmd.PersistentFlags().String("models", "", "Directory of model files (overrides settings.model_path)")

	viper.BindPFlag("settings.store_path", RootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("settings.model_path", RootCmd.PersistentFlags().Lookup("models"))
}

// initConfig loads .env, then the config file and environment variables.
func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("db-luna")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func reporter() report.Reporter {
	return report.NewConsole(os.Stdout)
}

// openSource connects to the active database and returns it with its
// dialect and the schema to introspect.
func openSource(ctx context.Context) (*sql.DB, dialect.Dialect, string, error) {
	config, err := GetActiveDBConfig()
	if err != nil {
		return nil, nil, "", err
	}

	d, err := dialect.GetDialect(config.Driver)
	if err != nil {
		return nil, nil, "", err
	}
	if err := d.ValidateDSN(config.DSN); err != nil {
		return nil, nil, "", err
	}

	fmt.Printf("🌙 Connected to %s (%s)\n", config.Name, config.Driver)
	db, err := sql.Open(d.DriverName(), config.DSN)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to open db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, "", fmt.Errorf("failed to connect to db: %w", err)
	}

	schemaName := config.Schema
	if schemaName == "" && d.DriverName() == "mysql" {
		if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&schemaName); err != nil {
			db.Close()
			return nil, nil, "", fmt.Errorf("failed to get database name: %w", err)
		}
		if schemaName == "" {
			db.Close()
			return nil, nil, "", fmt.Errorf("no database selected in DSN")
		}
	}
	log.Printf("Using Dialect: %s, schema: %s\n", d.DriverName(), d.GetSchemaName(schemaName))
	return db, d, schemaName, nil
}

func openStore(ctx context.Context) (*sqlite.Store, error) {
	path := storePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return sqlite.Open(ctx, path)
}
