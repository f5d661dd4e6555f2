package cmd

import (
	"fmt"
	"log"
	"time"

	"db-luna/internal/dialect"
	"db-luna/internal/engine"
	"db-luna/internal/sink"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importModel string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replay a stored model as insert statements into a file or a database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if importModel == "" {
			return fmt.Errorf("--model is required")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rep := reporter()
		cfg := sinkConfig(importModel)
		out, err := sink.New(cfg, rep)
		if err != nil {
			return err
		}

		// statements follow the target's identifier quoting
		d, err := dialect.GetDialect(cfg.Driver)
		if err != nil {
			return err
		}

		m, err := st.FindModel(ctx, importModel)
		if err != nil {
			return err
		}
		tables, err := st.TablesByModel(ctx, m.ID)
		if err != nil {
			return err
		}

		metrics := newMetrics()
		onTable, stop := progressBar(len(tables), "Importing:")
		im := &engine.Importer{
			Store:    st,
			Syntax:   d,
			Reporter: rep,
			Metrics:  metrics,
			OnTable:  onTable,
		}

		switch cfg.Kind {
		case sink.KindDatabase:
			log.Printf("Importing model %s into %s database...", importModel, cfg.Driver)
		default:
			log.Printf("Importing model %s into %s...", importModel, cfg.Path)
		}
		start := time.Now()
		results, err := im.Import(ctx, importModel, out, engine.ImportOptions{Clean: viper.GetBool("import.clean")})
		stop()

		printSummary("import, constraint-safe order", results, time.Since(start))
		pushMetrics(ctx, metrics)
		return err
	},
}

func init() {
	RootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importModel, "model", "m", "", "Stored model to import")
	importCmd.Flags().String("sink", "", "Target: file or database (overrides import.sink)")
	importCmd.Flags().StringP("file", "f", "", "Output file for the file sink (default <model>.sql)")
	importCmd.Flags().String("driver", "", "Target driver for the database sink and statement syntax")
	importCmd.Flags().String("dsn", "", "Target DSN for the database sink")
	importCmd.Flags().Bool("clean", false, "Delete existing rows, dependents first, before inserting")

	viper.BindPFlag("import.sink", importCmd.Flags().Lookup("sink"))
	viper.BindPFlag("import.file", importCmd.Flags().Lookup("file"))
	viper.BindPFlag("import.driver", importCmd.Flags().Lookup("driver"))
	viper.BindPFlag("import.dsn", importCmd.Flags().Lookup("dsn"))
	viper.BindPFlag("import.clean", importCmd.Flags().Lookup("clean"))
}
