package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"db-luna/internal/engine"
	"db-luna/internal/schema"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportModel string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the tables of a model from the active database into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if exportModel == "" {
			return fmt.Errorf("--model is required")
		}

		order, err := exportOrder()
		if err != nil {
			return err
		}

		// Declared model; without a file every table is exported.
		var file *schema.Model
		path := schema.ModelPath(modelPath(), exportModel)
		if _, err := os.Stat(path); err == nil {
			file, err = schema.LoadModel(path)
			if err != nil {
				return err
			}
			log.Printf("Using model file %s (%d tables)\n", path, len(file.Tables()))
		} else {
			log.Printf("No model file at %s, exporting every table\n", path)
		}

		db, d, schemaName, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		total := 0
		if file != nil {
			total = len(file.Tables())
		} else if tables, err := schema.NewAnalyzer(db, d, schemaName).ListTables(ctx); err == nil {
			total = len(tables)
		}

		m := newMetrics()
		onTable, stop := progressBar(total, "Exporting:")
		ex := &engine.Exporter{
			Source:   schema.NewAnalyzer(db, d, schemaName),
			Rows:     engine.NewSQLRowSource(db, d),
			Store:    st,
			Syntax:   d,
			Order:    order,
			Reporter: reporter(),
			Metrics:  m,
			OnTable:  onTable,
		}

		log.Printf("Exporting model %s (%s order)...", exportModel, order)
		start := time.Now()
		results, err := ex.Export(ctx, exportModel, file)
		stop()

		printSummary(fmt.Sprintf("export, %s order", order), results, time.Since(start))
		pushMetrics(ctx, m)
		return err
	},
}

func init() {
	RootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportModel, "model", "m", "", "Model name (reads <model_path>/<model>.yml when present)")
	exportCmd.Flags().String("order", "", "Table order: locality or constraint-safe (overrides settings.export_order)")
	viper.BindPFlag("settings.export_order", exportCmd.Flags().Lookup("order"))
}
