package cmd

import (
	"fmt"

	"db-luna/internal/schema"

	"github.com/spf13/cobra"
)

var (
	fetchModel   string
	fetchColumns bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Write a model file listing the tables of the active database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if fetchModel == "" {
			return fmt.Errorf("--model is required")
		}

		db, d, schemaName, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		m, err := schema.Introspect(ctx, schema.NewAnalyzer(db, d, schemaName), fetchModel)
		if err != nil {
			return err
		}

		path := schema.ModelPath(modelPath(), fetchModel)
		if err := schema.SaveModel(path, m, fetchColumns); err != nil {
			return err
		}
		fmt.Printf("✅ Model %s written to %s (%d tables)\n", fetchModel, path, len(m.Tables()))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchModel, "model", "m", "", "Model name; the file is <model_path>/<model>.yml")
	fetchCmd.Flags().BoolVar(&fetchColumns, "columns", false, "Also write the introspected columns")
}
