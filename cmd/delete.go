package cmd

import (
	"errors"
	"fmt"

	"db-luna/internal/store"

	"github.com/spf13/cobra"
)

var deleteModel string

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a model with its tables and rows from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if deleteModel == "" {
			return fmt.Errorf("--model is required")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteModel(ctx, deleteModel); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("model %s is not in the store", deleteModel)
			}
			return err
		}
		reporter().Success("Model %s deleted", deleteModel)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVarP(&deleteModel, "model", "m", "", "Model to delete")
}
