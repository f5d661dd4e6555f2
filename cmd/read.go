package cmd

import (
	"context"
	"fmt"
	"strings"

	"db-luna/internal/store"

	"github.com/spf13/cobra"
)

var (
	readModel string
	readLimit int
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Show stored models with their tables, columns and first rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var models []store.Model
		if readModel != "" {
			m, err := st.FindModel(ctx, readModel)
			if err != nil {
				return err
			}
			models = append(models, m)
		} else if models, err = st.ListModels(ctx); err != nil {
			return err
		}

		for _, m := range models {
			if err := printModel(ctx, st, m); err != nil {
				return err
			}
		}
		return nil
	},
}

func printModel(ctx context.Context, st store.Store, m store.Model) error {
	fmt.Printf("🌙 %s (%s)\n", m.Name, m.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	tables, err := st.TablesByModel(ctx, m.ID)
	if err != nil {
		return err
	}
	for _, t := range tables {
		count, err := st.CountRows(ctx, t.ID)
		if err != nil {
			return err
		}
		fmt.Printf("  ├ %s (%d rows)\n", t.Table.Name, count)
		for _, c := range t.Table.Columns() {
			extra := ""
			if c.PrimaryKey {
				extra += " PK"
			}
			if fk := c.ForeignKey; fk != nil {
				extra += fmt.Sprintf(" -> %s.%s", fk.TableName, fk.ColumnName)
			}
			fmt.Printf("  │   %-20s %s%s\n", c.Name, c.TypeName, extra)
		}

		rows, err := st.RowsByTable(ctx, t.ID, readLimit)
		if err != nil {
			return err
		}
		for _, row := range rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = v.Render()
			}
			fmt.Printf("  │   | %s |\n", strings.Join(cells, " | "))
		}
	}
	return nil
}

func init() {
	RootCmd.AddCommand(readCmd)

	readCmd.Flags().StringVarP(&readModel, "model", "m", "", "Only this model")
	readCmd.Flags().IntVarP(&readLimit, "limit", "n", 10, "Rows shown per table (0 for all)")
}
