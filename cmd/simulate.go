package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/workbook"
)

func newSimulateCommand(flags *globalFlags) *cobra.Command {
	var (
		source string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Classify a batch of texts and print a table with a category summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			c, err := e.components(cmd.Context(), bootstrap.Options{})
			if err != nil {
				return err
			}
			defer c.Close()

			in := cmd.InOrStdin()
			if file != "" {
				f, openErr := os.Open(file)
				if openErr != nil {
					return fmt.Errorf("open %s: %w", file, openErr)
				}
				defer f.Close()
				in = f
			}
			texts, err := readLines(in)
			if err != nil {
				return err
			}

			rows := c.Classifier.SimulateBatch(texts, source)

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"#", "Text", "Category", "Reason"})
			categories := make([]string, len(rows))
			for i, r := range rows {
				t.AppendRow(table.Row{i + 1, r.Preview, r.Category, r.Reason})
				categories[i] = r.Category
			}
			t.Render()

			summary := workbook.CategorySummary(categories)
			st := table.NewWriter()
			st.SetOutputMirror(cmd.OutOrStdout())
			st.SetStyle(table.StyleLight)
			st.AppendHeader(table.Row{"Category", "Count"})
			for _, cc := range summary.Counts {
				st.AppendRow(table.Row{cc.Category, cc.Count})
			}
			st.AppendFooter(table.Row{"Total", summary.Total})
			st.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "source hint applied to every text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one text per line (default stdin)")
	return cmd
}
