package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/workbook"
)

func newMasterCommand(flags *globalFlags) *cobra.Command {
	var (
		period string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "master <checked.xlsx> <master.xlsx>",
		Short: "Roll a reviewed monthly file into the by Tier and by Coverage master sheets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}

			checkedPath, masterPath := args[0], args[1]
			if out == "" {
				out = masterPath
			}
			report, err := masterFile(checkedPath, masterPath, out, period)
			if err != nil {
				return err
			}
			e.log.Info("Master workbook updated",
				logger.String("period", report.Period),
				logger.String("tier_column", report.TierColumn),
				logger.Int("coverage_row", report.CoverageRow),
			)

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Source", "E", "F-E", "G"})
			for _, tv := range report.Tiers {
				t.AppendRow(table.Row{tv.Source, tv.E, tv.FMinusE, tv.G})
			}
			t.Render()

			c := table.NewWriter()
			c.SetOutputMirror(cmd.OutOrStdout())
			c.SetStyle(table.StyleLight)
			c.AppendHeader(table.Row{"Coverage", "Smartphone", "AI", "TV/Display", "Semi", "Auto", "IoT"})
			for _, r := range []struct {
				name string
				cov  workbook.Coverage
			}{{"CP", report.CP}, {"IDC", report.IDC}} {
				c.AppendRow(table.Row{r.name, r.cov.Smartphone, r.cov.AI, r.cov.TVDisplay,
					r.cov.Semiconductor, r.cov.Auto, r.cov.IoT})
			}
			c.AppendFooter(table.Row{"Omdia TV", report.OmdiaTV})
			c.Render()

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s, column %s, row %d)\n",
				out, report.Period, report.TierColumn, report.CoverageRow)
			return nil
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "", "month to roll up, e.g. Dec-25")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: overwrite the master)")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func masterFile(checkedPath, masterPath, out, period string) (*workbook.MasterReport, error) {
	checked, err := os.Open(checkedPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", checkedPath, err)
	}
	defer checked.Close()

	master, err := os.Open(masterPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", masterPath, err)
	}
	defer master.Close()

	var report *workbook.MasterReport
	err = saveFile(out, func(w io.Writer) error {
		var updateErr error
		report, updateErr = workbook.UpdateMasterReader(checked, master, w, period)
		return updateErr
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
