package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/workbook"
)

func newFillCommand(flags *globalFlags) *cobra.Command {
	var (
		out      string
		fetch    bool
		tracking bool
	)

	cmd := &cobra.Command{
		Use:   "fill <input.xlsx>",
		Short: "Fill the category and reason columns of a monthly working file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fetch") {
				e.cfg.Workbook.FetchArticles = fetch
			}
			if cmd.Flags().Changed("tracking") {
				e.cfg.Workbook.Tracking = tracking
			}

			c, err := e.components(cmd.Context(), bootstrap.Options{})
			if err != nil {
				return err
			}
			defer c.Close()

			input := args[0]
			if out == "" {
				out = filledName(input)
			}
			report, err := fillFile(cmd, c.Filler, input, out)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Sheet", "Source", "Rows", "Enriched"})
			for _, s := range report.Sheets {
				t.AppendRow(table.Row{s.Sheet, s.SourceHint, s.Rows, s.Enriched})
			}
			t.AppendFooter(table.Row{"Total", "", report.Rows, ""})
			t.Render()
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default <input>_filled.xlsx)")
	cmd.Flags().BoolVar(&fetch, "fetch", false, "fetch article text for short descriptions")
	cmd.Flags().BoolVar(&tracking, "tracking", false, "add a category tracking sheet")
	return cmd
}

func fillFile(cmd *cobra.Command, filler *workbook.Filler, input, out string) (*workbook.FillReport, error) {
	in, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", input, err)
	}
	defer in.Close()

	var report *workbook.FillReport
	err = saveFile(out, func(w io.Writer) error {
		var fillErr error
		report, fillErr = filler.FillReader(cmd.Context(), in, w)
		return fillErr
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// saveFile writes out through a temp file in the same directory and renames
// it into place once write succeeds.
func saveFile(out string, write func(w io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(out), ".save-*.xlsx")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	err = write(tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), out); err != nil {
		return fmt.Errorf("save %s: %w", out, err)
	}
	return nil
}

// filledName turns report.xlsx into report_filled.xlsx.
func filledName(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_filled" + ext
}
