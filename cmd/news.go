package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/news"
)

const reportFileMode = 0o644

func newNewsCommand(flags *globalFlags) *cobra.Command {
	var (
		req news.Request
		out string
	)

	cmd := &cobra.Command{
		Use:   "news",
		Short: "Collect company news, classify it and save an xlsx report",
		Example: `  market-classifier news --companies "Samsung Electronics, LG Display" \
    --start 2026-10-01 --end 2026-10-18`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Companies == "" {
				return news.ErrNoCompanies
			}
			e, err := flags.load()
			if err != nil {
				return err
			}
			c, err := e.components(cmd.Context(), bootstrap.Options{
				Database: true,
				News:     true,
			})
			if err != nil {
				return err
			}
			defer c.Close()

			collector, err := c.NewsCollector()
			if err != nil {
				return err
			}
			res, err := collector.Collect(cmd.Context(), req)
			if err != nil {
				return err
			}
			data, name, err := collector.Download(cmd.Context(), res.JobID)
			if err != nil {
				return err
			}
			if out == "" {
				out = name
			}
			if err := os.WriteFile(out, data, reportFileMode); err != nil {
				return fmt.Errorf("save %s: %w", out, err)
			}

			printNewsStats(cmd, res.Stats)
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d rows)\n", out, res.Stats.Meta.TotalRows)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Companies, "companies", "", "comma-separated company names")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "end date, YYYY-MM-DD")
	cmd.Flags().IntVar(&req.MaxPerCompany, "max", 0, "articles per company (default from config)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default naver_news_<time>_<job>.xlsx)")
	return cmd
}

func printNewsStats(cmd *cobra.Command, s news.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Company", "Category", "Articles"})

	for _, company := range s.Meta.Companies {
		cats := s.CompanyCategory[company]
		names := make([]string, 0, len(cats))
		for name := range cats {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			t.AppendRow(table.Row{company, name, cats[name]})
		}
		t.AppendRow(table.Row{company, "Total", s.CompanyTotal[company]})
		t.AppendSeparator()
	}
	t.AppendFooter(table.Row{"", "Total", s.Meta.TotalRows})
	t.Render()
}
