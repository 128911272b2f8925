package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
)

// maxLineBytes bounds one stdin line.
const maxLineBytes = 1 << 20

type classifyOutput struct {
	Text     string            `json:"text"`
	Category string            `json:"category"`
	Reason   domain.ReasonCode `json:"reason"`
}

func newClassifyCommand(flags *globalFlags) *cobra.Command {
	var (
		source  string
		asJSON  bool
		keyword bool
	)

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify text given as arguments, or one text per stdin line",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			c, err := e.components(cmd.Context(), bootstrap.Options{})
			if err != nil {
				return err
			}
			defer c.Close()

			texts := args
			if len(texts) == 0 {
				if texts, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			for _, text := range texts {
				if keyword {
					res := c.Keywords.Classify(text, "", source)
					if asJSON {
						if err := enc.Encode(res); err != nil {
							return err
						}
						continue
					}
					fmt.Fprintf(out, "%s\t%d\t%s\n", res.Category, res.Score, strings.Join(res.MatchedKeywords, ", "))
					continue
				}

				label, reason := c.Classifier.ClassifyText(text, source)
				if asJSON {
					if err := enc.Encode(classifyOutput{Text: text, Category: label, Reason: reason}); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", label, reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "source hint, e.g. DSCC or CP")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per line")
	cmd.Flags().BoolVar(&keyword, "keyword", false, "use the news keyword categories instead")
	return cmd
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}
