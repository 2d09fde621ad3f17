package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/instrank/internal/domain/scoring"
)

type scoreFlags struct {
	format string
}

// scoredInstitution is the JSON output shape of the score command.
type scoredInstitution struct {
	InstitutionID string              `json:"institution_id"`
	Result        scoring.FinalResult `json:"result"`
}

func newScoreCmd() *cobra.Command {
	f := &scoreFlags{}

	cmd := &cobra.Command{
		Use:   "score <metrics-file>",
		Short: "Score a metrics file offline and print the breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd.Context(), cmd.OutOrStdout(), args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.format, "format", "json", "Output format: json or text")
	return cmd
}

func runScore(ctx context.Context, out io.Writer, path string, f *scoreFlags) error {
	if f.format != "json" && f.format != "text" {
		return exitError(2, "unknown format %q: want json or text", f.format)
	}
	subs, err := loadSubmissions(path)
	if err != nil {
		return exitError(3, "failed to load metrics: %v", err)
	}
	engine := scoring.NewEngine()
	scored := make([]scoredInstitution, 0, len(subs))
	for _, sub := range subs {
		res, err := engine.Score(ctx, sub.Input())
		if err != nil {
			return fmt.Errorf("score %s: %w", sub.InstitutionID, err)
		}
		scored = append(scored, scoredInstitution{InstitutionID: res.InstitutionID, Result: res.Final})
	}

	if f.format == "text" {
		return writeScoreText(out, scored)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(scored)
}

func writeScoreText(out io.Writer, scored []scoredInstitution) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, s := range scored {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		r := s.Result
		fmt.Fprintf(tw, "%s\tfinal\t%.2f\n", s.InstitutionID, r.FinalScore)
		for _, c := range []scoring.CategoryResult{r.TLR, r.RP} {
			fmt.Fprintf(tw, "\t%s\t%.2f\n", c.Category, c.Total)
			for _, name := range scoring.Order(c.Category) {
				sub := c.SubScores[name]
				note := ""
				if !sub.Breakdown.Valid {
					note = sub.Breakdown.Reason
				}
				fmt.Fprintf(tw, "\t  %s\t%.2f / %.0f\t%s\n", name, sub.Value, sub.Max, note)
			}
		}
		fmt.Fprintf(tw, "\t%s\t%.2f\n", scoring.CategoryGO, r.GO)
		fmt.Fprintf(tw, "\t%s\t%.2f\n", scoring.CategoryOI, r.OI)
		fmt.Fprintf(tw, "\t%s\t%.2f\n", scoring.CategoryPR, r.PR)
	}
	return tw.Flush()
}
