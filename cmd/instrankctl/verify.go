package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/instrank/internal/domain/model"
	"github.com/okian/instrank/internal/domain/scoring"
	"github.com/okian/instrank/internal/domain/types"
)

const scoreTolerance = 0.005

type verifyFlags struct {
	url     string
	limit   int
	timeout time.Duration
}

func newVerifyCmd() *cobra.Command {
	f := &verifyFlags{}

	cmd := &cobra.Command{
		Use:   "verify <submissions-file>",
		Short: "Check a server's rankings against scores computed offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), cmd.OutOrStdout(), args[0], f)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.url, "url", "http://localhost:9080", "Base URL of the instrank server")
	flags.IntVar(&f.limit, "limit", 100, "Leaderboard page size used for the ordering check")
	flags.DurationVar(&f.timeout, "timeout", 10*time.Second, "Per-request timeout")
	return cmd
}

// expectedScores keeps the latest submission per institution, the one the
// server is expected to rank, and scores it offline.
func expectedScores(ctx context.Context, subs []model.Submission) (map[string]float64, error) {
	latest := make(map[string]model.Submission, len(subs))
	for _, s := range subs {
		cur, ok := latest[s.InstitutionID]
		if !ok || !cur.SubmittedAt.After(s.SubmittedAt) {
			latest[s.InstitutionID] = s
		}
	}

	engine := scoring.NewEngine()
	scores := make(map[string]float64, len(latest))
	for id, s := range latest {
		res, err := engine.Score(ctx, s.Input())
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", id, err)
		}
		scores[id] = res.Final.FinalScore
	}
	return scores, nil
}

// expectedRank is 1 plus the number of strictly higher scores.
func expectedRank(scores map[string]float64, id string) int {
	rank := 1
	for _, s := range scores {
		if s > scores[id] {
			rank++
		}
	}
	return rank
}

func runVerify(ctx context.Context, out io.Writer, path string, f *verifyFlags) error {
	subs, err := loadSubmissions(path)
	if err != nil {
		return exitError(3, "failed to load submissions: %v", err)
	}
	expected, err := expectedScores(ctx, subs)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: f.timeout}
	base := strings.TrimRight(f.url, "/")

	ids := make([]string, 0, len(expected))
	for id := range expected {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var problems []string
	for _, id := range ids {
		var entry types.Entry
		if err := getJSON(ctx, client, base+"/rank/"+url.PathEscape(id), &entry); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		if math.Abs(entry.FinalScore-expected[id]) > scoreTolerance {
			problems = append(problems, fmt.Sprintf("%s: score %.2f, expected %.2f", id, entry.FinalScore, expected[id]))
		}
		if want := expectedRank(expected, id); entry.Rank != want {
			problems = append(problems, fmt.Sprintf("%s: rank %d, expected %d", id, entry.Rank, want))
		}
	}

	var board []types.Entry
	if err := getJSON(ctx, client, fmt.Sprintf("%s/leaderboard?limit=%d", base, f.limit), &board); err != nil {
		problems = append(problems, fmt.Sprintf("leaderboard: %v", err))
	} else {
		problems = append(problems, checkLeaderboardOrder(board)...)
	}

	for _, p := range problems {
		fmt.Fprintln(out, p)
	}
	fmt.Fprintf(out, "institutions=%d leaderboard=%d problems=%d\n", len(expected), len(board), len(problems))
	if len(problems) > 0 {
		return exitError(5, "verification failed with %d problems", len(problems))
	}
	return nil
}

// checkLeaderboardOrder reports entries that break score-descending,
// id-ascending order or competition ranking.
func checkLeaderboardOrder(board []types.Entry) []string {
	var problems []string
	for i, e := range board {
		if i == 0 {
			if e.Rank != 1 {
				problems = append(problems, fmt.Sprintf("leaderboard: first entry has rank %d", e.Rank))
			}
			continue
		}
		prev := board[i-1]
		switch {
		case e.FinalScore > prev.FinalScore:
			problems = append(problems, fmt.Sprintf("leaderboard: %s scores above %s", e.InstitutionID, prev.InstitutionID))
		case e.FinalScore == prev.FinalScore && e.InstitutionID < prev.InstitutionID:
			problems = append(problems, fmt.Sprintf("leaderboard: tie %s listed after %s", e.InstitutionID, prev.InstitutionID))
		case e.FinalScore == prev.FinalScore && e.Rank != prev.Rank:
			problems = append(problems, fmt.Sprintf("leaderboard: tie %s has rank %d, expected %d", e.InstitutionID, e.Rank, prev.Rank))
		case e.FinalScore < prev.FinalScore && e.Rank != i+1:
			problems = append(problems, fmt.Sprintf("leaderboard: %s has rank %d, expected %d", e.InstitutionID, e.Rank, i+1))
		}
	}
	return problems
}

func getJSON(ctx context.Context, client *http.Client, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
