package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/instrank/internal/domain/model"
	"github.com/okian/instrank/internal/domain/types"
)

type submitFlags struct {
	url     string
	timeout time.Duration
}

func newSubmitCmd() *cobra.Command {
	f := &submitFlags{}

	cmd := &cobra.Command{
		Use:   "submit <submissions-file>",
		Short: "POST submissions to a running instrank server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd.Context(), cmd.OutOrStdout(), args[0], f)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.url, "url", "http://localhost:9080", "Base URL of the instrank server")
	flags.DurationVar(&f.timeout, "timeout", 10*time.Second, "Per-request timeout")
	return cmd
}

func runSubmit(ctx context.Context, out io.Writer, path string, f *submitFlags) error {
	subs, err := loadSubmissions(path)
	if err != nil {
		return exitError(3, "failed to load submissions: %v", err)
	}

	client := &http.Client{Timeout: f.timeout}
	endpoint := strings.TrimRight(f.url, "/") + "/submissions"

	var accepted, duplicates, failed int
	for _, sub := range subs {
		ack, err := postSubmission(ctx, client, endpoint, sub)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s\t%s\terror: %v\n", sub.SubmissionID, sub.InstitutionID, err)
			continue
		}
		if ack.Duplicate {
			duplicates++
		} else {
			accepted++
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", ack.SubmissionID, sub.InstitutionID, ack.Status)
	}
	fmt.Fprintf(out, "accepted=%d duplicate=%d failed=%d\n", accepted, duplicates, failed)

	if failed > 0 {
		return exitError(4, "%d of %d submissions failed", failed, len(subs))
	}
	return nil
}

func postSubmission(ctx context.Context, client *http.Client, endpoint string, sub model.Submission) (types.Ack, error) { //nolint:gocritic // hugeParam: read only
	body, err := json.Marshal(sub)
	if err != nil {
		return types.Ack{}, fmt.Errorf("encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return types.Ack{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return types.Ack{}, fmt.Errorf("post submission: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.Ack{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Code != "" {
			return types.Ack{}, fmt.Errorf("%s (%d): %s", apiErr.Code, resp.StatusCode, apiErr.Message)
		}
		return types.Ack{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var ack types.Ack
	if err := json.Unmarshal(payload, &ack); err != nil {
		return types.Ack{}, fmt.Errorf("decode ack: %w", err)
	}
	return ack, nil
}
