package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/okian/instrank/internal/domain/model"
	"github.com/okian/instrank/internal/domain/types"
)

const sampleMetricsYAML = `
tlr:
  sanctioned_intake: 150
  enrolled_students: 150
  faculty_count: 10
  phd_faculty: 5
  experience_up_to_8: 4
  experience_8_to_15: 4
  experience_over_15: 2
  capital_expenditure: [15000000, 15000000, 15000000]
  operational_expenditure: [7500000, 7500000, 7500000]
rp:
  weighted_publications: 25
  retracted_publications: 2
  citations: 500
  top_quartile_publications: 5
  retracted_citations: 20
  patents_granted: 5
  patents_published: 40
  research_funding: [3000000, 3000000, 3000000]
  consultancy_funding: [500000, 500000, 500000]
go: {placement_pct: 80, higher_studies_pct: 10, exam_pass_pct: 90, phd_graduation_pct: 50}
oi: {regional_diversity_pct: 50, women_diversity_pct: 40, economically_disadvantaged_pct: 20, accessibility_pct: 100}
pr: {peer_perception: 60, employer_perception: 50, public_perception: 40}
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	var ee *exitErr
	if errors.As(err, &ee) {
		return ee.code
	}
	return -1
}

func TestDecodeSubmissions(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantIDs []string
		wantErr bool
	}{
		{"bare metrics yaml", sampleMetricsYAML, []string{"file"}, false},
		{"bare metrics json", `{"go":{"placement_pct":80}}`, []string{"file"}, false},
		{"single submission", "institution_id: inst-9\nmetrics:\n  go: {placement_pct: 80}\n", []string{"inst-9"}, false},
		{"submission list", "- institution_id: a\n- institution_id: b\n", []string{"a", "b"}, false},
		{"empty", "", nil, true},
		{"malformed", "tlr: [", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs, err := decodeSubmissions([]byte(tt.doc), "file")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(subs) != len(tt.wantIDs) {
				t.Fatalf("got %d submissions, want %d", len(subs), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if subs[i].InstitutionID != id {
					t.Errorf("submission %d institution = %q, want %q", i, subs[i].InstitutionID, id)
				}
			}
		})
	}

	subs, err := decodeSubmissions([]byte(sampleMetricsYAML), "file")
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	if got := subs[0].Metrics.TLR.CapitalExpenditure[2]; got != 15_000_000 {
		t.Errorf("capital expenditure year 3 = %v, want 15000000", got)
	}
}

func TestScoreCommand(t *testing.T) {
	path := writeTemp(t, "metrics.yaml", sampleMetricsYAML)

	out, err := execute("score", path)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var scored []scoredInstitution
	if err := json.Unmarshal([]byte(out), &scored); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(scored) != 1 || scored[0].Result.FinalScore != 62.0 {
		t.Fatalf("unexpected result: %+v", scored)
	}

	out, err = execute("score", "--format", "text", path)
	if err != nil {
		t.Fatalf("score text: %v", err)
	}
	for _, want := range []string{"final", "62.00", "tlr", "77.41", "fsr"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	if _, err := execute("score", "--format", "xml", path); exitCode(err) != 2 {
		t.Errorf("unknown format: got %v, want exit code 2", err)
	}
	if _, err := execute("score", filepath.Join(t.TempDir(), "missing.yaml")); exitCode(err) != 3 {
		t.Errorf("missing file: got %v, want exit code 3", err)
	}
}

func TestGenerateCommand(t *testing.T) {
	args := []string{"generate", "--count", "5", "--seed", "42", "--submitted-at", "2026-03-01T00:00:00Z"}
	first, err := execute(args...)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := execute(args...)
	if err != nil {
		t.Fatalf("generate again: %v", err)
	}
	if first != second {
		t.Error("same seed produced different output")
	}

	var subs []model.Submission
	if err := yaml.Unmarshal([]byte(first), &subs); err != nil {
		t.Fatalf("decode generated yaml: %v", err)
	}
	if len(subs) != 5 {
		t.Fatalf("got %d submissions, want 5", len(subs))
	}
	seen := map[string]bool{}
	for _, s := range subs {
		if _, err := uuid.Parse(s.SubmissionID); err != nil {
			t.Errorf("submission id %q is not a uuid: %v", s.SubmissionID, err)
		}
		if seen[s.SubmissionID] {
			t.Errorf("duplicate submission id %q", s.SubmissionID)
		}
		seen[s.SubmissionID] = true
		if s.Metrics.TLR.SanctionedIntake < 60 {
			t.Errorf("intake %v below generator range", s.Metrics.TLR.SanctionedIntake)
		}
		tlr := s.Metrics.TLR
		if tlr.ExperienceUpTo8+tlr.Experience8To15+tlr.ExperienceOver15 != tlr.FacultyCount {
			t.Errorf("experience bands do not sum to faculty count: %+v", tlr)
		}
	}

	if _, err := execute("generate", "--count", "0"); exitCode(err) != 2 {
		t.Errorf("zero count: got %v, want exit code 2", err)
	}
}

func TestSubmitCommand(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/submissions" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var sub model.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(types.Ack{SubmissionID: sub.SubmissionID, Status: types.AckAccepted})
		case 2:
			_ = json.NewEncoder(w).Encode(types.Ack{SubmissionID: sub.SubmissionID, Status: types.AckDuplicate, Duplicate: true})
		default:
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":"backpressure","message":"submission queue full"}`))
		}
	}))
	defer srv.Close()

	path := writeTemp(t, "subs.yaml", "- {submission_id: s-1, institution_id: a}\n- {submission_id: s-1, institution_id: a}\n- {submission_id: s-2, institution_id: b}\n")

	out, err := execute("submit", path, "--url", srv.URL+"/")
	if exitCode(err) != 4 {
		t.Fatalf("got %v, want exit code 4", err)
	}
	for _, want := range []string{"s-1\ta\taccepted", "s-1\ta\tduplicate", "backpressure (429)", "accepted=1 duplicate=1 failed=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d calls, want 3", calls.Load())
	}
}
