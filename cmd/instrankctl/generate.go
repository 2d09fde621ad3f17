package main

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okian/instrank/internal/domain/model"
	"github.com/okian/instrank/internal/domain/scoring"
)

type generateFlags struct {
	count       int
	seed        int64
	submittedAt string
	submittedBy string
}

func newGenerateCmd() *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Emit random sample submissions as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.OutOrStdout(), f)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&f.count, "count", 10, "Number of submissions")
	flags.Int64Var(&f.seed, "seed", 1, "Random seed; the same seed yields the same output")
	flags.StringVar(&f.submittedAt, "submitted-at", "", "RFC3339 submission time (default: now)")
	flags.StringVar(&f.submittedBy, "submitted-by", "instrankctl", "Submitter recorded on every submission")
	return cmd
}

func runGenerate(out io.Writer, f *generateFlags) error {
	if f.count < 1 {
		return exitError(2, "count must be positive, got %d", f.count)
	}
	at := time.Now().UTC().Truncate(time.Second)
	if f.submittedAt != "" {
		t, err := time.Parse(time.RFC3339, f.submittedAt)
		if err != nil {
			return exitError(2, "invalid --submitted-at: %v", err)
		}
		at = t.UTC()
	}

	subs, err := generateSubmissions(rand.New(rand.NewSource(f.seed)), f.count, at, f.submittedBy) //nolint:gosec // sample data
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(subs); err != nil {
		return fmt.Errorf("encode submissions: %w", err)
	}
	return enc.Close()
}

func generateSubmissions(rng *rand.Rand, count int, at time.Time, by string) ([]model.Submission, error) {
	subs := make([]model.Submission, count)
	for i := range subs {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("generate submission id: %w", err)
		}
		subs[i] = model.Submission{
			SubmissionID:  id.String(),
			InstitutionID: fmt.Sprintf("inst-%04d", i+1),
			SubmittedBy:   by,
			SubmittedAt:   at,
			Metrics:       randomMetrics(rng),
		}
	}
	return subs, nil
}

// randomMetrics draws a plausible record: intake in the hundreds, faculty
// near the 1:15 to 1:30 band and percentages anywhere in range.
func randomMetrics(rng *rand.Rand) scoring.Metrics {
	between := func(lo, hi float64) float64 { return float64(int(lo + rng.Float64()*(hi-lo))) }
	pct := func() float64 { return between(0, 100) }
	spend := func(lo, hi float64) [3]float64 {
		return [3]float64{between(lo, hi), between(lo, hi), between(lo, hi)}
	}

	intake := between(60, 600)
	enrolled := between(intake*0.6, intake*1.1)
	phdStudents := between(0, intake/4)
	students := enrolled + phdStudents
	faculty := between(students/30, students/12+1)
	phdFaculty := between(0, faculty)
	junior := between(0, faculty)
	mid := between(0, faculty-junior)

	return scoring.Metrics{
		TLR: scoring.TLRMetrics{
			SanctionedIntake:       intake,
			EnrolledStudents:       enrolled,
			PhDStudents:            phdStudents,
			FacultyCount:           faculty,
			PhDFaculty:             phdFaculty,
			ExperienceUpTo8:        junior,
			Experience8To15:        mid,
			ExperienceOver15:       faculty - junior - mid,
			CapitalExpenditure:     spend(students*20_000, students*200_000),
			OperationalExpenditure: spend(students*10_000, students*80_000),
		},
		RP: scoring.RPMetrics{
			WeightedPublications:    between(0, faculty*3),
			RetractedPublications:   between(0, 3),
			Citations:               between(0, faculty*40),
			TopQuartilePublications: between(0, faculty),
			RetractedCitations:      between(0, 30),
			PatentsGranted:          between(0, 10),
			PatentsPublished:        between(0, 40),
			ResearchFunding:         spend(0, faculty*500_000),
			ConsultancyFunding:      spend(0, faculty*100_000),
		},
		GO: scoring.GOMetrics{PlacementPct: pct(), HigherStudiesPct: pct(), ExamPassPct: pct(), PhDGraduationPct: pct()},
		OI: scoring.OIMetrics{RegionalDiversityPct: pct(), WomenDiversityPct: pct(), EconomicallyDisadvantagedPct: pct(), AccessibilityPct: pct()},
		PR: scoring.PRMetrics{PeerPerception: pct(), EmployerPerception: pct(), PublicPerception: pct()},
	}
}
