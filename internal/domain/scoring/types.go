// Package scoring converts raw institutional metrics into capped sub-scores,
// category totals and a weighted final ranking score.
//
// Every calculator follows the same pipeline: a raw count is turned into a
// ratio against a reference scale, saturated with Normalize, and scaled by a
// fixed point weight, optionally minus a saturating penalty. All functions are
// pure and safe for concurrent use.
package scoring

// Category identifies one of the five weighted ranking categories.
type Category string

const (
	CategoryTLR Category = "tlr" // teaching, learning & resources
	CategoryRP  Category = "rp"  // research & professional practice
	CategoryGO  Category = "go"  // graduation outcome
	CategoryOI  Category = "oi"  // outreach & inclusivity
	CategoryPR  Category = "pr"  // perception
)

// Sub-score names.
const (
	SubScoreSS   = "ss"
	SubScoreFSR  = "fsr"
	SubScoreFQE  = "fqe"
	SubScoreFRU  = "fru"
	SubScorePU   = "pu"
	SubScoreQP   = "qp"
	SubScoreIPR  = "ipr"
	SubScoreFPPP = "fppp"
)

// TLRMetrics are the raw resource and capacity figures of category 1.
// Expenditures cover a fixed three-year window.
type TLRMetrics struct {
	SanctionedIntake       float64    `json:"sanctioned_intake" yaml:"sanctioned_intake"`
	EnrolledStudents       float64    `json:"enrolled_students" yaml:"enrolled_students"`
	PhDStudents            float64    `json:"phd_students" yaml:"phd_students"`
	FacultyCount           float64    `json:"faculty_count" yaml:"faculty_count"`
	PhDFaculty             float64    `json:"phd_faculty" yaml:"phd_faculty"`
	ExperienceUpTo8        float64    `json:"experience_up_to_8" yaml:"experience_up_to_8"`
	Experience8To15        float64    `json:"experience_8_to_15" yaml:"experience_8_to_15"`
	ExperienceOver15       float64    `json:"experience_over_15" yaml:"experience_over_15"`
	CapitalExpenditure     [3]float64 `json:"capital_expenditure" yaml:"capital_expenditure"`
	OperationalExpenditure [3]float64 `json:"operational_expenditure" yaml:"operational_expenditure"`
}

// RPMetrics are the raw research output figures of category 2.
type RPMetrics struct {
	WeightedPublications    float64    `json:"weighted_publications" yaml:"weighted_publications"`
	RetractedPublications   float64    `json:"retracted_publications" yaml:"retracted_publications"`
	Citations               float64    `json:"citations" yaml:"citations"`
	TopQuartilePublications float64    `json:"top_quartile_publications" yaml:"top_quartile_publications"`
	RetractedCitations      float64    `json:"retracted_citations" yaml:"retracted_citations"`
	PatentsGranted          float64    `json:"patents_granted" yaml:"patents_granted"`
	PatentsPublished        float64    `json:"patents_published" yaml:"patents_published"`
	ResearchFunding         [3]float64 `json:"research_funding" yaml:"research_funding"`
	ConsultancyFunding      [3]float64 `json:"consultancy_funding" yaml:"consultancy_funding"`
}

// GOMetrics are graduation outcome percentages.
type GOMetrics struct {
	PlacementPct     float64 `json:"placement_pct" yaml:"placement_pct"`
	HigherStudiesPct float64 `json:"higher_studies_pct" yaml:"higher_studies_pct"`
	ExamPassPct      float64 `json:"exam_pass_pct" yaml:"exam_pass_pct"`
	PhDGraduationPct float64 `json:"phd_graduation_pct" yaml:"phd_graduation_pct"`
}

// OIMetrics are outreach and inclusivity percentages.
type OIMetrics struct {
	RegionalDiversityPct         float64 `json:"regional_diversity_pct" yaml:"regional_diversity_pct"`
	WomenDiversityPct            float64 `json:"women_diversity_pct" yaml:"women_diversity_pct"`
	EconomicallyDisadvantagedPct float64 `json:"economically_disadvantaged_pct" yaml:"economically_disadvantaged_pct"`
	AccessibilityPct             float64 `json:"accessibility_pct" yaml:"accessibility_pct"`
}

// PRMetrics are perception survey scores on a 0-100 scale.
type PRMetrics struct {
	PeerPerception     float64 `json:"peer_perception" yaml:"peer_perception"`
	EmployerPerception float64 `json:"employer_perception" yaml:"employer_perception"`
	PublicPerception   float64 `json:"public_perception" yaml:"public_perception"`
}

// Metrics is the full raw record of one institution.
type Metrics struct {
	TLR TLRMetrics `json:"tlr" yaml:"tlr"`
	RP  RPMetrics  `json:"rp" yaml:"rp"`
	GO  GOMetrics  `json:"go" yaml:"go"`
	OI  OIMetrics  `json:"oi" yaml:"oi"`
	PR  PRMetrics  `json:"pr" yaml:"pr"`
}

// Breakdown records the intermediate values behind a sub-score. It is
// display output only and never fed back into a calculation.
type Breakdown struct {
	Terms  map[string]float64 `json:"terms"`
	Valid  bool               `json:"valid"`
	Reason string             `json:"reason,omitempty"`
}

// SubScore is one named, capped component of a category total.
type SubScore struct {
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	Max       float64   `json:"max"`
	Breakdown Breakdown `json:"breakdown"`
}

// CategoryResult holds a category's sub-scores and their sum.
type CategoryResult struct {
	Category  Category            `json:"category"`
	SubScores map[string]SubScore `json:"sub_scores"`
	Total     float64             `json:"total"`
}

// FinalResult is the engine output for one institution.
type FinalResult struct {
	TLR        CategoryResult `json:"tlr"`
	RP         CategoryResult `json:"rp"`
	GO         float64        `json:"go"`
	OI         float64        `json:"oi"`
	PR         float64        `json:"pr"`
	Baseline   float64        `json:"baseline"`
	FinalScore float64        `json:"final_score"`
}

// Totals returns the five category totals in aggregation order.
func (r FinalResult) Totals() CategoryTotals {
	return CategoryTotals{TLR: r.TLR.Total, RP: r.RP.Total, GO: r.GO, OI: r.OI, PR: r.PR}
}

// Order lists a category's sub-score names in display order.
func Order(c Category) []string {
	switch c {
	case CategoryTLR:
		return []string{SubScoreSS, SubScoreFSR, SubScoreFQE, SubScoreFRU}
	case CategoryRP:
		return []string{SubScorePU, SubScoreQP, SubScoreIPR, SubScoreFPPP}
	default:
		return nil
	}
}

func newSubScore(name string, value, maxValue float64, terms map[string]float64) SubScore {
	return SubScore{
		Name:      name,
		Value:     Clamp(value, 0, maxValue),
		Max:       maxValue,
		Breakdown: Breakdown{Terms: terms, Valid: true},
	}
}

func newCategory(c Category, subs ...SubScore) CategoryResult {
	m := make(map[string]SubScore, len(subs))
	for _, s := range subs {
		m[s.Name] = s
	}
	return CategoryResult{Category: c, SubScores: m, Total: RecomputeTotal(m)}
}

// rounded returns a copy with presentation rounding applied. The total is
// the sum of the rounded sub-scores so that Reaggregate reproduces it.
func (c CategoryResult) rounded() CategoryResult {
	out := CategoryResult{Category: c.Category, SubScores: make(map[string]SubScore, len(c.SubScores))}
	for name, s := range c.SubScores {
		terms := make(map[string]float64, len(s.Breakdown.Terms))
		for k, v := range s.Breakdown.Terms {
			terms[k] = roundRatio(v)
		}
		s.Value = roundScore(s.Value)
		s.Breakdown.Terms = terms
		out.SubScores[name] = s
	}
	out.Total = roundScore(RecomputeTotal(out.SubScores))
	return out
}
