package scoring

import "math"

// headcount is the student base of category 1: sanctioned intake plus
// doctoral students.
func headcount(m TLRMetrics) float64 {
	return m.SanctionedIntake + m.PhDStudents
}

// Baseline returns the required-or-available faculty count used as the
// denominator of category-2 productivity ratios.
func Baseline(m TLRMetrics) float64 {
	return math.Max(headcount(m)/studentsPerRequiredFaculty, m.FacultyCount)
}

// ScoreTLR computes the teaching, learning & resources category.
func ScoreTLR(m TLRMetrics) CategoryResult {
	return scoreTLR(m).rounded()
}

func scoreTLR(m TLRMetrics) CategoryResult {
	return newCategory(CategoryTLR,
		studentStrength(m),
		facultyStudentRatio(m),
		facultyQuality(m),
		financialUtilization(m),
	)
}

func studentStrength(m TLRMetrics) SubScore {
	enrollment := Clamp(Ratio(m.EnrolledStudents, m.SanctionedIntake), 0, enrollmentTolerance)
	enrollmentScore := math.Min(1, enrollment)
	phd := Normalize(m.PhDStudents, phdStudentReference)

	value := ssEnrollmentWeight*enrollmentScore + ssPhDWeight*phd
	return newSubScore(SubScoreSS, value, ssMax, map[string]float64{
		"enrollment_ratio":       enrollment,
		"enrollment_score_ratio": enrollmentScore,
		"phd_ratio":              phd,
	})
}

func facultyStudentRatio(m TLRMetrics) SubScore {
	students := headcount(m)
	ratio := Ratio(m.FacultyCount, students)
	terms := map[string]float64{
		"headcount":     students,
		"faculty":       m.FacultyCount,
		"faculty_ratio": ratio,
	}

	var reason string
	switch {
	case students <= 0:
		reason = "no students reported"
	case m.FacultyCount <= 0:
		reason = "no faculty reported"
	case ratio < fsrMinimumRatio:
		reason = "faculty ratio below 1:50"
	}
	if reason != "" {
		s := newSubScore(SubScoreFSR, 0, fsrMax, terms)
		s.Breakdown.Valid = false
		s.Breakdown.Reason = reason
		return s
	}

	return newSubScore(SubScoreFSR, fsrMax*ratio/fsrTargetRatio, fsrMax, terms)
}

func facultyQuality(m TLRMetrics) SubScore {
	required := headcount(m) / studentsPerRequiredFaculty
	denominator := math.Max(required, m.FacultyCount)
	phdPct := 100 * Ratio(m.PhDFaculty, denominator)

	fq := fqMax
	if phdPct < fqSaturationPercent {
		fq = Clamp(fqMax*phdPct/fqSaturationPercent, 0, fqMax)
	}

	bands := m.ExperienceUpTo8 + m.Experience8To15 + m.ExperienceOver15
	f1 := Ratio(m.ExperienceUpTo8, bands)
	f2 := Ratio(m.Experience8To15, bands)
	f3 := Ratio(m.ExperienceOver15, bands)
	fe := feShortWeight*Clamp(feBandMultiplier*f1, 0, 1) +
		feMediumWeight*Clamp(feBandMultiplier*f2, 0, 1) +
		feLongWeight*Clamp(feBandMultiplier*f3, 0, 1)

	return newSubScore(SubScoreFQE, fq+fe, fqeMax, map[string]float64{
		"required_faculty": required,
		"phd_faculty_pct":  phdPct,
		"fq":               fq,
		"f1":               f1,
		"f2":               f2,
		"f3":               f3,
		"fe":               fe,
	})
}

func financialUtilization(m TLRMetrics) SubScore {
	students := headcount(m)
	capital := Ratio(mean(m.CapitalExpenditure), students)
	operational := Ratio(mean(m.OperationalExpenditure), students)
	bc := Normalize(capital, capitalPerStudentReference)
	bo := Normalize(operational, operationalPerStudentReference)

	value := fruCapitalWeight*bc + fruOperationalWeight*bo
	return newSubScore(SubScoreFRU, value, fruMax, map[string]float64{
		"capital_per_student":     capital,
		"operational_per_student": operational,
		"bc":                      bc,
		"bo":                      bo,
	})
}
