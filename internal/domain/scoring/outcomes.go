package scoring

// ScoreGO computes the graduation outcome score.
func ScoreGO(m GOMetrics) float64 {
	return roundScore(scoreGO(m))
}

// ScoreOI computes the outreach & inclusivity score.
func ScoreOI(m OIMetrics) float64 {
	return roundScore(scoreOI(m))
}

// ScorePR computes the perception score.
func ScorePR(m PRMetrics) float64 {
	return roundScore(scorePR(m))
}

func scoreGO(m GOMetrics) float64 {
	return Clamp(goPlacementWeight*m.PlacementPct+
		goHigherStudiesWeight*m.HigherStudiesPct+
		goExamPassWeight*m.ExamPassPct+
		goPhDGraduationWeight*m.PhDGraduationPct, 0, categoryMax)
}

func scoreOI(m OIMetrics) float64 {
	return Clamp(oiRegionalWeight*m.RegionalDiversityPct+
		oiWomenWeight*m.WomenDiversityPct+
		oiEconomicWeight*m.EconomicallyDisadvantagedPct+
		oiAccessibilityWeight*m.AccessibilityPct, 0, categoryMax)
}

func scorePR(m PRMetrics) float64 {
	return Clamp(prPeerWeight*m.PeerPerception+
		prEmployerWeight*m.EmployerPerception+
		prPublicWeight*m.PublicPerception, 0, categoryMax)
}
