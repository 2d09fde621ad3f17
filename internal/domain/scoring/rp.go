package scoring

import "math"

// ScoreRP computes the research & professional practice category. The
// baseline comes from category 1 (see Baseline) and is the denominator of
// every per-faculty ratio.
func ScoreRP(m RPMetrics, baseline float64) CategoryResult {
	return scoreRP(m, baseline).rounded()
}

func scoreRP(m RPMetrics, baseline float64) CategoryResult {
	return newCategory(CategoryRP,
		publications(m, baseline),
		publicationQuality(m, baseline),
		intellectualProperty(m),
		fundingAndPractice(m, baseline),
	)
}

func publications(m RPMetrics, baseline float64) SubScore {
	perFaculty := Ratio(m.WeightedPublications, baseline)
	volume := Normalize(perFaculty, publicationsPerFacultyReference)
	penalty := puPenaltyMax * Normalize(m.RetractedPublications, retractionReference)

	value := math.Max(0, puMax*volume-penalty)
	return newSubScore(SubScorePU, value, puMax, map[string]float64{
		"baseline":                 baseline,
		"publications_per_faculty": perFaculty,
		"volume_ratio":             volume,
		"retraction_penalty":       penalty,
	})
}

func publicationQuality(m RPMetrics, baseline float64) SubScore {
	citationsPerFaculty := Ratio(m.Citations, baseline)
	citations := Normalize(citationsPerFaculty, citationsPerFacultyReference)
	topShare := Ratio(m.TopQuartilePublications, m.WeightedPublications)
	top := Normalize(topShare, topQuartileShareReference)
	penalty := qpPenaltyMax * Normalize(m.RetractedCitations, retractedCitationReference)

	value := math.Max(0, qpCitationWeight*citations+qpTopQuartileWeight*top-penalty)
	return newSubScore(SubScoreQP, value, qpMax, map[string]float64{
		"citations_per_faculty": citationsPerFaculty,
		"citation_ratio":        citations,
		"top_quartile_share":    topShare,
		"top_quartile_ratio":    top,
		"retraction_penalty":    penalty,
	})
}

func intellectualProperty(m RPMetrics) SubScore {
	granted := Normalize(m.PatentsGranted, patentsGrantedReference)
	published := Normalize(m.PatentsPublished, patentsPublishedReference)

	value := iprGrantedWeight*granted + iprPublishedWeight*published
	return newSubScore(SubScoreIPR, value, iprMax, map[string]float64{
		"granted_ratio":   granted,
		"published_ratio": published,
	})
}

func fundingAndPractice(m RPMetrics, baseline float64) SubScore {
	research := Ratio(mean(m.ResearchFunding), baseline)
	consultancy := Ratio(mean(m.ConsultancyFunding), baseline)
	fpr := Normalize(research, researchPerFacultyReference)
	fpc := Normalize(consultancy, consultancyPerFacultyReference)

	value := fpppResearchWeight*fpr + fpppConsultancyWeight*fpc
	return newSubScore(SubScoreFPPP, value, fpppMax, map[string]float64{
		"research_per_faculty":    research,
		"consultancy_per_faculty": consultancy,
		"fpr":                     fpr,
		"fpc":                     fpc,
	})
}
