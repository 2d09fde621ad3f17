package scoring

// Reference constants for every calculator. Several are provisional values
// awaiting an authoritative formula; swap them here without touching the
// calculation structure.

// Student strength (SS).
const (
	ssMax              = 20.0
	ssEnrollmentWeight = 15.0
	ssPhDWeight        = 5.0

	// Enrollment up to 120% of sanctioned intake is tolerated; the scoring
	// function itself saturates at 1.0.
	enrollmentTolerance = 1.2
	phdStudentReference = 100.0
)

// Faculty-student ratio (FSR).
const (
	fsrMax          = 30.0
	fsrTargetRatio  = 1.0 / 15.0
	fsrMinimumRatio = 1.0 / 50.0

	studentsPerRequiredFaculty = 15.0
)

// Faculty qualification and experience (FQE).
const (
	fqeMax              = 20.0
	fqMax               = 10.0
	fqSaturationPercent = 95.0

	feBandMultiplier = 3.0
	feShortWeight    = 3.0
	feMediumWeight   = 3.0
	feLongWeight     = 4.0
)

// Financial resources and utilization (FRU).
const (
	fruMax               = 30.0
	fruCapitalWeight     = 7.5
	fruOperationalWeight = 22.5

	capitalPerStudentReference     = 100_000.0
	operationalPerStudentReference = 100_000.0
)

// Publications (PU).
const (
	puMax        = 35.0
	puPenaltyMax = 5.0

	publicationsPerFacultyReference = 5.0
	retractionReference             = 10.0
)

// Quality of publications (QP).
const (
	qpMax               = 40.0
	qpCitationWeight    = 20.0
	qpTopQuartileWeight = 20.0
	qpPenaltyMax        = 5.0

	citationsPerFacultyReference = 100.0
	topQuartileShareReference    = 0.5
	retractedCitationReference   = 100.0
)

// Intellectual property (IPR).
const (
	iprMax             = 15.0
	iprGrantedWeight   = 10.0
	iprPublishedWeight = 5.0

	patentsGrantedReference   = 10.0
	patentsPublishedReference = 20.0
)

// Funding for research and professional practice (FPPP).
const (
	fpppMax               = 10.0
	fpppResearchWeight    = 7.5
	fpppConsultancyWeight = 2.5

	researchPerFacultyReference    = 500_000.0
	consultancyPerFacultyReference = 100_000.0
)

// Single-score categories.
const (
	categoryMax = 100.0

	goPlacementWeight     = 0.40
	goHigherStudiesWeight = 0.15
	goExamPassWeight      = 0.30
	goPhDGraduationWeight = 0.15

	oiRegionalWeight      = 0.30
	oiWomenWeight         = 0.30
	oiEconomicWeight      = 0.20
	oiAccessibilityWeight = 0.20

	prPeerWeight     = 0.50
	prEmployerWeight = 0.30
	prPublicWeight   = 0.20
)

// Output precision.
const (
	scoreDecimals = 2
	ratioDecimals = 4
)
