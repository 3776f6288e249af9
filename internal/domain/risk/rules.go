package risk

// Band adds Points when the observed value is below Upper. Bands are
// evaluated in order and the first match wins, so they must be sorted by
// ascending Upper.
type Band struct {
	Upper  float64
	Points float64
}

// Step adds Points when the observed value is at least Lower. Steps are
// evaluated in order and the first match wins, so they must be sorted by
// descending Lower.
type Step struct {
	Lower  float64
	Points float64
}

// Weights combines the three sub-scores into the overall risk.
type Weights struct {
	Cognitive float64
	Genetic   float64
	Lifestyle float64
}

// Rules is the full scoring rubric. It is plain configuration data so the
// rubric can be versioned and tested independently of the control flow.
type Rules struct {
	// Cognitive sub-score
	MMSEBands      []Band
	VerbalBands    []Band
	SeverityPoints map[string]float64 // memory issue severity -> points

	// Genetic sub-score
	HomozygousE4Points   float64
	HeterozygousE4Points float64
	FamilyHistoryPoints  float64
	BetaAmyloidPoints    float64

	// Lifestyle sub-score
	AgeSteps       []Step
	EducationSteps []Step // negative points: education is protective
	CardioTerms    []string
	CardioPoints   float64

	Weights Weights
}

// DefaultRules returns the published rubric. Callers must not mutate the
// returned value; Options copy before overriding.
func DefaultRules() Rules {
	return Rules{
		MMSEBands: []Band{
			{Upper: 24, Points: 0.4},
			{Upper: 27, Points: 0.2},
		},
		VerbalBands: []Band{
			{Upper: 12, Points: 0.3},
			{Upper: 15, Points: 0.15},
		},
		SeverityPoints: map[string]float64{
			"severe":   0.3,
			"moderate": 0.2,
			"mild":     0.1,
		},
		HomozygousE4Points:   0.5,
		HeterozygousE4Points: 0.3,
		FamilyHistoryPoints:  0.3,
		BetaAmyloidPoints:    0.2,
		AgeSteps: []Step{
			{Lower: 65, Points: 0.3},
			{Lower: 55, Points: 0.15},
		},
		EducationSteps: []Step{
			{Lower: 16, Points: -0.1},
			{Lower: 12, Points: -0.05},
		},
		CardioTerms:  []string{"hypertension", "heart disease"},
		CardioPoints: 0.2,
		Weights: Weights{
			Cognitive: 0.4,
			Genetic:   0.3,
			Lifestyle: 0.3,
		},
	}
}

// Recommendation tiers. Tiers are additive: a patient can trigger several,
// and each contributes its strings in this fixed order.
var (
	urgentTier = []string{
		"Immediate consultation with a neurologist recommended",
		"Consider comprehensive neuropsychological testing",
		"Regular cognitive monitoring advised",
	}
	followUpTier = []string{
		"Schedule follow-up cognitive assessments",
		"Consider lifestyle modifications",
		"Monitor cognitive changes closely",
	}
	cognitiveTier = []string{
		"Engage in cognitive stimulation activities",
		"Consider cognitive rehabilitation programs",
		"Regular memory exercises recommended",
	}
	lifestyleTier = []string{
		"Increase physical activity levels",
		"Maintain social engagement",
		"Consider Mediterranean diet adoption",
		"Regular cardiovascular health check-ups",
	}
)

// Recommendation tier trigger thresholds.
const (
	urgentOverallRisk   = 0.7
	followUpOverallRisk = 0.4
	cognitiveTierRisk   = 0.6
	lifestyleTierRisk   = 0.5
)

// Warning sign texts.
const (
	warnMMSESignificant = "Significant cognitive impairment detected in MMSE score"
	warnMMSEMild        = "Mild cognitive impairment detected in MMSE score"
	warnMemorySevere    = "Significant memory issues reported"
	warnMemoryEarly     = "Early signs of memory issues detected"
	warnLanguage        = "Language difficulties present"
	warnDailyActivity   = "Changes in daily activities observed"
)
