// Package risk computes rule-based Alzheimer's risk assessments from a
// single patient snapshot.
//
// Scoring is pure and deterministic: identical input yields identical
// output, absent fields degrade to documented defaults, and only a
// present-but-unparseable cognitive test value is an error.
package risk

import (
	"context"
	"math"
	"strings"

	"github.com/okian/mnemo/internal/domain/model"
)

// Documented defaults for absent fields.
const (
	defaultMMSE   = 30 // perfect score
	defaultVerbal = 0
)

// Scorer computes a risk assessment from one encounter's observations.
type Scorer interface {
	Score(ctx context.Context, data model.PatientData) (model.RiskAssessment, error)
}

// RuleScorer implements Scorer over a configurable rubric.
type RuleScorer struct {
	rules Rules
}

// Option applies a configuration option to the RuleScorer.
type Option func(*RuleScorer)

// WithWeights overrides the sub-score combination weights.
func WithWeights(w Weights) Option {
	return func(s *RuleScorer) {
		if w.Cognitive > 0 && w.Genetic > 0 && w.Lifestyle > 0 {
			s.rules.Weights = w
		}
	}
}

// WithRules replaces the whole rubric.
func WithRules(r Rules) Option {
	return func(s *RuleScorer) {
		s.rules = r
	}
}

// NewRuleScorer creates a scorer with the default rubric.
func NewRuleScorer(opts ...Option) *RuleScorer {
	s := &RuleScorer{rules: DefaultRules()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the four risk scores plus warnings and recommendations.
// It returns a *ParseError when a present cognitive test value has a
// non-numeric leading token; every other irregularity degrades to defaults.
func (s *RuleScorer) Score(_ context.Context, data model.PatientData) (model.RiskAssessment, error) {
	mmse, err := cognitiveField(data.CognitiveTests, "mmse_score", defaultMMSE)
	if err != nil {
		return model.RiskAssessment{}, err
	}
	verbal, err := cognitiveField(data.CognitiveTests, "verbal_fluency", defaultVerbal)
	if err != nil {
		return model.RiskAssessment{}, err
	}

	cognitive := s.cognitiveRisk(mmse, verbal, data.Symptoms)
	genetic := s.geneticRisk(data.Biomarkers, data.MedicalHistory)
	lifestyle := s.lifestyleRisk(data.Demographics, data.MedicalHistory)

	a := model.RiskAssessment{
		CognitiveRisk: cognitive,
		GeneticRisk:   genetic,
		LifestyleRisk: lifestyle,
		OverallRisk: s.rules.Weights.Cognitive*cognitive +
			s.rules.Weights.Genetic*genetic +
			s.rules.Weights.Lifestyle*lifestyle,
		WarningSigns: warningSigns(mmse, data.Symptoms),
	}
	a.Recommendations = s.recommendations(a)
	return a, nil
}

// cognitiveField reads a numeric cognitive test value, tolerating unit
// suffixes. Absence degrades to fallback; a non-numeric token is a
// ParseError since it indicates malformed rather than missing input.
func cognitiveField(tests model.Fields, key string, fallback float64) (float64, error) {
	raw := tests.Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := model.NumericPrefix(raw)
	if err != nil {
		return 0, &ParseError{Field: key, Value: raw}
	}
	return v, nil
}

func (s *RuleScorer) cognitiveRisk(mmse, verbal float64, symptoms model.Fields) float64 {
	var score float64
	score += bandPoints(s.rules.MMSEBands, mmse)
	score += bandPoints(s.rules.VerbalBands, verbal)
	score += s.rules.SeverityPoints[strings.ToLower(symptoms.Get("memory_issues", "none"))]
	return clamp01(score)
}

func (s *RuleScorer) geneticRisk(biomarkers model.Biomarkers, medical model.Fields) float64 {
	var score float64

	genotype := strings.ToLower(string(biomarkers.ApoeGenotype))
	switch {
	case strings.Contains(genotype, "e4/e4"):
		score += s.rules.HomozygousE4Points
	case strings.Contains(genotype, "e4"):
		score += s.rules.HeterozygousE4Points
	}

	if strings.EqualFold(medical.Get("family_history_alzheimers", ""), "yes") {
		score += s.rules.FamilyHistoryPoints
	}
	if strings.EqualFold(biomarkers.BloodMarkers.Get("beta_amyloid", ""), "elevated") {
		score += s.rules.BetaAmyloidPoints
	}

	return clamp01(score)
}

func (s *RuleScorer) lifestyleRisk(demographics, medical model.Fields) float64 {
	var score float64

	// Demographic fields degrade to zero on parse failure.
	age := degradedNumber(demographics.Get("age", "0"))
	score += stepPoints(s.rules.AgeSteps, age)

	education := degradedNumber(demographics.Get("education_years", "0"))
	score += stepPoints(s.rules.EducationSteps, education)

	cardio := strings.ToLower(medical.Get("cardiovascular_conditions", ""))
	for _, term := range s.rules.CardioTerms {
		if strings.Contains(cardio, term) {
			score += s.rules.CardioPoints
			break
		}
	}

	// Education can pull this score negative, so clamp both bounds.
	return clamp01(score)
}

func warningSigns(mmse float64, symptoms model.Fields) []string {
	warnings := []string{}

	switch {
	case mmse < 24:
		warnings = append(warnings, warnMMSESignificant)
	case mmse < 27:
		warnings = append(warnings, warnMMSEMild)
	}

	switch strings.ToLower(symptoms.Get("memory_issues", "none")) {
	case "moderate", "severe":
		warnings = append(warnings, warnMemorySevere)
	case "mild":
		warnings = append(warnings, warnMemoryEarly)
	}

	if !strings.EqualFold(symptoms.Get("language_difficulties", "none"), "none") {
		warnings = append(warnings, warnLanguage)
	}
	if !strings.EqualFold(symptoms.Get("daily_activity_changes", "none"), "none") {
		warnings = append(warnings, warnDailyActivity)
	}

	return warnings
}

func (s *RuleScorer) recommendations(a model.RiskAssessment) []string {
	recs := []string{}

	switch {
	case a.OverallRisk > urgentOverallRisk:
		recs = append(recs, urgentTier...)
	case a.OverallRisk > followUpOverallRisk:
		recs = append(recs, followUpTier...)
	}
	if a.CognitiveRisk > cognitiveTierRisk {
		recs = append(recs, cognitiveTier...)
	}
	if a.LifestyleRisk > lifestyleTierRisk {
		recs = append(recs, lifestyleTier...)
	}

	return recs
}

// bandPoints returns the points of the first band whose Upper bound the
// value falls below.
func bandPoints(bands []Band, value float64) float64 {
	for _, b := range bands {
		if value < b.Upper {
			return b.Points
		}
	}
	return 0
}

// stepPoints returns the points of the first step whose Lower bound the
// value reaches.
func stepPoints(steps []Step, value float64) float64 {
	for _, s := range steps {
		if value >= s.Lower {
			return s.Points
		}
	}
	return 0
}

// degradedNumber parses a numeric prefix and degrades to zero on failure.
func degradedNumber(raw string) float64 {
	v, err := model.NumericPrefix(raw)
	if err != nil {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
