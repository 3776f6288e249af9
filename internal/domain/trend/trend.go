// Package trend analyzes disease progression across repeated assessments
// of one patient.
//
// Each call is a fresh computation over the supplied batch: nothing is
// cached and nothing carries over between calls. A batch with fewer than
// two records yields a tagged insufficient_data result, not an error, and
// every tracked metric is evaluated independently; a metric missing from
// some snapshots simply has fewer usable points.
package trend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/mnemo/internal/domain/model"
)

// Analysis status tags. Callers must check Status, not error values.
const (
	StatusAnalyzed         = "analyzed"
	StatusInsufficientData = "insufficient_data"
)

// Trend direction labels for risk trajectories.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Decline severity classes.
const (
	SeverityRapid    = "rapid"
	SeverityModerate = "moderate"
	SeveritySlow     = "slow"
	SeverityStable   = "stable"
	SeverityUnknown  = "unknown"
)

const (
	daysPerYear      = 365.25
	hoursPerDay      = 24
	defaultTrendBand = 0.05

	smallSampleLimit   = 3
	mediumSampleLimit  = 5
	smallSampleFactor  = 0.6
	mediumSampleFactor = 0.8
)

// DeclineThresholds classify an annualized rate of change. All values are
// negative: a rate at or below Rapid is "rapid", and so on up to "stable".
type DeclineThresholds struct {
	Rapid    float64
	Moderate float64
	Slow     float64
}

// Metric names a tracked cognitive test. Thresholds may be nil for metrics
// that are collected but have no published classification.
type Metric struct {
	Name       string
	Thresholds *DeclineThresholds
}

// DeclineRate is the annualized rate of change of one metric.
type DeclineRate struct {
	Rate     float64 `json:"rate"`
	Severity string  `json:"severity"`
}

// SymptomPoint is one observation in a symptom's progression timeline.
type SymptomPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
}

// RiskTrend describes how one risk sub-score moved across the history.
type RiskTrend struct {
	Initial      float64 `json:"initial"`
	Current      float64 `json:"current"`
	AnnualChange float64 `json:"annual_change"`
	Trend        string  `json:"trend"`
}

// Prediction is a one-step-ahead forecast of the primary cognitive metric.
type Prediction struct {
	Status         string  `json:"status"`
	CurrentScore   float64 `json:"current_score,omitempty"`
	PredictedScore float64 `json:"predicted_score_1year,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// Progression is the full longitudinal analysis result.
type Progression struct {
	Status          string                    `json:"status"`
	Message         string                    `json:"message,omitempty"`
	DeclineRates    map[string]DeclineRate    `json:"cognitive_decline_rate,omitempty"`
	Symptoms        map[string][]SymptomPoint `json:"symptom_progression,omitempty"`
	RiskTrajectory  map[string]RiskTrend      `json:"risk_trajectory,omitempty"`
	Prediction      Prediction                `json:"prediction"`
	Recommendations []string                  `json:"recommendations,omitempty"`
}

// DefaultMetrics is the published metric registry: the first entry is the
// primary metric used for prediction. Clock drawing is collected without a
// classification rubric, so its severity reads "unknown".
func DefaultMetrics() []Metric {
	return []Metric{
		{Name: "mmse_score", Thresholds: &DeclineThresholds{Rapid: -3, Moderate: -2, Slow: -1}},
		{Name: "verbal_fluency", Thresholds: &DeclineThresholds{Rapid: -5, Moderate: -3, Slow: -1}},
		{Name: "clock_drawing_test"},
	}
}

// DefaultSymptoms is the set of symptom timelines tracked across visits.
func DefaultSymptoms() []string {
	return []string{"memory_issues", "language_difficulties", "daily_activity_changes"}
}

// riskExtractor maps risk type names to sub-score accessors, keeping the
// four trajectory cases uniform.
type riskExtractor struct {
	name    string
	extract func(model.RiskAssessment) float64
}

var riskExtractors = []riskExtractor{
	{"overall_risk", func(a model.RiskAssessment) float64 { return a.OverallRisk }},
	{"cognitive_risk", func(a model.RiskAssessment) float64 { return a.CognitiveRisk }},
	{"genetic_risk", func(a model.RiskAssessment) float64 { return a.GeneticRisk }},
	{"lifestyle_risk", func(a model.RiskAssessment) float64 { return a.LifestyleRisk }},
}

// Analyzer computes progression analyses. Safe for concurrent use: it holds
// only immutable configuration.
type Analyzer struct {
	metrics   []Metric
	symptoms  []string
	trendBand float64
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithMetrics replaces the tracked metric registry. The first metric is the
// prediction target.
func WithMetrics(metrics []Metric) Option {
	return func(a *Analyzer) {
		if len(metrics) > 0 {
			a.metrics = metrics
		}
	}
}

// WithDeclineThresholds overrides the thresholds of named metrics.
func WithDeclineThresholds(thresholds map[string]DeclineThresholds) Option {
	return func(a *Analyzer) {
		for i := range a.metrics {
			if t, ok := thresholds[a.metrics[i].Name]; ok {
				bound := t
				a.metrics[i].Thresholds = &bound
			}
		}
	}
}

// WithSymptoms replaces the tracked symptom timelines.
func WithSymptoms(symptoms []string) Option {
	return func(a *Analyzer) {
		if len(symptoms) > 0 {
			a.symptoms = symptoms
		}
	}
}

// WithTrendBand sets the +/- band around zero annual change that still
// counts as a stable trajectory.
func WithTrendBand(band float64) Option {
	return func(a *Analyzer) {
		if band > 0 {
			a.trendBand = band
		}
	}
}

// NewAnalyzer creates an analyzer with the default registry.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		metrics:   DefaultMetrics(),
		symptoms:  DefaultSymptoms(),
		trendBand: defaultTrendBand,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes the progression analysis for one patient's history.
// The batch is re-sorted by timestamp first since append order is not
// guaranteed to match visit order.
func (a *Analyzer) Analyze(_ context.Context, history []model.Assessed) Progression {
	sorted := make([]model.Assessed, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	if len(sorted) < 2 {
		return Progression{
			Status:  StatusInsufficientData,
			Message: "need at least 2 assessments for progression analysis",
		}
	}

	p := Progression{
		Status:         StatusAnalyzed,
		DeclineRates:   a.declineRates(sorted),
		Symptoms:       a.symptomProgression(sorted),
		RiskTrajectory: a.riskTrajectory(sorted),
		Prediction:     a.predict(sorted),
	}
	p.Recommendations = a.recommendations(p)
	return p
}

// metricSeries collects (years-from-first-valid-point, score) pairs for one
// metric, skipping records where the metric is missing or unparseable.
func metricSeries(history []model.Assessed, metric string) (years, scores []float64) {
	var first time.Time
	for _, rec := range history {
		raw := rec.PatientData.CognitiveTests.Get(metric, "")
		if raw == "" {
			continue
		}
		v, err := model.NumericPrefix(raw)
		if err != nil {
			continue
		}
		if len(scores) == 0 {
			first = rec.Timestamp
		}
		years = append(years, yearsBetween(first, rec.Timestamp))
		scores = append(scores, v)
	}
	return years, scores
}

func (a *Analyzer) declineRates(history []model.Assessed) map[string]DeclineRate {
	rates := make(map[string]DeclineRate)

	for _, metric := range a.metrics {
		years, scores := metricSeries(history, metric.Name)
		if len(scores) < 2 {
			continue
		}

		var rate float64
		if len(scores) == 2 {
			elapsed := years[1]
			if elapsed <= 0 {
				continue // same-day repeats carry no rate information
			}
			rate = (scores[1] - scores[0]) / elapsed
		} else {
			slope, _, ok := olsFit(years, scores)
			if !ok {
				continue
			}
			rate = slope
		}

		rates[metric.Name] = DeclineRate{
			Rate:     rate,
			Severity: classifyDecline(metric.Thresholds, rate),
		}
	}

	return rates
}

func classifyDecline(t *DeclineThresholds, rate float64) string {
	if t == nil {
		return SeverityUnknown
	}
	switch {
	case rate <= t.Rapid:
		return SeverityRapid
	case rate <= t.Moderate:
		return SeverityModerate
	case rate <= t.Slow:
		return SeveritySlow
	default:
		return SeverityStable
	}
}

func (a *Analyzer) symptomProgression(history []model.Assessed) map[string][]SymptomPoint {
	progression := make(map[string][]SymptomPoint)

	for _, symptom := range a.symptoms {
		var timeline []SymptomPoint
		for _, rec := range history {
			severity := rec.PatientData.Symptoms.Get(symptom, "")
			if severity == "" {
				continue
			}
			timeline = append(timeline, SymptomPoint{
				Timestamp: rec.Timestamp,
				Severity:  strings.ToLower(severity),
			})
		}
		if len(timeline) > 0 {
			progression[symptom] = timeline
		}
	}

	return progression
}

func (a *Analyzer) riskTrajectory(history []model.Assessed) map[string]RiskTrend {
	// Elapsed time spans the first to last record carrying a valid
	// assessment, not the whole history.
	var assessed []model.Assessed
	for _, rec := range history {
		if rec.RiskAssessment != nil {
			assessed = append(assessed, rec)
		}
	}
	if len(assessed) == 0 {
		return nil
	}

	first := assessed[0]
	last := assessed[len(assessed)-1]
	elapsed := yearsBetween(first.Timestamp, last.Timestamp)

	trends := make(map[string]RiskTrend, len(riskExtractors))
	for _, ext := range riskExtractors {
		initial := ext.extract(*first.RiskAssessment)
		current := ext.extract(*last.RiskAssessment)

		var annualChange float64
		if elapsed > 0 {
			annualChange = (current - initial) / elapsed
		}

		trends[ext.name] = RiskTrend{
			Initial:      initial,
			Current:      current,
			AnnualChange: annualChange,
			Trend:        a.classifyTrend(annualChange),
		}
	}

	return trends
}

func (a *Analyzer) classifyTrend(annualChange float64) string {
	switch {
	case annualChange > a.trendBand:
		return TrendIncreasing
	case annualChange < -a.trendBand:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// predict forecasts the primary metric one year past its last observation.
func (a *Analyzer) predict(history []model.Assessed) Prediction {
	primary := a.metrics[0]
	years, scores := metricSeries(history, primary.Name)
	if len(scores) < 2 {
		return Prediction{Status: StatusInsufficientData}
	}

	slope, intercept, ok := olsFit(years, scores)
	if !ok {
		return Prediction{Status: StatusInsufficientData}
	}

	lastYear := years[len(years)-1]
	return Prediction{
		Status:         StatusAnalyzed,
		CurrentScore:   scores[len(scores)-1],
		PredictedScore: slope*(lastYear+1) + intercept,
		Confidence:     confidence(years, scores, slope, intercept),
	}
}

// confidence scales the fit's R-squared down for small samples and rounds
// to two decimal places.
func confidence(years, scores []float64, slope, intercept float64) float64 {
	c := rSquared(years, scores, slope, intercept)
	switch {
	case len(scores) < smallSampleLimit:
		c *= smallSampleFactor
	case len(scores) < mediumSampleLimit:
		c *= mediumSampleFactor
	}
	return math.Round(c*100) / 100
}

// Recommendation templates, parameterized by the triggering metric or risk.
const (
	recRapidDecline    = "Urgent: Rapid decline in %s. Immediate medical consultation required."
	recModerateDecline = "Important: Moderate decline in %s. Schedule follow-up assessment."
	recIncreasingRisk  = "Monitor: Increasing trend in %s. Review risk management strategy."
	recPredictedDrop   = "Alert: Cognitive decline predicted. Consider preventive interventions."
)

func (a *Analyzer) recommendations(p Progression) []string {
	var recs []string

	// Iterate the configured orders so output is deterministic.
	for _, metric := range a.metrics {
		rate, ok := p.DeclineRates[metric.Name]
		if !ok {
			continue
		}
		switch rate.Severity {
		case SeverityRapid:
			recs = append(recs, fmt.Sprintf(recRapidDecline, metric.Name))
		case SeverityModerate:
			recs = append(recs, fmt.Sprintf(recModerateDecline, metric.Name))
		}
	}

	for _, ext := range riskExtractors {
		if t, ok := p.RiskTrajectory[ext.name]; ok && t.Trend == TrendIncreasing {
			recs = append(recs, fmt.Sprintf(recIncreasingRisk, ext.name))
		}
	}

	if p.Prediction.Status == StatusAnalyzed && p.Prediction.PredictedScore < p.Prediction.CurrentScore {
		recs = append(recs, recPredictedDrop)
	}

	return recs
}

func yearsBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / hoursPerDay / daysPerYear
}
