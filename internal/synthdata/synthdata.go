// Package synthdata generates plausible synthetic patient cohorts for
// demos and load exercises. Generation is deterministic for a given seed.
package synthdata

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/okian/mnemo/internal/domain/model"
)

// visitInterval is the spacing between follow-up assessments.
const visitInterval = 182 * 24 * time.Hour

var (
	genotypes  = []string{"e3/e3", "e3/e3", "e3/e3", "e2/e3", "e3/e4", "e3/e4", "e4/e4"}
	genders    = []string{"male", "female"}
	severities = []string{"none", "mild", "moderate", "severe"}
	yesNo      = []string{"yes", "no"}
	cardio     = []string{"none", "hypertension", "heart disease"}
)

// Generator produces synthetic patients with slowly declining cognition.
type Generator struct {
	rng   *rand.Rand
	start time.Time
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithStart sets the timestamp of each patient's first visit.
func WithStart(t time.Time) Option {
	return func(g *Generator) {
		if !t.IsZero() {
			g.start = t
		}
	}
}

// New creates a generator seeded with seed.
func New(seed int64, opts ...Option) *Generator {
	g := &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		start: time.Date(2023, time.January, 9, 10, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Patient produces visits assessments for one synthetic patient, spaced
// six months apart. Cognitive scores decline visit over visit at a
// per-patient rate; symptom severities progress alongside.
func (g *Generator) Patient(patientID string, visits int) []model.Record {
	age := 55 + g.rng.Intn(35)
	education := 8 + g.rng.Intn(13)
	gender := genders[g.rng.Intn(len(genders))]
	genotype := genotypes[g.rng.Intn(len(genotypes))]
	familyHistory := yesNo[g.rng.Intn(len(yesNo))]
	cardioCondition := cardio[g.rng.Intn(len(cardio))]
	amyloid := "normal"
	if g.rng.Float64() < 0.3 {
		amyloid = "elevated"
	}

	mmse := float64(24 + g.rng.Intn(7))
	verbal := float64(12 + g.rng.Intn(10))
	clock := float64(7 + g.rng.Intn(4))

	// Annual decline rates; divided by two per six-month visit.
	mmseDecline := g.rng.Float64() * 3
	verbalDecline := g.rng.Float64() * 4
	clockDecline := g.rng.Float64()

	records := make([]model.Record, 0, visits)
	for v := 0; v < visits; v++ {
		severity := severities[min(v*len(severities)/max(visits, 1), len(severities)-1)]
		ts := g.start.Add(time.Duration(v) * visitInterval)

		records = append(records, model.Record{
			PatientID: patientID,
			Timestamp: ts,
			PatientData: model.PatientData{
				Demographics: model.Fields{
					"age":             text(float64(age) + float64(v)/2),
					"education_years": text(float64(education)),
					"gender":          model.Text(gender),
				},
				CognitiveTests: model.Fields{
					"mmse_score":         text(clampLow(mmse-float64(v)*mmseDecline/2, 0)),
					"verbal_fluency":     model.Text(fmt.Sprintf("%.0f words", clampLow(verbal-float64(v)*verbalDecline/2, 0))),
					"clock_drawing_test": text(clampLow(clock-float64(v)*clockDecline/2, 0)),
				},
				MedicalHistory: model.Fields{
					"family_history_alzheimers": model.Text(familyHistory),
					"cardiovascular_conditions": model.Text(cardioCondition),
				},
				Symptoms: model.Fields{
					"memory_issues":          model.Text(severity),
					"language_difficulties":  model.Text(severity),
					"daily_activity_changes": model.Text(yesNo[g.rng.Intn(len(yesNo))]),
				},
				Biomarkers: model.Biomarkers{
					ApoeGenotype: model.Text(genotype),
					BloodMarkers: model.Fields{
						"beta_amyloid": model.Text(amyloid),
					},
				},
			},
		})
	}
	return records
}

// Cohort produces count patients with visits assessments each.
func (g *Generator) Cohort(count, visits int) []model.Record {
	records := make([]model.Record, 0, count*visits)
	for i := 0; i < count; i++ {
		patientID := fmt.Sprintf("synth-%04d", i+1)
		records = append(records, g.Patient(patientID, visits)...)
	}
	return records
}

func text(v float64) model.Text {
	return model.Text(strconv.FormatFloat(v, 'f', -1, 64))
}

func clampLow(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return v
}
