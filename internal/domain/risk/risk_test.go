package risk_test

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"

	"github.com/okian/mnemo/internal/domain/model"
	"github.com/okian/mnemo/internal/domain/risk"
	. "github.com/smartystreets/goconvey/convey"
)

func highRiskPatient() model.PatientData {
	return model.PatientData{
		Demographics: model.Fields{
			"age":             "72",
			"education_years": "14",
		},
		CognitiveTests: model.Fields{
			"mmse_score":     "20",
			"verbal_fluency": "8 words",
		},
		MedicalHistory: model.Fields{
			"family_history_alzheimers": "yes",
			"cardiovascular_conditions": "hypertension",
		},
		Symptoms: model.Fields{
			"memory_issues": "moderate",
		},
		Biomarkers: model.Biomarkers{
			ApoeGenotype: "e4/e4",
			BloodMarkers: model.Fields{
				"beta_amyloid": "elevated",
			},
		},
	}
}

func TestRuleScorer_Score(t *testing.T) {
	Convey("Given a scorer with the default rubric", t, func() {
		scorer := risk.NewRuleScorer()
		ctx := context.Background()

		Convey("When scoring a high-risk patient", func() {
			a, err := scorer.Score(ctx, highRiskPatient())
			So(err, ShouldBeNil)

			Convey("Then the sub-scores match the rubric", func() {
				So(a.CognitiveRisk, ShouldAlmostEqual, 0.9)
				So(a.GeneticRisk, ShouldAlmostEqual, 1.0)
				So(a.LifestyleRisk, ShouldAlmostEqual, 0.45)
				So(a.OverallRisk, ShouldAlmostEqual, 0.795)
			})

			Convey("And the urgent recommendation tier triggers", func() {
				So(a.Recommendations, ShouldContain, "Immediate consultation with a neurologist recommended")
				So(a.Recommendations, ShouldContain, "Engage in cognitive stimulation activities")
			})

			Convey("And warning signs name the MMSE impairment", func() {
				So(a.WarningSigns, ShouldContain, "Significant cognitive impairment detected in MMSE score")
				So(a.WarningSigns, ShouldContain, "Significant memory issues reported")
			})
		})

		Convey("When scoring an empty snapshot", func() {
			a, err := scorer.Score(ctx, model.PatientData{})
			So(err, ShouldBeNil)

			Convey("Then absent fields degrade to defaults", func() {
				// MMSE defaults to a perfect 30, verbal fluency to 0.
				So(a.CognitiveRisk, ShouldAlmostEqual, 0.3)
				So(a.GeneticRisk, ShouldEqual, 0)
				So(a.LifestyleRisk, ShouldEqual, 0)
			})

			Convey("And warnings and recommendations are empty but non-nil", func() {
				So(a.WarningSigns, ShouldNotBeNil)
				So(a.WarningSigns, ShouldHaveLength, 0)
			})
		})

		Convey("When a cognitive test value carries a unit suffix", func() {
			data := model.PatientData{
				CognitiveTests: model.Fields{
					"mmse_score":     "26",
					"verbal_fluency": "14 words",
				},
			}
			a, err := scorer.Score(ctx, data)
			So(err, ShouldBeNil)

			Convey("Then the numeric prefix is used", func() {
				// 26 -> 0.2, 14 words -> 0.15
				So(a.CognitiveRisk, ShouldAlmostEqual, 0.35)
			})
		})

		Convey("When a present cognitive test value is not numeric", func() {
			data := model.PatientData{
				CognitiveTests: model.Fields{"mmse_score": "unknown"},
			}
			_, err := scorer.Score(ctx, data)

			Convey("Then the error names the offending field", func() {
				So(err, ShouldNotBeNil)
				var parseErr *risk.ParseError
				So(errors.As(err, &parseErr), ShouldBeTrue)
				So(parseErr.Field, ShouldEqual, "mmse_score")
			})
		})

		Convey("When a demographic value is malformed", func() {
			data := model.PatientData{
				Demographics: model.Fields{"age": "unknown"},
			}
			a, err := scorer.Score(ctx, data)

			Convey("Then it degrades to zero instead of failing", func() {
				So(err, ShouldBeNil)
				So(a.LifestyleRisk, ShouldEqual, 0)
			})
		})

		Convey("When scoring heterozygous e4 carriers", func() {
			data := model.PatientData{
				Biomarkers: model.Biomarkers{ApoeGenotype: "e3/e4"},
			}
			a, err := scorer.Score(ctx, data)
			So(err, ShouldBeNil)
			So(a.GeneticRisk, ShouldAlmostEqual, 0.3)
		})

		Convey("When scoring the same snapshot twice", func() {
			first, err1 := scorer.Score(ctx, highRiskPatient())
			second, err2 := scorer.Score(ctx, highRiskPatient())

			Convey("Then the results are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second, ShouldResemble, first)
			})
		})

		Convey("When scoring randomized snapshots", func() {
			rng := rand.New(rand.NewSource(7))

			Convey("Then every score stays within [0, 1]", func() {
				for i := 0; i < 200; i++ {
					data := model.PatientData{
						Demographics: model.Fields{
							"age":             model.Text(strconv.Itoa(rng.Intn(110))),
							"education_years": model.Text(strconv.Itoa(rng.Intn(25))),
						},
						CognitiveTests: model.Fields{
							"mmse_score":     model.Text(strconv.Itoa(rng.Intn(31))),
							"verbal_fluency": model.Text(strconv.Itoa(rng.Intn(30))),
						},
						Symptoms: model.Fields{
							"memory_issues": model.Text([]string{"none", "mild", "moderate", "severe"}[rng.Intn(4)]),
						},
						Biomarkers: model.Biomarkers{
							ApoeGenotype: model.Text([]string{"e2/e3", "e3/e4", "e4/e4"}[rng.Intn(3)]),
						},
					}
					a, err := scorer.Score(ctx, data)
					So(err, ShouldBeNil)
					for _, score := range []float64{a.OverallRisk, a.CognitiveRisk, a.GeneticRisk, a.LifestyleRisk} {
						So(score, ShouldBeGreaterThanOrEqualTo, 0)
						So(score, ShouldBeLessThanOrEqualTo, 1)
					}
				}
			})
		})

		Convey("When the MMSE score worsens", func() {
			score := func(mmse string) float64 {
				a, err := scorer.Score(ctx, model.PatientData{
					CognitiveTests: model.Fields{"mmse_score": model.Text(mmse)},
				})
				So(err, ShouldBeNil)
				return a.CognitiveRisk
			}

			Convey("Then cognitive risk never decreases", func() {
				So(score("28"), ShouldBeLessThanOrEqualTo, score("25"))
				So(score("25"), ShouldBeLessThanOrEqualTo, score("20"))
			})
		})
	})
}

func TestRuleScorer_Options(t *testing.T) {
	Convey("Given a scorer with overridden weights", t, func() {
		scorer := risk.NewRuleScorer(risk.WithWeights(risk.Weights{
			Cognitive: 1, Genetic: 1, Lifestyle: 1,
		}))

		Convey("When scoring a genetic-only snapshot", func() {
			a, err := scorer.Score(context.Background(), model.PatientData{
				Biomarkers: model.Biomarkers{ApoeGenotype: "e4/e4"},
				CognitiveTests: model.Fields{
					"mmse_score":     "30",
					"verbal_fluency": "20",
				},
			})
			So(err, ShouldBeNil)

			Convey("Then the overall risk uses the new weights", func() {
				So(a.OverallRisk, ShouldAlmostEqual, 0.5)
			})
		})
	})
}
