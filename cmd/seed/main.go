// Command seed submits a synthetic patient cohort to a running service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/okian/mnemo/internal/synthdata"
)

const (
	defaultPatients = 25
	defaultVisits   = 4
	defaultTimeout  = 30 * time.Second
	runTimeout      = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		patients = flag.Int("patients", defaultPatients, "Number of synthetic patients")
		visits   = flag.Int("visits", defaultVisits, "Assessments per patient")
		seed     = flag.Int64("seed", 42, "Random seed for reproducible cohorts")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	client := resty.New().
		SetBaseURL(*baseURL).
		SetTimeout(*timeout).
		SetHeader("Content-Type", "application/json")

	records := synthdata.New(*seed).Cohort(*patients, *visits)

	var failures int
	for _, rec := range records {
		resp, err := client.R().
			SetContext(ctx).
			SetBody(rec).
			Post("/api/records")
		if err != nil {
			failures++
			os.Stderr.WriteString("submit failed: " + err.Error() + "\n")
			continue
		}
		if resp.IsError() {
			failures++
			os.Stderr.WriteString(fmt.Sprintf("submit rejected: %d %s\n", resp.StatusCode(), resp.String()))
		}
	}

	fmt.Printf("submitted %d records (%d failed) for %d patients\n", len(records)-failures, failures, *patients)
}
