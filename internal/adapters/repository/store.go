// Package repository defines the patient history store interface and
// errors.
package repository

import (
	"context"

	"github.com/okian/mnemo/internal/domain/model"
)

// Store provides append-only access to per-patient encounter history.
type Store interface {
	// Append adds one assessed record to the patient's history. Entries
	// are never reordered or rewritten after the fact.
	Append(ctx context.Context, rec model.Assessed) error

	// History returns all stored records for a patient in append order.
	// An unknown patient yields an empty slice, not an error: callers
	// treat missing history as "skip longitudinal analysis".
	History(ctx context.Context, patientID string) ([]model.Assessed, error)

	// Patients returns the number of patients with stored history.
	Patients(ctx context.Context) int
}
