package repository

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/okian/mnemo/internal/domain/model"
	"github.com/okian/mnemo/pkg/metrics"
)

// defaultShardCount spreads patients over independent locks so concurrent
// appends for different patients rarely contend.
const defaultShardCount = 8

type shard struct {
	mu       sync.RWMutex
	patients map[string][]model.Assessed
}

// MemStore is a sharded in-memory history store. Histories are append-only
// slices keyed by patient identity.
type MemStore struct {
	shards []*shard
	closed bool
	mu     sync.RWMutex
}

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithShardCount sets the number of shards.
func WithShardCount(count int) Option {
	return func(s *MemStore) {
		if count > 0 {
			s.shards = make([]*shard, count)
		}
	}
}

// NewMemStore creates an in-memory history store.
func NewMemStore(_ context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		shards: make([]*shard, defaultShardCount),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{patients: make(map[string][]model.Assessed)}
	}
	return s
}

func (s *MemStore) shardFor(patientID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(patientID))
	return s.shards[int(h.Sum32())%len(s.shards)]
}

// Append adds one record to the patient's history.
func (s *MemStore) Append(_ context.Context, rec model.Assessed) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	s.mu.RUnlock()

	sh := s.shardFor(rec.PatientID)
	sh.mu.Lock()
	sh.patients[rec.PatientID] = append(sh.patients[rec.PatientID], rec)
	sh.mu.Unlock()

	metrics.RecordHistoryAppend()
	metrics.UpdatePatientsTracked(s.Patients(context.Background()))
	return nil
}

// History returns a copy of the patient's stored records in append order.
func (s *MemStore) History(_ context.Context, patientID string) ([]model.Assessed, error) {
	sh := s.shardFor(patientID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	stored := sh.patients[patientID]
	out := make([]model.Assessed, len(stored))
	copy(out, stored)
	return out, nil
}

// Patients returns the number of patients with at least one record.
func (s *MemStore) Patients(_ context.Context) int {
	var total int
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.patients)
		sh.mu.RUnlock()
	}
	return total
}

// Close marks the store closed; subsequent appends fail.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
