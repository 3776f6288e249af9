// Package service provides the core pipeline service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	recordqueue "github.com/okian/mnemo/internal/adapters/mq/queue"
	workerpool "github.com/okian/mnemo/internal/adapters/mq/worker"
	"github.com/okian/mnemo/internal/adapters/repository"
	"github.com/okian/mnemo/internal/domain/dedupe"
	"github.com/okian/mnemo/internal/domain/model"
	"github.com/okian/mnemo/internal/domain/risk"
	"github.com/okian/mnemo/internal/domain/trend"
	"github.com/okian/mnemo/internal/domain/types"
	"github.com/okian/mnemo/internal/semantic"
	"github.com/okian/mnemo/pkg/logger"
	"github.com/okian/mnemo/pkg/metrics"
)

// processorAdapter adapts the Service pipeline to worker.Processor.
type processorAdapter struct {
	svc *Service
}

func (a *processorAdapter) Process(ctx context.Context, rec model.Record) error {
	_, err := a.svc.Process(ctx, rec)
	return err
}

// Service runs records through the full analytical pipeline: risk
// scoring, history append, longitudinal analysis and semantic indexing.
type Service struct {
	mu sync.RWMutex

	// Core components
	history    repository.Store
	deduper    dedupe.Deduper
	queue      recordqueue.Queue
	scorer     risk.Scorer
	analyzer   *trend.Analyzer
	store      *semantic.Store
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	shardCount  int
	embedder    semantic.Embedder
	riskOpts    []risk.Option
	trendOpts   []trend.Option
	storeOpts   []semantic.Option

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of backfill worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the backfill queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the record-ID dedupe window.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the history store shard count.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithEmbedder sets the embedding provider for the semantic store.
func WithEmbedder(e semantic.Embedder) Option {
	return func(s *Service) {
		if e != nil {
			s.embedder = e
		}
	}
}

// WithRiskOptions forwards options to the risk scorer.
func WithRiskOptions(opts ...risk.Option) Option {
	return func(s *Service) {
		s.riskOpts = append(s.riskOpts, opts...)
	}
}

// WithTrendOptions forwards options to the longitudinal analyzer.
func WithTrendOptions(opts ...trend.Option) Option {
	return func(s *Service) {
		s.trendOpts = append(s.trendOpts, opts...)
	}
}

// WithStoreOptions forwards options to the semantic store.
func WithStoreOptions(opts ...semantic.Option) Option {
	return func(s *Service) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// WithLogger sets the service logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

const (
	defaultWorkerCount = 4
	defaultQueueSize   = 1000
	defaultDedupeSize  = 50000
)

// New creates a Service and wires its components together.
func New(ctx context.Context, opts ...Option) *Service {
	s := &Service{
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("pipeline")
	}
	if s.embedder == nil {
		s.embedder = semantic.NewHashEmbedder(0)
	}

	var repoOpts []repository.Option
	if s.shardCount > 0 {
		repoOpts = append(repoOpts, repository.WithShardCount(s.shardCount))
	}

	s.history = repository.NewMemStore(ctx, repoOpts...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = recordqueue.NewMemoryQueue(ctx, recordqueue.WithCapacity(s.queueSize))
	s.scorer = risk.NewRuleScorer(s.riskOpts...)
	s.analyzer = trend.NewAnalyzer(s.trendOpts...)
	s.store = semantic.NewStore(s.embedder, s.storeOpts...)
	s.workerPool = workerpool.NewPool(s.queue, &processorAdapter{svc: s},
		workerpool.WithCount(s.workerCount),
		workerpool.WithLogger(s.logger.Named("backfill")),
	)

	return s
}

// Start launches the backfill workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("service already started")
	}
	if err := s.workerPool.Start(ctx); err != nil {
		return fmt.Errorf("starting worker pool: %w", err)
	}
	s.started = true
	s.logger.Info(ctx, "pipeline service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize))
	return nil
}

// Stop closes the queue, drains the workers and shuts the service down.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	if err := s.queue.Close(); err != nil {
		s.logger.Warn(ctx, "closing queue", logger.Error(err))
	}
	if err := s.workerPool.Stop(ctx); err != nil {
		return fmt.Errorf("stopping worker pool: %w", err)
	}
	s.started = false
	s.logger.Info(ctx, "pipeline service stopped")
	return nil
}

// Process runs one record through the pipeline synchronously. Scoring or
// history failures abort with an error; a semantic ingest failure is
// reported in the result but does not fail the record, since scoring and
// history are the clinically relevant outputs.
func (s *Service) Process(ctx context.Context, rec model.Record) (types.ProcessResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPipelineLatency(float64(time.Since(start).Milliseconds()))
	}()

	if rec.RecordID == "" {
		rec.RecordID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	assessment, err := s.scorer.Score(ctx, rec.PatientData)
	if err != nil {
		metrics.RecordAssessmentParseError()
		metrics.RecordErrorByComponent("risk", "parse")
		return types.ProcessResult{}, fmt.Errorf("scoring record %s: %w", rec.RecordID, err)
	}
	metrics.RecordAssessmentScored()

	assessed := model.Assessed{Record: rec, RiskAssessment: &assessment}

	prior, err := s.history.History(ctx, rec.PatientID)
	if err != nil {
		// History reads are best-effort: a failed read degrades to a
		// first-visit record rather than rejecting the intake.
		metrics.RecordRepositoryError()
		s.logger.Warn(ctx, "history read failed, treating as first visit",
			logger.String("patient_id", rec.PatientID),
			logger.Error(err))
		prior = nil
	}

	var progression *trend.Progression
	if len(prior) >= 1 {
		batch := make([]model.Assessed, 0, len(prior)+1)
		batch = append(batch, prior...)
		batch = append(batch, assessed)
		p := s.analyzer.Analyze(ctx, batch)
		progression = &p
		if p.Status == trend.StatusAnalyzed {
			metrics.RecordProgressionAnalysis()
		} else {
			metrics.RecordProgressionInsufficient()
		}
	}

	if err := s.history.Append(ctx, assessed); err != nil {
		metrics.RecordRepositoryError()
		return types.ProcessResult{}, fmt.Errorf("storing record %s: %w", rec.RecordID, err)
	}

	result := types.ProcessResult{
		RecordID:       rec.RecordID,
		PatientID:      rec.PatientID,
		RiskAssessment: assessment,
		Progression:    progression,
	}

	chunks, err := s.store.Ingest(ctx, rec.RecordID, rec.Timestamp, assessed)
	if err != nil {
		metrics.RecordErrorByComponent("semantic", "embedding")
		s.logger.Warn(ctx, "semantic ingest failed",
			logger.String("record_id", rec.RecordID),
			logger.Error(err))
		result.IngestError = err.Error()
	} else {
		result.ChunksStored = len(chunks)
	}

	return result, nil
}

// Enqueue hands a record to the backfill queue for asynchronous
// processing.
func (s *Service) Enqueue(ctx context.Context, rec model.Record) error {
	return s.queue.Enqueue(ctx, rec)
}

// Progression recomputes the longitudinal analysis over a patient's full
// stored history.
func (s *Service) Progression(ctx context.Context, patientID string) (trend.Progression, error) {
	history, err := s.history.History(ctx, patientID)
	if err != nil {
		metrics.RecordRepositoryError()
		return trend.Progression{}, fmt.Errorf("reading history for %s: %w", patientID, err)
	}
	if len(history) == 0 {
		return trend.Progression{}, fmt.Errorf("patient %s: %w", patientID, repository.ErrNotFound)
	}
	return s.analyzer.Analyze(ctx, history), nil
}

// Query runs a similarity search over the semantic store.
func (s *Service) Query(ctx context.Context, query string, topK int) ([]semantic.Match, error) {
	return s.store.Query(ctx, query, topK)
}

// SeenAndRecord reports whether a record ID was already accepted,
// recording it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a record ID from the dedupe window so a rejected
// submission can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the number of tracked record IDs.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// GetStats returns a snapshot of pipeline state.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	return types.Stats{
		PatientsTracked: s.history.Patients(ctx),
		ChunksStored:    s.store.Len(),
		QueueSize:       s.queue.Size(),
		QueueCapacity:   s.queue.Capacity(),
	}
}
