// Package service wires the radar components into the operator surface used
// by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/okian/radar/internal/adapters/mq/queue"
	"github.com/okian/radar/internal/adapters/mq/worker"
	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/adapters/source"
	"github.com/okian/radar/internal/aggregation"
	"github.com/okian/radar/internal/config"
	"github.com/okian/radar/internal/domain/dedupe"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/internal/domain/momentum"
	"github.com/okian/radar/internal/domain/scoring"
	"github.com/okian/radar/internal/ingestion"
	"github.com/okian/radar/internal/recommend"
	"github.com/okian/radar/internal/scene"
	"github.com/okian/radar/pkg/logger"
	"github.com/okian/radar/pkg/metrics"
)

// Ranking selects which score a top-N read is ordered by.
type Ranking string

// Rankings.
const (
	RankMomentum Ranking = "momentum"
	RankBreakout Ranking = "breakout"
	RankRisk     Ranking = "risk"
)

// ParseRanking accepts momentum, breakout or risk. Empty means momentum.
func ParseRanking(s string) (Ranking, error) {
	switch Ranking(s) {
	case "", RankMomentum:
		return RankMomentum, nil
	case RankBreakout, RankRisk:
		return Ranking(s), nil
	}
	return "", fmt.Errorf("%w: unknown ranking %q", ErrInvalidInput, s)
}

// Service owns every radar component for the life of the process.
type Service struct {
	mu sync.RWMutex

	cfg       *config.Config
	store     repository.Store
	sources   *source.Set
	facts     source.FactSet
	publisher ingestion.Publisher
	redis     *redis.Client
	now       func() time.Time
	logger    logger.Logger

	engine      *aggregation.Engine
	ingestor    *ingestion.Ingestor
	scenes      *scene.Aggregator
	recommender *recommend.Generator
	jobs        *queue.InMemoryQueue
	pool        *worker.Pool
	cancel      context.CancelFunc

	started bool
}

// New constructs a Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, builds the pipeline and starts the aggregation
// workers. Calling Start on a started service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	cfg := s.cfg
	s.logger.Info(ctx, "starting radar service...", logger.String("store", cfg.StoreDriver))

	weights, err := scoring.WeightsFromMaps(cfg.MomentumWeights, cfg.BreakoutWeights, cfg.RiskWeights)
	if err != nil {
		return fmt.Errorf("score weights: %w", err)
	}

	if s.store == nil {
		st, err := openStore(ctx, cfg, s.now, s.logger)
		if err != nil {
			return err
		}
		s.store = st
	}

	if s.sources == nil {
		set, facts, rdb := buildSources(cfg, s.logger)
		s.sources, s.facts, s.redis = &set, facts, rdb
	}
	if s.publisher == nil {
		if p := buildPublisher(cfg, s.logger); p != nil {
			s.publisher = p
		}
	}

	s.engine = aggregation.NewEngine(*s.sources,
		aggregation.WithScorer(scoring.NewScorer(scoring.WithWeights(weights))),
		aggregation.WithAdapterTimeout(cfg.AdapterTimeout()),
		aggregation.WithMaxConcurrency(cfg.MaxConcurrency),
		aggregation.WithMaxBatch(cfg.MaxSignalAggregationBatch),
		aggregation.WithClock(s.now),
		aggregation.WithLogger(s.logger.Named("aggregation")),
	)
	ingestOpts := []ingestion.Option{
		ingestion.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))),
		ingestion.WithClock(s.now),
		ingestion.WithLogger(s.logger.Named("ingestion")),
	}
	if s.publisher != nil {
		ingestOpts = append(ingestOpts, ingestion.WithPublisher(s.publisher))
	}
	s.ingestor = ingestion.NewIngestor(s.facts, s.store, s.store, ingestOpts...)
	s.scenes = scene.NewAggregator(s.store, s.store,
		scene.WithClock(s.now),
		scene.WithLogger(s.logger.Named("scene")),
	)
	s.recommender = recommend.NewGenerator(s.store,
		recommend.WithTTL(cfg.RecommendationTTL()),
		recommend.WithClock(s.now),
		recommend.WithLogger(s.logger.Named("recommend")),
	)

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(cfg.QueueSize))
	s.pool = worker.NewPool(cfg.WorkerCount, s.jobs, worker.ProcessorFunc(s.processJob),
		worker.WithJobTimeout(jobTimeout(cfg)),
		worker.WithLogger(s.logger.Named("worker")),
	)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "radar service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", cfg.QueueSize),
		logger.Int("max_batch", cfg.MaxSignalAggregationBatch),
		logger.Bool("event_stream", s.publisher != nil),
		logger.Bool("scene_cache", s.redis != nil),
	)
	return nil
}

// Stop drains the workers and releases the store, the event stream and the
// cache connection.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping radar service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn(ctx, "closing event stream", logger.Error(err))
		}
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "radar service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// TriggerAggregation aggregates one entity, merges its registry tags and
// persists the result.
func (s *Service) TriggerAggregation(ctx context.Context, entityID string) (model.Signals, error) {
	if err := s.ready(); err != nil {
		return model.Signals{}, err
	}
	return s.aggregate(ctx, entityID)
}

// aggregate skips the started check so workers never contend with Stop.
func (s *Service) aggregate(ctx context.Context, entityID string) (model.Signals, error) {
	sig, err := s.engine.Aggregate(ctx, entityID)
	if err != nil {
		return model.Signals{}, classify(err)
	}
	sig = s.withRegistry(ctx, sig)
	if err := s.save(ctx, sig); err != nil {
		return model.Signals{}, classify(err)
	}
	return sig, nil
}

// save stores sig and appends its scores to the entity's history. A failed
// history write is logged; the signals stay saved.
func (s *Service) save(ctx context.Context, sig model.Signals) error {
	if err := s.store.SaveEntitySignals(ctx, sig); err != nil {
		return err
	}
	if err := s.store.AppendScoreSnapshot(ctx, sig.Snapshot()); err != nil {
		s.logger.Warn(ctx, "score snapshot not recorded",
			logger.EntityID(sig.EntityID), logger.Source("store"), logger.Error(err))
	}
	return nil
}

// TriggerBatchAggregation aggregates ids and persists each result. Entities
// whose upstreams or save fail are logged and left out of the returned slice.
func (s *Service) TriggerBatchAggregation(ctx context.Context, ids []string) ([]model.Signals, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	results, batchErr := s.engine.BatchAggregate(ctx, ids)
	saved := make([]model.Signals, 0, len(results))
	for _, sig := range results {
		sig = s.withRegistry(ctx, sig)
		if err := s.save(ctx, sig); err != nil {
			s.logger.Warn(ctx, "skipping entity after store failure",
				logger.EntityID(sig.EntityID), logger.Source("store"), logger.Error(err))
			continue
		}
		saved = append(saved, sig)
	}
	return saved, classify(batchErr)
}

// withRegistry unions the entity's registered tags into sig.
func (s *Service) withRegistry(ctx context.Context, sig model.Signals) model.Signals {
	e, found, err := s.store.GetEntity(ctx, sig.EntityID)
	if err != nil {
		s.logger.Warn(ctx, "registry lookup failed; saving without tags",
			logger.EntityID(sig.EntityID), logger.Source("store"), logger.Error(err))
		return sig
	}
	if found {
		sig.Tags = model.NormalizeTags(append(append([]string(nil), sig.Tags...), e.Tags...))
	}
	return sig
}

// EnqueueAggregation schedules an asynchronous aggregation of entityID.
func (s *Service) EnqueueAggregation(ctx context.Context, entityID string) (queue.Job, error) {
	if err := s.ready(); err != nil {
		return queue.Job{}, err
	}
	if !model.ValidID(entityID) {
		return queue.Job{}, fmt.Errorf("%w: entity id %q", ErrInvalidInput, entityID)
	}
	job := queue.Job{ID: uuid.NewString(), EntityID: entityID, EnqueuedAt: s.now().UTC()}
	if !s.jobs.Enqueue(ctx, job) {
		return queue.Job{}, fmt.Errorf("%w: %w", ErrQueueFull, queue.ErrQueueFull)
	}
	return job, nil
}

func (s *Service) processJob(ctx context.Context, j queue.Job) error {
	_, err := s.aggregate(ctx, j.EntityID)
	return err
}

// IngestAll pulls new facts for entityID from every feed.
func (s *Service) IngestAll(ctx context.Context, entityID string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	n, err := s.ingestor.IngestAll(ctx, entityID)
	return n, classify(err)
}

// RecordManualEvent appends an operator-entered event.
func (s *Service) RecordManualEvent(ctx context.Context, m ingestion.ManualEvent) (model.Event, error) {
	if err := s.ready(); err != nil {
		return model.Event{}, err
	}
	e, err := s.ingestor.RecordManualEvent(ctx, m)
	return e, classify(err)
}

// ListEvents returns up to n events for an entity, newest first.
func (s *Service) ListEvents(ctx context.Context, entityID string, n int) ([]model.Event, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	events, err := s.store.ListEvents(ctx, entityID, s.capLimit(n))
	return events, classify(err)
}

// TopN returns up to n entities by the chosen ranking. n is capped at
// max_top_limit.
func (s *Service) TopN(ctx context.Context, by Ranking, n int) ([]model.Signals, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: n must be >= 1", ErrInvalidInput)
	}
	n = s.capLimit(n)

	var (
		out []model.Signals
		err error
	)
	switch by {
	case RankMomentum:
		out, err = s.store.TopByMomentum(ctx, n)
	case RankBreakout:
		out, err = s.store.TopByBreakout(ctx, n)
	case RankRisk:
		out, err = s.store.AtRisk(ctx, n)
	default:
		return nil, fmt.Errorf("%w: unknown ranking %q", ErrInvalidInput, by)
	}
	return out, classify(err)
}

func (s *Service) capLimit(n int) int {
	if n > s.cfg.MaxTopLimit {
		return s.cfg.MaxTopLimit
	}
	return n
}

// Signals returns the stored signals for entityID.
func (s *Service) Signals(ctx context.Context, entityID string) (model.Signals, error) {
	if err := s.ready(); err != nil {
		return model.Signals{}, err
	}
	sig, found, err := s.store.GetEntitySignals(ctx, entityID)
	if err != nil {
		return model.Signals{}, classify(err)
	}
	if !found {
		return model.Signals{}, fmt.Errorf("%w: entity %s", ErrNoData, entityID)
	}
	return sig, nil
}

// ScoreHistory returns up to n score snapshots for entityID, newest first.
func (s *Service) ScoreHistory(ctx context.Context, entityID string, n int) ([]model.ScoreSnapshot, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !model.ValidID(entityID) {
		return nil, fmt.Errorf("%w: entity id %q", ErrInvalidInput, entityID)
	}
	history, err := s.store.ScoreHistory(ctx, entityID, s.capLimit(n))
	return history, classify(err)
}

// RecommendationsForWorkspace returns up to n unexpired recommendations.
func (s *Service) RecommendationsForWorkspace(ctx context.Context, workspaceID string, n int) ([]model.Recommendation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !model.ValidID(workspaceID) {
		return nil, fmt.Errorf("%w: workspace id %q", ErrInvalidInput, workspaceID)
	}
	recs, err := s.store.RecommendationsForWorkspace(ctx, workspaceID, s.capLimit(n))
	return recs, classify(err)
}

// GenerateRecommendations ranks the workspace's entities and stores a
// recommendation for each of the best n.
func (s *Service) GenerateRecommendations(ctx context.Context, workspaceID string, n int) ([]model.Recommendation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	recs, err := s.recommender.Generate(ctx, workspaceID, s.capLimit(n))
	return recs, classify(err)
}

// RefreshScene recomputes and stores the aggregate for sceneID.
func (s *Service) RefreshScene(ctx context.Context, sceneID string) (model.SceneSignals, error) {
	if err := s.ready(); err != nil {
		return model.SceneSignals{}, err
	}
	sc, found, err := s.scenes.Refresh(ctx, sceneID)
	if err != nil {
		return model.SceneSignals{}, classify(err)
	}
	if !found {
		return model.SceneSignals{}, fmt.Errorf("%w: scene %s has no members", ErrNoData, sceneID)
	}
	return sc, nil
}

// Scene returns the last stored aggregate for sceneID.
func (s *Service) Scene(ctx context.Context, sceneID string) (model.SceneSignals, error) {
	if err := s.ready(); err != nil {
		return model.SceneSignals{}, err
	}
	sc, found, err := s.store.GetSceneSignals(ctx, sceneID)
	if err != nil {
		return model.SceneSignals{}, classify(err)
	}
	if !found {
		return model.SceneSignals{}, fmt.Errorf("%w: scene %s", ErrNoData, sceneID)
	}
	return sc, nil
}

// Momentum computes the three momentum snapshots at the service clock.
func (s *Service) Momentum(log momentum.ActivityLog, campaign momentum.Campaign) momentum.Report {
	return momentum.Calculate(log, campaign, s.now())
}

// RegisterEntity adds or replaces an entity in the registry.
func (s *Service) RegisterEntity(ctx context.Context, e model.Entity) (model.Entity, error) {
	if err := s.ready(); err != nil {
		return model.Entity{}, err
	}
	if !model.ValidID(e.ID) {
		return model.Entity{}, fmt.Errorf("%w: entity id %q", ErrInvalidInput, e.ID)
	}
	if e.WorkspaceID != "" && !model.ValidID(e.WorkspaceID) {
		return model.Entity{}, fmt.Errorf("%w: workspace id %q", ErrInvalidInput, e.WorkspaceID)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	e.Tags = model.NormalizeTags(e.Tags)
	if err := s.store.SaveEntity(ctx, e); err != nil {
		return model.Entity{}, classify(err)
	}
	return e, nil
}

// Entity returns a registered entity.
func (s *Service) Entity(ctx context.Context, id string) (model.Entity, error) {
	if err := s.ready(); err != nil {
		return model.Entity{}, err
	}
	e, found, err := s.store.GetEntity(ctx, id)
	if err != nil {
		return model.Entity{}, classify(err)
	}
	if !found {
		return model.Entity{}, fmt.Errorf("%w: entity %s", ErrNoData, id)
	}
	return e, nil
}

// Entities lists registered entities, optionally filtered by workspace.
func (s *Service) Entities(ctx context.Context, workspaceID string) ([]model.Entity, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	out, err := s.store.ListEntities(ctx, workspaceID)
	return out, classify(err)
}

// Ping checks that the store answers.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.store.CountSignals(ctx)
	return err
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":      s.started,
		"store_driver": s.cfg.StoreDriver,
	}
	if !s.started {
		return stats
	}
	queueLen := s.jobs.Len(ctx)
	stats["workers"] = s.pool.Size()
	stats["queue_length"] = queueLen
	stats["queue_capacity"] = s.jobs.Capacity()
	stats["jobs_processed"] = s.pool.Processed()
	if n, err := s.store.CountSignals(ctx); err == nil {
		stats["tracked_entities"] = n
	} else {
		s.logger.Warn(ctx, "counting tracked entities", logger.Error(err))
	}
	metrics.UpdateQueue(queueLen, s.jobs.Capacity())
	return stats
}

// MaxTopLimit is the cap applied to every list read.
func (s *Service) MaxTopLimit() int { return s.cfg.MaxTopLimit }
