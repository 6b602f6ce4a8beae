package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/okian/radar/internal/adapters/mq/kafka"
	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/adapters/source"
	"github.com/okian/radar/internal/config"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// openStore opens the configured radar store backend. now is the service
// clock; the store filters expired recommendations with it.
func openStore(ctx context.Context, cfg *config.Config, now func() time.Time, log logger.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite, config.DriverPostgres:
		st, err := repository.OpenSQL(ctx, cfg.StoreDriver, cfg.StoreDSN,
			repository.WithClock(now),
			repository.WithQueryTimeout(cfg.StoreQueryTimeout()),
			repository.WithLogger(log.Named("store")),
		)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
		}
		return st, nil
	default:
		return repository.NewMemoryStore(
			repository.WithClock(now),
			repository.WithLogger(log.Named("store")),
		), nil
	}
}

// upstream returns an HTTP client for base, or a no-data adapter when unset.
func upstream(base string) interface {
	source.CampaignAdapter
	source.GraphAdapter
	source.CoverageAdapter
	source.CreativeAdapter
	source.AudienceAdapter
	source.SceneAdapter
	source.FactSource
} {
	if strings.TrimSpace(base) == "" {
		return source.Static{}
	}
	return source.NewHTTPClient(base)
}

// buildSources assembles adapters from config: synthetic data when
// fake_sources is set, otherwise one HTTP client per configured URL. Every
// adapter gets a breaker and a rate limiter; scene hotness is cached in
// Redis when redis_addr is set.
func buildSources(cfg *config.Config, log logger.Logger) (source.Set, source.FactSet, *redis.Client) {
	var (
		set   source.Set
		facts source.FactSet
	)
	if cfg.FakeSources {
		syn := source.NewSynthetic(cfg.FakeScenes...)
		set, facts = syn.Set(), syn.FactSet()
		log.Info(context.Background(), "using synthetic upstreams", logger.Int("scenes", len(cfg.FakeScenes)))
	} else {
		set = source.Set{
			Campaign: upstream(cfg.CampaignURL),
			Graph:    upstream(cfg.GraphURL),
			Coverage: upstream(cfg.CoverageURL),
			Creative: upstream(cfg.CreativeURL),
			Audience: upstream(cfg.AudienceURL),
			Scene:    upstream(cfg.SceneURL),
		}
		facts = source.FactSet{
			model.SourceCampaign: upstream(cfg.CampaignURL),
			model.SourceAudience: upstream(cfg.AudienceURL),
			model.SourceCoverage: upstream(cfg.CoverageURL),
			model.SourceScene:    upstream(cfg.SceneURL),
		}
	}

	guards := []source.GuardOption{
		source.WithBreaker(cfg.BreakerFailures, cfg.BreakerOpen()),
		source.WithRateLimit(cfg.AdapterRPS, cfg.AdapterBurst),
		source.WithGuardLogger(log.Named("guard")),
	}
	set = source.GuardSet(set, guards...)
	facts = source.GuardFacts(facts, append(guards, source.WithCallTimeout(cfg.AdapterTimeout()))...)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		set.Scene = source.NewRedisSceneCache(set.Scene, rdb, cfg.SceneCacheTTL(), log.Named("scene_cache"))
	}
	return set, facts, rdb
}

// jobTimeout bounds one async job: two sequential adapter phases, the
// registry lookup and the save.
func jobTimeout(cfg *config.Config) time.Duration {
	return 2*cfg.AdapterTimeout() + 2*cfg.StoreQueryTimeout()
}

// buildPublisher returns a Kafka publisher when brokers are configured.
func buildPublisher(cfg *config.Config, log logger.Logger) *kafka.Publisher {
	if strings.TrimSpace(cfg.KafkaBrokers) == "" {
		return nil
	}
	brokers := strings.Split(cfg.KafkaBrokers, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	return kafka.NewPublisher(brokers, cfg.KafkaTopic, kafka.WithLogger(log.Named("kafka")))
}
