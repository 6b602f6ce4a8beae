package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
	"github.com/okian/radar/pkg/metrics"
)

// timeLayout is fixed width so TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLStore is a Store backed by sqlite or postgres through sqlx.
type SQLStore struct {
	settings
	db *sqlx.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an open database. The schema is not touched; call Migrate.
func NewSQLStore(db *sqlx.DB, opts ...Option) *SQLStore {
	s := &SQLStore{settings: defaultSettings(), db: db}
	for _, opt := range opts {
		opt(&s.settings)
	}
	return s
}

// OpenSQL opens driver ("sqlite" or "postgres") at dsn, verifies the
// connection and applies migrations.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, storeErr("open", fmt.Errorf("open %s: %w", driver, err))
	}

	switch driver {
	case "sqlite":
		// One connection keeps the per-connection pragmas in force.
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 5000",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, storeErr("open", fmt.Errorf("apply %q: %w", pragma, err))
			}
		}
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storeErr("open", fmt.Errorf("ping %s: %w", driver, err))
	}

	s := NewSQLStore(db, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.log.Info(ctx, "radar store ready", logger.String("driver", driver))
	return s, nil
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *sqlx.DB { return s.db }

// Close implements Store.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *SQLStore) fail(ctx context.Context, op string, err error) error {
	metrics.RecordStoreError(op)
	s.log.Error(ctx, "store operation failed", logger.String("op", op), logger.Error(err))
	return storeErr(op, err)
}

type signalsRow struct {
	model.Signals
	TagsJSON     string `db:"tags"`
	MetadataJSON string `db:"metadata"`
	UpdatedAtRaw string `db:"updated_at"`
}

func (r signalsRow) toModel() (model.Signals, error) {
	sig := r.Signals
	if err := decodeJSON(r.TagsJSON, &sig.Tags); err != nil {
		return model.Signals{}, err
	}
	if err := decodeJSON(r.MetadataJSON, &sig.Metadata); err != nil {
		return model.Signals{}, err
	}
	t, err := parseTime(r.UpdatedAtRaw)
	if err != nil {
		return model.Signals{}, err
	}
	sig.UpdatedAt = t
	if len(sig.Tags) == 0 {
		sig.Tags = nil
	}
	return sig, nil
}

const signalColumns = `entity_id, scene_id, tags, campaign_velocity, engagement_rate, connectivity,
	coverage_velocity, press_quality, creative_shift, identity_alignment, audience_growth,
	playlist_growth, scene_hotness, momentum_score, breakout_score, risk_score, metadata, updated_at`

// SaveEntitySignals implements SignalStore.
func (s *SQLStore) SaveEntitySignals(ctx context.Context, sig model.Signals) error {
	const op = "save_entity_signals"
	defer observe(op, time.Now())
	if sig.EntityID == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidInput)
	}
	sig.Tags = model.NormalizeTags(sig.Tags)
	row := signalsRow{
		Signals:      sig,
		TagsJSON:     encodeJSON(sig.Tags, "[]"),
		MetadataJSON: encodeJSON(sig.Metadata, "{}"),
		UpdatedAtRaw: formatTime(sig.UpdatedAt),
	}

	const query = `INSERT INTO entity_signals (` + signalColumns + `)
	VALUES (:entity_id, :scene_id, :tags, :campaign_velocity, :engagement_rate, :connectivity,
		:coverage_velocity, :press_quality, :creative_shift, :identity_alignment, :audience_growth,
		:playlist_growth, :scene_hotness, :momentum_score, :breakout_score, :risk_score, :metadata, :updated_at)
	ON CONFLICT (entity_id) DO UPDATE SET
		scene_id = excluded.scene_id,
		tags = excluded.tags,
		campaign_velocity = excluded.campaign_velocity,
		engagement_rate = excluded.engagement_rate,
		connectivity = excluded.connectivity,
		coverage_velocity = excluded.coverage_velocity,
		press_quality = excluded.press_quality,
		creative_shift = excluded.creative_shift,
		identity_alignment = excluded.identity_alignment,
		audience_growth = excluded.audience_growth,
		playlist_growth = excluded.playlist_growth,
		scene_hotness = excluded.scene_hotness,
		momentum_score = excluded.momentum_score,
		breakout_score = excluded.breakout_score,
		risk_score = excluded.risk_score,
		metadata = excluded.metadata,
		updated_at = excluded.updated_at`

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.db.NamedExecContext(qctx, query, row); err != nil {
		return s.fail(ctx, op, fmt.Errorf("upsert signals %s: %w", sig.EntityID, err))
	}
	return nil
}

// GetEntitySignals implements SignalStore.
func (s *SQLStore) GetEntitySignals(ctx context.Context, id string) (model.Signals, bool, error) {
	const op = "get_entity_signals"
	defer observe(op, time.Now())
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var row signalsRow
	err := s.db.GetContext(qctx, &row, s.db.Rebind(`SELECT `+signalColumns+` FROM entity_signals WHERE entity_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Signals{}, false, nil
	}
	if err != nil {
		return model.Signals{}, false, s.fail(ctx, op, fmt.Errorf("get signals %s: %w", id, err))
	}
	sig, err := row.toModel()
	if err != nil {
		return model.Signals{}, false, s.fail(ctx, op, err)
	}
	return sig, true, nil
}

func (s *SQLStore) selectSignals(ctx context.Context, op, query string, args ...any) ([]model.Signals, error) {
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []signalsRow
	if err := s.db.SelectContext(qctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	out := make([]model.Signals, 0, len(rows))
	for _, r := range rows {
		sig, err := r.toModel()
		if err != nil {
			return nil, s.fail(ctx, op, err)
		}
		out = append(out, sig)
	}
	return out, nil
}

func (s *SQLStore) top(ctx context.Context, op, column string, n int) ([]model.Signals, error) {
	defer observe(op, time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	query := `SELECT ` + signalColumns + ` FROM entity_signals ORDER BY ` + column + ` DESC, entity_id ASC LIMIT ?`
	return s.selectSignals(ctx, op, query, n)
}

// TopByMomentum implements SignalStore.
func (s *SQLStore) TopByMomentum(ctx context.Context, n int) ([]model.Signals, error) {
	return s.top(ctx, "top_by_momentum", "momentum_score", n)
}

// TopByBreakout implements SignalStore.
func (s *SQLStore) TopByBreakout(ctx context.Context, n int) ([]model.Signals, error) {
	return s.top(ctx, "top_by_breakout", "breakout_score", n)
}

// AtRisk implements SignalStore.
func (s *SQLStore) AtRisk(ctx context.Context, n int) ([]model.Signals, error) {
	return s.top(ctx, "at_risk", "risk_score", n)
}

// ListByScene implements SignalStore.
func (s *SQLStore) ListByScene(ctx context.Context, sceneID string) ([]model.Signals, error) {
	const op = "list_by_scene"
	defer observe(op, time.Now())
	return s.selectSignals(ctx, op, `SELECT `+signalColumns+` FROM entity_signals WHERE scene_id = ? ORDER BY entity_id`, sceneID)
}

// CountSignals implements SignalStore.
func (s *SQLStore) CountSignals(ctx context.Context) (int, error) {
	const op = "count_signals"
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var n int
	if err := s.db.GetContext(qctx, &n, `SELECT COUNT(1) FROM entity_signals`); err != nil {
		return 0, s.fail(ctx, op, err)
	}
	metrics.UpdateTrackedEntities(n)
	return n, nil
}

type sceneRow struct {
	SceneID       string  `db:"scene_id"`
	Hotness       float64 `db:"hotness"`
	Influence     float64 `db:"influence"`
	AudienceTrend float64 `db:"audience_trend"`
	Breakout      string  `db:"breakout_entities"`
	Rising        string  `db:"rising_entities"`
	MemberCount   int     `db:"member_count"`
	Metadata      string  `db:"metadata"`
	UpdatedAt     string  `db:"updated_at"`
}

// SaveSceneSignals implements SceneStore.
func (s *SQLStore) SaveSceneSignals(ctx context.Context, sc model.SceneSignals) error {
	const op = "save_scene_signals"
	defer observe(op, time.Now())
	if sc.SceneID == "" {
		return fmt.Errorf("%w: empty scene id", ErrInvalidInput)
	}
	row := sceneRow{
		SceneID:       sc.SceneID,
		Hotness:       sc.Hotness,
		Influence:     sc.Influence,
		AudienceTrend: sc.AudienceTrend,
		Breakout:      encodeJSON(sc.BreakoutEntities, "[]"),
		Rising:        encodeJSON(sc.RisingEntities, "[]"),
		MemberCount:   sc.MemberCount,
		Metadata:      encodeJSON(sc.Metadata, "{}"),
		UpdatedAt:     formatTime(sc.UpdatedAt),
	}
	const query = `INSERT INTO scene_signals
		(scene_id, hotness, influence, audience_trend, breakout_entities, rising_entities, member_count, metadata, updated_at)
	VALUES (:scene_id, :hotness, :influence, :audience_trend, :breakout_entities, :rising_entities, :member_count, :metadata, :updated_at)
	ON CONFLICT (scene_id) DO UPDATE SET
		hotness = excluded.hotness,
		influence = excluded.influence,
		audience_trend = excluded.audience_trend,
		breakout_entities = excluded.breakout_entities,
		rising_entities = excluded.rising_entities,
		member_count = excluded.member_count,
		metadata = excluded.metadata,
		updated_at = excluded.updated_at`

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.db.NamedExecContext(qctx, query, row); err != nil {
		return s.fail(ctx, op, fmt.Errorf("upsert scene %s: %w", sc.SceneID, err))
	}
	return nil
}

// GetSceneSignals implements SceneStore.
func (s *SQLStore) GetSceneSignals(ctx context.Context, sceneID string) (model.SceneSignals, bool, error) {
	const op = "get_scene_signals"
	defer observe(op, time.Now())
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var row sceneRow
	err := s.db.GetContext(qctx, &row, s.db.Rebind(`SELECT scene_id, hotness, influence, audience_trend,
		breakout_entities, rising_entities, member_count, metadata, updated_at
		FROM scene_signals WHERE scene_id = ?`), sceneID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SceneSignals{}, false, nil
	}
	if err != nil {
		return model.SceneSignals{}, false, s.fail(ctx, op, err)
	}

	sc := model.SceneSignals{
		SceneID:       row.SceneID,
		Hotness:       row.Hotness,
		Influence:     row.Influence,
		AudienceTrend: row.AudienceTrend,
		MemberCount:   row.MemberCount,
	}
	for _, dec := range []struct {
		raw string
		dst any
	}{
		{row.Breakout, &sc.BreakoutEntities},
		{row.Rising, &sc.RisingEntities},
		{row.Metadata, &sc.Metadata},
	} {
		if err := decodeJSON(dec.raw, dec.dst); err != nil {
			return model.SceneSignals{}, false, s.fail(ctx, op, err)
		}
	}
	if sc.UpdatedAt, err = parseTime(row.UpdatedAt); err != nil {
		return model.SceneSignals{}, false, s.fail(ctx, op, err)
	}
	return sc, true, nil
}

type recommendationRow struct {
	ID            string         `db:"id"`
	WorkspaceID   string         `db:"workspace_id"`
	EntityID      string         `db:"entity_id"`
	Type          string         `db:"recommendation_type"`
	Score         float64        `db:"score"`
	Confidence    float64        `db:"confidence"`
	Rationale     string         `db:"rationale"`
	Opportunities string         `db:"opportunities"`
	Risks         string         `db:"risks"`
	CreatedAt     string         `db:"created_at"`
	ExpiresAt     sql.NullString `db:"expires_at"`
}

// SaveRecommendation implements RecommendationStore.
func (s *SQLStore) SaveRecommendation(ctx context.Context, r model.Recommendation) error {
	const op = "save_recommendation"
	defer observe(op, time.Now())
	if r.ID == "" || r.WorkspaceID == "" {
		return fmt.Errorf("%w: recommendation needs id and workspace", ErrInvalidInput)
	}
	row := recommendationRow{
		ID:            r.ID,
		WorkspaceID:   r.WorkspaceID,
		EntityID:      r.EntityID,
		Type:          string(r.Type),
		Score:         r.Score,
		Confidence:    r.Confidence,
		Rationale:     r.Rationale,
		Opportunities: encodeJSON(r.Opportunities, "[]"),
		Risks:         encodeJSON(r.Risks, "[]"),
		CreatedAt:     formatTime(r.CreatedAt),
	}
	if r.ExpiresAt != nil {
		row.ExpiresAt = sql.NullString{String: formatTime(*r.ExpiresAt), Valid: true}
	}
	const query = `INSERT INTO recommendations
		(id, workspace_id, entity_id, recommendation_type, score, confidence, rationale, opportunities, risks, created_at, expires_at)
	VALUES (:id, :workspace_id, :entity_id, :recommendation_type, :score, :confidence, :rationale, :opportunities, :risks, :created_at, :expires_at)
	ON CONFLICT (id) DO UPDATE SET
		workspace_id = excluded.workspace_id,
		entity_id = excluded.entity_id,
		recommendation_type = excluded.recommendation_type,
		score = excluded.score,
		confidence = excluded.confidence,
		rationale = excluded.rationale,
		opportunities = excluded.opportunities,
		risks = excluded.risks,
		created_at = excluded.created_at,
		expires_at = excluded.expires_at`

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.db.NamedExecContext(qctx, query, row); err != nil {
		return s.fail(ctx, op, fmt.Errorf("upsert recommendation %s: %w", r.ID, err))
	}
	return nil
}

// RecommendationsForWorkspace implements RecommendationStore.
func (s *SQLStore) RecommendationsForWorkspace(ctx context.Context, ws string, n int) ([]model.Recommendation, error) {
	const op = "recommendations_for_workspace"
	defer observe(op, time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []recommendationRow
	err := s.db.SelectContext(qctx, &rows, s.db.Rebind(`SELECT id, workspace_id, entity_id, recommendation_type,
		score, confidence, rationale, opportunities, risks, created_at, expires_at
		FROM recommendations
		WHERE workspace_id = ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY score DESC, created_at DESC, id ASC
		LIMIT ?`), ws, formatTime(s.now()), n)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	out := make([]model.Recommendation, 0, len(rows))
	for _, row := range rows {
		r := model.Recommendation{
			ID:          row.ID,
			WorkspaceID: row.WorkspaceID,
			EntityID:    row.EntityID,
			Type:        model.RecommendationType(row.Type),
			Score:       row.Score,
			Confidence:  row.Confidence,
			Rationale:   row.Rationale,
		}
		if err := decodeJSON(row.Opportunities, &r.Opportunities); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		if err := decodeJSON(row.Risks, &r.Risks); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		if r.CreatedAt, err = parseTime(row.CreatedAt); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		if row.ExpiresAt.Valid {
			exp, err := parseTime(row.ExpiresAt.String)
			if err != nil {
				return nil, s.fail(ctx, op, err)
			}
			r.ExpiresAt = &exp
		}
		out = append(out, r)
	}
	return out, nil
}

type entityRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	SceneID     string `db:"scene_id"`
	WorkspaceID string `db:"workspace_id"`
	Tags        string `db:"tags"`
	CreatedAt   string `db:"created_at"`
}

func (r entityRow) toModel() (model.Entity, error) {
	e := model.Entity{ID: r.ID, Name: r.Name, SceneID: r.SceneID, WorkspaceID: r.WorkspaceID}
	if err := decodeJSON(r.Tags, &e.Tags); err != nil {
		return model.Entity{}, err
	}
	if len(e.Tags) == 0 {
		e.Tags = nil
	}
	t, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.Entity{}, err
	}
	e.CreatedAt = t
	return e, nil
}

// SaveEntity implements EntityStore.
func (s *SQLStore) SaveEntity(ctx context.Context, e model.Entity) error {
	const op = "save_entity"
	defer observe(op, time.Now())
	if e.ID == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidInput)
	}
	row := entityRow{
		ID:          e.ID,
		Name:        e.Name,
		SceneID:     e.SceneID,
		WorkspaceID: e.WorkspaceID,
		Tags:        encodeJSON(model.NormalizeTags(e.Tags), "[]"),
		CreatedAt:   formatTime(e.CreatedAt),
	}
	const query = `INSERT INTO entities (id, name, scene_id, workspace_id, tags, created_at)
	VALUES (:id, :name, :scene_id, :workspace_id, :tags, :created_at)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		scene_id = excluded.scene_id,
		workspace_id = excluded.workspace_id,
		tags = excluded.tags,
		created_at = excluded.created_at`

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.db.NamedExecContext(qctx, query, row); err != nil {
		return s.fail(ctx, op, fmt.Errorf("upsert entity %s: %w", e.ID, err))
	}
	return nil
}

// GetEntity implements EntityStore.
func (s *SQLStore) GetEntity(ctx context.Context, id string) (model.Entity, bool, error) {
	const op = "get_entity"
	defer observe(op, time.Now())
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var row entityRow
	err := s.db.GetContext(qctx, &row, s.db.Rebind(`SELECT id, name, scene_id, workspace_id, tags, created_at FROM entities WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Entity{}, false, nil
	}
	if err != nil {
		return model.Entity{}, false, s.fail(ctx, op, err)
	}
	e, err := row.toModel()
	if err != nil {
		return model.Entity{}, false, s.fail(ctx, op, err)
	}
	return e, true, nil
}

// ListEntities implements EntityStore. An empty workspace lists every entity.
func (s *SQLStore) ListEntities(ctx context.Context, ws string) ([]model.Entity, error) {
	const op = "list_entities"
	defer observe(op, time.Now())
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []entityRow
	err := s.db.SelectContext(qctx, &rows, s.db.Rebind(`SELECT id, name, scene_id, workspace_id, tags, created_at
		FROM entities WHERE (? = '' OR workspace_id = ?) ORDER BY id`), ws, ws)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	out := make([]model.Entity, 0, len(rows))
	for _, row := range rows {
		e, err := row.toModel()
		if err != nil {
			return nil, s.fail(ctx, op, err)
		}
		out = append(out, e)
	}
	return out, nil
}

type eventRow struct {
	ID         string         `db:"id"`
	EntityID   string         `db:"entity_id"`
	Type       string         `db:"event_type"`
	Date       string         `db:"event_date"`
	Weight     float64        `db:"weight"`
	Source     string         `db:"source"`
	ExternalID sql.NullString `db:"external_id"`
	Metadata   string         `db:"metadata"`
	CreatedAt  string         `db:"created_at"`
}

// AppendEvent implements EventStore. Uniqueness of (source, external_id) is
// enforced by the schema; a conflicting insert affects no rows.
func (s *SQLStore) AppendEvent(ctx context.Context, e model.Event) (bool, error) {
	const op = "append_event"
	defer observe(op, time.Now())
	if e.ID == "" || e.EntityID == "" {
		return false, fmt.Errorf("%w: event needs id and entity", ErrInvalidInput)
	}
	row := eventRow{
		ID:         e.ID,
		EntityID:   e.EntityID,
		Type:       string(e.Type),
		Date:       formatTime(e.Date),
		Weight:     e.Weight,
		Source:     string(e.Source),
		ExternalID: sql.NullString{String: e.ExternalID, Valid: e.ExternalID != ""},
		Metadata:   encodeJSON(e.Metadata, "{}"),
		CreatedAt:  formatTime(e.CreatedAt),
	}
	const query = `INSERT INTO events
		(id, entity_id, event_type, event_date, weight, source, external_id, metadata, created_at)
	VALUES (:id, :entity_id, :event_type, :event_date, :weight, :source, :external_id, :metadata, :created_at)
	ON CONFLICT (source, external_id) DO NOTHING`

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.NamedExecContext(qctx, query, row)
	if err != nil {
		return false, s.fail(ctx, op, fmt.Errorf("insert event %s: %w", e.ID, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.fail(ctx, op, err)
	}
	return n > 0, nil
}

// ListEvents implements EventStore.
func (s *SQLStore) ListEvents(ctx context.Context, entityID string, n int) ([]model.Event, error) {
	const op = "list_events"
	defer observe(op, time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []eventRow
	err := s.db.SelectContext(qctx, &rows, s.db.Rebind(`SELECT id, entity_id, event_type, event_date, weight,
		source, external_id, metadata, created_at
		FROM events WHERE entity_id = ? ORDER BY event_date DESC, created_at DESC LIMIT ?`), entityID, n)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	out := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		e := model.Event{
			ID:         row.ID,
			EntityID:   row.EntityID,
			Type:       model.EventType(row.Type),
			Weight:     row.Weight,
			Source:     model.EventSource(row.Source),
			ExternalID: row.ExternalID.String,
		}
		if err := decodeJSON(row.Metadata, &e.Metadata); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		if e.Date, err = parseTime(row.Date); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		if e.CreatedAt, err = parseTime(row.CreatedAt); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		out = append(out, e)
	}
	return out, nil
}

type snapshotRow struct {
	EntityID      string  `db:"entity_id"`
	MomentumScore float64 `db:"momentum_score"`
	BreakoutScore float64 `db:"breakout_score"`
	RiskScore     float64 `db:"risk_score"`
	SceneHotness  float64 `db:"scene_hotness"`
	TakenAt       string  `db:"taken_at"`
}

// AppendScoreSnapshot implements HistoryStore.
func (s *SQLStore) AppendScoreSnapshot(ctx context.Context, snap model.ScoreSnapshot) error {
	const op = "append_score_snapshot"
	defer observe(op, time.Now())
	if snap.EntityID == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidInput)
	}
	row := snapshotRow{
		EntityID:      snap.EntityID,
		MomentumScore: snap.MomentumScore,
		BreakoutScore: snap.BreakoutScore,
		RiskScore:     snap.RiskScore,
		SceneHotness:  snap.SceneHotness,
		TakenAt:       formatTime(snap.TakenAt),
	}
	const query = `INSERT INTO score_snapshots
		(entity_id, momentum_score, breakout_score, risk_score, scene_hotness, taken_at)
	VALUES (:entity_id, :momentum_score, :breakout_score, :risk_score, :scene_hotness, :taken_at)`

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.db.NamedExecContext(qctx, query, row); err != nil {
		return s.fail(ctx, op, fmt.Errorf("insert snapshot %s: %w", snap.EntityID, err))
	}
	return nil
}

// ScoreHistory implements HistoryStore.
func (s *SQLStore) ScoreHistory(ctx context.Context, entityID string, n int) ([]model.ScoreSnapshot, error) {
	const op = "score_history"
	defer observe(op, time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []snapshotRow
	err := s.db.SelectContext(qctx, &rows, s.db.Rebind(`SELECT entity_id, momentum_score, breakout_score,
		risk_score, scene_hotness, taken_at
		FROM score_snapshots WHERE entity_id = ? ORDER BY taken_at DESC LIMIT ?`), entityID, n)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	out := make([]model.ScoreSnapshot, 0, len(rows))
	for _, row := range rows {
		t, err := parseTime(row.TakenAt)
		if err != nil {
			return nil, s.fail(ctx, op, err)
		}
		out = append(out, model.ScoreSnapshot{
			EntityID:      row.EntityID,
			MomentumScore: row.MomentumScore,
			BreakoutScore: row.BreakoutScore,
			RiskScore:     row.RiskScore,
			SceneHotness:  row.SceneHotness,
			TakenAt:       t,
		})
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

func encodeJSON(v any, empty string) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return empty
	}
	return string(data)
}

func decodeJSON(raw string, dst any) error {
	switch raw {
	case "", "[]", "{}":
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode column: %w", err)
	}
	return nil
}
