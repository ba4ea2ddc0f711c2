// Package reconcile keeps the case store consistent with the episode snapshot
// stream. Every decision derives from persisted state plus the incoming
// snapshot, so redelivered snapshots are harmless.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"aktivitetskrav/internal/cases/models"
	reconcilemetrics "aktivitetskrav/internal/reconcile/metrics"
	"aktivitetskrav/pkg/domain"
)

// Cases is the slice of the case orchestrator the engine drives.
type Cases interface {
	GetByPerson(ctx context.Context, personident domain.PersonIdent) ([]*models.Case, error)
	CreateFromEpisode(ctx context.Context, episode models.Oppfolgingstilfelle) (*models.Case, error)
	AutoFulfil(ctx context.Context, c *models.Case) error
	UpdateStoppunkt(ctx context.Context, c *models.Case, episode models.Oppfolgingstilfelle) (bool, error)
}

// SkipReason names why a snapshot was filtered out before any mutation.
type SkipReason string

const (
	SkipBelowThreshold SkipReason = "below_threshold"
	SkipDeceased       SkipReason = "deceased"
	SkipBeforeCutoff   SkipReason = "before_cutoff"
	SkipInactive       SkipReason = "inactive"
)

// Result describes what one snapshot caused.
type Result struct {
	Skipped        SkipReason
	Created        *models.Case
	AutoFulfilled  int
	StoppunktMoved bool
}

// Config holds the reconciliation parameters.
type Config struct {
	// LegacyCutoff excludes episodes predating the migration to this system.
	LegacyCutoff time.Time
	// InactivityDays excludes episodes whose end lies further in the past.
	InactivityDays int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		LegacyCutoff:   time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC),
		InactivityDays: 30,
	}
}

// Engine applies the reconciliation algorithm for one person's episode snapshot.
type Engine struct {
	cases   Cases
	cfg     Config
	logger  *slog.Logger
	metrics *reconcilemetrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *reconcilemetrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithClock pins the engine's notion of now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(cases Cases, opts ...Option) *Engine {
	e := &Engine{
		cases:  cases,
		cfg:    DefaultConfig(),
		logger: slog.Default(),
		tracer: otel.Tracer("aktivitetskrav/internal/reconcile"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process reconciles one episode snapshot against the person's cases.
func (e *Engine) Process(ctx context.Context, episode models.Oppfolgingstilfelle) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Process")
	defer span.End()

	if reason, skip := e.skipReason(episode); skip {
		e.metrics.IncSkipped(string(reason))
		e.logger.Debug("skipped episode snapshot", "reason", reason, "episode_uuid", episode.UUID)
		return Result{Skipped: reason}, nil
	}

	cases, err := e.cases.GetByPerson(ctx, episode.PersonIdent)
	if err != nil {
		return Result{}, fmt.Errorf("loading cases: %w", err)
	}

	var result Result

	// Supersession sweep: an open case whose stoppunkt falls outside the
	// episode belongs to an earlier episode and resolves automatically.
	for _, c := range cases {
		if c.Status.IsFinal() || c.Gjelder(episode) {
			continue
		}
		if err := e.cases.AutoFulfil(ctx, c); err != nil {
			return result, fmt.Errorf("auto-fulfilling superseded case %s: %w", c.ID, err)
		}
		e.metrics.IncAutoFulfilled()
		result.AutoFulfilled++
	}

	match := matchCase(cases, episode)
	switch {
	case match == nil:
		result.Created, err = e.createCase(ctx, episode)
	case match.Status == models.StatusAutomatiskOppfylt && !episode.GradertAtTilfelleEnd:
		// The grading that fulfilled the case automatically is gone, so the
		// activity requirement needs a fresh assessment.
		result.Created, err = e.createCase(ctx, episode)
	default:
		result.StoppunktMoved, err = e.moveStoppunkt(ctx, match, episode)
	}
	if err != nil {
		return result, err
	}
	e.metrics.IncProcessed()
	return result, nil
}

func (e *Engine) skipReason(episode models.Oppfolgingstilfelle) (SkipReason, bool) {
	switch {
	case !episode.PassererStoppunkt():
		return SkipBelowThreshold, true
	case episode.IsDod():
		return SkipDeceased, true
	case episode.TilfelleStart.Before(e.cfg.LegacyCutoff):
		return SkipBeforeCutoff, true
	case episode.IsInactive(e.now().AddDate(0, 0, -e.cfg.InactivityDays)):
		return SkipInactive, true
	}
	return "", false
}

func (e *Engine) createCase(ctx context.Context, episode models.Oppfolgingstilfelle) (*models.Case, error) {
	c, err := e.cases.CreateFromEpisode(ctx, episode)
	if err != nil {
		return nil, fmt.Errorf("creating case: %w", err)
	}
	e.metrics.IncCreated()
	e.logger.Info("created case from episode",
		"case_id", c.ID,
		"status", c.Status,
		"stoppunkt_at", c.StoppunktAt,
	)
	return c, nil
}

func (e *Engine) moveStoppunkt(ctx context.Context, match *models.Case, episode models.Oppfolgingstilfelle) (bool, error) {
	if !models.Stoppunkt(episode.TilfelleStart).After(e.cfg.LegacyCutoff) {
		return false, nil
	}
	moved, err := e.cases.UpdateStoppunkt(ctx, match, episode)
	if err != nil {
		return false, fmt.Errorf("updating stoppunkt on case %s: %w", match.ID, err)
	}
	if moved {
		e.metrics.IncStoppunktMoved()
	}
	return moved, nil
}

// matchCase finds the newest case belonging to the episode. Cases arrive
// newest first from the store.
func matchCase(cases []*models.Case, episode models.Oppfolgingstilfelle) *models.Case {
	for _, c := range cases {
		if c.Gjelder(episode) {
			return c
		}
	}
	return nil
}
