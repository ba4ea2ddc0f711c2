package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aktivitetskrav/internal/cases/models"
	reconcilemetrics "aktivitetskrav/internal/reconcile/metrics"
	"aktivitetskrav/pkg/domain"
)

// Handler-level skip reasons, counted next to the engine's.
const (
	skipTombstone = "tombstone"
	skipNoEpisode = "no_episode"
)

// Processor reconciles one decoded episode snapshot.
type Processor interface {
	Process(ctx context.Context, episode models.Oppfolgingstilfelle) (Result, error)
}

// Handler decodes episode snapshot records and feeds them to the engine. Each
// snapshot is isolated: a bad or failing record is counted and logged, and the
// rest of the batch still runs, so offsets can be committed per batch.
type Handler struct {
	processor Processor
	deduper   Deduper
	logger    *slog.Logger
	metrics   *reconcilemetrics.Metrics
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

func WithHandlerMetrics(m *reconcilemetrics.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithDeduper enables best-effort snapshot-reference deduplication.
func WithDeduper(d Deduper) HandlerOption {
	return func(h *Handler) { h.deduper = d }
}

func NewHandler(processor Processor, opts ...HandlerOption) *Handler {
	h := &Handler{
		processor: processor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// snapshotRecord is the wire shape of one person's episode snapshot.
type snapshotRecord struct {
	UUID                           string        `json:"uuid"`
	PersonIdentifikator            string        `json:"personIdentifikator"`
	OppfolgingstilfelleList        []tilfelleDTO `json:"oppfolgingstilfelleList"`
	ReferanseTilfelleBitUUID       string        `json:"referanseTilfelleBitUuid"`
	ReferanseTilfelleBitInntruffet time.Time     `json:"referanseTilfelleBitInntruffet"`
	Dodsdato                       *dateOnly     `json:"dodsdato"`
}

type tilfelleDTO struct {
	ArbeidstakerAtTilfelleEnd bool     `json:"arbeidstakerAtTilfelleEnd"`
	Start                     dateOnly `json:"start"`
	End                       dateOnly `json:"end"`
	GradertAtTilfelleEnd      bool     `json:"gradertAtTilfelleEnd"`
}

// dateOnly parses the snapshot stream's date fields, which carry no time part.
type dateOnly struct {
	time.Time
}

func (d *dateOnly) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", s, err)
	}
	d.Time = parsed
	return nil
}

// HandleSnapshot processes one raw record. A nil value is a tombstone. Decode
// and processing failures are counted and logged; only context cancellation
// propagates, so the consumer can commit the batch.
func (h *Handler) HandleSnapshot(ctx context.Context, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(value) == 0 {
		h.metrics.IncSkipped(skipTombstone)
		return nil
	}

	var record snapshotRecord
	if err := json.Unmarshal(value, &record); err != nil {
		h.metrics.IncFailed()
		h.logger.Error("failed to decode episode snapshot", "error", err)
		return nil
	}

	if h.deduper != nil && record.ReferanseTilfelleBitUUID != "" {
		seen, err := h.deduper.Seen(ctx, record.ReferanseTilfelleBitUUID)
		if err != nil {
			h.logger.Warn("snapshot dedup unavailable", "error", err)
		} else if seen {
			h.metrics.IncDeduplicated()
			return nil
		}
	}

	episode, ok, err := h.decodeEpisode(record)
	if err != nil {
		h.metrics.IncFailed()
		h.logger.Error("invalid episode snapshot", "snapshot_uuid", record.UUID, "error", err)
		return nil
	}
	if !ok {
		h.metrics.IncSkipped(skipNoEpisode)
		return nil
	}

	if _, err := h.processor.Process(ctx, episode); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.metrics.IncFailed()
		h.logger.Error("failed to reconcile episode snapshot",
			"snapshot_uuid", record.UUID,
			"episode_uuid", episode.UUID,
			"error", err,
		)
		// Not marked as processed: the redelivery is the retry.
		return nil
	}

	if h.deduper != nil && record.ReferanseTilfelleBitUUID != "" {
		if err := h.deduper.MarkProcessed(ctx, record.ReferanseTilfelleBitUUID); err != nil {
			h.logger.Warn("failed to mark snapshot processed", "error", err)
		}
	}
	return nil
}

// decodeEpisode maps the wire record onto the domain episode, choosing the most
// recent employment episode in the snapshot.
func (h *Handler) decodeEpisode(record snapshotRecord) (models.Oppfolgingstilfelle, bool, error) {
	personident, err := domain.ParsePersonIdent(record.PersonIdentifikator)
	if err != nil {
		return models.Oppfolgingstilfelle{}, false, err
	}

	var latest *tilfelleDTO
	for i := range record.OppfolgingstilfelleList {
		t := &record.OppfolgingstilfelleList[i]
		if !t.ArbeidstakerAtTilfelleEnd {
			continue
		}
		if latest == nil || t.Start.After(latest.Start.Time) {
			latest = t
		}
	}
	if latest == nil {
		return models.Oppfolgingstilfelle{}, false, nil
	}

	episode := models.Oppfolgingstilfelle{
		UUID:                           record.UUID,
		PersonIdent:                    personident,
		TilfelleStart:                  latest.Start.Time,
		TilfelleEnd:                    latest.End.Time,
		GradertAtTilfelleEnd:           latest.GradertAtTilfelleEnd,
		ReferanseTilfelleBitInntruffet: record.ReferanseTilfelleBitInntruffet,
	}
	if record.Dodsdato != nil && !record.Dodsdato.IsZero() {
		dod := record.Dodsdato.Time
		episode.Dodsdato = &dod
	}
	return episode, true, nil
}
