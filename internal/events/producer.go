// Package events publishes the module's outbound events: case status changes
// and varsel lifecycle announcements. Records are keyed by personident so
// downstream consumers see one person's events in order.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	casemodels "aktivitetskrav/internal/cases/models"
	"aktivitetskrav/internal/platform/kafka/producer"
	varselmodels "aktivitetskrav/internal/varsel/models"
)

// Publisher is the transport the producer writes through.
type Publisher interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Topics names the destination topics per event kind.
type Topics struct {
	CaseChanged     string
	VarselPublished string
	VarselExpired   string
}

// Producer maps domain events onto Kafka records.
type Producer struct {
	publisher Publisher
	topics    Topics
}

func New(publisher Publisher, topics Topics) *Producer {
	return &Producer{publisher: publisher, topics: topics}
}

// CaseChanged publishes a case status change.
func (p *Producer) CaseChanged(ctx context.Context, event casemodels.CaseChangedEvent) error {
	return p.produce(ctx, p.topics.CaseChanged, event.PersonIdent, event)
}

// VarselPublished announces a delivered varsel.
func (p *Producer) VarselPublished(ctx context.Context, event varselmodels.Event) error {
	return p.produce(ctx, p.topics.VarselPublished, event.PersonIdent, event)
}

// VarselExpired announces a passed reply window.
func (p *Producer) VarselExpired(ctx context.Context, event varselmodels.Event) error {
	return p.produce(ctx, p.topics.VarselExpired, event.PersonIdent, event)
}

func (p *Producer) produce(ctx context.Context, topic, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", topic, err)
	}
	if err := p.publisher.Produce(ctx, &producer.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
