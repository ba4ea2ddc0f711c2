package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "aktivitetskrav/internal/varsel/models"
	"aktivitetskrav/internal/varsel/store"
	"aktivitetskrav/pkg/domain"
)

var testPerson = domain.PersonIdent("12345678910")

type stubJournaler struct {
	failFor map[domain.VarselID]bool
	calls   int
}

func (j *stubJournaler) Create(_ context.Context, _ domain.PersonIdent, v *models.Varsel, _ []byte) (string, error) {
	j.calls++
	if j.failFor[v.ID] {
		return "", errors.New("dokarkiv unavailable")
	}
	return fmt.Sprintf("journalpost-%d", j.calls), nil
}

type stubVarselProducer struct {
	published []models.Event
	expired   []models.Event
	err       error
}

func (p *stubVarselProducer) VarselPublished(_ context.Context, event models.Event) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

func (p *stubVarselProducer) VarselExpired(_ context.Context, event models.Event) error {
	if p.err != nil {
		return p.err
	}
	p.expired = append(p.expired, event)
	return nil
}

type workerFixture struct {
	worker    *Worker
	store     *store.MemoryStore
	journaler *stubJournaler
	producer  *stubVarselProducer
	now       time.Time
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	f := &workerFixture{
		store:     store.NewMemory(),
		journaler: &stubJournaler{failFor: make(map[domain.VarselID]bool)},
		producer:  &stubVarselProducer{},
		now:       time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	f.worker = New(f.store, f.journaler, f.producer,
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func (f *workerFixture) addVarsel(t *testing.T, svarfrist *time.Time) *models.Varsel {
	t.Helper()
	v, err := models.New(models.TypeForhandsvarselStansAvSykepenger, []string{"NAV vurderer a stanse sykepengene dine."}, svarfrist)
	require.NoError(t, err)
	v.AssessmentID = domain.NewAssessmentID()
	require.NoError(t, f.store.Create(context.Background(), testPerson, v, []byte("%PDF-1.7")))
	return v
}

func TestJournalforBatch(t *testing.T) {
	t.Run("archives the backlog", func(t *testing.T) {
		f := newWorkerFixture(t)
		v1 := f.addVarsel(t, nil)
		v2 := f.addVarsel(t, nil)

		archived, err := f.worker.JournalforBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, archived)

		for _, v := range []*models.Varsel{v1, v2} {
			stored, err := f.store.GetByAssessment(context.Background(), v.AssessmentID)
			require.NoError(t, err)
			assert.NotNil(t, stored.JournalpostID)
		}
	})

	t.Run("a failing item does not block the rest", func(t *testing.T) {
		f := newWorkerFixture(t)
		failing := f.addVarsel(t, nil)
		ok := f.addVarsel(t, nil)
		f.journaler.failFor[failing.ID] = true

		archived, err := f.worker.JournalforBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, archived)

		stored, err := f.store.GetByAssessment(context.Background(), ok.AssessmentID)
		require.NoError(t, err)
		assert.NotNil(t, stored.JournalpostID)

		stored, err = f.store.GetByAssessment(context.Background(), failing.AssessmentID)
		require.NoError(t, err)
		assert.Nil(t, stored.JournalpostID)
	})

	t.Run("repeated failures trip the breaker and defer the batch", func(t *testing.T) {
		f := newWorkerFixture(t)
		var varsler []*models.Varsel
		for i := 0; i < 4; i++ {
			v, err := models.New(models.TypeForhandsvarselStansAvSykepenger, []string{"NAV vurderer a stanse sykepengene dine."}, nil)
			require.NoError(t, err)
			v.AssessmentID = domain.NewAssessmentID()
			v.CreatedAt = f.now.Add(time.Duration(i) * time.Second)
			require.NoError(t, f.store.Create(context.Background(), testPerson, v, []byte("%PDF-1.7")))
			varsler = append(varsler, v)
		}
		for _, v := range varsler[:3] {
			f.journaler.failFor[v.ID] = true
		}

		archived, err := f.worker.JournalforBatch(context.Background())
		require.NoError(t, err)
		assert.Zero(t, archived)
		assert.Equal(t, 3, f.journaler.calls, "fourth varsel must be deferred after the circuit opens")

		f.journaler.failFor = make(map[domain.VarselID]bool)
		archived, err = f.worker.JournalforBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 4, archived, "successful probe must close the circuit and drain the batch")
	})

	t.Run("second run finds nothing", func(t *testing.T) {
		f := newWorkerFixture(t)
		f.addVarsel(t, nil)

		_, err := f.worker.JournalforBatch(context.Background())
		require.NoError(t, err)

		archived, err := f.worker.JournalforBatch(context.Background())
		require.NoError(t, err)
		assert.Zero(t, archived)
	})
}

func TestPublishBatch(t *testing.T) {
	t.Run("publishes only archived varsler", func(t *testing.T) {
		f := newWorkerFixture(t)
		f.addVarsel(t, nil)

		published, err := f.worker.PublishBatch(context.Background())
		require.NoError(t, err)
		assert.Zero(t, published)

		_, err = f.worker.JournalforBatch(context.Background())
		require.NoError(t, err)

		published, err = f.worker.PublishBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, published)
		require.Len(t, f.producer.published, 1)
		assert.Equal(t, testPerson.String(), f.producer.published[0].PersonIdent)
	})

	t.Run("producer failure leaves the varsel for retry", func(t *testing.T) {
		f := newWorkerFixture(t)
		v := f.addVarsel(t, nil)
		_, err := f.worker.JournalforBatch(context.Background())
		require.NoError(t, err)

		f.producer.err = errors.New("kafka unavailable")
		published, err := f.worker.PublishBatch(context.Background())
		require.NoError(t, err)
		assert.Zero(t, published)

		f.producer.err = nil
		published, err = f.worker.PublishBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, published)

		stored, err := f.store.GetByAssessment(context.Background(), v.AssessmentID)
		require.NoError(t, err)
		assert.NotNil(t, stored.PublishedAt)
	})
}

func TestPublishExpiredBatch(t *testing.T) {
	t.Run("announces a passed reply window exactly once", func(t *testing.T) {
		f := newWorkerFixture(t)
		svarfrist := f.now.AddDate(0, 0, -1)
		f.addVarsel(t, &svarfrist)

		announced, err := f.worker.PublishExpiredBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, announced)
		require.Len(t, f.producer.expired, 1)

		announced, err = f.worker.PublishExpiredBatch(context.Background())
		require.NoError(t, err)
		assert.Zero(t, announced)
		assert.Len(t, f.producer.expired, 1)
	})

	t.Run("open reply windows are left alone", func(t *testing.T) {
		f := newWorkerFixture(t)
		svarfrist := f.now.AddDate(0, 0, 7)
		f.addVarsel(t, &svarfrist)
		f.addVarsel(t, nil)

		announced, err := f.worker.PublishExpiredBatch(context.Background())
		require.NoError(t, err)
		assert.Zero(t, announced)
	})
}
