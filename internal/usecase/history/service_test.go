package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	dom "github.com/hotelio/booking-events/internal/domain/history"
	"github.com/hotelio/booking-events/internal/event"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Save(ctx context.Context, r *dom.Record) (bool, error) {
	args := m.Called(ctx, r)
	return args.Bool(0), args.Error(1)
}

type mockDedup struct {
	mock.Mock
}

func (m *mockDedup) Seen(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDedup) Mark(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func sampleEvent() event.BookingCreated {
	promo := "SUMMER10"
	discount := 10.0
	return event.BookingCreated{
		EventID:         "e-1",
		EventType:       event.TypeBookingCreated,
		BookingID:       42,
		UserID:          "u1",
		HotelID:         "h1",
		PromoCode:       &promo,
		DiscountPercent: &discount,
		Price:           90,
		CreatedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecord_MapsEnvelopeOneToOne(t *testing.T) {
	evt := sampleEvent()
	repo := &mockRepository{}
	repo.On("Save", mock.Anything, mock.MatchedBy(func(r *dom.Record) bool {
		return r.EventType == evt.EventType &&
			r.BookingID == evt.BookingID &&
			r.UserID == evt.UserID &&
			r.HotelID == evt.HotelID &&
			*r.PromoCode == *evt.PromoCode &&
			*r.DiscountPercent == *evt.DiscountPercent &&
			r.Price == evt.Price &&
			r.CreatedAt.Equal(evt.CreatedAt)
	})).Return(true, nil)

	svc := NewService(repo, nil)
	require.NoError(t, svc.Record(context.Background(), evt))
	repo.AssertExpectations(t)
}

func TestRecord_DuplicateRowIsNotAnError(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Save", mock.Anything, mock.Anything).Return(false, nil)

	svc := NewService(repo, nil)
	assert.NoError(t, svc.Record(context.Background(), sampleEvent()))
}

func TestRecord_PersistenceErrorPropagates(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Save", mock.Anything, mock.Anything).Return(false, errors.New("connection reset"))

	svc := NewService(repo, nil)
	err := svc.Record(context.Background(), sampleEvent())
	require.Error(t, err, "the listener relies on this error to trigger redelivery")
}

func TestRecord_DedupShortCircuitsRedelivery(t *testing.T) {
	repo := &mockRepository{}
	dedup := &mockDedup{}
	dedup.On("Seen", mock.Anything, "e-1").Return(true, nil)

	svc := NewService(repo, dedup)
	require.NoError(t, svc.Record(context.Background(), sampleEvent()))
	repo.AssertNotCalled(t, "Save")
}

func TestRecord_DedupFailureFallsThroughToStore(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Save", mock.Anything, mock.Anything).Return(true, nil)
	dedup := &mockDedup{}
	dedup.On("Seen", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	dedup.On("Mark", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, dedup)
	require.NoError(t, svc.Record(context.Background(), sampleEvent()))
	repo.AssertExpectations(t)
}

func TestRecord_MarksEventAfterSave(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Save", mock.Anything, mock.Anything).Return(true, nil)
	dedup := &mockDedup{}
	dedup.On("Seen", mock.Anything, "e-1").Return(false, nil)
	dedup.On("Mark", mock.Anything, "e-1").Return(nil)

	svc := NewService(repo, dedup)
	require.NoError(t, svc.Record(context.Background(), sampleEvent()))
	dedup.AssertCalled(t, "Mark", mock.Anything, "e-1")
}

func TestRecord_DoesNotMarkEventWhenSaveFails(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Save", mock.Anything, mock.Anything).Return(false, errors.New("connection reset"))
	dedup := &mockDedup{}
	dedup.On("Seen", mock.Anything, "e-1").Return(false, nil)

	svc := NewService(repo, dedup)
	require.Error(t, svc.Record(context.Background(), sampleEvent()))
	dedup.AssertNotCalled(t, "Mark", mock.Anything, mock.Anything)
}

// naiveRepo appends on every save, the behavior a store without the unique
// (booking_id, event_type) constraint would have.
type naiveRepo struct {
	records []*dom.Record
}

func (m *naiveRepo) Save(_ context.Context, r *dom.Record) (bool, error) {
	m.records = append(m.records, r)
	return true, nil
}

// uniqueRepo mirrors the real table: second insert for the same booking event
// is a no-op.
type uniqueRepo struct {
	records []*dom.Record
}

func (m *uniqueRepo) Save(_ context.Context, r *dom.Record) (bool, error) {
	for _, existing := range m.records {
		if existing.BookingID == r.BookingID && existing.EventType == r.EventType {
			return false, nil
		}
	}
	m.records = append(m.records, r)
	return true, nil
}

// flakyRepo fails the first save attempts, then behaves like uniqueRepo.
type flakyRepo struct {
	uniqueRepo
	failures int
}

func (m *flakyRepo) Save(ctx context.Context, r *dom.Record) (bool, error) {
	if m.failures > 0 {
		m.failures--
		return false, errors.New("history store unavailable")
	}
	return m.uniqueRepo.Save(ctx, r)
}

type memoryDedup struct {
	marked map[string]bool
}

func (m *memoryDedup) Seen(_ context.Context, eventID string) (bool, error) {
	return m.marked[eventID], nil
}

func (m *memoryDedup) Mark(_ context.Context, eventID string) error {
	if m.marked == nil {
		m.marked = map[string]bool{}
	}
	m.marked[eventID] = true
	return nil
}

func TestRecord_RedeliveryAfterSaveFailurePersists(t *testing.T) {
	evt := sampleEvent()
	repo := &flakyRepo{failures: 1}
	svc := NewService(repo, &memoryDedup{})
	ctx := context.Background()

	require.Error(t, svc.Record(ctx, evt), "failed save must surface so the record is redelivered")
	require.NoError(t, svc.Record(ctx, evt))
	assert.Len(t, repo.records, 1, "redelivered record must be persisted")

	require.NoError(t, svc.Record(ctx, evt))
	assert.Len(t, repo.records, 1, "further redeliveries are suppressed")
}

func TestRecord_IdempotentConsumption(t *testing.T) {
	evt := sampleEvent()

	t.Run("naive store duplicates on redelivery", func(t *testing.T) {
		repo := &naiveRepo{}
		svc := NewService(repo, nil)
		require.NoError(t, svc.Record(context.Background(), evt))
		require.NoError(t, svc.Record(context.Background(), evt))
		assert.Len(t, repo.records, 2, "demonstrates the duplication risk of an unconstrained store")
	})

	t.Run("unique constraint suppresses redelivery", func(t *testing.T) {
		repo := &uniqueRepo{}
		svc := NewService(repo, nil)
		require.NoError(t, svc.Record(context.Background(), evt))
		require.NoError(t, svc.Record(context.Background(), evt))
		assert.Len(t, repo.records, 1)
	})
}
