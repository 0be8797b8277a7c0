package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

type testAggregate struct {
	domain.BaseAggregateRoot
	Name string
}

func newTestAggregate(name string) *testAggregate {
	return &testAggregate{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		Name:              name,
	}
}

type testAggregateEvent struct {
	domain.BaseEvent
}

func newTestAggregateEvent(aggregateID uuid.UUID) testAggregateEvent {
	return testAggregateEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "TestAggregate", "test.aggregate.created"),
	}
}

func TestNewBaseEntity(t *testing.T) {
	entity := domain.NewBaseEntity()

	assert.NotEqual(t, uuid.Nil, entity.ID())
	assert.False(t, entity.CreatedAt().IsZero())
	assert.Equal(t, entity.CreatedAt(), entity.UpdatedAt())
}

func TestBaseEntity_Touch(t *testing.T) {
	entity := domain.NewBaseEntity()
	created := entity.UpdatedAt()

	time.Sleep(time.Millisecond)
	entity.Touch()

	assert.True(t, entity.UpdatedAt().After(created))
	assert.Equal(t, created, entity.CreatedAt())
}

func TestBaseEntity_Equals(t *testing.T) {
	t.Run("same identity", func(t *testing.T) {
		id := uuid.New()
		now := time.Now().UTC()
		a := domain.RehydrateBaseEntity(id, now, now)
		b := domain.RehydrateBaseEntity(id, now.Add(-time.Hour), now)

		assert.True(t, a.Equals(b))
	})

	t.Run("different identity", func(t *testing.T) {
		a := domain.NewBaseEntity()
		b := domain.NewBaseEntity()

		assert.False(t, a.Equals(b))
	})

	t.Run("nil other", func(t *testing.T) {
		a := domain.NewBaseEntity()

		assert.False(t, a.Equals(nil))
	})
}

func TestNewBaseAggregateRoot(t *testing.T) {
	agg := domain.NewBaseAggregateRoot()

	assert.NotEqual(t, uuid.Nil, agg.ID())
	assert.Equal(t, 0, agg.Version())
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_AddDomainEvent(t *testing.T) {
	agg := newTestAggregate("Test")
	event := newTestAggregateEvent(agg.ID())

	agg.AddDomainEvent(event)

	events := agg.DomainEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, event.EventID(), events[0].EventID())
}

func TestBaseAggregateRoot_ClearDomainEvents(t *testing.T) {
	agg := newTestAggregate("Test")
	agg.AddDomainEvent(newTestAggregateEvent(agg.ID()))
	agg.AddDomainEvent(newTestAggregateEvent(agg.ID()))

	assert.Len(t, agg.DomainEvents(), 2)

	agg.ClearDomainEvents()

	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_IncrementVersion(t *testing.T) {
	agg := newTestAggregate("Test")

	assert.Equal(t, 0, agg.Version())

	agg.IncrementVersion()
	assert.Equal(t, 1, agg.Version())

	agg.IncrementVersion()
	assert.Equal(t, 2, agg.Version())
}

func TestRehydrateBaseAggregateRoot(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()
	entity := domain.RehydrateBaseEntity(id, now, now)

	agg := domain.RehydrateBaseAggregateRoot(entity, 7)

	assert.Equal(t, id, agg.ID())
	assert.Equal(t, 7, agg.Version())
	assert.Empty(t, agg.DomainEvents())
}
