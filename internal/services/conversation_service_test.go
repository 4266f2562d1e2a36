package services

import (
	"context"
	"errors"
	"testing"

	"chatbazaar/internal/events"
	bazaar_errors "chatbazaar/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversationService(repo *fakeConversationRepo, em *fakeEmitter) *ConversationService {
	return NewConversationService(repo, em, testLogger())
}

func TestConversationCreate_DirectIsIdempotentEitherOrder(t *testing.T) {
	repo := newFakeConversationRepo()
	em := &fakeEmitter{}
	svc := newConversationService(repo, em)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()

	first, created, err := svc.Create(ctx, alice, CreateConversationInput{ParticipantIDs: []uuid.UUID{bob}})
	require.NoError(t, err)
	assert.True(t, created)

	// Same pair, opposite initiator.
	second, created, err := svc.Create(ctx, bob, CreateConversationInput{ParticipantIDs: []uuid.UUID{alice}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestConversationCreate_DirectRequiresExactlyTwo(t *testing.T) {
	svc := newConversationService(newFakeConversationRepo(), &fakeEmitter{})
	requester := uuid.New()

	_, _, err := svc.Create(context.Background(), requester, CreateConversationInput{
		ParticipantIDs: []uuid.UUID{uuid.New(), uuid.New()},
	})
	assert.True(t, errors.Is(err, bazaar_errors.ErrInvalidInput))

	// Only the requester after dedup.
	_, _, err = svc.Create(context.Background(), requester, CreateConversationInput{
		ParticipantIDs: []uuid.UUID{requester},
	})
	assert.True(t, errors.Is(err, bazaar_errors.ErrInvalidInput))
}

func TestConversationCreate_DuplicateParticipantIDsCollapse(t *testing.T) {
	svc := newConversationService(newFakeConversationRepo(), &fakeEmitter{})
	alice, bob := uuid.New(), uuid.New()

	conv, created, err := svc.Create(context.Background(), alice, CreateConversationInput{
		ParticipantIDs: []uuid.UUID{bob, bob, alice},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, conv.Participants, 2)
}

func TestConversationCreate_GroupValidation(t *testing.T) {
	svc := newConversationService(newFakeConversationRepo(), &fakeEmitter{})
	requester := uuid.New()
	ctx := context.Background()

	_, _, err := svc.Create(ctx, requester, CreateConversationInput{
		ParticipantIDs: []uuid.UUID{uuid.New(), uuid.New()},
		IsGroup:        true,
		GroupName:      " x ",
	})
	assert.True(t, errors.Is(err, bazaar_errors.ErrInvalidInput), "short group name")

	_, _, err = svc.Create(ctx, requester, CreateConversationInput{
		ParticipantIDs: []uuid.UUID{uuid.New()},
		IsGroup:        true,
		GroupName:      "weekend plans",
	})
	assert.True(t, errors.Is(err, bazaar_errors.ErrInvalidInput), "too few participants")
}

func TestConversationCreate_GroupSetsAdminAndNotifies(t *testing.T) {
	repo := newFakeConversationRepo()
	em := &fakeEmitter{}
	svc := newConversationService(repo, em)
	requester, b, c := uuid.New(), uuid.New(), uuid.New()

	conv, created, err := svc.Create(context.Background(), requester, CreateConversationInput{
		ParticipantIDs:   []uuid.UUID{b, c},
		IsGroup:          true,
		GroupName:        "weekend plans",
		GroupDescription: "trip",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, conv.IsAdmin(requester))
	assert.Len(t, conv.Participants, 3)

	notified := em.ofType(events.TypeConversationNew)
	require.Len(t, notified, 2)
	for _, e := range notified {
		assert.NotEqual(t, requester.String(), e.User)
	}
}

func TestConversationCreate_PairKeyRaceReturnsWinner(t *testing.T) {
	repo := newFakeConversationRepo()
	em := &fakeEmitter{}
	svc := newConversationService(repo, em)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	winner, _, err := svc.Create(ctx, alice, CreateConversationInput{ParticipantIDs: []uuid.UUID{bob}})
	require.NoError(t, err)

	// Simulate losing the unique-index race: the existence check misses, the
	// insert hits the duplicate pair key, and the retry lookup finds the
	// winner.
	repo.mu.Lock()
	repo.missDirectOnce = true
	repo.mu.Unlock()
	conv, created, err := svc.Create(ctx, bob, CreateConversationInput{ParticipantIDs: []uuid.UUID{alice}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, conv.ID)
}

func TestConversationCreate_NoEmitWhenPersistFails(t *testing.T) {
	repo := newFakeConversationRepo()
	repo.createErr = bazaar_errors.ErrInternal
	em := &fakeEmitter{}
	svc := newConversationService(repo, em)

	_, _, err := svc.Create(context.Background(), uuid.New(), CreateConversationInput{
		ParticipantIDs: []uuid.UUID{uuid.New(), uuid.New()},
		IsGroup:        true,
		GroupName:      "weekend plans",
	})
	require.Error(t, err)
	assert.Empty(t, em.all())
}
