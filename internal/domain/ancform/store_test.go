package ancform

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/anc/internal/domain/emergency"
	"github.com/ehr/anc/internal/domain/obstetrics"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisDraftStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisDraftStore(client, ttl)
}

func TestRedisDraftStore_SaveAndGet(t *testing.T) {
	mr, store := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	s := newTestSession()
	require.NoError(t, s.Apply([]FieldChange{
		{Field: FieldPreviousPregnancies, Value: "1"},
		{Field: obstetrics.FieldGestationalAge, Value: "7", PregnancyIndex: idx(0)},
		{Field: FieldDangerSigns, Values: []string{"Fever"}},
	}))
	require.NoError(t, store.Save(ctx, s))

	assert.True(t, mr.Exists(draftKey(s.ID)))
	assert.Equal(t, time.Hour, mr.TTL(draftKey(s.ID)))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.PatientID, got.PatientID)
	assert.Equal(t, 1, got.History.Count)
	r, err := got.History.Record(0)
	require.NoError(t, err)
	require.NotNil(t, r.GestationalAgeMonths)
	assert.Equal(t, 7, *r.GestationalAgeMonths)
	assert.Equal(t, s.Danger.ReferralReasons, got.Danger.ReferralReasons)
	assert.Equal(t, s.Danger.SyncedReasons, got.Danger.SyncedReasons)
	assert.True(t, got.Danger.EmergencyReferral)
}

func TestRedisDraftStore_Expiry(t *testing.T) {
	mr, store := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	s := newTestSession()
	require.NoError(t, store.Save(ctx, s))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRedisDraftStore_Delete(t *testing.T) {
	_, store := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	s := newTestSession()
	require.NoError(t, store.Save(ctx, s))
	require.NoError(t, store.Delete(ctx, s.ID))

	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.ErrorIs(t, store.Delete(ctx, s.ID), ErrDraftNotFound)
}

func TestRedisDraftStore_GetMissing(t *testing.T) {
	_, store := setupTestRedis(t, time.Hour)
	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRedisDraftStore_CorruptDraft(t *testing.T) {
	mr, store := setupTestRedis(t, time.Hour)
	id := uuid.New()
	require.NoError(t, mr.Set(draftKey(id), "{not json"))

	_, err := store.Get(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDraftNotFound)
}

func TestRedisDraftStore_Update(t *testing.T) {
	mr, store := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	s := newTestSession()
	require.NoError(t, store.Save(ctx, s))
	mr.FastForward(30 * time.Minute)

	got, err := store.Update(ctx, s.ID, func(sess *Session) error {
		return sess.Apply([]FieldChange{{Field: FieldPreviousPregnancies, Value: "2"}})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.History.Count)
	assert.Equal(t, time.Hour, mr.TTL(draftKey(s.ID)))

	stored, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.History.Count)
}

func TestRedisDraftStore_Update_RetriesOnConcurrentWrite(t *testing.T) {
	_, store := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	s := newTestSession()
	require.NoError(t, store.Save(ctx, s))

	calls := 0
	got, err := store.Update(ctx, s.ID, func(sess *Session) error {
		calls++
		if calls == 1 {
			// another client lands its batch between our read and our write
			other, err := store.Get(ctx, s.ID)
			require.NoError(t, err)
			require.NoError(t, other.Apply([]FieldChange{{Field: FieldDangerSigns, Values: []string{"Fever"}}}))
			require.NoError(t, store.Save(ctx, other))
		}
		return sess.Apply([]FieldChange{{Field: FieldPreviousPregnancies, Value: "1"}})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, got.History.Count)
	assert.Contains(t, got.Danger.ReferralReasons, emergency.ReasonHighFever)

	stored, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.History.Count)
	assert.Len(t, stored.Danger.DangerSigns, 1)
}

func TestRedisDraftStore_Update_GivesUpAfterRepeatedConflicts(t *testing.T) {
	_, store := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	s := newTestSession()
	require.NoError(t, store.Save(ctx, s))

	calls := 0
	_, err := store.Update(ctx, s.ID, func(sess *Session) error {
		calls++
		require.NoError(t, store.Save(ctx, newTestSessionWithID(s.ID)))
		return sess.Apply([]FieldChange{{Field: FieldPreviousPregnancies, Value: "3"}})
	})
	assert.ErrorIs(t, err, ErrDraftConflict)
	assert.Equal(t, maxUpdateAttempts, calls)

	stored, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.History.Count)
}

func TestRedisDraftStore_Update_RejectedLeavesDraft(t *testing.T) {
	_, store := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	s := newTestSession()
	require.NoError(t, store.Save(ctx, s))

	_, err := store.Update(ctx, s.ID, func(sess *Session) error {
		return sess.Apply([]FieldChange{
			{Field: FieldPreviousPregnancies, Value: "2"},
			{Field: "blood_group", Value: "O"},
		})
	})
	var changeErr *ChangeError
	require.ErrorAs(t, err, &changeErr)

	stored, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.History.Count)
}

func TestRedisDraftStore_Update_Missing(t *testing.T) {
	_, store := setupTestRedis(t, time.Hour)
	_, err := store.Update(context.Background(), uuid.New(), func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func newTestSessionWithID(id uuid.UUID) *Session {
	s := newTestSession()
	s.ID = id
	return s
}
