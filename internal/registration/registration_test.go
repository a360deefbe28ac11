package registration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	inserts   int
	deletes   int
	insertErr error
	deleteErr error
}

func (s *stubStore) Insert(_ context.Context, _, _ string) error {
	s.inserts++
	return s.insertErr
}

func (s *stubStore) Delete(_ context.Context, _, _ string) error {
	s.deletes++
	return s.deleteErr
}

func (s *stubStore) calls() int {
	return s.inserts + s.deletes
}

func newTestReconciler(store Store) *Reconciler {
	return NewReconciler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func capacity(n int) *int {
	return &n
}

var alice = &model.Identity{UserID: "user-alice", Email: "alice@example.com", Role: model.RoleUser}

func TestToggle_FullEventIsRejectedWithoutStoreCall(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(store)
	current := model.RegistrationState{Registered: false, Count: 2}

	got, err := r.Toggle(context.Background(), alice, model.Event{ID: "ev", Capacity: capacity(2)}, current)

	require.ErrorIs(t, err, ErrEventFull)
	assert.Equal(t, current, got)
	assert.Zero(t, store.calls())
}

func TestToggle_UnlimitedCapacityRegisters(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(store)

	got, err := r.Toggle(context.Background(), alice, model.Event{ID: "ev"}, model.RegistrationState{Count: 5})

	require.NoError(t, err)
	assert.Equal(t, model.RegistrationState{Registered: true, Count: 6}, got)
	assert.Equal(t, 1, store.inserts)
	assert.Zero(t, store.deletes)
}

func TestToggle_UnauthenticatedMakesNoStoreCall(t *testing.T) {
	tests := []struct {
		name string
		user *model.Identity
	}{
		{"nil identity", nil},
		{"empty user id", &model.Identity{Email: "ghost@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{}
			r := newTestReconciler(store)
			current := model.RegistrationState{Registered: true, Count: 3}

			got, err := r.Toggle(context.Background(), tt.user, model.Event{ID: "ev"}, current)

			require.ErrorIs(t, err, ErrUnauthenticated)
			assert.Equal(t, current, got)
			assert.Zero(t, store.calls())
		})
	}
}

func TestToggle_Unregister(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(store)

	got, err := r.Toggle(context.Background(), alice, model.Event{ID: "ev", Capacity: capacity(2)}, model.RegistrationState{Registered: true, Count: 2})

	require.NoError(t, err)
	assert.Equal(t, model.RegistrationState{Registered: false, Count: 1}, got)
	assert.Equal(t, 1, store.deletes)
	assert.Zero(t, store.inserts)
}

func TestToggle_UnregisterIgnoresCapacity(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(store)

	got, err := r.Toggle(context.Background(), alice, model.Event{ID: "ev", Capacity: capacity(1)}, model.RegistrationState{Registered: true, Count: 4})

	require.NoError(t, err)
	assert.Equal(t, model.RegistrationState{Registered: false, Count: 3}, got)
}

func TestToggle_RemoteRejectionLeavesStateUnchanged(t *testing.T) {
	dup := errors.New("duplicate key value violates unique constraint")

	t.Run("register", func(t *testing.T) {
		store := &stubStore{insertErr: dup}
		r := newTestReconciler(store)
		current := model.RegistrationState{Count: 1}

		got, err := r.Toggle(context.Background(), alice, model.Event{ID: "ev"}, current)

		require.ErrorIs(t, err, ErrRemote)
		require.ErrorIs(t, err, dup)
		var remoteErr *RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Contains(t, remoteErr.Message, "unique constraint")
		assert.Equal(t, current, got)
		assert.Equal(t, 1, store.inserts)
	})

	t.Run("unregister", func(t *testing.T) {
		store := &stubStore{deleteErr: errors.New("connection reset")}
		r := newTestReconciler(store)
		current := model.RegistrationState{Registered: true, Count: 1}

		got, err := r.Toggle(context.Background(), alice, model.Event{ID: "ev"}, current)

		require.ErrorIs(t, err, ErrRemote)
		assert.Equal(t, current, got)
		assert.Equal(t, 1, store.deletes)
	})
}

func TestToggle_DoesNotRetry(t *testing.T) {
	store := &stubStore{insertErr: errors.New("timeout")}
	r := newTestReconciler(store)

	_, err := r.Toggle(context.Background(), alice, model.Event{ID: "ev"}, model.RegistrationState{})

	require.Error(t, err)
	assert.Equal(t, 1, store.inserts)
}

func TestToggle_StrictFlip(t *testing.T) {
	store := &stubStore{}
	r := newTestReconciler(store)
	state := model.RegistrationState{Count: 7}

	for i := 0; i < 6; i++ {
		next, err := r.Toggle(context.Background(), alice, model.Event{ID: "ev"}, state)
		require.NoError(t, err)
		assert.NotEqual(t, state.Registered, next.Registered)
		if next.Registered {
			assert.Equal(t, state.Count+1, next.Count)
		} else {
			assert.Equal(t, state.Count-1, next.Count)
		}
		state = next
	}
	assert.Equal(t, 3, store.inserts)
	assert.Equal(t, 3, store.deletes)
}

func TestToggle_SequentialRegistrationsNeverExceedCapacity(t *testing.T) {
	const limit = 3
	store := &stubStore{}
	r := newTestReconciler(store)
	event := model.Event{ID: "ev", Capacity: capacity(limit)}

	count := 0
	for i := 0; i < 10; i++ {
		// Each attempt comes from a different user who sees the shared count.
		next, err := r.Toggle(context.Background(), alice, event, model.RegistrationState{Count: count})
		if err != nil {
			require.ErrorIs(t, err, ErrEventFull)
			continue
		}
		count = next.Count
		assert.LessOrEqual(t, count, limit)
	}
	assert.Equal(t, limit, count)
	assert.Equal(t, limit, store.inserts)
}
