package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func capacity(n int) *int {
	return &n
}

var now = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func createEvent(t *testing.T, store *Store, e model.Event) model.Event {
	t.Helper()
	if e.OrganizerID == "" {
		e.OrganizerID = "org-1"
	}
	if e.Title == "" {
		e.Title = "Untitled"
	}
	if e.Location == "" {
		e.Location = "Somewhere"
	}
	if e.Category == "" {
		e.Category = model.CategoryTechnology
	}
	require.NoError(t, store.Events().Create(context.Background(), &e))
	return e
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(" ")
	assert.Error(t, err)
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestEventRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	created := createEvent(t, store, model.Event{
		OrganizerID: "org-7",
		Title:       "Jazz Night",
		Description: "live jazz",
		Category:    model.CategoryMusic,
		Date:        now.Add(48 * time.Hour),
		Location:    "Park",
		Capacity:    capacity(40),
		ImageURL:    "https://img.example.com/jazz.jpg",
	})
	require.NotEmpty(t, created.ID)

	got, err := store.Events().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, *got)

	unlimited := createEvent(t, store, model.Event{Title: "Open Mic", Date: now.Add(time.Hour)})
	got, err = store.Events().GetByID(ctx, unlimited.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Capacity)
}

func TestCreateEventStoresMillisecondDate(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	e := model.Event{
		OrganizerID: "org-1",
		Title:       "Precise",
		Category:    model.CategoryArt,
		Date:        now.Add(1500 * time.Microsecond),
		Location:    "Lab",
	}
	require.NoError(t, store.Events().Create(ctx, &e))
	assert.Equal(t, now.Add(time.Millisecond), e.Date)

	got, err := store.Events().GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Date, got.Date)
	assert.Equal(t, e.CreatedAt, got.CreatedAt)
}

func TestGetEventNotFound(t *testing.T) {
	store := openTempStore(t)

	_, err := store.Events().GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListUpcomingOrdersByDateAndSkipsPast(t *testing.T) {
	store := openTempStore(t)

	late := createEvent(t, store, model.Event{Title: "Late", Date: now.Add(72 * time.Hour)})
	createEvent(t, store, model.Event{Title: "Past", Date: now.Add(-time.Hour)})
	early := createEvent(t, store, model.Event{Title: "Early", Date: now.Add(time.Hour)})
	exact := createEvent(t, store, model.Event{Title: "Now", Date: now})

	events, err := store.Events().ListUpcoming(context.Background(), now)
	require.NoError(t, err)

	var ids []string
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{exact.ID, early.ID, late.ID}, ids)
}

func TestListByOrganizer(t *testing.T) {
	store := openTempStore(t)

	mine := createEvent(t, store, model.Event{OrganizerID: "org-a", Date: now.Add(-time.Hour)})
	createEvent(t, store, model.Event{OrganizerID: "org-b", Date: now})

	events, err := store.Events().ListByOrganizer(context.Background(), "org-a")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, mine.ID, events[0].ID)
}

func TestDeleteEventCascadesRegistrations(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	e := createEvent(t, store, model.Event{Date: now})
	require.NoError(t, store.Registrations().Insert(ctx, e.ID, "user-1"))

	require.NoError(t, store.Events().Delete(ctx, e.ID))
	assert.ErrorIs(t, store.Events().Delete(ctx, e.ID), repository.ErrNotFound)

	count, err := store.Registrations().Count(ctx, e.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRegistrationLifecycle(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	regs := store.Registrations()
	e := createEvent(t, store, model.Event{Date: now})

	require.NoError(t, regs.Insert(ctx, e.ID, "user-1"))
	require.NoError(t, regs.Insert(ctx, e.ID, "user-2"))
	assert.ErrorIs(t, regs.Insert(ctx, e.ID, "user-1"), repository.ErrAlreadyRegistered)

	count, err := regs.Count(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	ok, err := regs.Exists(ctx, e.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := regs.ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, regs.Delete(ctx, e.ID, "user-1"))
	assert.ErrorIs(t, regs.Delete(ctx, e.ID, "user-1"), repository.ErrNotRegistered)

	ok, err = regs.Exists(ctx, e.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertRegistrationEnforcesCapacity(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	regs := store.Registrations()
	e := createEvent(t, store, model.Event{Date: now, Capacity: capacity(2)})

	require.NoError(t, regs.Insert(ctx, e.ID, "user-1"))
	require.NoError(t, regs.Insert(ctx, e.ID, "user-2"))
	assert.ErrorIs(t, regs.Insert(ctx, e.ID, "user-3"), repository.ErrEventFull)

	count, err := regs.Count(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInsertRegistrationTwiceOnFullEvent(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	regs := store.Registrations()
	e := createEvent(t, store, model.Event{Date: now, Capacity: capacity(1)})

	require.NoError(t, regs.Insert(ctx, e.ID, "user-1"))
	assert.ErrorIs(t, regs.Insert(ctx, e.ID, "user-1"), repository.ErrAlreadyRegistered)
	assert.ErrorIs(t, regs.Insert(ctx, e.ID, "user-2"), repository.ErrEventFull)
}

func TestInsertRegistrationForMissingEvent(t *testing.T) {
	store := openTempStore(t)

	err := store.Registrations().Insert(context.Background(), "gone", "user-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProfileUpsertKeepsCreatedAt(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	profiles := store.Profiles()

	_, err := profiles.GetByID(ctx, "user-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	first := &model.Profile{ID: "user-1", Email: "a@example.com", Role: model.RoleUser, CreatedAt: now}
	require.NoError(t, profiles.Upsert(ctx, first))

	second := &model.Profile{ID: "user-1", Email: "a@example.com", FullName: "Ada", Role: model.RoleOrganizer, CreatedAt: now.Add(time.Hour)}
	require.NoError(t, profiles.Upsert(ctx, second))
	assert.Equal(t, now, second.CreatedAt)

	got, err := profiles.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FullName)
	assert.Equal(t, model.RoleOrganizer, got.Role)
	assert.Equal(t, now, got.CreatedAt)
}
