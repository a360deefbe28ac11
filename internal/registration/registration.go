// Package registration flips a user's registration for a single event and
// keeps the displayed attendee count in step with the successful mutation.
//
// The capacity check is read-then-act: two sessions registering for the
// last seat at the same moment may both pass it. True enforcement belongs
// to the store; this package only refuses what the caller can already see
// is full.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// ErrUnauthenticated is returned when no identity is supplied. No store call
// is made; callers should route the user to sign in.
var ErrUnauthenticated = errors.New("authentication required")

// ErrEventFull is returned when the displayed count already meets capacity.
var ErrEventFull = errors.New("event is full")

// ErrRemote matches every *RemoteError via errors.Is.
var ErrRemote = errors.New("registration rejected by store")

// RemoteError reports that the store rejected a mutation. Network failures,
// constraint violations and authorization failures all land here.
type RemoteError struct {
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrRemote) hold for any RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// Store is the pair of remote mutations the reconciler issues.
type Store interface {
	Insert(ctx context.Context, eventID, userID string) error
	Delete(ctx context.Context, eventID, userID string) error
}

// Reconciler issues at most one store mutation per Toggle call.
type Reconciler struct {
	store  Store
	logger *slog.Logger
}

// NewReconciler constructs a Reconciler. A nil logger uses slog.Default.
func NewReconciler(store Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger.With("component", "registration")}
}

// Toggle attempts the opposite of current once.
//
// On success the returned state has Registered flipped and Count moved by
// exactly one. On failure current is returned unchanged alongside one of
// ErrUnauthenticated, ErrEventFull or a *RemoteError. Nothing is retried.
func (r *Reconciler) Toggle(ctx context.Context, user *model.Identity, event model.Event, current model.RegistrationState) (model.RegistrationState, error) {
	if user == nil || user.UserID == "" {
		return current, ErrUnauthenticated
	}

	if current.Registered {
		if err := r.store.Delete(ctx, event.ID, user.UserID); err != nil {
			r.logger.Warn("unregister rejected", "event_id", event.ID, "user_id", user.UserID, "error", err)
			return current, remote("unregister", err)
		}
		r.logger.Info("unregistered", "event_id", event.ID, "user_id", user.UserID)
		return model.RegistrationState{Registered: false, Count: current.Count - 1}, nil
	}

	if event.IsFull(current.Count) {
		return current, ErrEventFull
	}

	if err := r.store.Insert(ctx, event.ID, user.UserID); err != nil {
		r.logger.Warn("register rejected", "event_id", event.ID, "user_id", user.UserID, "error", err)
		return current, remote("register", err)
	}
	r.logger.Info("registered", "event_id", event.ID, "user_id", user.UserID)
	return model.RegistrationState{Registered: true, Count: current.Count + 1}, nil
}

func remote(op string, err error) *RemoteError {
	return &RemoteError{
		Message: fmt.Sprintf("%s: %v", op, err),
		Err:     err,
	}
}
