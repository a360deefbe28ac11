// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the store layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Shivanand-hulikatti/eventhub/internal/catalog"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/registration"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
)

// ErrForbidden is returned when the caller lacks permission for an action.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthenticated is returned when an action requires an identity.
var ErrUnauthenticated = registration.ErrUnauthenticated

// ValidationError describes invalid caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// EventStore is the event persistence the service needs.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	ListUpcoming(ctx context.Context, now time.Time) ([]model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// RegistrationStore is the registration persistence the service needs.
type RegistrationStore interface {
	registration.Store
	Count(ctx context.Context, eventID string) (int, error)
	Exists(ctx context.Context, eventID, userID string) (bool, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
}

// ProfileStore is the profile persistence the service needs.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	Upsert(ctx context.Context, p *model.Profile) error
}

// Limits applied to event creation.
const (
	minTitleLen       = 3
	maxTitleLen       = 100
	maxDescriptionLen = 1000
	maxLocationLen    = 200
	maxCapacity       = 100_000
)

// EventService orchestrates event-related business operations.
type EventService struct {
	events        EventStore
	registrations RegistrationStore
	profiles      ProfileStore
	reconciler    *registration.Reconciler
	logger        *slog.Logger
	now           func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events EventStore,
	registrations RegistrationStore,
	profiles ProfileStore,
	logger *slog.Logger,
) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		events:        events,
		registrations: registrations,
		profiles:      profiles,
		reconciler:    registration.NewReconciler(registrations, logger),
		logger:        logger.With("component", "service"),
		now:           time.Now,
	}
}

// SearchEvents returns upcoming events filtered by query and category.
// A zero category matches all categories.
func (s *EventService) SearchEvents(ctx context.Context, query string, category model.Category) ([]model.Event, error) {
	events, err := s.events.ListUpcoming(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return catalog.Filter(events, query, category), nil
}

// GetEventDetail returns an event with its organizer and the registration
// state seen by user. user may be nil.
func (s *EventService) GetEventDetail(ctx context.Context, id string, user *model.Identity) (*model.EventDetail, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &model.EventDetail{Event: *event}

	organizer, err := s.profiles.GetByID(ctx, event.OrganizerID)
	switch {
	case err == nil:
		detail.Organizer = organizer
	case errors.Is(err, repository.ErrNotFound):
	default:
		s.logger.Warn("organizer profile unavailable", "event_id", event.ID, "error", err)
	}

	count, err := s.registrations.Count(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	detail.Registration.Count = count
	if remaining, limited := event.Remaining(count); limited {
		detail.Remaining = &remaining
	}

	if user != nil && user.UserID != "" {
		registered, err := s.registrations.Exists(ctx, event.ID, user.UserID)
		if err != nil {
			return nil, fmt.Errorf("check registration: %w", err)
		}
		detail.Registration.Registered = registered
	}
	return detail, nil
}

// CreateEvent validates req and stores a new event owned by user.
func (s *EventService) CreateEvent(ctx context.Context, user *model.Identity, req model.CreateEventRequest) (*model.Event, error) {
	if user == nil || user.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if !user.Role.CanOrganize() {
		return nil, ErrForbidden
	}

	event, err := s.validateEvent(req)
	if err != nil {
		return nil, err
	}
	event.OrganizerID = user.UserID

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", "event_id", event.ID, "organizer_id", user.UserID)
	s.ensureProfile(ctx, user)
	return event, nil
}

// ensureProfile stores a profile for user from the token claims if none
// exists yet, so event detail pages can show the organizer.
func (s *EventService) ensureProfile(ctx context.Context, user *model.Identity) {
	_, err := s.profiles.GetByID(ctx, user.UserID)
	if err == nil {
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		err = s.profiles.Upsert(ctx, profileFromIdentity(user))
	}
	if err != nil {
		s.logger.Warn("organizer profile not stored", "user_id", user.UserID, "error", err)
	}
}

func (s *EventService) validateEvent(req model.CreateEventRequest) (*model.Event, error) {
	title := strings.TrimSpace(req.Title)
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		return nil, invalid("title", "must be between %d and %d characters", minTitleLen, maxTitleLen)
	}
	description := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return nil, invalid("description", "must be at most %d characters", maxDescriptionLen)
	}
	if !req.Category.Valid() {
		return nil, invalid("category", "must be one of %v", model.Categories)
	}
	if req.Date.IsZero() {
		return nil, invalid("date", "is required")
	}
	location := strings.TrimSpace(req.Location)
	if n := utf8.RuneCountInString(location); n == 0 || n > maxLocationLen {
		return nil, invalid("location", "must be between 1 and %d characters", maxLocationLen)
	}
	if req.Capacity != nil && (*req.Capacity <= 0 || *req.Capacity > maxCapacity) {
		return nil, invalid("max_attendees", "must be between 1 and %d", maxCapacity)
	}
	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL != "" {
		if u, err := url.Parse(imageURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, invalid("image_url", "must be an absolute http(s) URL")
		}
	}

	return &model.Event{
		Title:       title,
		Description: description,
		Category:    req.Category,
		Date:        req.Date.UTC(),
		Location:    location,
		Capacity:    req.Capacity,
		ImageURL:    imageURL,
	}, nil
}

// DeleteEvent removes an event. Only its organizer or an admin may do so.
func (s *EventService) DeleteEvent(ctx context.Context, user *model.Identity, id string) error {
	if user == nil || user.UserID == "" {
		return ErrUnauthenticated
	}
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(user, event) {
		return ErrForbidden
	}
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.logger.Info("event deleted", "event_id", id, "by", user.UserID)
	return nil
}

// ListMyEvents returns the events organized by user.
func (s *EventService) ListMyEvents(ctx context.Context, user *model.Identity) ([]model.Event, error) {
	if user == nil || user.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if !user.Role.CanOrganize() {
		return nil, ErrForbidden
	}
	events, err := s.events.ListByOrganizer(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	return events, nil
}

// ToggleRegistration flips user's registration for eventID, starting from
// the state the caller displays. See registration.Reconciler.Toggle.
func (s *EventService) ToggleRegistration(ctx context.Context, user *model.Identity, eventID string, current model.RegistrationState) (model.RegistrationState, error) {
	if user == nil || user.UserID == "" {
		return current, ErrUnauthenticated
	}
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return current, err
	}
	return s.reconciler.Toggle(ctx, user, *event, current)
}

// ListRegistrations returns all registrations for an event. Only its
// organizer or an admin may see them.
func (s *EventService) ListRegistrations(ctx context.Context, user *model.Identity, eventID string) ([]model.Registration, error) {
	if user == nil || user.UserID == "" {
		return nil, ErrUnauthenticated
	}
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !canManage(user, event) {
		return nil, ErrForbidden
	}
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// GetProfile returns the caller's profile, derived from the token claims
// when no profile has been stored yet.
func (s *EventService) GetProfile(ctx context.Context, user *model.Identity) (*model.Profile, error) {
	if user == nil || user.UserID == "" {
		return nil, ErrUnauthenticated
	}
	p, err := s.profiles.GetByID(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return profileFromIdentity(user), nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// UpdateProfile stores the caller's display name. Email and role always
// come from the identity provider.
func (s *EventService) UpdateProfile(ctx context.Context, user *model.Identity, req model.UpdateProfileRequest) (*model.Profile, error) {
	if user == nil || user.UserID == "" {
		return nil, ErrUnauthenticated
	}
	name := strings.TrimSpace(req.FullName)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return nil, invalid("full_name", "must be between 2 and 100 characters")
	}

	p := profileFromIdentity(user)
	p.FullName = name
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func (s *EventService) getEvent(ctx context.Context, id string) (*model.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("id", "is required")
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func canManage(user *model.Identity, event *model.Event) bool {
	return user.Role == model.RoleAdmin || event.OrganizerID == user.UserID
}

func profileFromIdentity(user *model.Identity) *model.Profile {
	return &model.Profile{
		ID:       user.UserID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}
}
