// Package model defines the core domain types for the event discovery system.
package model

import "time"

// Category is one of a closed set of event categories.
// The zero value means "any category" when used as a filter.
type Category string

const (
	CategoryTechnology Category = "Technology"
	CategoryMusic      Category = "Music"
	CategorySports     Category = "Sports"
	CategoryArt        Category = "Art"
	CategoryFood       Category = "Food"
	CategoryWorkshop   Category = "Workshop"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryTechnology,
	CategoryMusic,
	CategorySports,
	CategoryArt,
	CategoryFood,
	CategoryWorkshop,
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Role is the coarse permission level of an authenticated user.
type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// CanOrganize reports whether the role may create events.
func (r Role) CanOrganize() bool {
	return r == RoleOrganizer || r == RoleAdmin
}

// Event represents a schedulable happening created by an organizer.
type Event struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Capacity    *int      `json:"max_attendees,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Remaining returns the number of open seats given the current registration
// count, and false when the event has no capacity limit.
func (e *Event) Remaining(count int) (int, bool) {
	if e.Capacity == nil {
		return 0, false
	}
	return max(*e.Capacity-count, 0), true
}

// IsFull returns true when a capacity is set and count has reached it.
func (e *Event) IsFull(count int) bool {
	return e.Capacity != nil && count >= *e.Capacity
}

// Registration associates one user with one event.
type Registration struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the public record of a user.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is a resolved, authenticated caller.
type Identity struct {
	UserID   string
	Email    string
	FullName string
	Role     Role
}

// RegistrationState is what a caller currently displays for one user and
// one event: whether the user is registered and how many registrations the
// event has. Count is derived from the last successful mutation and may lag
// behind concurrent writers.
type RegistrationState struct {
	Registered bool `json:"registered"`
	Count      int  `json:"count"`
}

// EventDetail is an event with its organizer and the caller's registration state.
type EventDetail struct {
	Event        Event             `json:"event"`
	Organizer    *Profile          `json:"organizer,omitempty"`
	Registration RegistrationState `json:"registration"`
	Remaining    *int              `json:"remaining,omitempty"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Capacity    *int      `json:"max_attendees"`
	ImageURL    string    `json:"image_url"`
}

// ToggleRequest carries the registration state the caller currently displays.
type ToggleRequest struct {
	Registered bool `json:"registered"`
	Count      int  `json:"count"`
}

// UpdateProfileRequest is the payload for editing the caller's profile.
type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
