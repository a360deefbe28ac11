package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
	"github.com/google/uuid"
)

const eventColumns = `id, organizer_id, title, description, category, date, location, max_attendees, image_url, created_at`

// EventStore persists events.
type EventStore struct {
	db *sql.DB
}

// Create inserts e, assigning a generated UUID and creation time when unset.
func (s *EventStore) Create(ctx context.Context, e *model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.Date = fromMillis(toMillis(e.Date))
	e.CreatedAt = fromMillis(toMillis(e.CreatedAt))

	var capacity sql.NullInt64
	if e.Capacity != nil {
		capacity = sql.NullInt64{Int64: int64(*e.Capacity), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OrganizerID, e.Title, e.Description, string(e.Category),
		toMillis(e.Date), e.Location, capacity, e.ImageURL, toMillis(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListUpcoming returns events dated at or after now, soonest first.
func (s *EventStore) ListUpcoming(ctx context.Context, now time.Time) ([]model.Event, error) {
	return s.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE date >= ? ORDER BY date ASC, id ASC`,
		toMillis(now),
	)
}

// ListByOrganizer returns all events of one organizer, soonest first.
func (s *EventStore) ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	return s.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE organizer_id = ? ORDER BY date ASC, id ASC`,
		organizerID,
	)
}

func (s *EventStore) list(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or repository.ErrNotFound.
func (s *EventStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// Delete removes an event and, by cascade, its registrations.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (model.Event, error) {
	var (
		e         model.Event
		category  string
		date      int64
		createdAt int64
		capacity  sql.NullInt64
	)
	if err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &category,
		&date, &e.Location, &capacity, &e.ImageURL, &createdAt,
	); err != nil {
		return model.Event{}, err
	}
	e.Category = model.Category(category)
	e.Date = fromMillis(date)
	e.CreatedAt = fromMillis(createdAt)
	if capacity.Valid {
		n := int(capacity.Int64)
		e.Capacity = &n
	}
	return e, nil
}
