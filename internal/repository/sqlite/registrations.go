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

// RegistrationStore persists registrations.
type RegistrationStore struct {
	db *sql.DB
}

// Insert records that userID attends eventID. The capacity check and the
// insert are a single statement, so SQLite's writer lock makes them atomic.
func (s *RegistrationStore) Insert(ctx context.Context, eventID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO registrations (id, event_id, user_id, created_at)
		 SELECT ?, e.id, ?, ?
		 FROM events e
		 WHERE e.id = ?
		   AND (e.max_attendees IS NULL
		        OR (SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id) < e.max_attendees)`,
		uuid.New().String(), userID, toMillis(time.Now()), eventID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyRegistered
		}
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Nothing was inserted: the event is gone, the user already holds a
	// seat, or the event is full.
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, eventID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	registered, err := s.Exists(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if registered {
		return repository.ErrAlreadyRegistered
	}
	return repository.ErrEventFull
}

// Delete removes the registration of userID for eventID.
func (s *RegistrationStore) Delete(ctx context.Context, eventID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM registrations WHERE event_id = ? AND user_id = ?`, eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if n == 0 {
		return repository.ErrNotRegistered
	}
	return nil
}

// Count returns the number of registrations for eventID.
func (s *RegistrationStore) Count(ctx context.Context, eventID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = ?`, eventID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// Exists reports whether userID is registered for eventID.
func (s *RegistrationStore) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = ? AND user_id = ?)`,
		eventID, userID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return exists, nil
}

// ListByEvent returns all registrations for a given event, oldest first.
func (s *RegistrationStore) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, user_id, created_at
		 FROM registrations
		 WHERE event_id = ?
		 ORDER BY created_at ASC, id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var (
			reg       model.Registration
			createdAt int64
		)
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.CreatedAt = fromMillis(createdAt)
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
