package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Insert records that userID attends eventID.
//
// The event row is locked with SELECT … FOR UPDATE for the duration of the
// transaction, so concurrent inserts for the same event are serialised and
// the capacity check and the insert see the same count. Callers that did an
// optimistic check against a stale count still cannot overbook here.
func (r *RegistrationRepository) Insert(ctx context.Context, eventID, userID string) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var capacity *int
	err = tx.QueryRow(ctx,
		`SELECT max_attendees FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == pgInvalidText {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	if capacity != nil {
		// A repeat insert on a full event is a duplicate, not an overflow.
		var registered bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
			eventID, userID,
		).Scan(&registered)
		if err != nil {
			return fmt.Errorf("check registration: %w", err)
		}
		if registered {
			return ErrAlreadyRegistered
		}

		var count int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if count >= *capacity {
			return ErrEventFull
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, event_id, user_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), eventID, userID, time.Now().UTC(),
	)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return ErrAlreadyRegistered
		case pgForeignKeyViolation:
			return ErrNotFound
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes the registration of userID for eventID.
func (r *RegistrationRepository) Delete(ctx context.Context, eventID, userID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		if pgCode(err) == pgInvalidText {
			return ErrNotRegistered
		}
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotRegistered
	}
	return nil
}

// Count returns the number of registrations for eventID.
func (r *RegistrationRepository) Count(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
	).Scan(&count)
	if err != nil {
		if pgCode(err) == pgInvalidText {
			return 0, nil
		}
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// Exists reports whether userID is registered for eventID.
func (r *RegistrationRepository) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&exists)
	if err != nil {
		if pgCode(err) == pgInvalidText {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return exists, nil
}

// ListByEvent returns all registrations for a given event, oldest first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, user_id, created_at
		 FROM registrations
		 WHERE event_id = $1
		 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.CreatedAt = reg.CreatedAt.UTC()
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
