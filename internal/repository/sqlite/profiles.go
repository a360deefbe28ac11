package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
)

// ProfileStore persists user profiles.
type ProfileStore struct {
	db *sql.DB
}

// GetByID returns a single profile or repository.ErrNotFound.
func (s *ProfileStore) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var (
		p         model.Profile
		role      string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, created_at FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.Email, &p.FullName, &role, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.Role = model.Role(role)
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

// Upsert inserts p or updates its email, name and role. CreatedAt is kept
// from the first insert.
func (s *ProfileStore) Upsert(ctx context.Context, p *model.Profile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO profiles (id, email, full_name, role, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE
		 SET email = excluded.email, full_name = excluded.full_name, role = excluded.role
		 RETURNING created_at`,
		p.ID, p.Email, p.FullName, string(p.Role), toMillis(p.CreatedAt),
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	return nil
}
