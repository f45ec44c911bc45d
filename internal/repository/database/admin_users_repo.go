package database

import (
	"context"

	"secretariat_import/internal/config/connections/postgres"
	"secretariat_import/internal/models"

	"github.com/jackc/pgx/v5"
)

type AdminUserRepo struct {
	pg    *postgres.Postgres
	table string
}

func NewAdminUserRepo(pg *postgres.Postgres, table string) *AdminUserRepo {
	if table == "" {
		table = "admin_users"
	}
	return &AdminUserRepo{pg: pg, table: table}
}

// InsertResult is the outcome of one queued insert.
type InsertResult struct {
	Inserted bool
	Err      error
}

// InsertBatch sends every insert in a single round trip. Existing usernames
// are left untouched and reported as not inserted.
func (r *AdminUserRepo) InsertBatch(ctx context.Context, users []models.AdminUser) ([]InsertResult, error) {
	if len(users) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, u := range users {
		batch.Queue(`
			INSERT INTO `+r.table+` (
				username, email, first_name, last_name, password, role, created_at, updated_at
			) VALUES (
				$1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, COALESCE(NULLIF($6, ''), 'admin'), NOW(), NOW()
			)
			ON CONFLICT (username) DO NOTHING
		`,
			u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Role,
		)
	}

	br := r.pg.Pool.SendBatch(ctx, batch)
	defer br.Close()

	out := make([]InsertResult, len(users))
	for i := range users {
		tag, err := br.Exec()
		if err != nil {
			out[i] = InsertResult{Err: err}
			continue
		}
		out[i] = InsertResult{Inserted: tag.RowsAffected() == 1}
	}
	return out, nil
}
