package database

import (
	"context"
	"errors"
	"strings"

	"secretariat_import/internal/config/connections/postgres"
	"secretariat_import/internal/models"
)

type CollaboratorRepo struct {
	pg    *postgres.Postgres
	table string
}

func NewCollaboratorRepo(pg *postgres.Postgres, table string) *CollaboratorRepo {
	if table == "" {
		table = "collaborators"
	}
	return &CollaboratorRepo{pg: pg, table: table}
}

// UpdateOrCreate upserts by national number. Empty incoming values never
// overwrite stored ones. The bool reports whether the row was inserted.
func (r *CollaboratorRepo) UpdateOrCreate(ctx context.Context, c models.Collaborator) (*models.Collaborator, bool, error) {
	if strings.TrimSpace(c.NationalNumber) == "" {
		return nil, false, errors.New("national number is required")
	}

	query := `
		INSERT INTO ` + r.table + ` (
			id, company_bce, national_number, first_name, last_name,
			birth_date, email, phone, iban, start_date, status,
			created_at, updated_at
		) VALUES (
			gen_random_uuid(), $1, $2, $3, $4,
			$5, $6, $7, $8, $9, COALESCE(NULLIF($10, ''), 'active'),
			NOW(), NOW()
		)
		ON CONFLICT (national_number) DO UPDATE SET
			company_bce = COALESCE(NULLIF(EXCLUDED.company_bce, ''), ` + r.table + `.company_bce),
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), ` + r.table + `.first_name),
			last_name = COALESCE(NULLIF(EXCLUDED.last_name, ''), ` + r.table + `.last_name),
			birth_date = COALESCE(EXCLUDED.birth_date, ` + r.table + `.birth_date),
			email = COALESCE(NULLIF(EXCLUDED.email, ''), ` + r.table + `.email),
			phone = COALESCE(NULLIF(EXCLUDED.phone, ''), ` + r.table + `.phone),
			iban = COALESCE(NULLIF(EXCLUDED.iban, ''), ` + r.table + `.iban),
			start_date = COALESCE(EXCLUDED.start_date, ` + r.table + `.start_date),
			status = COALESCE(NULLIF($10, ''), ` + r.table + `.status),
			updated_at = NOW()
		RETURNING
			id, company_bce, national_number, first_name, last_name,
			birth_date, email, phone, iban, start_date, status, created_at,
			(xmax = 0) AS inserted
	`

	var out models.Collaborator
	var inserted bool
	err := r.pg.Pool.QueryRow(ctx, query,
		c.CompanyBCE, c.NationalNumber, c.FirstName, c.LastName,
		c.BirthDate, c.Email, c.Phone, c.IBAN, c.StartDate, c.Status,
	).Scan(
		&out.ID, &out.CompanyBCE, &out.NationalNumber, &out.FirstName, &out.LastName,
		&out.BirthDate, &out.Email, &out.Phone, &out.IBAN, &out.StartDate, &out.Status, &out.CreatedAt,
		&inserted,
	)
	if err != nil {
		return nil, false, err
	}
	return &out, inserted, nil
}
