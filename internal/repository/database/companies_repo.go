package database

import (
	"context"
	"errors"
	"strings"

	"secretariat_import/internal/config/connections/postgres"
	"secretariat_import/internal/models"
)

type CompanyRepo struct {
	pg    *postgres.Postgres
	table string
	known map[string]bool
}

func NewCompanyRepo(pg *postgres.Postgres, table string) *CompanyRepo {
	if table == "" {
		table = "companies"
	}
	return &CompanyRepo{pg: pg, table: table, known: make(map[string]bool)}
}

// UpdateOrCreate upserts by BCE number. The bool reports whether the row was
// inserted.
func (r *CompanyRepo) UpdateOrCreate(ctx context.Context, c models.Company) (*models.Company, bool, error) {
	if strings.TrimSpace(c.BCE) == "" {
		return nil, false, errors.New("bce is required")
	}

	query := `
		INSERT INTO ` + r.table + ` (
			id, bce, name, vat, onss, iban,
			street, postal_code, city, status, created_at, updated_at
		) VALUES (
			gen_random_uuid(), $1, $2, $3, $4, $5,
			$6, $7, $8, COALESCE(NULLIF($9, ''), 'active'), NOW(), NOW()
		)
		ON CONFLICT (bce) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), ` + r.table + `.name),
			vat = COALESCE(NULLIF(EXCLUDED.vat, ''), ` + r.table + `.vat),
			onss = COALESCE(NULLIF(EXCLUDED.onss, ''), ` + r.table + `.onss),
			iban = COALESCE(NULLIF(EXCLUDED.iban, ''), ` + r.table + `.iban),
			street = COALESCE(NULLIF(EXCLUDED.street, ''), ` + r.table + `.street),
			postal_code = COALESCE(NULLIF(EXCLUDED.postal_code, ''), ` + r.table + `.postal_code),
			city = COALESCE(NULLIF(EXCLUDED.city, ''), ` + r.table + `.city),
			status = COALESCE(NULLIF($9, ''), ` + r.table + `.status),
			updated_at = NOW()
		RETURNING
			id, bce, name, vat, onss, iban, street, postal_code, city, status, created_at,
			(xmax = 0) AS inserted
	`

	var out models.Company
	var inserted bool
	err := r.pg.Pool.QueryRow(ctx, query,
		c.BCE, c.Name, c.VAT, c.ONSS, c.IBAN,
		c.Street, c.PostalCode, c.City, c.Status,
	).Scan(
		&out.ID, &out.BCE, &out.Name, &out.VAT, &out.ONSS, &out.IBAN,
		&out.Street, &out.PostalCode, &out.City, &out.Status, &out.CreatedAt,
		&inserted,
	)
	if err != nil {
		return nil, false, err
	}
	r.known[out.BCE] = true
	return &out, inserted, nil
}

// Exists caches positive answers for the lifetime of the repo.
func (r *CompanyRepo) Exists(ctx context.Context, bce string) (bool, error) {
	if r.known[bce] {
		return true, nil
	}

	var exists bool
	err := r.pg.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+r.table+` WHERE bce = $1)`,
		bce,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists {
		r.known[bce] = true
	}
	return exists, nil
}
