package processors

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"secretariat_import/internal/identifiers"
	"secretariat_import/internal/models"
	"secretariat_import/internal/ports"
	"secretariat_import/internal/repository/database"
	"secretariat_import/internal/repository/imports"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const TypeAdminUsers = "import_admin_users"

type AdminUserStore interface {
	InsertBatch(ctx context.Context, users []models.AdminUser) ([]database.InsertResult, error)
}

type AdminUsersProcessor struct {
	*BaseProcessor

	Repo       AdminUserStore
	Validate   *validator.Validate
	BcryptCost int
}

func NewAdminUsersProcessor(base *BaseProcessor, repo AdminUserStore, v *validator.Validate) *AdminUsersProcessor {
	if v == nil {
		v = identifiers.NewValidator()
	}
	return &AdminUsersProcessor{BaseProcessor: base, Repo: repo, Validate: v, BcryptCost: 12}
}

func (p *AdminUsersProcessor) Type() string { return TypeAdminUsers }

type adminUserFields struct {
	Username  string `json:"username" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Role      string `json:"role" validate:"omitempty,oneof=admin superadmin"`
}

func (p *AdminUsersProcessor) prepare(m ports.Row) (models.AdminUser, []string, error) {
	fields := adminUserFields{
		Username:  strings.TrimSpace(m["username"]),
		Email:     strings.ToLower(strings.TrimSpace(m["email"])),
		Password:  strings.TrimSpace(m["password"]),
		FirstName: strings.TrimSpace(m["first_name"]),
		LastName:  strings.TrimSpace(m["last_name"]),
		Role:      strings.ToLower(strings.TrimSpace(m["role"])),
	}
	if err := p.Validate.Struct(fields); err != nil {
		return models.AdminUser{}, nil, errors.New(describeValidation(err))
	}

	var warnings []string
	hash, already, err := ensureBcrypt(fields.Password, p.BcryptCost)
	if err != nil {
		return models.AdminUser{}, nil, err
	}
	if !already {
		warnings = append(warnings, "password was plaintext -> bcrypt applied")
	}

	return models.AdminUser{
		Username:     fields.Username,
		Email:        fields.Email,
		FirstName:    fields.FirstName,
		LastName:     fields.LastName,
		PasswordHash: hash,
		Role:         fields.Role,
	}, warnings, nil
}

func (p *AdminUsersProcessor) ProcessBatch(ctx context.Context, batch []ports.Row) error {
	if err := CheckDeps(map[string]bool{"admin user repository": p.Repo != nil}); err != nil {
		return err
	}
	log := p.logger().With(zap.String("import_record_id", ports.ImportRecordID(ctx)))
	log.Info("[PROC][admin_users][START]", zap.Int("rows", len(batch)))

	type pending struct {
		payload  ports.Row
		warnings []string
	}
	users := make([]models.AdminUser, 0, len(batch))
	rows := make([]pending, 0, len(batch))

	for _, m := range batch {
		payload := redactRow(m)
		u, warnings, err := p.prepare(m)
		if err != nil {
			p.reject(ctx, TypeAdminUsers, imports.ModelTypeAdminUsers, payload, err.Error())
			continue
		}
		users = append(users, u)
		rows = append(rows, pending{payload: payload, warnings: warnings})
	}

	if len(users) == 0 {
		log.Info("[PROC][admin_users][DONE] no valid rows")
		return nil
	}

	results, err := p.Repo.InsertBatch(ctx, users)
	if err != nil {
		return err
	}
	if len(results) != len(users) {
		return fmt.Errorf("insert batch: %d results for %d users", len(results), len(users))
	}

	inserted, skipped := 0, 0
	for i, r := range rows {
		res := results[i]
		switch {
		case res.Err != nil:
			log.Warn("[PROC][admin_users][WARN] insert failed", zap.Int("row", i), zap.Error(res.Err))
			p.reject(ctx, TypeAdminUsers, imports.ModelTypeAdminUsers, r.payload, res.Err.Error())
		case !res.Inserted:
			skipped++
			p.record(ctx, TypeAdminUsers, imports.ModelTypeAdminUsers, users[i].Username, r.payload,
				imports.ItemSkipped, outcomeSkipped, append(r.warnings, "username already exists"))
		default:
			inserted++
			p.record(ctx, TypeAdminUsers, imports.ModelTypeAdminUsers, users[i].Username, r.payload,
				imports.ItemDone, outcomeCreated, r.warnings)
		}
	}

	log.Info("[PROC][admin_users][DONE]",
		zap.Int("total", len(users)),
		zap.Int("inserted", inserted),
		zap.Int("skipped", skipped),
	)
	return nil
}

var bcryptPrefix = regexp.MustCompile(`^\$(2a|2b|2y)\$`)

// ensureBcrypt hashes pw unless it already is a bcrypt hash. The bool
// reports whether it already was.
func ensureBcrypt(pw string, cost int) (string, bool, error) {
	if bcryptPrefix.MatchString(pw) && len(pw) >= 60 {
		return pw, true, nil
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", false, err
	}
	return string(h), false, nil
}
