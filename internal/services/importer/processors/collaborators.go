package processors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"secretariat_import/internal/identifiers"
	"secretariat_import/internal/models"
	"secretariat_import/internal/nationalnumber"
	"secretariat_import/internal/ports"
	"secretariat_import/internal/repository/imports"
	"secretariat_import/internal/utils"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const TypeCollaborators = "import_collaborators"

var ErrBirthDateMismatch = errors.New("national number contradicts birth date")

type CollaboratorStore interface {
	UpdateOrCreate(ctx context.Context, c models.Collaborator) (*models.Collaborator, bool, error)
}

type CompanyLookup interface {
	Exists(ctx context.Context, bce string) (bool, error)
}

type CollaboratorsProcessor struct {
	*BaseProcessor

	Repo      CollaboratorStore
	Companies CompanyLookup
	Codec     nationalnumber.Codec
	Validate  *validator.Validate
}

func NewCollaboratorsProcessor(base *BaseProcessor, repo CollaboratorStore, companies CompanyLookup, v *validator.Validate) *CollaboratorsProcessor {
	if v == nil {
		v = identifiers.NewValidator()
	}
	return &CollaboratorsProcessor{
		BaseProcessor: base,
		Repo:          repo,
		Companies:     companies,
		Codec:         nationalnumber.NewCodec(time.Now),
		Validate:      v,
	}
}

func (p *CollaboratorsProcessor) Type() string { return TypeCollaborators }

type collaboratorFields struct {
	LastName   string `json:"last_name" validate:"required,max=100"`
	FirstName  string `json:"first_name" validate:"max=100"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
	IBAN       string `json:"iban" validate:"iban"`
	CompanyBCE string `json:"company_bce" validate:"bce"`
	Status     string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// prepare turns one row into a collaborator. The error is the reason the row
// is rejected; warnings are kept alongside an accepted row.
func (p *CollaboratorsProcessor) prepare(m ports.Row) (models.Collaborator, []string, error) {
	var warnings []string

	raw := strings.TrimSpace(m["national_number"])
	if raw == "" {
		return models.Collaborator{}, nil, errors.New("missing national_number")
	}
	nn, err := nationalnumber.Parse(raw)
	if err != nil {
		return models.Collaborator{}, nil, err
	}

	var birth nationalnumber.BirthDate
	if s := strings.TrimSpace(m["birth_date"]); s != "" {
		if bd, err := nationalnumber.ParseBirthDate(s); err == nil {
			birth = bd
		} else {
			warnings = append(warnings, fmt.Sprintf("birth_date %q not understood, ignored", s))
		}
	}

	if !birth.IsZero() {
		if !p.Codec.IsCoherent(nn.Digits(), birth) {
			return models.Collaborator{}, nil, ErrBirthDateMismatch
		}
	} else if bd, ok := p.Codec.ExtractBirthDate(nn.Digits()); ok {
		birth = bd
	} else {
		warnings = append(warnings, "birth date could not be derived from national number")
	}

	last, first := m["last_name"], m["first_name"]
	if strings.TrimSpace(last) == "" && strings.TrimSpace(first) == "" {
		last, first = utils.ParseFullName(m["full_name"])
	}

	fields := collaboratorFields{
		LastName:   strings.TrimSpace(last),
		FirstName:  strings.TrimSpace(first),
		Email:      strings.ToLower(strings.TrimSpace(m["email"])),
		Phone:      strings.TrimSpace(m["phone"]),
		IBAN:       identifiers.NormalizeIBAN(m["iban"]),
		CompanyBCE: identifiers.NormalizeBCE(m["company_bce"]),
		Status:     strings.ToLower(strings.TrimSpace(m["status"])),
	}
	if err := p.Validate.Struct(fields); err != nil {
		return models.Collaborator{}, nil, errors.New(describeValidation(err))
	}

	start, err := parseDate(m["start_date"])
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("start_date %q not understood, ignored", m["start_date"]))
	}

	c := models.Collaborator{
		CompanyBCE:     fields.CompanyBCE,
		NationalNumber: nn.Digits(),
		FirstName:      fields.FirstName,
		LastName:       fields.LastName,
		Email:          fields.Email,
		Phone:          fields.Phone,
		IBAN:           fields.IBAN,
		StartDate:      start,
		Status:         fields.Status,
	}
	if !birth.IsZero() {
		t := birth.Time()
		c.BirthDate = &t
	}
	return c, warnings, nil
}

func (p *CollaboratorsProcessor) ProcessBatch(ctx context.Context, batch []ports.Row) error {
	if err := CheckDeps(map[string]bool{"collaborator repository": p.Repo != nil}); err != nil {
		return err
	}
	log := p.logger().With(zap.String("import_record_id", ports.ImportRecordID(ctx)))
	log.Info("[PROC][collaborators][START]", zap.Int("rows", len(batch)))

	created, updated, failed := 0, 0, 0
	for _, m := range batch {
		payload := redactRow(m)

		c, warnings, err := p.prepare(m)
		if err != nil {
			p.reject(ctx, TypeCollaborators, imports.ModelTypeCollaborators, payload, err.Error())
			failed++
			continue
		}

		if c.CompanyBCE != "" && p.Companies != nil {
			ok, err := p.Companies.Exists(ctx, c.CompanyBCE)
			if err != nil {
				return fmt.Errorf("company lookup: %w", err)
			}
			if !ok {
				p.reject(ctx, TypeCollaborators, imports.ModelTypeCollaborators, payload,
					"unknown company_bce "+identifiers.FormatBCE(c.CompanyBCE))
				failed++
				continue
			}
		}

		saved, inserted, err := p.Repo.UpdateOrCreate(ctx, c)
		if err != nil {
			log.Warn("[PROC][collaborators][WARN] upsert failed", zap.String("national_number", payload["national_number"]), zap.Error(err))
			p.reject(ctx, TypeCollaborators, imports.ModelTypeCollaborators, payload, err.Error())
			failed++
			continue
		}

		outcome := outcomeUpdated
		if inserted {
			outcome = outcomeCreated
			created++
		} else {
			updated++
		}
		p.record(ctx, TypeCollaborators, imports.ModelTypeCollaborators, saved.ID, payload, imports.ItemDone, outcome, warnings)
	}

	log.Info("[PROC][collaborators][DONE]",
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("failed", failed),
	)
	return nil
}
