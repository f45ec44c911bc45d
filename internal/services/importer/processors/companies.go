package processors

import (
	"context"
	"errors"
	"strings"

	"secretariat_import/internal/identifiers"
	"secretariat_import/internal/models"
	"secretariat_import/internal/ports"
	"secretariat_import/internal/repository/imports"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const TypeCompanies = "import_companies"

type CompanyStore interface {
	UpdateOrCreate(ctx context.Context, c models.Company) (*models.Company, bool, error)
}

type CompaniesProcessor struct {
	*BaseProcessor

	Repo     CompanyStore
	Validate *validator.Validate
}

func NewCompaniesProcessor(base *BaseProcessor, repo CompanyStore, v *validator.Validate) *CompaniesProcessor {
	if v == nil {
		v = identifiers.NewValidator()
	}
	return &CompaniesProcessor{BaseProcessor: base, Repo: repo, Validate: v}
}

func (p *CompaniesProcessor) Type() string { return TypeCompanies }

type companyFields struct {
	BCE        string `json:"bce" validate:"required,bce"`
	Name       string `json:"name" validate:"required,max=255"`
	VAT        string `json:"vat" validate:"vat"`
	ONSS       string `json:"onss" validate:"onss"`
	IBAN       string `json:"iban" validate:"iban"`
	PostalCode string `json:"postal_code" validate:"omitempty,numeric,len=4"`
	Status     string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (p *CompaniesProcessor) prepare(m ports.Row) (models.Company, []string, error) {
	var warnings []string

	fields := companyFields{
		BCE:        identifiers.NormalizeBCE(m["bce"]),
		Name:       strings.TrimSpace(m["name"]),
		ONSS:       identifiers.NormalizeONSS(m["onss"]),
		IBAN:       identifiers.NormalizeIBAN(m["iban"]),
		PostalCode: strings.TrimSpace(m["postal_code"]),
		Status:     strings.ToLower(strings.TrimSpace(m["status"])),
	}
	if strings.TrimSpace(m["vat"]) != "" {
		fields.VAT = identifiers.FormatVAT(m["vat"])
	}

	if err := p.Validate.Struct(fields); err != nil {
		return models.Company{}, nil, errors.New(describeValidation(err))
	}

	switch {
	case fields.VAT == "":
		fields.VAT = identifiers.FormatVAT(fields.BCE)
		warnings = append(warnings, "vat derived from bce")
	case fields.VAT != identifiers.FormatVAT(fields.BCE):
		return models.Company{}, nil, errors.New("vat does not match bce")
	}

	return models.Company{
		BCE:        fields.BCE,
		Name:       fields.Name,
		VAT:        fields.VAT,
		ONSS:       fields.ONSS,
		IBAN:       fields.IBAN,
		Street:     strings.TrimSpace(m["street"]),
		PostalCode: fields.PostalCode,
		City:       strings.TrimSpace(m["city"]),
		Status:     fields.Status,
	}, warnings, nil
}

func (p *CompaniesProcessor) ProcessBatch(ctx context.Context, batch []ports.Row) error {
	if err := CheckDeps(map[string]bool{"company repository": p.Repo != nil}); err != nil {
		return err
	}
	log := p.logger().With(zap.String("import_record_id", ports.ImportRecordID(ctx)))
	log.Info("[PROC][companies][START]", zap.Int("rows", len(batch)))

	created, updated, failed := 0, 0, 0
	for _, m := range batch {
		payload := redactRow(m)

		c, warnings, err := p.prepare(m)
		if err != nil {
			p.reject(ctx, TypeCompanies, imports.ModelTypeCompanies, payload, err.Error())
			failed++
			continue
		}

		saved, inserted, err := p.Repo.UpdateOrCreate(ctx, c)
		if err != nil {
			log.Warn("[PROC][companies][WARN] upsert failed", zap.String("bce", c.BCE), zap.Error(err))
			p.reject(ctx, TypeCompanies, imports.ModelTypeCompanies, payload, err.Error())
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
		p.record(ctx, TypeCompanies, imports.ModelTypeCompanies, saved.ID, payload, imports.ItemDone, outcome, warnings)
	}

	log.Info("[PROC][companies][DONE]",
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("failed", failed),
	)
	return nil
}
