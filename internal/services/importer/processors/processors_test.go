package processors

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"secretariat_import/internal/models"
	"secretariat_import/internal/nationalnumber"
	"secretariat_import/internal/ports"
	"secretariat_import/internal/repository/database"
	"secretariat_import/internal/repository/imports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type itemRecorder struct {
	mu    sync.Mutex
	items []imports.LogParams
}

func (r *itemRecorder) LogMongo(_ context.Context, p imports.LogParams) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, p)
}

func (r *itemRecorder) byStatus(status string) []imports.LogParams {
	var out []imports.LogParams
	for _, it := range r.items {
		if it.Status == status {
			out = append(out, it)
		}
	}
	return out
}

type fakeCollaborators struct {
	saved []models.Collaborator
	seen  map[string]bool
	err   error
}

func (f *fakeCollaborators) UpdateOrCreate(_ context.Context, c models.Collaborator) (*models.Collaborator, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	inserted := !f.seen[c.NationalNumber]
	f.seen[c.NationalNumber] = true
	c.ID = "id-" + c.NationalNumber
	f.saved = append(f.saved, c)
	return &c, inserted, nil
}

type fakeCompanyLookup map[string]bool

func (f fakeCompanyLookup) Exists(_ context.Context, bce string) (bool, error) {
	return f[bce], nil
}

func fixedCodec() nationalnumber.Codec {
	return nationalnumber.NewCodec(func() time.Time {
		return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	})
}

func newCollaborators(repo CollaboratorStore, companies CompanyLookup) (*CollaboratorsProcessor, *itemRecorder) {
	rec := &itemRecorder{}
	p := NewCollaboratorsProcessor(NewBaseProcessor(rec, nil, nil), repo, companies, nil)
	p.Codec = fixedCodec()
	return p, rec
}

func TestCollaboratorsPrepare(t *testing.T) {
	p, _ := newCollaborators(nil, nil)

	t.Run("coherent birth date", func(t *testing.T) {
		c, warnings, err := p.prepare(ports.Row{
			"national_number": "85.05.15-123.45",
			"birth_date":      "15/05/1985",
			"last_name":       "Dupont",
			"first_name":      "Jean",
			"email":           " Jean.Dupont@Example.BE ",
			"iban":            "be68 5390 0754 7034",
			"company_bce":     "0403.170.701",
		})
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, "85051512345", c.NationalNumber)
		require.NotNil(t, c.BirthDate)
		assert.Equal(t, "1985-05-15", c.BirthDate.Format("2006-01-02"))
		assert.Equal(t, "jean.dupont@example.be", c.Email)
		assert.Equal(t, "BE68539007547034", c.IBAN)
		assert.Equal(t, "0403170701", c.CompanyBCE)
	})

	t.Run("birth date derived from number", func(t *testing.T) {
		c, warnings, err := p.prepare(ports.Row{"national_number": "01010112345", "last_name": "Janssens"})
		require.NoError(t, err)
		assert.Empty(t, warnings)
		require.NotNil(t, c.BirthDate)
		assert.Equal(t, "2001-01-01", c.BirthDate.Format("2006-01-02"))
	})

	t.Run("contradicting birth date", func(t *testing.T) {
		_, _, err := p.prepare(ports.Row{"national_number": "85051512345", "birth_date": "1985-05-16", "last_name": "X"})
		assert.ErrorIs(t, err, ErrBirthDateMismatch)
	})

	t.Run("incomplete number", func(t *testing.T) {
		_, _, err := p.prepare(ports.Row{"national_number": "85.05.15-123.4", "last_name": "X"})
		assert.ErrorIs(t, err, nationalnumber.ErrIncomplete)

		_, _, err = p.prepare(ports.Row{"last_name": "X"})
		assert.EqualError(t, err, "missing national_number")
	})

	t.Run("number without a date", func(t *testing.T) {
		c, warnings, err := p.prepare(ports.Row{"national_number": "85000012345", "last_name": "X"})
		require.NoError(t, err)
		assert.Nil(t, c.BirthDate)
		assert.Equal(t, []string{"birth date could not be derived from national number"}, warnings)
	})

	t.Run("unreadable birth date is ignored", func(t *testing.T) {
		c, warnings, err := p.prepare(ports.Row{"national_number": "85051512345", "birth_date": "mid May", "last_name": "X"})
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "not understood")
		require.NotNil(t, c.BirthDate)
		assert.Equal(t, 1985, c.BirthDate.Year())
	})

	t.Run("full name split", func(t *testing.T) {
		c, _, err := p.prepare(ports.Row{"national_number": "85051512345", "full_name": "Van den Berg, Anna"})
		require.NoError(t, err)
		assert.Equal(t, "Van den Berg", c.LastName)
		assert.Equal(t, "Anna", c.FirstName)
	})

	t.Run("invalid fields", func(t *testing.T) {
		_, _, err := p.prepare(ports.Row{
			"national_number": "85051512345",
			"last_name":       "X",
			"email":           "not-an-email",
			"iban":            "BE68539007547035",
		})
		require.Error(t, err)
		assert.Equal(t, "invalid email (email); invalid iban (iban)", err.Error())
	})
}

func TestCollaboratorsProcessBatch(t *testing.T) {
	repo := &fakeCollaborators{}
	p, rec := newCollaborators(repo, fakeCompanyLookup{"0403170701": true})
	ctx := ports.WithImportRecordID(context.Background(), "rec-1")

	err := p.ProcessBatch(ctx, []ports.Row{
		{"national_number": "85051512345", "last_name": "Dupont", "company_bce": "0403170701"},
		{"national_number": "85051512345", "last_name": "Dupont", "phone": "+32 470 00 00 00"},
		{"national_number": "85051512345", "birth_date": "1990-01-01", "last_name": "Dupont"},
		{"national_number": "90022812345", "last_name": "Peeters", "company_bce": "0417000327"},
	})
	require.NoError(t, err)

	assert.Len(t, repo.saved, 2)
	done := rec.byStatus(imports.ItemDone)
	failed := rec.byStatus(imports.ItemFailed)
	require.Len(t, done, 2)
	require.Len(t, failed, 2)

	assert.Equal(t, "rec-1", done[0].ImportRecordID)
	assert.Equal(t, imports.ModelTypeCollaborators, done[0].ModelType)
	assert.Equal(t, "id-85051512345", done[0].ModelID)
	assert.Equal(t, "85.05.15-***.**", done[0].Payload["national_number"])

	assert.Equal(t, ErrBirthDateMismatch.Error(), failed[0].Errors)
	assert.Equal(t, "unknown company_bce 0417.000.327", failed[1].Errors)
}

func TestCollaboratorsRepoError(t *testing.T) {
	p, rec := newCollaborators(&fakeCollaborators{err: errors.New("duplicate key")}, nil)

	err := p.ProcessBatch(context.Background(), []ports.Row{{"national_number": "85051512345", "last_name": "X"}})
	require.NoError(t, err)
	require.Len(t, rec.items, 1)
	assert.Equal(t, imports.ItemFailed, rec.items[0].Status)
	assert.Equal(t, "duplicate key", rec.items[0].Errors)
}

func TestCollaboratorsRejectedRowIsMasked(t *testing.T) {
	repo := &fakeCollaborators{}
	p, rec := newCollaborators(repo, nil)

	err := p.ProcessBatch(context.Background(), []ports.Row{
		{"national_number": "85.05.15-123.4", "last_name": "X"},
		{"national_number": "8505151234", "last_name": "Y"},
	})
	require.NoError(t, err)
	assert.Empty(t, repo.saved)

	failed := rec.byStatus(imports.ItemFailed)
	require.Len(t, failed, 2)
	for _, it := range failed {
		assert.Equal(t, "85.05.15-***.*", it.Payload["national_number"])
	}
}

func TestCollaboratorsMissingRepo(t *testing.T) {
	p, _ := newCollaborators(nil, nil)
	err := p.ProcessBatch(context.Background(), []ports.Row{{}})
	assert.EqualError(t, err, "collaborator repository not available")
}

type fakeCompanies struct {
	saved []models.Company
}

func (f *fakeCompanies) UpdateOrCreate(_ context.Context, c models.Company) (*models.Company, bool, error) {
	c.ID = "id-" + c.BCE
	f.saved = append(f.saved, c)
	return &c, true, nil
}

func TestCompaniesPrepare(t *testing.T) {
	p := NewCompaniesProcessor(NewBaseProcessor(nil, nil, nil), nil, nil)

	c, warnings, err := p.prepare(ports.Row{"bce": "BE 0403.170.701", "name": "Acme", "onss": "1234567-89", "postal_code": "1000"})
	require.NoError(t, err)
	assert.Equal(t, "0403170701", c.BCE)
	assert.Equal(t, "BE0403170701", c.VAT)
	assert.Equal(t, "123456789", c.ONSS)
	assert.Equal(t, []string{"vat derived from bce"}, warnings)

	c, warnings, err = p.prepare(ports.Row{"bce": "0403170701", "name": "Acme", "vat": "be 0403.170.701"})
	require.NoError(t, err)
	assert.Equal(t, "BE0403170701", c.VAT)
	assert.Empty(t, warnings)

	_, _, err = p.prepare(ports.Row{"bce": "0403170701", "name": "Acme", "vat": "BE0417000327"})
	assert.EqualError(t, err, "vat does not match bce")

	_, _, err = p.prepare(ports.Row{"bce": "0403170702", "name": "Acme"})
	assert.EqualError(t, err, "invalid bce (bce)")

	_, _, err = p.prepare(ports.Row{"bce": "0403170701", "postal_code": "B-1000"})
	assert.EqualError(t, err, "invalid name (required); invalid postal_code (numeric)")
}

func TestCompaniesProcessBatch(t *testing.T) {
	rec := &itemRecorder{}
	repo := &fakeCompanies{}
	p := NewCompaniesProcessor(NewBaseProcessor(rec, nil, nil), repo, nil)

	err := p.ProcessBatch(context.Background(), []ports.Row{
		{"bce": "0403170701", "name": "Acme", "iban": "BE68539007547034"},
		{"bce": "", "name": "Nameless"},
	})
	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	assert.Len(t, rec.byStatus(imports.ItemDone), 1)
	assert.Len(t, rec.byStatus(imports.ItemFailed), 1)
}

type fakeAdminUsers struct {
	existing map[string]bool
	got      []models.AdminUser
}

func (f *fakeAdminUsers) InsertBatch(_ context.Context, users []models.AdminUser) ([]database.InsertResult, error) {
	f.got = append(f.got, users...)
	out := make([]database.InsertResult, len(users))
	for i, u := range users {
		out[i] = database.InsertResult{Inserted: !f.existing[u.Username]}
	}
	return out, nil
}

func TestAdminUsersProcessBatch(t *testing.T) {
	rec := &itemRecorder{}
	repo := &fakeAdminUsers{existing: map[string]bool{"root": true}}
	p := NewAdminUsersProcessor(NewBaseProcessor(rec, nil, nil), repo, nil)
	p.BcryptCost = bcrypt.MinCost

	hashed, err := bcrypt.GenerateFromPassword([]byte("already-hashed"), bcrypt.MinCost)
	require.NoError(t, err)

	err = p.ProcessBatch(context.Background(), []ports.Row{
		{"username": "alice", "email": "Alice@Example.be", "password": "correct horse"},
		{"username": "bob", "email": "bob@example.be", "password": string(hashed), "role": "superadmin"},
		{"username": "root", "email": "root@example.be", "password": "whatever1"},
		{"username": "eve", "email": "eve@example.be", "password": "short"},
	})
	require.NoError(t, err)

	require.Len(t, repo.got, 3)
	assert.Equal(t, "alice@example.be", repo.got[0].Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.got[0].PasswordHash), []byte("correct horse")))
	assert.Equal(t, string(hashed), repo.got[1].PasswordHash)

	done := rec.byStatus(imports.ItemDone)
	require.Len(t, done, 2)
	assert.Equal(t, "password was plaintext -> bcrypt applied", done[0].Errors)
	assert.Equal(t, "***", done[0].Payload["password"])
	assert.Empty(t, done[1].Errors)

	skipped := rec.byStatus(imports.ItemSkipped)
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0].Errors, "username already exists")

	failed := rec.byStatus(imports.ItemFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "invalid password (min)", failed[0].Errors)
}

func TestEnsureBcrypt(t *testing.T) {
	h, already, err := ensureBcrypt("secret-password", bcrypt.MinCost)
	require.NoError(t, err)
	assert.False(t, already)

	again, already, err := ensureBcrypt(h, bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, h, again)
}

func TestCheckDeps(t *testing.T) {
	assert.NoError(t, CheckDeps(map[string]bool{"a": true}))
	assert.EqualError(t, CheckDeps(map[string]bool{"b": false, "a": false, "c": true}), "a, b not available")
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry(NewCompaniesProcessor(nil, nil, nil))
	assert.Contains(t, reg, "noop")
	assert.Contains(t, reg, TypeCompanies)
	assert.NoError(t, reg["noop"].ProcessBatch(context.Background(), nil))
}

func TestRedactRow(t *testing.T) {
	in := ports.Row{"national_number": "85051512345", "password": "pw", "name": "x"}
	out := redactRow(in)
	assert.Equal(t, ports.Row{"national_number": "85.05.15-***.**", "password": "***", "name": "x"}, out)
	assert.Equal(t, "85051512345", in["national_number"])

	assert.Equal(t, "85.05", redactRow(ports.Row{"national_number": "8505"})["national_number"])
	assert.Equal(t, "85.05.15-***.*", redactRow(ports.Row{"national_number": "85.05.15-123.4"})["national_number"])
	assert.Equal(t, "85.05.15-***.*", redactRow(ports.Row{"national_number": "8505151234"})["national_number"])
}
