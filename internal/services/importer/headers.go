package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// headerAliases maps normalized French, Dutch and English spreadsheet
// headers to the column names processors read.
var headerAliases = map[string]string{
	"niss":                        "national_number",
	"inss":                        "national_number",
	"nn":                          "national_number",
	"rijksregisternummer":         "national_number",
	"numero_national":             "national_number",
	"numero_de_registre_national": "national_number",
	"registre_national":           "national_number",
	"national_register_number":    "national_number",
	"date_de_naissance":           "birth_date",
	"geboortedatum":               "birth_date",
	"date_of_birth":               "birth_date",
	"dob":                         "birth_date",
	"prenom":                      "first_name",
	"voornaam":                    "first_name",
	"firstname":                   "first_name",
	"nom":                         "last_name",
	"achternaam":                  "last_name",
	"lastname":                    "last_name",
	"surname":                     "last_name",
	"nom_complet":                 "full_name",
	"volledige_naam":              "full_name",
	"courriel":                    "email",
	"e_mail":                      "email",
	"mail":                        "email",
	"telephone":                   "phone",
	"telefoon":                    "phone",
	"gsm":                         "phone",
	"compte":                      "iban",
	"rekeningnummer":              "iban",
	"numero_d_entreprise":         "bce",
	"ondernemingsnummer":          "bce",
	"kbo":                         "bce",
	"enterprise_number":           "bce",
	"entreprise_bce":              "company_bce",
	"bce_entreprise":              "company_bce",
	"numero_tva":                  "vat",
	"tva":                         "vat",
	"btw":                         "vat",
	"btw_nummer":                  "vat",
	"rsz":                         "onss",
	"rsz_nummer":                  "onss",
	"numero_onss":                 "onss",
	"date_d_entree":               "start_date",
	"date_entree":                 "start_date",
	"datum_in_dienst":             "start_date",
	"rue":                         "street",
	"straat":                      "street",
	"adresse":                     "street",
	"code_postal":                 "postal_code",
	"postcode":                    "postal_code",
	"zip":                         "postal_code",
	"ville":                       "city",
	"gemeente":                    "city",
	"localite":                    "city",
	"denomination":                "name",
	"raison_sociale":              "name",
	"benaming":                    "name",
	"nom_utilisateur":             "username",
	"gebruikersnaam":              "username",
	"login":                       "username",
	"mot_de_passe":                "password",
	"wachtwoord":                  "password",
	"rol":                         "role",
	"statut":                      "status",
}

// NormalizeHeader folds a header to lower snake_case ASCII and resolves
// known aliases: "Numéro National" becomes "national_number".
func NormalizeHeader(h string) string {
	key := foldHeader(h)
	if alias, ok := headerAliases[key]; ok {
		return alias
	}
	return key
}

func foldHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, h)
	if err != nil {
		folded = h
	}

	var b strings.Builder
	b.Grow(len(folded))
	sep := false
	for _, r := range strings.ToLower(strings.TrimSpace(folded)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
		default:
			sep = true
		}
	}
	return b.String()
}

func normalizeHeaders(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = NormalizeHeader(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}
