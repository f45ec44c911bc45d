package handlers

import (
	"net/http"
	"strings"

	"secretariat_import/internal/identifiers"
)

type identifiersRequest struct {
	IBAN string `json:"iban"`
	BCE  string `json:"bce"`
	VAT  string `json:"vat"`
	ONSS string `json:"onss"`
}

type identifierResult struct {
	Normalized string `json:"normalized"`
	Formatted  string `json:"formatted"`
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
}

type identifierKind struct {
	name      string
	normalize func(string) string
	format    func(string) string
	check     func(string) error
}

var identifierKinds = []identifierKind{
	{"iban", identifiers.NormalizeIBAN, identifiers.FormatIBAN, identifiers.CheckIBAN},
	{"bce", identifiers.NormalizeBCE, identifiers.FormatBCE, identifiers.CheckBCE},
	{"vat", identifiers.FormatVAT, identifiers.FormatVAT, identifiers.CheckVAT},
	{"onss", identifiers.NormalizeONSS, identifiers.NormalizeONSS, identifiers.CheckONSS},
}

// CheckIdentifiers validates the business identifiers of the company
// wizard. Only the fields sent are reported.
func (h *Handlers) CheckIdentifiers(w http.ResponseWriter, r *http.Request) {
	var req identifiersRequest
	if !h.decode(w, r, &req) {
		return
	}

	values := map[string]string{
		"iban": req.IBAN,
		"bce":  req.BCE,
		"vat":  req.VAT,
		"onss": req.ONSS,
	}

	out := make(map[string]identifierResult, len(values))
	for _, k := range identifierKinds {
		v := values[k.name]
		if strings.TrimSpace(v) == "" {
			continue
		}
		res := identifierResult{
			Normalized: k.normalize(v),
			Formatted:  k.format(v),
			Valid:      true,
		}
		if err := k.check(v); err != nil {
			res.Valid = false
			res.Error = err.Error()
		}
		out[k.name] = res
	}

	h.JSON(w, http.StatusOK, out)
}
