package handlers

import (
	"net/http"
	"strings"

	"secretariat_import/internal/nationalnumber"
)

type nationalNumberRequest struct {
	NationalNumber string `json:"national_number" validate:"max=64"`
	BirthDate      string `json:"birth_date" validate:"max=32"`
}

type nationalNumberResponse struct {
	Formatted string `json:"formatted"`
	Digits    string `json:"digits"`
	Complete  bool   `json:"complete"`
	BirthDate string `json:"birth_date,omitempty"`
	Coherent  bool   `json:"coherent"`
}

// CheckNationalNumber runs the national number codec for the collaborator
// form: the formatted value to show while typing, the birth date it
// encodes, and whether that date agrees with the one entered.
func (h *Handlers) CheckNationalNumber(w http.ResponseWriter, r *http.Request) {
	var req nationalNumberRequest
	if !h.decode(w, r, &req) {
		return
	}

	digits := nationalnumber.Digits(req.NationalNumber)
	resp := nationalNumberResponse{
		Formatted: nationalnumber.Format(req.NationalNumber),
		Digits:    digits,
		Complete:  len(digits) == nationalnumber.Length,
		Coherent:  h.Codec.IsCoherentString(req.NationalNumber, req.BirthDate),
	}
	if bd, ok := h.Codec.ExtractBirthDate(req.NationalNumber); ok {
		resp.BirthDate = bd.String()
	}

	h.Metrics.IncNationalNumberCheck(checkResult(resp, req.BirthDate))
	h.JSON(w, http.StatusOK, resp)
}

func checkResult(resp nationalNumberResponse, birthDate string) string {
	switch {
	case !resp.Coherent:
		return "incoherent"
	case !resp.Complete:
		return "incomplete"
	case strings.TrimSpace(birthDate) == "":
		return "complete"
	default:
		return "coherent"
	}
}
