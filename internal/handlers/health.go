package handlers

import (
	"context"
	"net/http"
	"time"
)

type healthResp struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var errs []string
	for _, c := range h.Checks {
		if err := c.Check(ctx); err != nil {
			errs = append(errs, c.Name+": "+err.Error())
		}
	}

	if len(errs) > 0 {
		h.JSON(w, http.StatusServiceUnavailable, healthResp{OK: false, Errors: errs})
		return
	}
	h.JSON(w, http.StatusOK, healthResp{OK: true})
}
