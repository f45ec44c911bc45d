package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"secretariat_import/internal/repository/imports"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func queryInt(r *http.Request, key string, def, max int64) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil || v < 0 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

// ListImports answers GET /imports?limit=&skip=&type=&status=.
func (h *Handlers) ListImports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := imports.ListFilter{Type: q.Get("type"), Status: q.Get("status")}
	limit := queryInt(r, "limit", 20, 100)
	skip := queryInt(r, "skip", 0, 0)

	recs, total, err := h.Records.ListImportRecords(r.Context(), filter, limit, skip)
	if err != nil {
		h.Logger.Error("[IMPORTS][ERR] list", zap.Error(err))
		h.Error(w, http.StatusInternalServerError, "failed to list imports")
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{
		"items": recs,
		"total": total,
		"limit": limit,
		"skip":  skip,
	})
}

// GetImport answers GET /imports/{id} with the record, its row items and the
// item count per status.
func (h *Handlers) GetImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.Records.FindImportRecordByID(r.Context(), id)
	if errors.Is(err, imports.ErrNotFound) {
		h.Error(w, http.StatusNotFound, "import not found")
		return
	}
	if err != nil {
		h.Logger.Error("[IMPORTS][ERR] find", zap.String("id", id), zap.Error(err))
		h.Error(w, http.StatusInternalServerError, "failed to load import")
		return
	}

	items, err := h.Records.ListItems(r.Context(), id, queryInt(r, "limit", 100, 1000), queryInt(r, "skip", 0, 0))
	if err != nil {
		h.Logger.Error("[IMPORTS][ERR] items", zap.String("id", id), zap.Error(err))
		h.Error(w, http.StatusInternalServerError, "failed to load import items")
		return
	}
	counts, err := h.Records.CountItems(r.Context(), id)
	if err != nil {
		h.Logger.Warn("[IMPORTS][WARN] count items", zap.String("id", id), zap.Error(err))
	}

	h.JSON(w, http.StatusOK, map[string]any{
		"record": rec,
		"items":  items,
		"counts": counts,
	})
}
