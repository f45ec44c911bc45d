package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"secretariat_import/internal/repository/imports"
	"secretariat_import/internal/services/importer"
	"secretariat_import/internal/transport/auth"

	"go.uber.org/zap"
)

type importRequest struct {
	Type           string `json:"type" validate:"required"`
	FilePath       string `json:"file_path" validate:"required"`
	BatchSize      int    `json:"batch_size" validate:"gte=0,lte=10000"`
	TimeoutMin     int    `json:"timeout_minutes,omitempty" validate:"gte=0,lte=240"`
	ImportRecordID string `json:"import_record_id"`
}

// Import starts a background import of a stored file and answers 202 at
// once. Progress is read back through GET /imports/{id}.
func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.FilePath = strings.TrimSpace(req.FilePath)

	if _, ok := h.Registry[req.Type]; !ok {
		h.Error(w, http.StatusBadRequest, "unknown type: "+req.Type)
		return
	}
	if req.BatchSize <= 0 {
		req.BatchSize = h.BatchSize
	}

	if req.ImportRecordID == "" && h.Records != nil {
		rec := imports.Record{Type: req.Type, Path: &req.FilePath}
		if userID, err := auth.GetUserID(r.Context()); err == nil {
			rec.UserID = &userID
		}
		id, err := h.Records.InsertImportRecord(r.Context(), rec)
		if err != nil {
			h.Logger.Error("[IMPORT][ERR] create record", zap.Error(err))
			h.Error(w, http.StatusInternalServerError, "failed to create import record")
			return
		}
		req.ImportRecordID = id
	}

	timeout := h.ImportTimeout
	if req.TimeoutMin > 0 {
		timeout = time.Duration(req.TimeoutMin) * time.Minute
	}

	h.startImport(importer.Request{
		Type:           req.Type,
		FilePath:       req.FilePath,
		BatchSize:      req.BatchSize,
		ImportRecordID: req.ImportRecordID,
	}, timeout)

	h.JSON(w, http.StatusAccepted, map[string]any{
		"status":           "started",
		"type":             req.Type,
		"file_path":        req.FilePath,
		"batch_size":       req.BatchSize,
		"import_record_id": req.ImportRecordID,
	})
}

func (h *Handlers) startImport(req importer.Request, timeout time.Duration) {
	h.bg.Add(1)
	go func() {
		defer h.bg.Done()
		start := time.Now()

		ctx, cancel := context.WithTimeout(h.bgCtx, timeout)
		defer cancel()

		log := h.Logger.With(
			zap.String("type", req.Type),
			zap.String("path", req.FilePath),
			zap.String("import_record_id", req.ImportRecordID),
		)

		res, err := h.Importer.Import(ctx, req)
		if err != nil {
			log.Error("[IMPORT][ERR][BG]", zap.Error(err), zap.Duration("took", time.Since(start)))
			return
		}

		log.Info("[IMPORT][OK][BG]",
			zap.String("src", res.Source),
			zap.String("fmt", res.Format),
			zap.Int("rows", res.RowsProcessed),
			zap.Int64("size", res.SizeBytes),
			zap.Duration("took", time.Since(start)),
		)
	}()
}
