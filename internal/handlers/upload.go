package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"secretariat_import/internal/repository/imports"
	"secretariat_import/internal/services/importer"
	"secretariat_import/internal/transport/auth"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const maxUploadBytes = 128 << 20

var uploadContentTypes = map[string]string{
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Upload accepts multipart/form-data with `file` and `action` fields, stores
// the file in the bucket and creates its import record. With start=true the
// import begins right away.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.Logger.Warn("[UPLOAD][ERR] parse multipart", zap.Error(err))
		h.Error(w, http.StatusBadRequest, "bad multipart: "+err.Error())
		return
	}

	action := strings.TrimSpace(r.FormValue("action"))
	if action == "" {
		action = strings.TrimSpace(r.FormValue("type"))
	}
	if action == "" {
		h.Error(w, http.StatusBadRequest, "action/type is required")
		return
	}
	if _, ok := h.Registry[action]; !ok {
		h.Error(w, http.StatusBadRequest, "unknown type: "+action)
		return
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		h.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer f.Close()

	fname := path.Base(fh.Filename)
	ext := strings.ToLower(path.Ext(fname))
	contentType, ok := uploadContentTypes[ext]
	if !ok {
		h.Error(w, http.StatusBadRequest, "only .csv and .xlsx files are accepted")
		return
	}
	key := fmt.Sprintf("imports/%d-%s", time.Now().UnixNano(), fname)

	info, err := h.Objects.PutObject(r.Context(), h.Bucket, key, f, fh.Size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		h.Logger.Error("[UPLOAD][ERR] s3 put", zap.String("key", key), zap.Error(err))
		h.Error(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	s3path := fmt.Sprintf("s3://%s/%s", h.Bucket, key)
	bucket := h.Bucket
	rec := imports.Record{
		Status:    imports.StatusParsed,
		Type:      action,
		Path:      &s3path,
		Bucket:    &bucket,
		Key:       &key,
		SizeBytes: &info.Size,
	}
	if userID, err := auth.GetUserID(r.Context()); err == nil {
		rec.UserID = &userID
	}

	id, err := h.Records.InsertImportRecord(r.Context(), rec)
	if err != nil {
		h.Logger.Error("[UPLOAD][ERR] db insert", zap.Error(err))
		h.Error(w, http.StatusInternalServerError, "failed to create import record")
		return
	}
	h.Logger.Info("[UPLOAD][OK]", zap.String("id", id), zap.String("path", s3path), zap.Int64("size", info.Size))

	resp := map[string]any{"id": id, "path": s3path, "started": false}
	if r.FormValue("start") == "true" {
		h.startImport(importer.Request{
			Type:           action,
			FilePath:       s3path,
			BatchSize:      h.BatchSize,
			ImportRecordID: id,
		}, h.ImportTimeout)
		resp["started"] = true
	}
	h.JSON(w, http.StatusCreated, resp)
}
