package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"secretariat_import/internal/identifiers"
	"secretariat_import/internal/logger"
	"secretariat_import/internal/metrics"
	"secretariat_import/internal/nationalnumber"
	"secretariat_import/internal/ports"
	"secretariat_import/internal/repository/imports"
	"secretariat_import/internal/services/importer"

	"github.com/go-playground/validator/v10"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// RecordStore is the import bookkeeping kept in Mongo.
type RecordStore interface {
	InsertImportRecord(ctx context.Context, rec imports.Record) (string, error)
	FindImportRecordByID(ctx context.Context, id string) (imports.Record, error)
	ListImportRecords(ctx context.Context, filter imports.ListFilter, limit, skip int64) ([]imports.Record, int64, error)
	ListItems(ctx context.Context, importRecordID string, limit, skip int64) ([]imports.Item, error)
	CountItems(ctx context.Context, importRecordID string) (map[string]int64, error)
}

type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Importer interface {
	Import(ctx context.Context, req importer.Request) (importer.Result, error)
}

// HealthCheck pings one backend.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Deps struct {
	Records  RecordStore
	Objects  ObjectStore
	Bucket   string
	Importer Importer
	Registry map[string]ports.Processor
	Checks   []HealthCheck

	Metrics *metrics.Metrics
	Logger  *zap.Logger

	BatchSize     int
	ImportTimeout time.Duration
}

type Handlers struct {
	Records  RecordStore
	Objects  ObjectStore
	Bucket   string
	Importer Importer
	Registry map[string]ports.Processor
	Checks   []HealthCheck

	Codec    nationalnumber.Codec
	Validate *validator.Validate
	Metrics  *metrics.Metrics
	Logger   *zap.Logger

	BatchSize     int
	ImportTimeout time.Duration

	bg       sync.WaitGroup
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

func New(d Deps) *Handlers {
	if d.BatchSize <= 0 {
		d.BatchSize = 1000
	}
	if d.ImportTimeout <= 0 {
		d.ImportTimeout = 15 * time.Minute
	}
	bgCtx, bgCancel := context.WithCancel(context.Background())
	return &Handlers{
		Records:       d.Records,
		Objects:       d.Objects,
		Bucket:        d.Bucket,
		Importer:      d.Importer,
		Registry:      d.Registry,
		Checks:        d.Checks,
		Codec:         nationalnumber.NewCodec(time.Now),
		Validate:      identifiers.NewValidator(),
		Metrics:       d.Metrics,
		Logger:        logger.OrNop(d.Logger),
		BatchSize:     d.BatchSize,
		ImportTimeout: d.ImportTimeout,
		bgCtx:         bgCtx,
		bgCancel:      bgCancel,
	}
}

func (h *Handlers) JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handlers) Error(w http.ResponseWriter, code int, msg string) {
	h.JSON(w, code, map[string]string{"error": msg})
}

// decode reads a JSON body of at most 1 MiB and validates it.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.Error(w, http.StatusBadRequest, "bad JSON: "+err.Error())
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		h.Error(w, http.StatusBadRequest, describeValidation(err))
		return false
	}
	return true
}

// Drain waits for background imports. When ctx ends first the imports are
// cancelled and Drain returns once they have stopped, so connections can be
// closed safely afterwards.
func (h *Handlers) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.bg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		h.bgCancel()
		<-done
		return ctx.Err()
	}
}
