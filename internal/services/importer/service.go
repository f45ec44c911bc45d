package importer

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"secretariat_import/internal/logger"
	"secretariat_import/internal/metrics"
	"secretariat_import/internal/ports"
	"secretariat_import/internal/repository/imports"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type Request struct {
	Type           string
	FilePath       string
	BatchSize      int
	ImportRecordID string
}

type Result struct {
	Source        string
	FilePath      string
	Format        string
	RowsProcessed int
	SHA256        string
	ContentType   string
	Bucket        string
	Key           string
	SizeBytes     int64
}

// RecordTracker follows an import's lifecycle. Errors are logged, never
// fatal to the import.
type RecordTracker interface {
	UpdateImportRecordStatus(ctx context.Context, importRecordID, status, errText string) error
	AddImportRecordCount(ctx context.Context, importRecordID string, n int) error
}

type Service struct {
	Opener     ports.FileOpener
	Processors map[string]ports.Processor
	Records    RecordTracker
	Metrics    *metrics.Metrics
	DefaultBS  int

	log *zap.Logger
}

func NewService(opener ports.FileOpener, registry map[string]ports.Processor, records RecordTracker, m *metrics.Metrics, defaultBatch int, log *zap.Logger) *Service {
	if defaultBatch <= 0 {
		defaultBatch = 1000
	}
	return &Service{
		Opener:     opener,
		Processors: registry,
		Records:    records,
		Metrics:    m,
		DefaultBS:  defaultBatch,
		log:        logger.OrNop(log),
	}
}

// Import streams the first sheet of an XLSX file, or a CSV file, into the
// processor registered for req.Type.
func (s *Service) Import(ctx context.Context, req Request) (res Result, err error) {
	t0 := time.Now()
	ctx = ports.WithImportRecordID(ctx, req.ImportRecordID)
	log := s.log.With(
		zap.String("type", req.Type),
		zap.String("import_record_id", req.ImportRecordID),
	)
	log.Info("[IMP][START]", zap.String("path", req.FilePath), zap.Int("batch_size", req.BatchSize))

	proc, ok := s.Processors[req.Type]
	if !ok {
		log.Error("[IMP][ERR] no processor")
		s.setStatus(ctx, req.ImportRecordID, imports.StatusFailed, "no processor for type: "+req.Type)
		return Result{}, fmt.Errorf("no processor for type: %s", req.Type)
	}

	done := s.Metrics.TrackImport(req.Type)
	defer func() {
		if err != nil {
			done(imports.StatusFailed)
			s.setStatus(ctx, req.ImportRecordID, imports.StatusFailed, err.Error())
			return
		}
		done(imports.StatusDone)
		s.setStatus(ctx, req.ImportRecordID, imports.StatusDone, "")
	}()
	s.setStatus(ctx, req.ImportRecordID, imports.StatusProcessing, "")

	rc, meta, err := s.Opener.Open(ctx, req.FilePath)
	if err != nil {
		log.Error("[IMP][ERR] open", zap.Error(err))
		return Result{}, err
	}
	defer rc.Close()

	hasher := sha256.New()
	br := bufio.NewReader(io.TeeReader(rc, hasher))

	declared := detectFormat(req.FilePath, meta.ContentType)
	format := sniffFormat(br)
	if declared != "" && declared != format {
		log.Warn("[IMP] declared format does not match content",
			zap.String("declared", declared),
			zap.String("content", format),
		)
	}
	log.Info("[IMP] opened",
		zap.String("source", meta.Source),
		zap.String("content_type", meta.ContentType),
		zap.Int64("size", meta.Size),
		zap.String("format", format),
	)

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = s.DefaultBS
	}

	sink := &batchSink{svc: s, proc: proc, size: batchSize, log: log}
	switch format {
	case "xlsx":
		err = s.streamXLSXFirstSheet(ctx, br, sink)
	default:
		err = s.streamCSV(ctx, br, sink)
	}
	if err != nil {
		log.Error("[IMP][ERR] read pipeline", zap.Error(err), zap.Int("rows", sink.total))
		return Result{}, err
	}

	// Drain so the digest covers the whole file even when the reader
	// stopped early.
	_, _ = io.Copy(io.Discard, br)
	sum := hex.EncodeToString(hasher.Sum(nil))

	log.Info("[IMP][DONE]",
		zap.String("format", format),
		zap.Int("rows", sink.total),
		zap.Int("batches", sink.batches),
		zap.String("sha256", sum),
		zap.Duration("duration", time.Since(t0)),
	)

	return Result{
		Source:        meta.Source,
		FilePath:      req.FilePath,
		Format:        format,
		RowsProcessed: sink.total,
		SHA256:        sum,
		ContentType:   meta.ContentType,
		Bucket:        meta.Bucket,
		Key:           meta.Key,
		SizeBytes:     meta.Size,
	}, nil
}

func (s *Service) setStatus(ctx context.Context, id, status, errText string) {
	if s.Records == nil || id == "" {
		return
	}
	if err := s.Records.UpdateImportRecordStatus(context.WithoutCancel(ctx), id, status, errText); err != nil {
		s.log.Warn("[IMP][WARN] update record status", zap.String("status", status), zap.Error(err))
	}
}

// batchSink cuts rows into batches and hands them to the processor.
type batchSink struct {
	svc     *Service
	proc    ports.Processor
	size    int
	log     *zap.Logger
	batch   []ports.Row
	total   int
	batches int
}

func (b *batchSink) add(ctx context.Context, row ports.Row) error {
	if isBlank(row) {
		return nil
	}
	b.batch = append(b.batch, row)
	if len(b.batch) >= b.size {
		return b.flush(ctx)
	}
	return nil
}

func (b *batchSink) flush(ctx context.Context) error {
	if len(b.batch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.log.Debug("[IMP] send batch", zap.Int("batch", b.batches+1), zap.Int("size", len(b.batch)), zap.Int("total_so_far", b.total))
	if err := b.proc.ProcessBatch(ctx, b.batch); err != nil {
		return fmt.Errorf("batch %d: %w", b.batches+1, err)
	}

	n := len(b.batch)
	b.total += n
	b.batches++
	b.batch = make([]ports.Row, 0, b.size)

	if b.svc.Records != nil {
		id := ports.ImportRecordID(ctx)
		if err := b.svc.Records.AddImportRecordCount(ctx, id, n); err != nil {
			b.log.Warn("[IMP][WARN] update record count", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) streamCSV(ctx context.Context, r *bufio.Reader, sink *batchSink) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = sniffDelimiter(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	hmap := normalizeHeaders(header)
	sink.log.Info("[IMP][CSV] header", zap.Strings("header", hmap), zap.String("delimiter", string(reader.Comma)))

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sink.log.Warn("[IMP][CSV][WARN] read row", zap.Error(err))
			continue
		}
		if err := sink.add(ctx, toMap(hmap, record)); err != nil {
			return err
		}
	}
	return sink.flush(ctx)
}

func (s *Service) streamXLSXFirstSheet(ctx context.Context, r io.Reader, sink *batchSink) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return errors.New("xlsx has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		return rows.Error()
	}
	header, err := rows.Columns()
	if err != nil {
		return err
	}
	hmap := normalizeHeaders(header)
	sink.log.Info("[IMP][XLSX] header", zap.String("sheet", sheet), zap.Strings("header", hmap))

	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			sink.log.Warn("[IMP][XLSX][WARN] read row", zap.Error(err))
			continue
		}
		if err := sink.add(ctx, toMap(hmap, cols)); err != nil {
			return err
		}
	}
	if err := rows.Error(); err != nil {
		return err
	}
	return sink.flush(ctx)
}

func toMap(header []string, row []string) ports.Row {
	m := make(ports.Row, len(header))
	for i, key := range header {
		if key == "" {
			continue
		}
		val := ""
		if i < len(row) {
			val = strings.TrimSpace(row[i])
		}
		// first non-empty wins when two headers share an alias
		if prev, ok := m[key]; ok && prev != "" {
			continue
		}
		m[key] = val
	}
	return m
}

func isBlank(row ports.Row) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

var zipMagic = []byte("PK\x03\x04")

// sniffFormat trusts the bytes over the file name: XLSX files are zip
// archives.
func sniffFormat(r *bufio.Reader) string {
	head, _ := r.Peek(len(zipMagic))
	if bytes.Equal(head, zipMagic) {
		return "xlsx"
	}
	return "csv"
}

// sniffDelimiter picks ';' for exports from Belgian locales that use it,
// ',' otherwise.
func sniffDelimiter(r *bufio.Reader) rune {
	head, _ := r.Peek(4096)
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte(";")) > bytes.Count(head, []byte(",")) {
		return ';'
	}
	return ','
}

func detectFormat(filePath, contentType string) string {
	p := filePath
	if u, err := url.Parse(filePath); err == nil && u != nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	switch ext {
	case "xlsx":
		return "xlsx"
	case "csv":
		return "csv"
	}
	med, _, _ := mime.ParseMediaType(contentType)
	switch med {
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	case "text/csv", "application/csv", "text/plain":
		return "csv"
	}
	return ""
}
