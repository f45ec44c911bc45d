package imports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mg "secretariat_import/internal/config/connections/mongo"
	"secretariat_import/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const ImportRecordsCollection = "import_records"

var ErrNotFound = errors.New("import record not found")

type Record struct {
	ID        any        `bson:"_id" json:"id"`
	UserID    *string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Count     int        `bson:"count" json:"count"`
	Status    string     `bson:"status" json:"status"`
	Errors    *string    `bson:"errors,omitempty" json:"errors,omitempty"`
	Type      string     `bson:"type" json:"type"`
	Path      *string    `bson:"path,omitempty" json:"path,omitempty"`
	Bucket    *string    `bson:"bucket,omitempty" json:"bucket,omitempty"`
	Key       *string    `bson:"key,omitempty" json:"key,omitempty"`
	SizeBytes *int64     `bson:"size_bytes,omitempty" json:"size_bytes,omitempty"`
	SHA256    string     `bson:"sha256,omitempty" json:"sha256,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// ListFilter narrows ListImportRecords. Zero fields match everything.
type ListFilter struct {
	Type   string
	Status string
	UserID string
}

func (f ListFilter) query() bson.M {
	q := bson.M{"deleted_at": bson.M{"$exists": false}}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.UserID != "" {
		q["user_id"] = f.UserID
	}
	return q
}

// Store keeps import records and their items in Mongo.
type Store struct {
	m   *mg.Mongo
	log *zap.Logger
}

func NewStore(m *mg.Mongo, log *zap.Logger) *Store {
	return &Store{m: m, log: logger.OrNop(log)}
}

func (s *Store) db() (*mongo.Database, error) {
	if s == nil || s.m == nil || s.m.Client == nil || s.m.Database == nil {
		return nil, mongo.ErrClientDisconnected
	}
	return s.m.Database, nil
}

// InsertImportRecord returns the hex id of the new record.
func (s *Store) InsertImportRecord(ctx context.Context, rec Record) (string, error) {
	db, err := s.db()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = StatusParsed
	}

	doc := bson.D{
		{Key: "user_id", Value: rec.UserID},
		{Key: "count", Value: rec.Count},
		{Key: "status", Value: rec.Status},
		{Key: "errors", Value: rec.Errors},
		{Key: "type", Value: rec.Type},
		{Key: "path", Value: rec.Path},
		{Key: "bucket", Value: rec.Bucket},
		{Key: "key", Value: rec.Key},
		{Key: "size_bytes", Value: rec.SizeBytes},
		{Key: "created_at", Value: rec.CreatedAt},
		{Key: "updated_at", Value: rec.UpdatedAt},
	}

	res, err := db.Collection(ImportRecordsCollection).InsertOne(ctx, doc, options.InsertOne())
	if err != nil {
		return "", err
	}
	return idString(res.InsertedID), nil
}

func (s *Store) FindImportRecordByID(ctx context.Context, id string) (Record, error) {
	var out Record
	db, err := s.db()
	if err != nil {
		return out, err
	}
	coll := db.Collection(ImportRecordsCollection)

	for _, key := range idCandidates(id) {
		err := coll.FindOne(ctx, bson.M{"_id": key}).Decode(&out)
		if err == nil {
			out.ID = idString(key)
			return out, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return out, err
		}
	}
	return out, ErrNotFound
}

func (s *Store) ListImportRecords(ctx context.Context, filter ListFilter, limit, skip int64) ([]Record, int64, error) {
	db, err := s.db()
	if err != nil {
		return nil, 0, err
	}
	coll := db.Collection(ImportRecordsCollection)
	q := filter.query()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if skip > 0 {
		opts.SetSkip(skip)
	}

	cur, err := coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	recs := make([]Record, 0)
	for cur.Next(ctx) {
		var r Record
		if err := cur.Decode(&r); err != nil {
			s.log.Warn("[IMPORTS] skip undecodable record", zap.Error(err))
			continue
		}
		r.ID = idString(r.ID)
		recs = append(recs, r)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}

	total, err := coll.CountDocuments(ctx, q)
	if err != nil {
		total = int64(len(recs))
	}
	return recs, total, nil
}

// UpdateImportRecordStatus sets the status and, when errText is not empty,
// the errors field.
func (s *Store) UpdateImportRecordStatus(ctx context.Context, importRecordID, status, errText string) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	if importRecordID == "" {
		return fmt.Errorf("empty importRecordID")
	}
	if status == "" {
		return fmt.Errorf("empty status")
	}

	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if errText != "" {
		set["errors"] = errText
	}
	return s.updateRecord(ctx, db, importRecordID, bson.M{"$set": set})
}

func (s *Store) UpdateImportRecordStatusDone(ctx context.Context, importRecordID string) error {
	return s.UpdateImportRecordStatus(ctx, importRecordID, StatusDone, "")
}

// AddImportRecordCount increments the processed row counter.
func (s *Store) AddImportRecordCount(ctx context.Context, importRecordID string, n int) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	if importRecordID == "" || n == 0 {
		return nil
	}
	return s.updateRecord(ctx, db, importRecordID, bson.M{
		"$inc": bson.M{"count": n},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
}

func (s *Store) updateRecord(ctx context.Context, db *mongo.Database, id string, update bson.M) error {
	coll := db.Collection(ImportRecordsCollection)
	for _, key := range idCandidates(id) {
		res, err := coll.UpdateOne(ctx, bson.M{"_id": key}, update)
		if err != nil {
			return err
		}
		if res.MatchedCount > 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// idCandidates lists the _id forms a record may be stored under: an
// ObjectID when the string is valid hex, then the raw string.
func idCandidates(id string) []any {
	id = strings.TrimSpace(id)
	out := make([]any, 0, 2)
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		out = append(out, oid)
	}
	return append(out, id)
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
