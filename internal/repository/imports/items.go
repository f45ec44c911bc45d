package imports

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const ImportRecordItemsCollection = "import_record_items"

type Item struct {
	ImportRecordID string    `bson:"import_record_id" json:"import_record_id"`
	ModelType      string    `bson:"model_type" json:"model_type"`
	ModelID        string    `bson:"model_id" json:"model_id"`
	Payload        string    `bson:"payload" json:"payload"`
	Status         string    `bson:"status" json:"status"`
	Errors         string    `bson:"errors" json:"errors"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

type LogParams struct {
	ImportRecordID string
	ModelType      ModelType
	ModelID        string
	Payload        map[string]string
	Status         string
	Errors         string
}

func (s *Store) InsertItem(ctx context.Context, item Item) error {
	db, err := s.db()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	doc := bson.D{
		{Key: "import_record_id", Value: item.ImportRecordID},
		{Key: "model_type", Value: item.ModelType},
		{Key: "model_id", Value: item.ModelID},
		{Key: "payload", Value: item.Payload},
		{Key: "status", Value: item.Status},
		{Key: "errors", Value: item.Errors},
		{Key: "created_at", Value: item.CreatedAt},
		{Key: "updated_at", Value: item.UpdatedAt},
	}

	_, err = db.Collection(ImportRecordItemsCollection).InsertOne(ctx, doc, options.InsertOne())
	return err
}

// ListItems returns the items of one import in insertion order.
func (s *Store) ListItems(ctx context.Context, importRecordID string, limit, skip int64) ([]Item, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if skip > 0 {
		opts.SetSkip(skip)
	}

	cur, err := db.Collection(ImportRecordItemsCollection).Find(ctx, bson.M{"import_record_id": importRecordID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]Item, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CountItems returns the number of items per status for one import.
func (s *Store) CountItems(ctx context.Context, importRecordID string) (map[string]int64, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{"import_record_id": importRecordID}},
		bson.M{"$group": bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}},
	}
	cur, err := db.Collection(ImportRecordItemsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}

// LogMongo records one row outcome. Failures to write are logged, never
// returned, so a Mongo hiccup cannot abort an import.
func (s *Store) LogMongo(ctx context.Context, p LogParams) {
	if _, err := s.db(); err != nil {
		return
	}

	b, _ := json.Marshal(p.Payload)

	if err := s.InsertItem(ctx, Item{
		ImportRecordID: p.ImportRecordID,
		ModelType:      string(p.ModelType),
		ModelID:        p.ModelID,
		Payload:        string(b),
		Status:         p.Status,
		Errors:         p.Errors,
	}); err != nil {
		s.log.Error("[PROC][MONGO][ERR] insert item",
			zap.String("model_type", string(p.ModelType)),
			zap.String("model_id", p.ModelID),
			zap.String("status", p.Status),
			zap.Error(err),
		)
	}
}

func (s *Store) LogMongoFail(ctx context.Context, p LogParams) {
	p.Status = ItemFailed
	s.LogMongo(ctx, p)
}
