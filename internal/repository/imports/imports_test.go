package imports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestModelTypeForImport(t *testing.T) {
	mt, ok := ModelTypeForImport("import_collaborators")
	require.True(t, ok)
	assert.Equal(t, ModelTypeCollaborators, mt)

	mt, ok = ModelTypeForImport("import_companies")
	require.True(t, ok)
	assert.Equal(t, ModelTypeCompanies, mt)

	_, ok = ModelTypeForImport("import_debts")
	assert.False(t, ok)
}

func TestIDCandidates(t *testing.T) {
	oid := primitive.NewObjectID()

	got := idCandidates(" " + oid.Hex() + " ")
	require.Len(t, got, 2)
	assert.Equal(t, oid, got[0])
	assert.Equal(t, oid.Hex(), got[1])

	got = idCandidates("legacy-id")
	assert.Equal(t, []any{"legacy-id"}, got)
}

func TestIDString(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, oid.Hex(), idString(oid))
	assert.Equal(t, "abc", idString("abc"))
	assert.Equal(t, "", idString(nil))
	assert.Equal(t, "42", idString(int32(42)))
}

func TestListFilter(t *testing.T) {
	q := ListFilter{}.query()
	assert.Len(t, q, 1)
	assert.Contains(t, q, "deleted_at")

	q = ListFilter{Type: "import_companies", Status: StatusDone, UserID: "7"}.query()
	assert.Equal(t, "import_companies", q["type"])
	assert.Equal(t, StatusDone, q["status"])
	assert.Equal(t, "7", q["user_id"])
}

func TestStoreWithoutConnection(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)

	_, err := s.InsertImportRecord(ctx, Record{Type: "import_collaborators"})
	assert.ErrorIs(t, err, mongo.ErrClientDisconnected)

	_, err = s.FindImportRecordByID(ctx, "x")
	assert.ErrorIs(t, err, mongo.ErrClientDisconnected)

	assert.ErrorIs(t, s.UpdateImportRecordStatusDone(ctx, "x"), mongo.ErrClientDisconnected)
	assert.ErrorIs(t, s.InsertItem(ctx, Item{}), mongo.ErrClientDisconnected)

	assert.NotPanics(t, func() {
		s.LogMongoFail(ctx, LogParams{ModelType: ModelTypeCollaborators, Payload: map[string]string{"a": "b"}})
	})

	var nilStore *Store
	_, err = nilStore.ListItems(ctx, "x", 0, 0)
	assert.ErrorIs(t, err, mongo.ErrClientDisconnected)
}
