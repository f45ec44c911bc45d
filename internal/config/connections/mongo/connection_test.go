package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURI(t *testing.T) {
	info := ConnectionInfo{User: "root", Password: "p@ss/word", Host: "db", Port: "27017", DB: "import_db", AuthSource: "admin"}
	assert.Equal(t, "mongodb://root:p%40ss%2Fword@db:27017/import_db?authSource=admin", info.URI())

	srv := ConnectionInfo{Scheme: "mongodb+srv", Host: "cluster.example.net", Port: "27017", DB: "x"}
	assert.Equal(t, "mongodb+srv://cluster.example.net/x", srv.URI())
}
