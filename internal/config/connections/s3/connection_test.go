package s3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionStripsScheme(t *testing.T) {
	c, err := NewConnection(ConnectionInfo{Endpoint: "https://minio.local:9000/", Bucket: "imports"})
	require.NoError(t, err)
	assert.Equal(t, "minio.local:9000", c.Client.EndpointURL().Host)
	assert.Equal(t, "https", c.Client.EndpointURL().Scheme)
	assert.Equal(t, "s3://imports/a/b.xlsx", c.Path("/a/b.xlsx"))
}

func TestPingNeverCreatesBucket(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method)
		mu.Unlock()
		if r.URL.Path == "/present/" || r.URL.Path == "/present" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewConnection(ConnectionInfo{Endpoint: srv.URL, Bucket: "missing", Region: "eu-west-1"})
	require.NoError(t, err)

	err = c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `bucket "missing" does not exist`)

	c.Bucket = "present"
	require.NoError(t, c.Ping(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, methods, http.MethodPut)
}
