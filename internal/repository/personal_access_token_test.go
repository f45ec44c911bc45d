package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPlainToken(t *testing.T) {
	id, secret := SplitPlainToken(" 12|abcdef ")
	require.NotNil(t, id)
	assert.Equal(t, int64(12), *id)
	assert.Equal(t, "abcdef", secret)

	id, secret = SplitPlainToken("abcdef")
	assert.Nil(t, id)
	assert.Equal(t, "abcdef", secret)

	id, secret = SplitPlainToken("x|abcdef")
	assert.Nil(t, id)
	assert.Equal(t, "abcdef", secret)

	id, secret = SplitPlainToken("|abcdef")
	assert.Nil(t, id)
	assert.Equal(t, "|abcdef", secret)
}

func TestHashToken(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashToken(""),
	)
	assert.Len(t, HashToken("secret"), 64)
}
