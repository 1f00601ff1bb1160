package mimedb

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
)

func TestDefault_UniqueExtension(t *testing.T) {
	assert := assert_.New(t)
	db := Default()

	ext, ok := db.UniqueExtension("application/pdf")
	assert.True(ok)
	assert.Equal("pdf", ext)

	// Parameters and case don't matter
	ext, ok = db.UniqueExtension("Application/ZIP; charset=binary")
	assert.True(ok)
	assert.Equal("zip", ext)

	// Several candidates: no answer
	_, ok = db.UniqueExtension("image/jpeg")
	assert.False(ok)
	_, ok = db.UniqueExtension("text/plain")
	assert.False(ok)

	// Unknown type: no answer
	_, ok = db.UniqueExtension("application/x-does-not-exist")
	assert.False(ok)
	_, ok = db.UniqueExtension("")
	assert.False(ok)
}

func TestDB_Extensions(t *testing.T) {
	assert := assert_.New(t)
	db := Default()

	assert.Equal([]string{"jpeg", "jpg", "jpe"}, db.Extensions("image/jpeg"))
	assert.Nil(db.Extensions("application/x-does-not-exist"))

	// Returned slices are copies
	exts := db.Extensions("image/jpeg")
	exts[0] = "changed"
	assert.Equal("jpeg", db.Extensions("image/jpeg")[0])
}

func TestLoad(t *testing.T) {
	require := require_.New(t)

	db, err := Load([]byte("application/x-thing: [.THING, ' ', th]\n"))
	require.NoError(err)
	require.Equal([]string{"thing", "th"}, db.Extensions("application/x-thing"))

	_, err = Load([]byte("not: [valid"))
	require.Error(err)
}
