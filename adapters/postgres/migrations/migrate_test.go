package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMigrationFiles_SortsAndSkipsInvalid(t *testing.T) {
	m := NewMigratorFS(nil, fstest.MapFS{
		"010_later.sql":      {Data: []byte("SELECT 1;")},
		"002_second.sql":     {Data: []byte("SELECT 1;")},
		"001_first.sql":      {Data: []byte("SELECT 1;")},
		"README.md":          {Data: []byte("docs")},
		"noversion.sql":      {Data: []byte("SELECT 1;")},
		"nested/003_sub.sql": {Data: []byte("SELECT 1;")},
	}, nil)

	files, err := m.findMigrationFiles()
	require.NoError(t, err)

	versions := make([]string, 0, len(files))
	for _, f := range files {
		versions = append(versions, f.Version)
	}
	assert.Equal(t, []string{"001", "002", "003", "010"}, versions)
	assert.Equal(t, "nested/003_sub.sql", files[2].Path)
}

func TestEmbeddedSchema(t *testing.T) {
	m := NewMigrator(nil, nil)

	files, err := m.findMigrationFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001", files[0].Version)
	assert.Equal(t, "002", files[1].Version)
}

func TestCalculateChecksum(t *testing.T) {
	a := calculateChecksum([]byte("CREATE TABLE x ();"))
	b := calculateChecksum([]byte("CREATE TABLE x ();"))
	c := calculateChecksum([]byte("CREATE TABLE y ();"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
